package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrInvalidDeadline = errors.New("deadline must be an ISO 8601 date or datetime")

// Deadline accepts the date formats HTML date and datetime-local inputs produce
// as well as full RFC 3339 timestamps. Dates without a zone are read as UTC.
type Deadline struct {
	time.Time
}

var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func ParseDeadline(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	for _, layout := range deadlineLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, ErrInvalidDeadline
}

func (d *Deadline) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return ErrInvalidDeadline
	}

	t, err := ParseDeadline(raw)
	if err != nil {
		return err
	}

	d.Time = t
	return nil
}

func (d Deadline) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.UTC().Format(time.RFC3339))
}
