package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is a keyset position: the ordering timestamp plus the row id as a tiebreaker.
type Cursor struct {
	At time.Time `json:"at"`
	ID string    `json:"id"`
}

func EncodeCursor(at time.Time, id string) (string, error) {
	b, err := json.Marshal(Cursor{At: at, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, ErrInvalidCursor
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	if c.ID == "" || c.At.IsZero() {
		return Cursor{}, ErrInvalidCursor
	}
	return c, nil
}
