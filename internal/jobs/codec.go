package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/geocoder89/tenderhub/internal/domain/job"
)

func EncodePayload(t JobType, payload any) (json.RawMessage, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	if err := ValidatePayload(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return json.RawMessage(b), nil
}

// DecodePayload unmarshals job.Payload into the correct typed payload struct.
func DecodePayload(j job.Job) (any, error) {
	t := JobType(j.Type)

	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	var out any

	switch t {
	case JobBidSubmitted:
		var p BidSubmittedPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		out = p

	case JobBidStatusChanged:
		var p BidStatusChangedPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		out = p

	default:
		return nil, ErrInvalidJobType
	}

	if err := ValidatePayload(t, out); err != nil {
		return nil, err
	}

	return out, nil
}
