package jobs

import (
	"strings"

	"github.com/geocoder89/tenderhub/internal/domain/bid"
)

// ValidatePayload performs minimal validation on decoded payloads.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	trim := func(s string) string { return strings.TrimSpace(s) }

	switch t {
	case JobBidSubmitted:
		var p BidSubmittedPayload
		switch v := payload.(type) {
		case BidSubmittedPayload:
			p = v
		case *BidSubmittedPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.BidID) == "" || trim(p.ProjectID) == "" || trim(p.CandidateID) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	case JobBidStatusChanged:
		var p BidStatusChangedPayload
		switch v := payload.(type) {
		case BidStatusChangedPayload:
			p = v
		case *BidStatusChangedPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.BidID) == "" || !bid.IsValidStatus(p.Status) {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
