package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/geocoder89/tenderhub/internal/domain/job"
)

func TestEncodeDecode_BidSubmitted(t *testing.T) {
	payload := BidSubmittedPayload{
		BidID:       "bid-123",
		ProjectID:   "project-456",
		CandidateID: "candidate-789",
		RequestedAt: time.Now().UTC(),
	}

	b, err := EncodePayload(JobBidSubmitted, payload)
	if err != nil {
		t.Fatalf("EncodePayload error: %v", err)
	}

	j := job.New(job.CreateRequest{Type: string(JobBidSubmitted), Payload: b})

	decoded, err := DecodePayload(j)
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	p, ok := decoded.(BidSubmittedPayload)
	if !ok {
		t.Fatalf("expected BidSubmittedPayload, got %T", decoded)
	}

	if p.BidID != payload.BidID || p.ProjectID != payload.ProjectID {
		t.Fatalf("payload mismatch: %+v", p)
	}
}

func TestEncodePayload_TypeMismatch(t *testing.T) {
	_, err := EncodePayload(JobBidSubmitted, BidStatusChangedPayload{
		BidID:  "b1",
		Status: "accepted",
	})
	if !errors.Is(err, ErrPayloadTypeMismatch) {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestValidatePayload_RequiredFields(t *testing.T) {
	if err := ValidatePayload(JobBidSubmitted, BidSubmittedPayload{BidID: "b1"}); err == nil {
		t.Fatalf("expected error for missing project/candidate ids")
	}

	if err := ValidatePayload(JobBidStatusChanged, BidStatusChangedPayload{BidID: "b1", Status: "approved"}); err == nil {
		t.Fatalf("expected error for unknown bid status")
	}

	if err := ValidatePayload(JobBidStatusChanged, &BidStatusChangedPayload{BidID: "b1", Status: "accepted"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodePayload_UnknownType(t *testing.T) {
	_, err := DecodePayload(job.Job{Type: "event.publish", Payload: []byte(`{}`)})
	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}

func TestPermanent(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrInvalidJobType, true},
		{fmt.Errorf("decode: %w", ErrInvalidJobPayload), true},
		{ErrPayloadTypeMismatch, true},
		{context.DeadlineExceeded, false},
		{errors.New("smtp timeout"), false},
	}

	for _, tt := range tests {
		if got := Permanent(tt.err); got != tt.want {
			t.Errorf("Permanent(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
