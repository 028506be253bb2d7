package bid

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

func NewFromSubmitRequest(req SubmitRequest) Bid {
	now := time.Now().UTC()

	var notes *string
	if n := strings.TrimSpace(req.Notes); n != "" {
		notes = &n
	}

	return Bid{
		ID:               uuid.NewString(),
		ProjectID:        req.ProjectID,
		CandidateID:      req.CandidateID,
		ProposedAmount:   req.ProposedAmount,
		ProposedTimeline: strings.TrimSpace(req.ProposedTimeline),
		Status:           StatusSubmitted,
		Notes:            notes,
		SubmittedAt:      now,
		UpdatedAt:        now,
	}
}
