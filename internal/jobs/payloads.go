package jobs

import "time"

// BidSubmittedPayload asks the worker to send a submission receipt to the candidate.
// Keep payload minimal and ID-based; worker will load details from DB.
type BidSubmittedPayload struct {
	BidID       string    `json:"bidId"`
	ProjectID   string    `json:"projectId"`
	CandidateID string    `json:"candidateId"`
	RequestedAt time.Time `json:"requestedAt"`
	RequestID   string    `json:"requestId,omitempty"` // optional: correlation
}

// BidStatusChangedPayload notifies the candidate that an admin reviewed the bid.
type BidStatusChangedPayload struct {
	BidID     string    `json:"bidId"`
	Status    string    `json:"status"`
	ChangedBy string    `json:"changedBy,omitempty"`
	ChangedAt time.Time `json:"changedAt"`
	RequestID string    `json:"requestId,omitempty"`
}
