package dashboard

// Stats is the admin dashboard counter set.
type Stats struct {
	TotalProjects   int `json:"total_projects"`
	OpenProjects    int `json:"open_projects"`
	TotalBids       int `json:"total_bids"`
	PendingBids     int `json:"pending_bids"`
	UnderReviewBids int `json:"under_review_bids"`
	AcceptedBids    int `json:"accepted_bids"`
	RejectedBids    int `json:"rejected_bids"`
	TotalCandidates int `json:"total_candidates"`
}
