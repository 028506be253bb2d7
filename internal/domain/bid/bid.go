package bid

import (
	"errors"
	"time"

	"github.com/geocoder89/tenderhub/internal/domain/document"
)

const (
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under_review"
	StatusAccepted    = "accepted"
	StatusRejected    = "rejected"
)

var Statuses = []string{StatusSubmitted, StatusUnderReview, StatusAccepted, StatusRejected}

var (
	ErrNotFound         = errors.New("bid not found")
	ErrAlreadySubmitted = errors.New("bid already submitted for this project")
	ErrProjectNotOpen   = errors.New("project is not open for bidding")
	ErrDeadlinePassed   = errors.New("project deadline has passed")
)

type Bid struct {
	ID               string     `json:"id"`
	ProjectID        string     `json:"project_id"`
	CandidateID      string     `json:"candidate_id"`
	ProposedAmount   float64    `json:"proposed_amount"`
	ProposedTimeline string     `json:"proposed_timeline"`
	Status           string     `json:"status"`
	Notes            *string    `json:"notes"`
	SubmittedAt      time.Time  `json:"submitted_at"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// View is a bid joined with the labels the dashboards display next to it.
type View struct {
	Bid
	ProjectTitle   string              `json:"project_title"`
	CompanyName    string              `json:"company_name"`
	CandidateEmail string              `json:"-"`
	CandidateUser  string              `json:"-"`
	CreatedAt      time.Time           `json:"created_at"`
	Documents      []document.Document `json:"documents"`
}

// SubmitRequest binds both the multipart form the dashboard posts and a plain JSON body.
type SubmitRequest struct {
	ProjectID        string  `json:"-" form:"-"`
	CandidateID      string  `json:"-" form:"-"`
	ProposedAmount   float64 `json:"proposed_amount" form:"proposed_amount" binding:"required,gt=0"`
	ProposedTimeline string  `json:"proposed_timeline" form:"proposed_timeline" binding:"required,max=100"`
	Notes            string  `json:"notes" form:"notes" binding:"omitempty,max=2000"`
}

type UpdateStatusRequest struct {
	Status string  `json:"status" binding:"required,oneof=submitted under_review accepted rejected"`
	Notes  *string `json:"notes" binding:"omitempty,max=2000"`
}

type ListFilter struct {
	ProjectID   *string
	CandidateID *string
	Status      *string
}

func IsValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsDecision reports whether status is a final review outcome.
func IsDecision(status string) bool {
	return status == StatusAccepted || status == StatusRejected
}
