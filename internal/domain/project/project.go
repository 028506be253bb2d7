package project

import (
	"errors"
	"time"
)

const (
	StatusOpen        = "open"
	StatusUnderReview = "under_review"
	StatusAwarded     = "awarded"
	StatusClosed      = "closed"
)

const (
	TypeRepair       = "repair"
	TypeConstruction = "construction"
	TypeMaintenance  = "maintenance"
)

var (
	Statuses = []string{StatusOpen, StatusUnderReview, StatusAwarded, StatusClosed}
	Types    = []string{TypeRepair, TypeConstruction, TypeMaintenance}
)

var ErrNotFound = errors.New("project not found")

type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ProjectType string    `json:"project_type"`
	Budget      *float64  `json:"budget"`
	Deadline    time.Time `json:"deadline"`
	Status      string    `json:"status"`
	CreatedBy   *string   `json:"created_by,omitempty"`
	BidCount    int       `json:"bid_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsOpenForBids reports whether a candidate may still submit a bid at instant now.
func (p Project) IsOpenForBids(now time.Time) bool {
	return p.Status == StatusOpen && now.Before(p.Deadline)
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Status *string
	Type   *string
	Query  *string
	Limit  int

	// keyset position, newest first
	AfterCreatedAt *time.Time
	AfterID        string
}

type CreateRequest struct {
	Title       string    `json:"title" binding:"required,min=3,max=200"`
	Description string    `json:"description" binding:"required,max=5000"`
	ProjectType string    `json:"project_type" binding:"required,oneof=repair construction maintenance"`
	Budget      *float64  `json:"budget" binding:"omitempty,gte=0"`
	Deadline    *Deadline `json:"deadline" binding:"required"`
}

// UpdateRequest is a partial update: only the fields present in the body are applied.
type UpdateRequest struct {
	Title       *string   `json:"title" binding:"omitempty,min=3,max=200"`
	Description *string   `json:"description" binding:"omitempty,max=5000"`
	ProjectType *string   `json:"project_type" binding:"omitempty,oneof=repair construction maintenance"`
	Budget      *float64  `json:"budget" binding:"omitempty,gte=0"`
	Deadline    *Deadline `json:"deadline"`
	Status      *string   `json:"status" binding:"omitempty,oneof=open under_review awarded closed"`
}

func (r UpdateRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.ProjectType == nil &&
		r.Budget == nil && r.Deadline == nil && r.Status == nil
}

func IsValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

func IsValidType(t string) bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}
