package project

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateRequest, createdBy string) Project {
	now := time.Now().UTC()

	var by *string
	if createdBy != "" {
		by = &createdBy
	}

	return Project{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		ProjectType: req.ProjectType,
		Budget:      req.Budget,
		Deadline:    req.Deadline.Time,
		Status:      StatusOpen,
		CreatedBy:   by,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply merges a partial update into p and reports whether anything changed.
func (p *Project) Apply(req UpdateRequest) bool {
	changed := false

	if req.Title != nil && *req.Title != p.Title {
		p.Title = *req.Title
		changed = true
	}
	if req.Description != nil && *req.Description != p.Description {
		p.Description = *req.Description
		changed = true
	}
	if req.ProjectType != nil && *req.ProjectType != p.ProjectType {
		p.ProjectType = *req.ProjectType
		changed = true
	}
	if req.Budget != nil {
		b := *req.Budget
		p.Budget = &b
		changed = true
	}
	if req.Deadline != nil && !req.Deadline.Time.Equal(p.Deadline) {
		p.Deadline = req.Deadline.Time
		changed = true
	}
	if req.Status != nil && *req.Status != p.Status {
		p.Status = *req.Status
		changed = true
	}

	if changed {
		p.UpdatedAt = time.Now().UTC()
	}

	return changed
}
