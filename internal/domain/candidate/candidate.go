package candidate

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("candidate profile not found")

// Candidate is the company profile attached to a user with the candidate role.
type Candidate struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	CompanyName        string    `json:"company_name"`
	Phone              string    `json:"phone,omitempty"`
	Address            string    `json:"address,omitempty"`
	RegistrationNumber string    `json:"registration_number,omitempty"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Username           string `json:"username" binding:"required,min=3,max=80"`
	Email              string `json:"email" binding:"required,email,max=120"`
	Password           string `json:"password" binding:"required,min=6,max=128"`
	CompanyName        string `json:"company_name" binding:"required,min=2,max=200"`
	Phone              string `json:"phone" binding:"omitempty,max=20"`
	Address            string `json:"address" binding:"omitempty,max=500"`
	RegistrationNumber string `json:"registration_number" binding:"omitempty,max=100"`
}
