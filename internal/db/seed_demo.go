package db

import (
	"context"
	"time"

	"github.com/geocoder89/tenderhub/internal/domain/project"
	"github.com/geocoder89/tenderhub/internal/domain/user"
	"github.com/geocoder89/tenderhub/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	DemoCandidateEmail    = "test@company.dz"
	DemoCandidatePassword = "test123"
	DemoProjectTitle      = "Test Project - AC Repair"
)

type SeedResult struct {
	CandidateCreated bool
	ProjectCreated   bool
}

// SeedDemo inserts a demo candidate company and one open project when they are absent.
// Existing rows are left untouched.
func SeedDemo(ctx context.Context, pool *pgxpool.Pool) (SeedResult, error) {
	var res SeedResult

	hash, err := security.HashPassword(DemoCandidatePassword)
	if err != nil {
		return res, err
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return res, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	userID := uuid.NewString()

	tag, err := tx.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, 'test_company', $2, $3, $4, TRUE, $5, $5)
		ON CONFLICT DO NOTHING
	`, userID, DemoCandidateEmail, hash, user.RoleCandidate, now)
	if err != nil {
		return res, err
	}

	if tag.RowsAffected() == 1 {
		_, err = tx.Exec(ctx, `
			INSERT INTO candidates (id, user_id, company_name, phone, address, registration_number, status, created_at)
			VALUES ($1, $2, 'Test Company SARL', '0555123456', 'Blida, Algeria', 'RC123456', 'active', $3)
		`, uuid.NewString(), userID, now)
		if err != nil {
			return res, err
		}
		res.CandidateCreated = true
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE title = $1)`, DemoProjectTitle).Scan(&exists); err != nil {
		return res, err
	}

	if !exists {
		budget := 50000.0
		_, err = tx.Exec(ctx, `
			INSERT INTO projects (id, title, description, project_type, budget, deadline, status, created_at, updated_at)
			VALUES ($1, $2, 'Test project for demonstration', $3, $4, $5, $6, $7, $7)
		`, uuid.NewString(), DemoProjectTitle, project.TypeRepair, budget, now.AddDate(0, 0, 30), project.StatusOpen, now)
		if err != nil {
			return res, err
		}
		res.ProjectCreated = true
	}

	return res, tx.Commit(ctx)
}
