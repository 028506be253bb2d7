package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/tenderhub/internal/domain/candidate"
	"github.com/geocoder89/tenderhub/internal/domain/user"
	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	base
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{base{pool: pool, prom: prom}}
}

const userColumns = `id, username, email, password_hash, role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := r.observe("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
		return err
	})
	return u, err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	err := r.observe("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})
	return u, err
}

// RegisterCandidate creates the user row and its company profile in one transaction.
func (r *UsersRepo) RegisterCandidate(ctx context.Context, req candidate.RegisterRequest, passwordHash string) (user.User, candidate.Candidate, error) {
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         user.RoleCandidate,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c := candidate.Candidate{
		ID:                 uuid.NewString(),
		UserID:             u.ID,
		CompanyName:        req.CompanyName,
		Phone:              req.Phone,
		Address:            req.Address,
		RegistrationNumber: req.RegistrationNumber,
		Status:             "active",
		CreatedAt:          now,
	}

	err := r.observe("users.register_candidate", func() error {
		return r.inTx(ctx, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx,
				`INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt,
			)
			if err != nil {
				return err
			}

			_, err = tx.Exec(ctx,
				`INSERT INTO candidates (id, user_id, company_name, phone, address, registration_number, status, created_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				c.ID, c.UserID, c.CompanyName, c.Phone, c.Address, c.RegistrationNumber, c.Status, c.CreatedAt,
			)
			return err
		})
	})

	if err != nil {
		switch uniqueConstraint(err) {
		case "users_email_key":
			return user.User{}, candidate.Candidate{}, user.ErrEmailTaken
		case "users_username_key":
			return user.User{}, candidate.Candidate{}, user.ErrUsernameTaken
		}
		return user.User{}, candidate.Candidate{}, err
	}

	return u, c, nil
}

func (r *UsersRepo) GetCandidateByUserID(ctx context.Context, userID string) (candidate.Candidate, error) {
	var c candidate.Candidate

	err := r.observe("candidates.get_by_user", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, user_id, company_name, phone, address, registration_number, status, created_at
			FROM candidates
			WHERE user_id = $1
		`, userID).Scan(
			&c.ID, &c.UserID, &c.CompanyName, &c.Phone, &c.Address, &c.RegistrationNumber, &c.Status, &c.CreatedAt,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return candidate.Candidate{}, candidate.ErrNotFound
		}
		return candidate.Candidate{}, err
	}
	return c, nil
}
