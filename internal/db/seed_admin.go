package db

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/tenderhub/internal/config"
	"github.com/geocoder89/tenderhub/internal/domain/user"
	"github.com/geocoder89/tenderhub/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser creates the configured admin account when no user holds that email yet.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) (created bool, err error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	var dummy string
	err = pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.AdminEmail).Scan(&dummy)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return false, err
	}

	username := cfg.AdminUsername
	if username == "" {
		username = "admin"
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT DO NOTHING`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return false, err
	}

	return true, nil
}
