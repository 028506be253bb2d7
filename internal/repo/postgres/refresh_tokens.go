package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenInvalid  = errors.New("refresh token revoked, expired or mismatched")
)

type RefreshTokenRow struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *string
	CreatedAt  time.Time
}

type RefreshTokensRepo struct {
	base
}

func NewRefreshTokensRepo(pool *pgxpool.Pool, prom *observability.Prom) *RefreshTokensRepo {
	return &RefreshTokensRepo{base{pool: pool, prom: prom}}
}

func insertRefreshToken(ctx context.Context, q querier, row RefreshTokenRow) error {
	_, err := q.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		row.ID, row.UserID, row.TokenHash, row.ExpiresAt, row.RevokedAt, row.ReplacedBy, row.CreatedAt,
	)
	return err
}

func (r *RefreshTokensRepo) Create(ctx context.Context, row RefreshTokenRow) error {
	return r.observe("refresh_tokens.create", func() error {
		return insertRefreshToken(ctx, r.pool, row)
	})
}

// Rotate revokes the presented token and stores its replacement atomically.
// The old row is locked so two concurrent refreshes cannot both succeed.
func (r *RefreshTokensRepo) Rotate(ctx context.Context, oldID, oldHash string, next RefreshTokenRow) error {
	return r.observe("refresh_tokens.rotate", func() error {
		return r.inTx(ctx, func(tx pgx.Tx) error {
			var cur RefreshTokenRow

			err := tx.QueryRow(ctx, `
				SELECT id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at
				FROM refresh_tokens
				WHERE id = $1
				FOR UPDATE
			`, oldID).Scan(
				&cur.ID,
				&cur.UserID,
				&cur.TokenHash,
				&cur.ExpiresAt,
				&cur.RevokedAt,
				&cur.ReplacedBy,
				&cur.CreatedAt,
			)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return ErrRefreshTokenNotFound
				}
				return err
			}

			if cur.RevokedAt != nil || cur.TokenHash != oldHash || cur.UserID != next.UserID || time.Now().After(cur.ExpiresAt) {
				return ErrRefreshTokenInvalid
			}

			if err := insertRefreshToken(ctx, tx, next); err != nil {
				return err
			}

			_, err = tx.Exec(ctx, `
				UPDATE refresh_tokens
				SET revoked_at = NOW(), replaced_by = $2
				WHERE id = $1
			`, oldID, next.ID)
			return err
		})
	})
}

func (r *RefreshTokensRepo) Revoke(ctx context.Context, id string) error {
	return r.observe("refresh_tokens.revoke", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = NOW()
			WHERE id = $1 AND revoked_at IS NULL
		`, id)
		return err
	})
}

func (r *RefreshTokensRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	return r.observe("refresh_tokens.revoke_all", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = NOW()
			WHERE user_id = $1 AND revoked_at IS NULL
		`, userID)
		return err
	})
}
