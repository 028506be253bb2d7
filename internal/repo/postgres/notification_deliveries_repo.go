package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/tenderhub/internal/domain/delivery"
	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationDeliveriesRepo struct {
	base
}

func NewNotificationDeliveriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *NotificationDeliveriesRepo {
	return &NotificationDeliveriesRepo{base{pool: pool, prom: prom}}
}

// TryStart claims the right to send the notification identified by k.
// It returns delivery.ErrAlreadySent or delivery.ErrInProgress when another attempt owns it.
func (r *NotificationDeliveriesRepo) TryStart(ctx context.Context, k delivery.Key, jobID, recipient string) error {
	return r.observe("notification_deliveries.try_start", func() error {
		// 1) insert if missing
		_, err := r.pool.Exec(ctx, `
			INSERT INTO notification_deliveries (kind, bid_id, bid_status, job_id, recipient, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 'sending', NOW(), NOW())
		`, k.Kind, k.BidID, k.BidStatus, jobID, recipient)
		if err == nil {
			return nil
		}
		if !IsUniqueViolation(err) {
			return err
		}

		// 2) a failed row can be claimed again; only one worker wins the flip
		tag, err := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'sending',
			    job_id = $4,
			    recipient = $5,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE kind = $1 AND bid_id = $2 AND bid_status = $3 AND status = 'failed'
		`, k.Kind, k.BidID, k.BidStatus, jobID, recipient)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			return nil
		}

		// 3) already sent, or someone is sending right now
		var status string
		var sentAt *time.Time

		err = r.pool.QueryRow(ctx, `
			SELECT status, sent_at
			FROM notification_deliveries
			WHERE kind = $1 AND bid_id = $2 AND bid_status = $3
		`, k.Kind, k.BidID, k.BidStatus).Scan(&status, &sentAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// row vanished; let the job retry
				return nil
			}
			return err
		}

		if sentAt != nil || status == "sent" {
			return delivery.ErrAlreadySent
		}
		return delivery.ErrInProgress
	})
}

func (r *NotificationDeliveriesRepo) MarkSent(ctx context.Context, k delivery.Key, providerMessageID *string) error {
	return r.observe("notification_deliveries.mark_sent", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'sent',
			    sent_at = NOW(),
			    provider_message_id = $4,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE kind = $1 AND bid_id = $2 AND bid_status = $3
		`, k.Kind, k.BidID, k.BidStatus, providerMessageID)
		return err
	})
}

func (r *NotificationDeliveriesRepo) MarkFailed(ctx context.Context, k delivery.Key, errMsg string) error {
	return r.observe("notification_deliveries.mark_failed", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'failed',
			    last_error = $4,
			    updated_at = NOW()
			WHERE kind = $1 AND bid_id = $2 AND bid_status = $3
		`, k.Kind, k.BidID, k.BidStatus, errMsg)
		return err
	})
}
