package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/tenderhub/internal/domain/bid"
	"github.com/geocoder89/tenderhub/internal/domain/delivery"
	"github.com/geocoder89/tenderhub/internal/domain/job"
	"github.com/geocoder89/tenderhub/internal/notifications"
)

type BidReader interface {
	GetView(ctx context.Context, id string) (bid.View, error)
}

type DeliveryStore interface {
	TryStart(ctx context.Context, k delivery.Key, jobID, recipient string) error
	MarkSent(ctx context.Context, k delivery.Key, providerMessageID *string) error
	MarkFailed(ctx context.Context, k delivery.Key, errMsg string) error
}

// BidNotifications turns bid jobs into candidate notifications, at most once per bid and status.
type BidNotifications struct {
	bids       BidReader
	deliveries DeliveryStore
	notifier   notifications.Notifier
	log        *slog.Logger
}

func NewBidNotifications(bids BidReader, deliveries DeliveryStore, notifier notifications.Notifier, log *slog.Logger) *BidNotifications {
	return &BidNotifications{bids: bids, deliveries: deliveries, notifier: notifier, log: log}
}

func (h *BidNotifications) HandleBidSubmitted(ctx context.Context, j job.Job) error {
	decoded, err := DecodePayload(j)
	if err != nil {
		return err
	}
	p, ok := decoded.(BidSubmittedPayload)
	if !ok {
		return ErrPayloadTypeMismatch
	}

	v, err := h.loadBid(ctx, p.BidID)
	if err != nil {
		return err
	}

	k := delivery.Key{Kind: delivery.KindBidReceipt, BidID: v.ID}

	return h.deliver(ctx, j, k, v.CandidateEmail, func(ctx context.Context) error {
		return h.notifier.SendBidReceipt(ctx, notifications.BidReceipt{
			Email:          v.CandidateEmail,
			CompanyName:    v.CompanyName,
			ProjectTitle:   v.ProjectTitle,
			BidID:          v.ID,
			ProposedAmount: v.ProposedAmount,
		})
	})
}

func (h *BidNotifications) HandleBidStatusChanged(ctx context.Context, j job.Job) error {
	decoded, err := DecodePayload(j)
	if err != nil {
		return err
	}
	p, ok := decoded.(BidStatusChangedPayload)
	if !ok {
		return ErrPayloadTypeMismatch
	}

	v, err := h.loadBid(ctx, p.BidID)
	if err != nil {
		return err
	}

	// the notice reports the status the job was created for, even if the bid moved on since
	k := delivery.Key{Kind: delivery.KindBidStatusNotice, BidID: v.ID, BidStatus: p.Status}

	return h.deliver(ctx, j, k, v.CandidateEmail, func(ctx context.Context) error {
		return h.notifier.SendBidStatusNotice(ctx, notifications.BidStatusNotice{
			Email:        v.CandidateEmail,
			CompanyName:  v.CompanyName,
			ProjectTitle: v.ProjectTitle,
			BidID:        v.ID,
			Status:       p.Status,
			Notes:        v.Notes,
		})
	})
}

func (h *BidNotifications) loadBid(ctx context.Context, id string) (bid.View, error) {
	v, err := h.bids.GetView(ctx, id)
	if err != nil {
		if errors.Is(err, bid.ErrNotFound) {
			// the project (and its bids) may have been deleted after the job was queued
			return bid.View{}, fmt.Errorf("%w: bid %s no longer exists", ErrInvalidJobPayload, id)
		}
		return bid.View{}, err
	}
	return v, nil
}

func (h *BidNotifications) deliver(ctx context.Context, j job.Job, k delivery.Key, recipient string, send func(context.Context) error) error {
	if err := h.deliveries.TryStart(ctx, k, j.ID, recipient); err != nil {
		if errors.Is(err, delivery.ErrAlreadySent) {
			h.log.InfoContext(ctx, "notification.skipped_already_sent", "job_id", j.ID, "kind", k.Kind, "bid_id", k.BidID)
			return nil
		}
		return err
	}

	if err := send(ctx); err != nil {
		if mErr := h.deliveries.MarkFailed(ctx, k, err.Error()); mErr != nil {
			h.log.ErrorContext(ctx, "notification.mark_failed_error", "job_id", j.ID, "err", mErr)
		}
		return err
	}

	return h.deliveries.MarkSent(ctx, k, nil)
}
