package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrProviderDown = errors.New("notification provider down")

type LogNotifierConfig struct {
	// simulated provider latency and outage, handy when exercising the circuit breaker locally
	Delay time.Duration
	Fail  bool
}

// LogNotifier writes notifications to the structured log instead of a mail provider.
type LogNotifier struct {
	log *slog.Logger
	cfg LogNotifierConfig
}

func NewLogNotifier(log *slog.Logger, cfg LogNotifierConfig) *LogNotifier {
	return &LogNotifier{log: log, cfg: cfg}
}

func (n *LogNotifier) simulate(ctx context.Context) error {
	if n.cfg.Delay > 0 {
		select {
		case <-time.After(n.cfg.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if n.cfg.Fail {
		return ErrProviderDown
	}
	return nil
}

func (n *LogNotifier) SendBidReceipt(ctx context.Context, in BidReceipt) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.bid_receipt",
		"email", in.Email,
		"company", in.CompanyName,
		"project", in.ProjectTitle,
		"bid_id", in.BidID,
		"amount", in.ProposedAmount,
	)
	return nil
}

func (n *LogNotifier) SendBidStatusNotice(ctx context.Context, in BidStatusNotice) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.bid_status",
		"email", in.Email,
		"company", in.CompanyName,
		"project", in.ProjectTitle,
		"bid_id", in.BidID,
		"status", in.Status,
	)
	return nil
}
