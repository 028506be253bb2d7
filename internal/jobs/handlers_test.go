package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/geocoder89/tenderhub/internal/domain/bid"
	"github.com/geocoder89/tenderhub/internal/domain/delivery"
	"github.com/geocoder89/tenderhub/internal/domain/job"
	"github.com/geocoder89/tenderhub/internal/notifications"
)

type fakeBids struct {
	views map[string]bid.View
}

func (f fakeBids) GetView(ctx context.Context, id string) (bid.View, error) {
	v, ok := f.views[id]
	if !ok {
		return bid.View{}, bid.ErrNotFound
	}
	return v, nil
}

type fakeDeliveries struct {
	startErr error
	sent     []delivery.Key
	failed   []delivery.Key
}

func (f *fakeDeliveries) TryStart(ctx context.Context, k delivery.Key, jobID, recipient string) error {
	return f.startErr
}

func (f *fakeDeliveries) MarkSent(ctx context.Context, k delivery.Key, providerMessageID *string) error {
	f.sent = append(f.sent, k)
	return nil
}

func (f *fakeDeliveries) MarkFailed(ctx context.Context, k delivery.Key, errMsg string) error {
	f.failed = append(f.failed, k)
	return nil
}

type recordingNotifier struct {
	err      error
	receipts []notifications.BidReceipt
	notices  []notifications.BidStatusNotice
}

func (r *recordingNotifier) SendBidReceipt(ctx context.Context, in notifications.BidReceipt) error {
	r.receipts = append(r.receipts, in)
	return r.err
}

func (r *recordingNotifier) SendBidStatusNotice(ctx context.Context, in notifications.BidStatusNotice) error {
	r.notices = append(r.notices, in)
	return r.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bidView() bid.View {
	return bid.View{
		Bid:            bid.Bid{ID: "b1", ProjectID: "p1", CandidateID: "c1", ProposedAmount: 1000, Status: bid.StatusSubmitted},
		ProjectTitle:   "AC Repair",
		CompanyName:    "Test Company SARL",
		CandidateEmail: "test@company.dz",
	}
}

func submittedJob(t *testing.T, bidID string) job.Job {
	t.Helper()
	raw, err := EncodePayload(JobBidSubmitted, BidSubmittedPayload{
		BidID: bidID, ProjectID: "p1", CandidateID: "c1", RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return job.New(job.CreateRequest{Type: string(JobBidSubmitted), Payload: raw})
}

func TestHandleBidSubmitted_SendsReceipt(t *testing.T) {
	dl := &fakeDeliveries{}
	n := &recordingNotifier{}
	h := NewBidNotifications(fakeBids{views: map[string]bid.View{"b1": bidView()}}, dl, n, quietLogger())

	if err := h.HandleBidSubmitted(context.Background(), submittedJob(t, "b1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(n.receipts) != 1 || n.receipts[0].Email != "test@company.dz" {
		t.Fatalf("unexpected receipts %+v", n.receipts)
	}
	if len(dl.sent) != 1 || dl.sent[0].Kind != delivery.KindBidReceipt {
		t.Fatalf("delivery not marked sent: %+v", dl.sent)
	}
}

func TestHandleBidSubmitted_AlreadySentIsNoop(t *testing.T) {
	dl := &fakeDeliveries{startErr: delivery.ErrAlreadySent}
	n := &recordingNotifier{}
	h := NewBidNotifications(fakeBids{views: map[string]bid.View{"b1": bidView()}}, dl, n, quietLogger())

	if err := h.HandleBidSubmitted(context.Background(), submittedJob(t, "b1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.receipts) != 0 {
		t.Fatalf("notifier must not be called twice")
	}
}

func TestHandleBidSubmitted_ProviderFailure(t *testing.T) {
	dl := &fakeDeliveries{}
	n := &recordingNotifier{err: errors.New("provider down")}
	h := NewBidNotifications(fakeBids{views: map[string]bid.View{"b1": bidView()}}, dl, n, quietLogger())

	if err := h.HandleBidSubmitted(context.Background(), submittedJob(t, "b1")); err == nil {
		t.Fatalf("expected provider error to surface for retry")
	}
	if len(dl.failed) != 1 {
		t.Fatalf("delivery should be marked failed")
	}
}

func TestHandleBidSubmitted_DeletedBidIsPermanent(t *testing.T) {
	h := NewBidNotifications(fakeBids{}, &fakeDeliveries{}, &recordingNotifier{}, quietLogger())

	err := h.HandleBidSubmitted(context.Background(), submittedJob(t, "gone"))
	if !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload, got %v", err)
	}
}

func TestHandleBidStatusChanged_UsesStatusKey(t *testing.T) {
	dl := &fakeDeliveries{}
	n := &recordingNotifier{}
	h := NewBidNotifications(fakeBids{views: map[string]bid.View{"b1": bidView()}}, dl, n, quietLogger())

	raw, err := EncodePayload(JobBidStatusChanged, BidStatusChangedPayload{BidID: "b1", Status: bid.StatusAccepted, ChangedAt: time.Now()})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	j := job.New(job.CreateRequest{Type: string(JobBidStatusChanged), Payload: raw})
	if err := h.HandleBidStatusChanged(context.Background(), j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(n.notices) != 1 || n.notices[0].Status != bid.StatusAccepted {
		t.Fatalf("unexpected notices %+v", n.notices)
	}
	if dl.sent[0].BidStatus != bid.StatusAccepted {
		t.Fatalf("delivery key should carry the status, got %+v", dl.sent[0])
	}
}
