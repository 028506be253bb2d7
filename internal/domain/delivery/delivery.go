package delivery

import "errors"

const (
	KindBidReceipt      = "bid.receipt"
	KindBidStatusNotice = "bid.status_notice"
)

var (
	ErrAlreadySent = errors.New("notification already sent")
	ErrInProgress  = errors.New("notification send in progress")
)

// Key identifies one logical notification. BidStatus is empty for receipts.
type Key struct {
	Kind      string
	BidID     string
	BidStatus string
}
