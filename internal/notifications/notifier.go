package notifications

import "context"

// BidReceipt confirms to a candidate that their bid was recorded.
type BidReceipt struct {
	Email          string
	CompanyName    string
	ProjectTitle   string
	BidID          string
	ProposedAmount float64
}

// BidStatusNotice tells a candidate an admin changed the status of their bid.
type BidStatusNotice struct {
	Email        string
	CompanyName  string
	ProjectTitle string
	BidID        string
	Status       string
	Notes        *string
}

type Notifier interface {
	SendBidReceipt(ctx context.Context, in BidReceipt) error
	SendBidStatusNotice(ctx context.Context, in BidStatusNotice) error
}
