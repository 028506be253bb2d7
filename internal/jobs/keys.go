package jobs

// Idempotency keys. A bid gets one receipt, and one notice per status it moves to.

func BidSubmittedKey(bidID string) string {
	return "bid:submitted:" + bidID
}

func BidStatusChangedKey(bidID, status string) string {
	return "bid:status:" + bidID + ":" + status
}
