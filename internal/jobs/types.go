package jobs

type JobType string

const (
	JobBidSubmitted     JobType = "bid.submitted"
	JobBidStatusChanged JobType = "bid.status_changed"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobBidSubmitted, JobBidStatusChanged:
		return true
	default:
		return false
	}
}

func (t JobType) String() string {
	return string(t)
}
