package worker

import (
	"math"
	"math/rand"
	"time"
)

const (
	backoffBase = 2 * time.Second
	backoffCap  = 5 * time.Minute
)

// ExponentialBackoff returns the delay before retry number attempt (0-based):
// 2s, 4s, 8s ... capped at 5m, plus up to 250ms of jitter.
func ExponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := time.Duration(float64(backoffBase) * math.Pow(2, float64(attempt)))
	if delay > backoffCap || delay <= 0 {
		delay = backoffCap
	}

	// jitter so a burst of failures does not retry in lockstep
	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}
