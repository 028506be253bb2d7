package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// JobMetrics are the worker's in-process counters, served on its /stats endpoint.
// Prometheus carries the same outcomes for scraping; these survive without a scraper.
type JobMetrics struct {
	claimed      atomic.Uint64
	done         atomic.Uint64
	failed       atomic.Uint64
	retried      atomic.Uint64
	deadLettered atomic.Uint64

	// duration stats (nanoseconds)
	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64

	mu     sync.Mutex
	byType map[string]*TypeCounts
}

// TypeCounts is the outcome tally of one job type (bid.submitted, bid.status_changed).
type TypeCounts struct {
	Done    uint64 `json:"done"`
	Retried uint64 `json:"retried"`
	Failed  uint64 `json:"failed"`
}

func NewJobMetrics() *JobMetrics {
	return &JobMetrics{byType: make(map[string]*TypeCounts)}
}

func (m *JobMetrics) IncClaimed() {
	m.claimed.Add(1)
}

func (m *JobMetrics) IncDone(jobType string) {
	m.done.Add(1)
	m.bump(jobType, func(c *TypeCounts) { c.Done++ })
}

func (m *JobMetrics) IncRetried(jobType string) {
	m.retried.Add(1)
	m.bump(jobType, func(c *TypeCounts) { c.Retried++ })
}

// IncDeadLettered counts a job that will not be retried again.
func (m *JobMetrics) IncDeadLettered(jobType string) {
	m.failed.Add(1)
	m.deadLettered.Add(1)
	m.bump(jobType, func(c *TypeCounts) { c.Failed++ })
}

func (m *JobMetrics) bump(jobType string, fn func(*TypeCounts)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byType[jobType]
	if !ok {
		c = &TypeCounts{}
		m.byType[jobType] = c
	}
	fn(c)
}

func (m *JobMetrics) ObserveDuration(d time.Duration) {
	ns := d.Nanoseconds()
	m.durationCount.Add(1)
	m.durationTotal.Add(ns)

	for {
		curr := m.durationMax.Load()
		if ns <= curr {
			return
		}
		if m.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type JobMetricsSnapshot struct {
	Claimed         uint64
	Done            uint64
	Failed          uint64
	Retried         uint64
	DeadLettered    uint64
	DurationCount   uint64
	AverageDuration time.Duration
	MaxDuration     time.Duration
	ByType          map[string]TypeCounts
}

func (m *JobMetrics) Snapshot() JobMetricsSnapshot {
	count := m.durationCount.Load()
	total := m.durationTotal.Load()

	var avg time.Duration
	if count > 0 {
		avg = time.Duration(total / int64(count))
	}

	m.mu.Lock()
	byType := make(map[string]TypeCounts, len(m.byType))
	for k, v := range m.byType {
		byType[k] = *v
	}
	m.mu.Unlock()

	return JobMetricsSnapshot{
		Claimed:         m.claimed.Load(),
		Done:            m.done.Load(),
		Failed:          m.failed.Load(),
		Retried:         m.retried.Load(),
		DeadLettered:    m.deadLettered.Load(),
		DurationCount:   count,
		AverageDuration: avg,
		MaxDuration:     time.Duration(m.durationMax.Load()),
		ByType:          byType,
	}
}
