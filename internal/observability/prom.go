package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tenderhub"

// Bid submission outcomes recorded on tenderhub_bids_submitted_total.
const (
	SubmitAccepted         = "accepted"
	SubmitInvalid          = "invalid"
	SubmitProjectNotFound  = "project_not_found"
	SubmitProjectNotOpen   = "project_not_open"
	SubmitDeadlinePassed   = "deadline_passed"
	SubmitDuplicate        = "duplicate"
	SubmitNoCandidate      = "candidate_not_found"
	SubmitDocumentRejected = "document_rejected"
	SubmitError            = "error"
)

// Prom is the set of collectors shared by the API and worker processes.
// Every recording method is safe on a nil *Prom.
type Prom struct {
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
	HTTPInFlight *prometheus.GaugeVec

	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	JobDuration  *prometheus.HistogramVec
	JobResults   *prometheus.CounterVec
	JobsInFlight prometheus.Gauge

	BidsSubmitted    *prometheus.CounterVec
	UploadRejections *prometheus.CounterVec
	ProjectsExpired  prometheus.Counter
}

var (
	latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	dbBuckets      = []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5}
	jobBuckets     = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}
)

func counterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
}

func histogramVec(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		HTTPRequests: counterVec("", "http_requests_total", "HTTP requests by route template and status.", "method", "route", "status"),
		HTTPLatency:  histogramVec("", "http_request_duration_seconds", "HTTP request latency by route template.", latencyBuckets, "method", "route", "status"),
		HTTPInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "http_in_flight_requests", Help: "HTTP requests currently being served.",
		}, []string{"method", "route"}),

		DbQueryDuration: histogramVec("db", "query_duration_seconds", "Repository operation latency by logical op.", dbBuckets, "op", "status"),
		DbErrorsTotal:   counterVec("db", "errors_total", "Repository errors by logical op and class.", "op", "class"),

		// result is done, retry or failed
		JobDuration: histogramVec("jobs", "duration_seconds", "Notification job run time by type and result.", jobBuckets, "job_type", "result"),
		JobResults:  counterVec("jobs", "results_total", "Notification job outcomes by type and result.", "job_type", "result"),
		JobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "jobs", Name: "in_flight", Help: "Jobs executing in this process.",
		}),

		BidsSubmitted:    counterVec("", "bids_submitted_total", "Bid submission attempts by outcome.", "outcome"),
		UploadRejections: counterVec("", "upload_rejections_total", "Rejected document uploads by reason.", "reason"),
		ProjectsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "projects_expired_total", Help: "Projects closed by the deadline sweep.",
		}),
	}

	reg.MustRegister(
		p.HTTPRequests, p.HTTPLatency, p.HTTPInFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.JobDuration, p.JobResults, p.JobsInFlight,
		p.BidsSubmitted, p.UploadRejections, p.ProjectsExpired,
	)
	return p
}

// BidSubmitted counts one submission attempt under one of the Submit* outcomes.
func (p *Prom) BidSubmitted(outcome string) {
	if p == nil {
		return
	}
	p.BidsSubmitted.WithLabelValues(outcome).Inc()
}

// UploadRejected counts a document refused before it reached storage.
func (p *Prom) UploadRejected(reason string) {
	if p == nil {
		return
	}
	p.UploadRejections.WithLabelValues(reason).Inc()
}

func (p *Prom) ProjectsSwept(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.ProjectsExpired.Add(float64(n))
}

func (p *Prom) ObserveJob(jobType, result string, d time.Duration) {
	if p == nil {
		return
	}
	p.JobResults.WithLabelValues(jobType, result).Inc()
	p.JobDuration.WithLabelValues(jobType, result).Observe(d.Seconds())
}

// HTTPMiddleware labels requests by route template so /api/projects/:id stays one series.
func (p *Prom) HTTPMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method

		inflight := p.HTTPInFlight.WithLabelValues(method, route)
		inflight.Inc()
		defer inflight.Dec()

		start := time.Now()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		p.HTTPRequests.WithLabelValues(method, route, status).Inc()
		p.HTTPLatency.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	}
}
