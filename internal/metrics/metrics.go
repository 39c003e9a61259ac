// Package metrics records request and submission counters. All methods
// are fire-and-forget: implementations never block or propagate errors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink is the interface handlers record through.
type Sink interface {
	RequestCompleted(route string, status int, duration time.Duration)
	SubmissionReceived(kind string)
	CalendarServed(feed string)
}

// Submission kind constants.
const (
	KindPrayerRequest  = "prayer_request"
	KindContactMessage = "contact_message"
)

// NoopSink is used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

func NewNoopSink() *NoopSink { return &NoopSink{} }

func (n *NoopSink) RequestCompleted(route string, status int, duration time.Duration) {}
func (n *NoopSink) SubmissionReceived(kind string)                                    {}
func (n *NoopSink) CalendarServed(feed string)                                        {}

// PrometheusSink implements Sink with the Prometheus client library.
type PrometheusSink struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	submissionsTotal *prometheus.CounterVec
	calendarsTotal   *prometheus.CounterVec
}

// NewPrometheusSink registers the collectors on reg and returns the sink.
// Registration failures are ignored so duplicate registration in tests
// cannot take the process down.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "churchsite_http_requests_total",
			Help: "HTTP requests served, by route and status code.",
		}, []string{"route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "churchsite_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "churchsite_submissions_total",
			Help: "Form submissions accepted, by kind.",
		}, []string{"kind"}),
		calendarsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "churchsite_calendar_downloads_total",
			Help: "Calendar documents served, by feed.",
		}, []string{"feed"}),
	}

	for _, c := range []prometheus.Collector{
		s.requestsTotal, s.requestDuration, s.submissionsTotal, s.calendarsTotal,
	} {
		_ = reg.Register(c)
	}
	return s
}

func (s *PrometheusSink) RequestCompleted(route string, status int, duration time.Duration) {
	s.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	s.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (s *PrometheusSink) SubmissionReceived(kind string) {
	s.submissionsTotal.WithLabelValues(kind).Inc()
}

func (s *PrometheusSink) CalendarServed(feed string) {
	s.calendarsTotal.WithLabelValues(feed).Inc()
}
