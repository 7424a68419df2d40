package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration     *prometheus.HistogramVec
	externalErrors      *prometheus.CounterVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	emails              *prometheus.CounterVec
	quizAttempts        *prometheus.CounterVec
	statusTransitions   *prometheus.CounterVec
	dispatchAssignments prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bfa_request_duration_seconds",
				Help:    "Duration of HTTP requests by route pattern.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "code"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		emails: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_emails_total",
				Help: "Emails handled by the relay, by outcome.",
			},
			[]string{"status"},
		),
		quizAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_quiz_attempts_total",
				Help: "Quiz submissions by bank and result.",
			},
			[]string{"bank", "result"},
		),
		statusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_status_transitions_total",
				Help: "Onboarding status transitions by target status.",
			},
			[]string{"to"},
		),
		dispatchAssignments: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bfa_dispatch_assignments_total",
				Help: "Companies assigned to fixers.",
			},
		),
	}
}

// RecordRequestDuration records the duration of one HTTP request.
func (m *Metrics) RecordRequestDuration(method, route string, code int, d time.Duration) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrEmail counts an email outcome: sent, failed, received, opened.
func (m *Metrics) IncrEmail(status string) {
	m.emails.WithLabelValues(status).Inc()
}

// IncrQuizAttempt counts a graded quiz.
func (m *Metrics) IncrQuizAttempt(bank string, passed bool) {
	result := "fail"
	if passed {
		result = "pass"
	}
	m.quizAttempts.WithLabelValues(bank, result).Inc()
}

// IncrStatusTransition counts a profile moving to status.
func (m *Metrics) IncrStatusTransition(to domain.Status) {
	m.statusTransitions.WithLabelValues(string(to)).Inc()
}

// AddDispatchAssignments counts assigned companies.
func (m *Metrics) AddDispatchAssignments(n int) {
	m.dispatchAssignments.Add(float64(n))
}

// HTTPMiddleware observes request duration labelled with the chi route
// pattern, so path parameters do not explode cardinality.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RecordRequestDuration(r.Method, route, status, time.Since(start))
	})
}

// Snapshot returns the counters shown on the admin dashboard.
func (m *Metrics) Snapshot() *domain.OpsMetrics {
	hits := counterValue(m.cacheHits.WithLabelValues("token"))
	misses := counterValue(m.cacheMisses.WithLabelValues("token"))
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	passes := counterValue(m.quizAttempts.WithLabelValues("framework", "pass")) +
		counterValue(m.quizAttempts.WithLabelValues("validation", "pass"))
	failures := counterValue(m.quizAttempts.WithLabelValues("framework", "fail")) +
		counterValue(m.quizAttempts.WithLabelValues("validation", "fail"))

	return &domain.OpsMetrics{
		EmailsSent:          int64(counterValue(m.emails.WithLabelValues("sent"))),
		EmailsFailed:        int64(counterValue(m.emails.WithLabelValues("failed"))),
		EmailsReceived:      int64(counterValue(m.emails.WithLabelValues("received"))),
		EmailsOpened:        int64(counterValue(m.emails.WithLabelValues("opened"))),
		QuizPasses:          int64(passes),
		QuizFailures:        int64(failures),
		DispatchAssignments: int64(counterValue(m.dispatchAssignments)),
		TokenCacheHitRate:   hitRate,
		Period:              "since_start",
	}
}

// counterValue extracts the current float64 value of a counter.
func counterValue(c prometheus.Counter) float64 {
	pb := &dto.Metric{}
	if err := c.Write(pb); err != nil {
		return 0
	}
	if pb.Counter != nil && pb.Counter.Value != nil {
		return *pb.Counter.Value
	}
	return 0
}
