package metrics

import (
	"net/http"
	"strconv"
	"time"

	"exam-quiz-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the service's Prometheus collectors. It satisfies
// app.Observer and api.FetchObserver.
type Recorder struct {
	registry *prometheus.Registry

	sessionsActive  prometheus.Gauge
	quizzesStarted  prometheus.Counter
	quizzesFinished *prometheus.CounterVec
	scorePercent    prometheus.Histogram
	fetchTotal      *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quiz_sessions_active",
			Help: "Number of open quiz sessions",
		}),
		quizzesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_attempts_started_total",
			Help: "Total number of quiz attempts started",
		}),
		quizzesFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempts_finished_total",
				Help: "Total number of quiz attempts finished",
			},
			[]string{"reason"},
		),
		scorePercent: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_score_percent",
			Help:    "Distribution of final scores as a percentage",
			Buckets: []float64{20, 40, 60, 70, 80, 90, 100},
		}),
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_api_fetch_total",
				Help: "Total number of quiz API fetches",
			},
			[]string{"endpoint", "outcome"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quiz_api_fetch_duration_seconds",
				Help:    "Duration of quiz API fetches",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"endpoint"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
	}
	r.registry.MustRegister(
		r.sessionsActive,
		r.quizzesStarted,
		r.quizzesFinished,
		r.scorePercent,
		r.fetchTotal,
		r.fetchDuration,
		r.requestTotal,
		collectors.NewGoCollector(),
	)
	return r
}

func (r *Recorder) SessionOpened() { r.sessionsActive.Inc() }

func (r *Recorder) SessionClosed() { r.sessionsActive.Dec() }

func (r *Recorder) QuizStarted() { r.quizzesStarted.Inc() }

func (r *Recorder) QuizFinished(report domain.ScoreReport) {
	reason := "submitted"
	if report.TimedOut {
		reason = "timeout"
	}
	r.quizzesFinished.WithLabelValues(reason).Inc()
	if report.TotalQuestions > 0 {
		r.scorePercent.Observe(float64(report.CorrectCount) / float64(report.TotalQuestions) * 100)
	}
}

// ObserveFetch records the outcome of one quiz API call.
func (r *Recorder) ObserveFetch(endpoint string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.fetchTotal.WithLabelValues(endpoint, outcome).Inc()
	r.fetchDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveRequest counts one served HTTP request.
func (r *Recorder) ObserveRequest(method, endpoint string, status int) {
	r.requestTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
