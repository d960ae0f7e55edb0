package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	SessionEvents  *prometheus.CounterVec
	QuestionsAsked prometheus.Counter
	AnalyzerErrors *prometheus.CounterVec
	GatewayErrors  *prometheus.CounterVec
	AnswerLatency  prometheus.Histogram
	AnswerScores   prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of interview sessions currently running or paused.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events by type.",
		}, []string{"event"}),
		QuestionsAsked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_asked_total",
			Help:      "Questions spoken to candidates.",
		}),
		AnalyzerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyzer_errors_total",
			Help:      "Answer-analysis failures by analyzer.",
		}, []string{"analyzer"}),
		GatewayErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_errors_total",
			Help:      "External collaborator errors by service.",
		}, []string{"service"}),
		AnswerLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_latency_seconds",
			Help:      "Wall-clock time from question asked to answer accepted.",
			Buckets:   []float64{5, 10, 15, 20, 30, 40, 45, 60},
		}),
		AnswerScores: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_scores",
			Help:      "Content scores of analyzed answers.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		}),
	}
}

func (m *Metrics) ObserveAnswerLatency(d time.Duration) {
	m.AnswerLatency.Observe(d.Seconds())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
