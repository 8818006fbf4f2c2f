package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aindependent"

var (
	llmRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Completion requests by model and outcome",
		},
		[]string{"model", "status"},
	)

	llmLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Completion latency including retries",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	schedulingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "scheduling_runs_total",
			Help:      "Scheduling runs by outcome (scheduled, capped, no_profile, error)",
		},
		[]string{"outcome"},
	)

	candidatesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "candidates_total",
			Help:      "Notification candidates by kind and whether they were selected",
		},
		[]string{"kind", "selected"},
	)

	deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "deliveries_total",
			Help:      "Delivery attempts by outcome",
		},
		[]string{"status"},
	)

	renderPaths = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "render_total",
			Help:      "Rendered notifications by content path (llm, template, template_fallback, generic)",
		},
		[]string{"path"},
	)

	apiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	apiLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	apiInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "inflight_requests",
		Help:      "HTTP requests currently being served",
	})

	sweepRuns = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "sweep_duration_seconds",
			Help:      "Background sweep duration by sweep and status",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"sweep", "status"},
	)

	insightsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "insights",
			Name:      "extracted_total",
			Help:      "Insights extracted from conversations by type",
		},
		[]string{"type"},
	)
)

func ObserveLLMRequest(model, status string, dur time.Duration) {
	llmRequests.WithLabelValues(model, status).Inc()
	llmLatency.WithLabelValues(model).Observe(dur.Seconds())
}

func IncSchedulingRun(outcome string) {
	schedulingRuns.WithLabelValues(outcome).Inc()
}

func IncCandidate(kind string, selected bool) {
	s := "false"
	if selected {
		s = "true"
	}
	candidatesGenerated.WithLabelValues(kind, s).Inc()
}

func IncDelivery(status string) {
	deliveries.WithLabelValues(status).Inc()
}

func IncRenderPath(path string) {
	renderPaths.WithLabelValues(path).Inc()
}

func IncInsightExtracted(insightType string) {
	insightsExtracted.WithLabelValues(insightType).Inc()
}

func ObserveAPI(method, route, status string, dur time.Duration) {
	apiRequests.WithLabelValues(method, route, status).Inc()
	apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func APIInflightInc() { apiInflight.Inc() }
func APIInflightDec() { apiInflight.Dec() }

func ObserveSweep(sweep, status string, dur time.Duration) {
	sweepRuns.WithLabelValues(sweep, status).Observe(dur.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
