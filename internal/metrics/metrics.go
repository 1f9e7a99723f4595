package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors of the server. Each instance owns
// its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	UsersCreated        prometheus.Counter
	GuidesGenerated     *prometheus.CounterVec
	UploadsFailed       prometheus.Counter
	AlertsSent          *prometheus.CounterVec
	EntitlementsGranted *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rightguard_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "status"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rightguard_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		UsersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "rightguard_users_created_total",
			Help: "Identity records created",
		}),
		GuidesGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rightguard_guides_generated_total",
			Help: "Legal guides generated on a cache miss, by whether they were cached",
		}, []string{"cached"}),
		UploadsFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "rightguard_media_uploads_failed_total",
			Help: "Recordings persisted without media because the upload failed",
		}),
		AlertsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rightguard_alerts_total",
			Help: "Alert deliveries by channel and resulting status",
		}, []string{"channel", "status"}),
		EntitlementsGranted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rightguard_entitlements_granted_total",
			Help: "Premium features unlocked, by feature key",
		}, []string{"feature"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// The recorders below are nil-safe so services can run without metrics.

func (m *Metrics) UserCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

func (m *Metrics) GuideGenerated(cached bool) {
	if m == nil {
		return
	}
	m.GuidesGenerated.WithLabelValues(strconv.FormatBool(cached)).Inc()
}

func (m *Metrics) UploadFailed() {
	if m == nil {
		return
	}
	m.UploadsFailed.Inc()
}

func (m *Metrics) AlertSent(channel, status string) {
	if m == nil {
		return
	}
	m.AlertsSent.WithLabelValues(channel, status).Inc()
}

func (m *Metrics) EntitlementGranted(feature string) {
	if m == nil {
		return
	}
	m.EntitlementsGranted.WithLabelValues(feature).Inc()
}
