package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meditrack"

// PrometheusRecorder exports metrics through a dedicated registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	users          prometheus.Counter
	loginFailures  prometheus.Counter
	medicines      *prometheus.CounterVec
	alertsCreated  prometheus.Counter
	alertsAnswered *prometheus.CounterVec
	historyCache   *prometheus.CounterVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheus builds a recorder with Go and process collectors registered.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := &PrometheusRecorder{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		users: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Accounts registered.",
		}),
		loginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_failures_total",
			Help:      "Rejected login attempts.",
		}),
		medicines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "medicine_changes_total",
			Help:      "Medicine registry mutations by operation.",
		}, []string{"op"}),
		alertsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_triggered_total",
			Help:      "Alerts created by trigger.",
		}),
		alertsAnswered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_confirmed_total",
			Help:      "Alert confirmations by status.",
		}, []string{"status"}),
		historyCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_cache_requests_total",
			Help:      "History cache lookups by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		p.httpRequests, p.httpDuration, p.users, p.loginFailures,
		p.medicines, p.alertsCreated, p.alertsAnswered, p.historyCache,
	)
	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncUserRegistered() { p.users.Inc() }
func (p *PrometheusRecorder) IncLoginFailed() { p.loginFailures.Inc() }
func (p *PrometheusRecorder) IncMedicineCreated() { p.medicines.WithLabelValues("create").Inc() }
func (p *PrometheusRecorder) IncMedicineUpdated() { p.medicines.WithLabelValues("update").Inc() }
func (p *PrometheusRecorder) IncMedicineDeleted() { p.medicines.WithLabelValues("delete").Inc() }
func (p *PrometheusRecorder) IncAlertTriggered() { p.alertsCreated.Inc() }

func (p *PrometheusRecorder) IncAlertConfirmed(status string) {
	p.alertsAnswered.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncHistoryCacheHit() { p.historyCache.WithLabelValues("hit").Inc() }
func (p *PrometheusRecorder) IncHistoryCacheMiss() { p.historyCache.WithLabelValues("miss").Inc() }
