package handler

import (
	"bufio"
	"fmt"
	"net/http"

	"github.com/Ayushbunkar/Meditrack/internal/metrics"
)

// MetricsHandler renders the in-memory recorder as Prometheus text. The
// Prometheus backend serves its own registry instead.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

type sample struct {
	labels string
	value  any
}

type family struct {
	name, help, kind string
	samples          []sample
}

func families(s metrics.Snapshot) []family {
	one := func(v any) []sample { return []sample{{value: v}} }
	return []family{
		{"meditrack_http_requests_total", "HTTP requests served.", "counter", one(s.HTTPRequests)},
		{"meditrack_http_server_errors_total", "HTTP responses with a 5xx status.", "counter", one(s.HTTPServerErrors)},
		{"meditrack_http_request_duration_seconds_sum", "Total time spent serving requests.", "counter",
			one(fmt.Sprintf("%.6f", float64(s.HTTPDurationTotalNs)/1e9))},
		{"meditrack_users_registered_total", "Accounts created.", "counter", one(s.UsersRegistered)},
		{"meditrack_login_failures_total", "Rejected login attempts.", "counter", one(s.LoginsFailed)},
		{"meditrack_medicine_changes_total", "Medicine writes by operation.", "counter", []sample{
			{`{op="create"}`, s.MedicinesCreated},
			{`{op="update"}`, s.MedicinesUpdated},
			{`{op="delete"}`, s.MedicinesDeleted},
		}},
		{"meditrack_alerts_triggered_total", "Alerts raised by reminder clients.", "counter", one(s.AlertsTriggered)},
		{"meditrack_alerts_confirmed_total", "Alert answers by outcome.", "counter", []sample{
			{`{status="taken"}`, s.AlertsTaken},
			{`{status="missed"}`, s.AlertsMissed},
		}},
		{"meditrack_history_cache_requests_total", "History cache lookups by result.", "counter", []sample{
			{`{result="hit"}`, s.HistoryCacheHits},
			{`{result="miss"}`, s.HistoryCacheMisses},
		}},
	}
}

// Metrics serves GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, _ *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	bw := bufio.NewWriter(w)
	for _, f := range families(h.snapshotter.Snapshot()) {
		fmt.Fprintf(bw, "# HELP %s %s\n# TYPE %s %s\n", f.name, f.help, f.name, f.kind)
		for _, s := range f.samples {
			fmt.Fprintf(bw, "%s%s %v\n", f.name, s.labels, s.value)
		}
	}
	_ = bw.Flush()
}
