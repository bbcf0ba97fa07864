// Package metrics exposes Prometheus collectors for the citation sync service.
package metrics

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stages timed by ObserveStage.
const (
	StageDownload  = "download"
	StageParse     = "parse"
	StagePageCount = "pagecount"
)

// Outcome labels shared by the collectors.
const (
	OutcomeOK          = "ok"
	OutcomeFailed      = "failed"
	OutcomeWritten     = "written"
	OutcomeSkipped     = "skipped"
	OutcomeWriteFailed = "write_failed"
)

var (
	rowsTotal           *prometheus.CounterVec
	sheetPagesTotal     *prometheus.CounterVec
	stageDuration       *prometheus.HistogramVec
	downloadBytesTotal  *prometheus.CounterVec
	sheetWritesTotal    *prometheus.CounterVec
	lastRunTimestampSec prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		rowsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "citesync_rows_total",
				Help: "Total number of selected rows, labeled by sheet page and outcome.",
			},
			[]string{"page", "outcome"},
		)

		sheetPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "citesync_sheet_pages_total",
				Help: "Total number of sheet pages processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		stageDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "citesync_stage_duration_seconds",
				Help:    "Histogram of per-row stage latencies, labeled by stage and outcome.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"stage", "outcome"},
		)

		downloadBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "citesync_download_bytes_total",
				Help: "Total number of document bytes downloaded, labeled by site.",
			},
			[]string{"site"},
		)

		sheetWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "citesync_sheet_writes_total",
				Help: "Total number of sheet range writes, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		lastRunTimestampSec = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "citesync_last_run_timestamp_seconds",
				Help: "Unix time at which the last batch run finished.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "citesync_http_requests_total",
				Help: "Requests served by the metrics listener, labeled by method, route, and status code.",
			},
			[]string{"method", "route", "code"},
		)

		httpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "citesync_http_request_duration_seconds",
				Help:    "Latency of requests served by the metrics listener.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObserveRow counts a selected row by page and outcome.
func ObserveRow(page, outcome string) {
	rowsTotal.WithLabelValues(page, outcome).Inc()
}

// ObserveSheetPage counts a processed sheet page.
func ObserveSheetPage(outcome string) {
	sheetPagesTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records the latency of one pipeline stage.
func ObserveStage(stage, outcome string, duration time.Duration) {
	stageDuration.WithLabelValues(stage, outcome).Observe(duration.Seconds())
}

// ObserveDownload records the size of a downloaded document.
func ObserveDownload(rawURL string, bytesFetched int) {
	if bytesFetched > 0 {
		downloadBytesTotal.WithLabelValues(SanitizeSite(rawURL)).Add(float64(bytesFetched))
	}
}

// ObserveSheetWrite counts a sheet write.
func ObserveSheetWrite(outcome string) {
	sheetWritesTotal.WithLabelValues(outcome).Inc()
}

// MarkRunFinished stamps the completion time of a batch run.
func MarkRunFinished(at time.Time) {
	lastRunTimestampSec.Set(float64(at.Unix()))
}
