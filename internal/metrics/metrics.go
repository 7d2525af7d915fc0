// Package metrics exposes Prometheus collectors for the recommendation service.
//
//	metrics.RecordBuild("ok", len(page.Themes), time.Since(start))
//	metrics.RecordCacheLookup(true)
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts served requests by route pattern, method and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mates_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mates_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// ThemeBuildsTotal counts page builds by outcome: ok, empty or error.
	ThemeBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mates_theme_builds_total",
			Help: "Total number of recommended theme page builds",
		},
		[]string{"outcome"},
	)

	ThemeBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mates_theme_build_duration_seconds",
			Help:    "Duration of recommended theme page builds in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	ThemesPerPage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mates_themes_per_page",
			Help:    "Number of themes returned per built page",
			Buckets: []float64{0, 1, 2, 3},
		},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mates_cache_lookups_total",
			Help: "Total number of theme page cache lookups",
		},
		[]string{"result"},
	)

	CacheErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mates_cache_errors_total",
			Help: "Total number of theme page cache failures",
		},
		[]string{"op"},
	)
)

func RecordHTTPRequest(route, method string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func RecordBuild(outcome string, themes int, d time.Duration) {
	ThemeBuildsTotal.WithLabelValues(outcome).Inc()
	ThemeBuildDuration.Observe(d.Seconds())
	if outcome != "error" {
		ThemesPerPage.Observe(float64(themes))
	}
}

func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

func RecordCacheError(op string) {
	CacheErrorsTotal.WithLabelValues(op).Inc()
}
