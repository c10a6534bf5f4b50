package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by command.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheLookups counts cache-aside lookups by key family and outcome.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cache_lookups_total",
		Help: "Cache lookups by key family and result (hit, miss, error)",
	}, []string{"family", "result"})

	// EmailsSent counts outbound emails by template and outcome.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_emails_sent_total",
		Help: "Outbound emails by template and status (sent, failed)",
	}, []string{"template", "status"})

	// CatalogSearches counts list queries that carry a search term.
	CatalogSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_search_queries_total",
		Help: "Search queries by collection and whether anything matched",
	}, []string{"collection", "matched"})

	// AuthEvents counts account events such as signin failures and resets.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_auth_events_total",
		Help: "Account events by type",
	}, []string{"event"})

	// ImageUploads counts processed product image uploads by outcome.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_image_uploads_total",
		Help: "Product image uploads by status",
	}, []string{"status"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordEmail counts one delivery attempt.
func RecordEmail(template string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	EmailsSent.WithLabelValues(template, status).Inc()
}

// RecordSearch counts a search over a collection.
func RecordSearch(collection string, total int64) {
	matched := "true"
	if total == 0 {
		matched = "false"
	}
	CatalogSearches.WithLabelValues(collection, matched).Inc()
}
