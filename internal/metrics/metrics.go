// Package metrics exposes Prometheus collectors for the crawl pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_pages_total",
			Help: "Listing pages fetched, labeled by chain and outcome.",
		},
		[]string{"chain", "outcome"},
	)
	productsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_products_total",
			Help: "Products flowing out of normalization, labeled by outcome.",
		},
		[]string{"chain", "outcome"},
	)
	productsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_products_dropped_total",
			Help: "Products intentionally dropped, labeled by reason.",
		},
		[]string{"chain", "reason"},
	)
	translationLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_translation_lookups_total",
			Help: "Translation cache lookups, labeled hit or miss.",
		},
		[]string{"result"},
	)
	upsertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_upserts_total",
			Help: "Bulk upsert results per collection.",
		},
		[]string{"collection", "kind"},
	)
	workItemsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crawler_work_items_in_flight",
			Help: "Work items currently being processed.",
		},
	)
	runDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crawler_run_duration_seconds",
			Help:    "Wall-clock duration of complete crawl runs.",
			Buckets: prometheus.ExponentialBuckets(30, 2, 10),
		},
		[]string{"chain", "status"},
	)
)

// IncPage records one listing page fetch outcome ("ok", "error").
func IncPage(chain, outcome string) {
	pagesTotal.WithLabelValues(chain, outcome).Inc()
}

// IncProduct records one normalization outcome ("ok", "skip", "error").
func IncProduct(chain, outcome string) {
	productsTotal.WithLabelValues(chain, outcome).Inc()
}

// IncDropped records an intentional drop, e.g. an unmapped category.
func IncDropped(chain, reason string) {
	productsDroppedTotal.WithLabelValues(chain, reason).Inc()
}

// IncTranslationLookup records a translation cache hit or miss.
func IncTranslationLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	translationLookupsTotal.WithLabelValues(result).Inc()
}

// AddUpserts records bulk write counts for one collection.
func AddUpserts(collection string, upserted, modified, failed int) {
	upsertsTotal.WithLabelValues(collection, "upserted").Add(float64(upserted))
	upsertsTotal.WithLabelValues(collection, "modified").Add(float64(modified))
	upsertsTotal.WithLabelValues(collection, "failed").Add(float64(failed))
}

// WorkItemStarted increments the in-flight work item gauge.
func WorkItemStarted() { workItemsInFlight.Inc() }

// WorkItemDone decrements the in-flight work item gauge.
func WorkItemDone() { workItemsInFlight.Dec() }

// ObserveRunDuration records a completed run's wall-clock time.
func ObserveRunDuration(chain, status string, seconds float64) {
	runDurationSeconds.WithLabelValues(chain, status).Observe(seconds)
}
