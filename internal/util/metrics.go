package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_processed_total",
		Help: "Total number of scraped items accepted by validation",
	})

	ItemsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "items_dropped_total",
		Help: "Total number of scraped items rejected by validation",
	}, []string{"reason"})

	ItemsIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_ingested_total",
		Help: "Total number of items persisted to the store",
	})

	IngestFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_failed_total",
		Help: "Total number of items that failed to persist",
	}, []string{"step"})

	PricePointsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "price_points_created_total",
		Help: "Total number of price history observations appended",
	})

	PriceChangesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "price_changes_detected_total",
		Help: "Total number of significant price changes published",
	})

	CategoriesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "categories_created_total",
		Help: "Total number of category nodes created by the resolver",
	})

	KeywordSightingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keyword_sightings_total",
		Help: "Total number of availability keyword sightings recorded",
	})

	IngestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_latency_seconds",
		Help:    "Latency of per-item ingestion",
		Buckets: prometheus.DefBuckets,
	})

	CategoryResolveLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "category_resolve_latency_seconds",
		Help:    "Latency of category path resolution",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
