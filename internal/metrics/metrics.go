// Package metrics exposes the pipeline's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestProcessed counts media records materialized from the queue.
	IngestProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "media_ingest_processed_total",
		Help: "Number of media records materialized from ingestion messages.",
	})

	// IngestFailed counts ingestion messages that errored, including ones
	// that will be retried.
	IngestFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "media_ingest_failed_total",
		Help: "Number of ingestion messages that failed processing.",
	})

	// ThumbnailsGenerated counts thumbnails written to the blob store.
	ThumbnailsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "media_thumbnails_generated_total",
		Help: "Number of thumbnails generated.",
	})

	// ThumbnailsFailed counts thumbnail generations that errored.
	ThumbnailsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "media_thumbnails_failed_total",
		Help: "Number of thumbnail generations that failed.",
	})

	// IndexOps counts documents written to the search index.
	IndexOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "media_index_operations_total",
		Help: "Number of search index write operations.",
	})

	// IndexFailures counts failed search index writes.
	IndexFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "media_index_failures_total",
		Help: "Number of failed search index write operations.",
	})
)
