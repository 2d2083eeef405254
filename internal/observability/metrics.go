// Package observability exposes prometheus counters for pipeline outcomes.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	activitiesIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trainload",
		Subsystem: "pipeline",
		Name:      "activities_ingested_total",
		Help:      "Number of activity records accepted by the ingest pipeline.",
	})

	validationSkips = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trainload",
		Subsystem: "pipeline",
		Name:      "validation_skips_total",
		Help:      "Number of incoming records skipped for failing validation.",
	})

	duplicatesMerged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trainload",
		Subsystem: "dedup",
		Name:      "duplicates_merged_total",
		Help:      "Number of duplicate activity records deleted in favor of a canonical one.",
	})

	ambiguousClusters = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trainload",
		Subsystem: "dedup",
		Name:      "ambiguous_clusters_total",
		Help:      "Number of duplicate clusters resolved only by the creation-time tie-break.",
	})

	seriesPointsWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trainload",
		Subsystem: "series",
		Name:      "points_written_total",
		Help:      "Number of load series points written by replays.",
	})

	bestEffortsImproved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trainload",
		Subsystem: "efforts",
		Name:      "improved_total",
		Help:      "Number of best-effort records replaced by strictly better values.",
	})

	itemFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trainload",
		Subsystem: "pipeline",
		Name:      "item_failures_total",
		Help:      "Number of per-item failures during batch runs, by stage.",
	}, []string{"stage"})
)

func init() {
	prometheus.MustRegister(
		activitiesIngested, validationSkips, duplicatesMerged, ambiguousClusters,
		seriesPointsWritten, bestEffortsImproved, itemFailures,
	)
}

// RecordIngested counts an accepted activity record.
func RecordIngested() {
	activitiesIngested.Inc()
}

// RecordValidationSkip counts a record rejected by validation.
func RecordValidationSkip() {
	validationSkips.Inc()
}

// RecordDuplicatesMerged counts records deleted by duplicate resolution.
func RecordDuplicatesMerged(n int) {
	duplicatesMerged.Add(float64(n))
}

// RecordAmbiguousCluster counts a cluster decided only by creation time.
func RecordAmbiguousCluster() {
	ambiguousClusters.Inc()
}

// RecordSeriesPointsWritten counts series points landed by a replay.
func RecordSeriesPointsWritten(n int) {
	seriesPointsWritten.Add(float64(n))
}

// RecordBestEffortImproved counts a strict improvement of a stored best.
func RecordBestEffortImproved() {
	bestEffortsImproved.Inc()
}

// RecordItemFailure counts a non-fatal per-item failure in a batch stage.
func RecordItemFailure(stage string) {
	itemFailures.WithLabelValues(stage).Inc()
}
