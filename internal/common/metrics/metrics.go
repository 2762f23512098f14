// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_queries_processed_total",
			Help: "Total number of assistant queries processed",
		},
		[]string{"intent", "outcome"},
	)

	ClassificationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_classification_fallbacks_total",
			Help: "Intent classifications that used the deterministic rule table",
		},
		[]string{"reason"},
	)

	SemanticFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_semantic_fallbacks_total",
			Help: "Requests answered via the semantic retriever",
		},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_query_duration_seconds",
			Help: "End-to-end duration of assistant query processing",
		},
		[]string{"intent"},
	)

	AuditWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_audit_write_failures_total",
			Help: "Audit record writes that failed",
		},
	)
)
