// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CitationDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citation_detections_total",
			Help: "Detector verdicts by winning strategy",
		},
		[]string{"strategy", "cited"},
	)

	CitationDetectionFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citation_detection_fallbacks_total",
			Help: "Detections answered by the simplified fallback",
		},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "LLM provider calls by outcome",
		},
		[]string{"provider", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM provider call latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		},
		[]string{"provider"},
	)

	CitationSearchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citation_search_queries_total",
			Help: "Queries processed by the citation search workflow",
		},
		[]string{"status"},
	)
)

// Search query statuses.
const (
	QueryStatusCited    = "cited"
	QueryStatusNotCited = "not_cited"
	QueryStatusFailed   = "failed"
)

// RecordDetection counts one detector verdict.
func RecordDetection(strategy string, cited bool, fallback bool) {
	CitationDetections.WithLabelValues(strategy, strconv.FormatBool(cited)).Inc()
	if fallback {
		CitationDetectionFallbacks.Inc()
	}
}

// RecordLLMRequest counts one provider call and observes its latency.
func RecordLLMRequest(provider string, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	LLMRequests.WithLabelValues(provider, status).Inc()
	LLMRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}
