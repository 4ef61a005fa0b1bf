package metrics

import (
	"github.com/bilal/speedcheck/internal/capture"
	"github.com/bilal/speedcheck/internal/interpret"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	interpretationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speedcheck_interpretations_total",
		Help: "Interpretations produced, by overall rating",
	}, []string{"overall_rating"})

	limitingFactorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speedcheck_limiting_factor_total",
		Help: "Interpretations by limiting factor",
	}, []string{"factor"})

	sessionEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speedcheck_session_events_total",
		Help: "Session events observed, by outcome",
	}, []string{"outcome"})

	measuredDownload = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speedcheck_download_mbps",
		Help:    "Download throughput of interpreted tests",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	measuredPing = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speedcheck_ping_ms",
		Help:    "Ping of interpreted tests",
		Buckets: []float64{5, 10, 20, 35, 50, 75, 100, 150, 300},
	})

	publishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speedcheck_publish_failures_total",
		Help: "Report batches dropped after exhausting retries, by sink",
	}, []string{"sink"})
)

// ObserveResult records one interpretation.
func ObserveResult(res interpret.Result) {
	interpretationsTotal.WithLabelValues(string(res.OverallRating)).Inc()
	limitingFactorTotal.WithLabelValues(string(res.LimitingFactor)).Inc()
	measuredDownload.Observe(res.Raw.Download)
	measuredPing.Observe(res.Raw.Ping)
}

// ObserveOutcome records what a session event did.
func ObserveOutcome(o capture.Outcome) {
	sessionEventsTotal.WithLabelValues(string(o)).Inc()
}

// PublishFailed records a dropped batch for sink.
func PublishFailed(sink string) {
	publishFailuresTotal.WithLabelValues(sink).Inc()
}
