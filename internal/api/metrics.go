package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// evaluationsTotal counts evaluate requests by outcome.
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wuxing_evaluations_total",
		Help: "Total evaluate requests by result",
	}, []string{"result"})

	// evaluationDuration tracks pipeline latency.
	evaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wuxing_evaluation_duration_seconds",
		Help:    "Chart evaluation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~400ms
	})

	// dayMasterStrength counts evaluated charts by strength verdict.
	dayMasterStrength = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wuxing_day_master_strength_total",
		Help: "Evaluated charts by day-master strength",
	}, []string{"strength"})

	// rateLimited counts requests turned away with 429.
	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wuxing_rate_limited_total",
		Help: "Requests rejected by the per-IP rate limiter",
	})
)
