package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var updatesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "groupbot_updates_received",
	Help: "Number of updates handled, by event kind",
}, []string{"kind"})

var updatesIgnored = promauto.NewCounter(prometheus.CounterOpts{
	Name: "groupbot_updates_ignored",
	Help: "Number of updates that produced no event",
})

var updatePanics = promauto.NewCounter(prometheus.CounterOpts{
	Name: "groupbot_update_panics",
	Help: "Number of updates whose handling panicked",
})

var decisionErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "groupbot_decision_errors",
	Help: "Number of updates whose decision returned an error",
})

var actionsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "groupbot_actions_dispatched",
	Help: "Number of platform actions performed, by kind",
}, []string{"kind"})

var actionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "groupbot_actions_failed",
	Help: "Number of platform actions that failed, by kind and error class",
}, []string{"kind", "err"})

var aiResponses = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "groupbot_ai_responses",
	Help: "Number of AI replies, by outcome",
}, []string{"outcome"})

var aiDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "groupbot_ai_duration_seconds",
	Help:    "Time spent waiting for AI completions",
	Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
})

var pendingDeletions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "groupbot_pending_deletions",
	Help: "Number of sent messages waiting for scheduled deletion",
})
