package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_invocations_total",
		Help: "Emergency notifier invocations by result.",
	}, []string{"result"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_notifications_total",
		Help: "Per-responder dispatch attempts by outcome.",
	}, []string{"outcome"})

	RespondersSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_responders_skipped_total",
		Help: "Responders excluded from a dispatch, by reason.",
	}, []string{"reason"})

	FanoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_fanout_duration_seconds",
		Help:    "Time for all sends of one emergency request to settle.",
		Buckets: prometheus.DefBuckets,
	})

	ReaperDeletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reaper_deletions_total",
		Help: "Authentication identity deletions by result.",
	}, []string{"result"})
)

const (
	resultNoPayload      = "no_payload"
	resultUnconfigured   = "unconfigured"
	resultDirectoryError = "directory_error"
	resultNoResponders   = "no_responders"
	resultNoEligible     = "no_eligible"
	resultTemplateError  = "template_error"
	resultDispatched     = "dispatched"

	outcomeSent      = "sent"
	outcomeFailed    = "failed"
	outcomeDuplicate = "duplicate"

	reapDeleted  = "deleted"
	reapNotFound = "not_found"
	reapFailed   = "failed"
)
