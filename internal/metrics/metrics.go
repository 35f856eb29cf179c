package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Purchase lifecycle counters, labelled by the transition performed.
var (
	PurchaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "releaf_purchase_transitions_total",
		Help: "Purchase lifecycle transitions by action.",
	}, []string{"action"})

	PurchaseConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "releaf_purchase_conflicts_total",
		Help: "Purchase attempts rejected because an active purchase exists.",
	})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "releaf_messages_sent_total",
		Help: "Messages posted to conversations.",
	})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "releaf_notifications_created_total",
		Help: "Notifications created by type.",
	}, []string{"type"})
)
