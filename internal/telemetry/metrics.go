package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionWrites counts store writes by operation (save, soft_delete,
	// restore, hard_delete).
	SessionWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "utakai_session_writes_total",
		Help: "Session store writes by operation.",
	}, []string{"op"})

	// FeedPublishes counts full-collection broadcasts pushed to redis.
	FeedPublishes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utakai_feed_publishes_total",
		Help: "Collection change broadcasts published to the realtime feed.",
	})

	// RosterAppends counts names appended to the master roster.
	RosterAppends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utakai_roster_appends_total",
		Help: "Names appended to the master roster.",
	})
)
