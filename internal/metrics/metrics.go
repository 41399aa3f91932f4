// Package metrics declares the prometheus collectors shared across packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VotesSubmittedTotal counts accepted vote submissions.
	VotesSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "votes_submitted_total",
		Help: "Total accepted vote submissions",
	})

	// ChecksRecordedTotal counts status probes recorded through the bot API.
	ChecksRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checks_recorded_total",
		Help: "Total status checks recorded",
	})

	// RelaySubscribers tracks open realtime subscriptions per channel kind.
	RelaySubscribers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relay_subscribers",
		Help: "Open relay subscriptions by channel kind",
	}, []string{"kind"})

	// RelayEventsDroppedTotal counts events dropped because a subscriber
	// buffer was full.
	RelayEventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_events_dropped_total",
		Help: "Relay events dropped for slow subscribers",
	})
)
