// Package metrics exposes fleetdeck's own operational counters/gauges via
// Prometheus, grounded on netxfw-netxfw's package-level promauto var block
// style.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config is the metrics section of the configuration file. The HTTP server
// does not read it: Prometheus is always mounted at GET /metrics.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

var (
	// ActiveFollowers counts distinct followed file paths right now.
	ActiveFollowers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fleetdeck_active_followers",
		Help: "Number of log files currently being followed",
	})

	// FollowerSubscribers counts live-tail subscribers per followed file.
	FollowerSubscribers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleetdeck_follower_subscribers",
		Help: "Number of subscribers attached to a followed file",
	}, []string{"path"})

	// SubscriberOverflowTotal counts dropped lines from a full subscriber
	// queue (spec §4.7 backpressure).
	SubscriberOverflowTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetdeck_subscriber_overflow_total",
		Help: "Lines dropped because a subscriber's queue was full",
	}, []string{"path"})

	// TimeRangeCacheHitTotal/TimeRangeCacheMissTotal count C6 sidecar hits
	// and misses.
	TimeRangeCacheHitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetdeck_timerange_cache_hit_total",
		Help: "getTimeRange calls served entirely from the persisted sidecar",
	})
	TimeRangeCacheMissTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetdeck_timerange_cache_miss_total",
		Help: "getTimeRange calls that recomputed at least one bound",
	})

	// BinarySearchStepsTotal counts FindOffsetByTime loop iterations, a
	// direct probe of spec §8 property 6 (logarithmic step count).
	BinarySearchStepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetdeck_binary_search_steps_total",
		Help: "Total binary-search loop iterations across all FindOffsetByTime calls",
	})

	// PowerActionsTotal counts power actions by action and outcome.
	PowerActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetdeck_power_actions_total",
		Help: "Power actions executed, by action and outcome",
	}, []string{"action", "outcome"})
)
