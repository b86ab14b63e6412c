package metrics

import "testing"

// The package exposes global prometheus collectors; we can't assert their
// values without scraping the default registry, so these just confirm the
// exported surface doesn't panic under normal use.
func TestCollectors_DoNotPanic(t *testing.T) {
	ActiveFollowers.Inc()
	ActiveFollowers.Dec()

	FollowerSubscribers.WithLabelValues("/srv/web/logs/service.log").Inc()
	FollowerSubscribers.WithLabelValues("/srv/web/logs/service.log").Dec()

	SubscriberOverflowTotal.WithLabelValues("/srv/web/logs/service.log").Inc()

	TimeRangeCacheHitTotal.Inc()
	TimeRangeCacheMissTotal.Inc()
	BinarySearchStepsTotal.Inc()

	PowerActionsTotal.WithLabelValues("start", "ok").Inc()
	PowerActionsTotal.WithLabelValues("start", "error").Inc()
}

func TestConfig_ZeroValueIsDisabled(t *testing.T) {
	var cfg Config
	if cfg.Enabled {
		t.Fatal("expected the zero-value Config to be disabled")
	}
}
