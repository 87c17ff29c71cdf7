package monitoring

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = time.Minute

// Checker refreshes the data gauges in the background.
type Checker struct {
	collector *Collector
	metrics   *Metrics
	interval  time.Duration
	clock     clockwork.Clock
}

// NewChecker creates a background refresher.
func NewChecker(collector *Collector, metrics *Metrics, interval time.Duration, clock clockwork.Clock) *Checker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Checker{collector: collector, metrics: metrics, interval: interval, clock: clock}
}

// Run publishes a snapshot immediately and then on every tick. It blocks
// until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting metrics refresher", zap.Duration("interval", c.interval))

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	c.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("metrics refresher stopped")
			return
		case <-ticker.Chan():
			c.Refresh(ctx)
		}
	}
}

// Refresh collects and publishes one snapshot.
func (c *Checker) Refresh(ctx context.Context) {
	snap, err := c.collector.Collect(ctx)
	if err != nil {
		zap.L().Warn("monitoring: failed to collect snapshot", zap.Error(err))
		return
	}
	c.metrics.Publish(snap)
}
