// Package retrypolicy computes the implicit per-component backoff spec
// §4.3 describes: "an operator only acts if now - last_action.last_updated
// >= backoff(attempts)". It does not retry anything itself; operators
// consult it to decide whether to skip a component this pass.
package retrypolicy

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Calculator turns an attempt count and a retry-policy level into the
// minimum wait since the last action. retryPolicy scales the base
// backoff the way the Python source's retry_policy field does: higher
// policy values widen the backoff curve for components that need more
// patience (e.g. slow-booting hardware classes).
type Calculator struct {
	base *backoff.ExponentialBackOff
}

// NewCalculator builds a Calculator around an exponential backoff curve
// capped at maxInterval, matching tink/controller's use of
// backoff.ExponentialBackOff with a bounded MaxInterval.
func NewCalculator(initialInterval, maxInterval time.Duration) *Calculator {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialInterval
	b.MaxInterval = maxInterval
	return &Calculator{base: b}
}

// Wait returns the minimum duration that must elapse since last_action
// before the next attempt, for the given attempt count and retry policy.
// attempts == 0 always yields zero (act immediately on a fresh component).
func (c *Calculator) Wait(attempts, retryPolicy int) time.Duration {
	if attempts <= 0 {
		return 0
	}
	scale := retryPolicy
	if scale <= 0 {
		scale = 1
	}

	var total time.Duration
	interval := c.base.InitialInterval
	for i := 0; i < attempts; i++ {
		total += interval
		interval = time.Duration(float64(interval) * c.base.Multiplier)
		if interval > c.base.MaxInterval {
			interval = c.base.MaxInterval
		}
	}
	if cap := c.base.MaxInterval * time.Duration(attempts) * time.Duration(scale); total*time.Duration(scale) > cap {
		return cap
	}
	return total * time.Duration(scale)
}

// Ready reports whether enough time has elapsed since lastUpdated for the
// next attempt to be taken, given attempts already made.
func (c *Calculator) Ready(lastUpdated *time.Time, attempts, retryPolicy int, now time.Time) bool {
	if lastUpdated == nil {
		return true
	}
	return now.Sub(*lastUpdated) >= c.Wait(attempts, retryPolicy)
}
