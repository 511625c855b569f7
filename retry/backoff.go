// Package retry retries operations that fail with a transient error, such as
// a cache refusing a put while it spills to its backing store or a remote
// cache server answering Unavailable. Delays grow exponentially with
// optional jitter.
package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// backoff returns the delay before retry number attempt (0-indexed), capped
// at cfg.MaxDelay before jitter is applied.
func backoff(cfg Config, attempt int) time.Duration {
	delay := min(float64(cfg.BaseDelay)*math.Pow(2, float64(attempt)), float64(cfg.MaxDelay))
	if cfg.Jitter > 0 {
		delay += delay * cfg.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(max(delay, 0))
}
