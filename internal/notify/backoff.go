package notify

import (
	"math/rand"
	"time"
)

// Default backoff configuration values.
const (
	DefaultBackoffInitial = 30 * time.Second
	DefaultBackoffMax     = 15 * time.Minute
)

// backoffDelay computes the delay before the next delivery attempt:
// exponential in the number of attempts already made, capped at max, with
// ±20% jitter so a channel outage does not produce synchronized retries.
func backoffDelay(attempts int, initial, max time.Duration) time.Duration {
	if initial <= 0 {
		initial = DefaultBackoffInitial
	}
	if max <= 0 {
		max = DefaultBackoffMax
	}

	d := initial
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= max {
			d = max
			break
		}
	}

	jitter := float64(d) * 0.2 * (rand.Float64()*2 - 1)
	return time.Duration(float64(d) + jitter)
}
