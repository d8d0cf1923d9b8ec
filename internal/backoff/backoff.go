package backoff

import (
	"math/rand"
	"time"
)

const (
	// growthCapExponent bounds exponential growth at 2^4 = 16x the base delay
	// so a long retry streak cannot produce unbounded waits before the cap
	// even kicks in.
	growthCapExponent = 4

	// minDelay is the floor applied after jitter.
	minDelay = time.Second
)

// Policy holds the bounds for exponential backoff between retries of a
// transient failure.
type Policy struct {
	Base   time.Duration
	Cap    time.Duration
	Jitter float64 // fraction of the delay spread symmetrically, in [0, 1)

	// Rand supplies the jitter source. Nil uses the shared package source;
	// tests inject a seeded source for determinism.
	Rand *rand.Rand
}

// Default returns the retry bounds used when configuration supplies none:
// 30s base, 5m cap, ±10% jitter.
func Default() Policy {
	return Policy{Base: 30 * time.Second, Cap: 5 * time.Minute, Jitter: 0.2}
}

// Delay computes the wait before retry number attempt (1-based). The
// unjittered delay grows as base * 2^(attempt-1) capped at 16x base, is
// clamped to the policy cap, then spread by ±jitter/2 and floored at one
// second. Delay never sleeps; the caller owns the wait.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := p.Base
	if base <= 0 {
		base = time.Second
	}

	exponent := attempt - 1
	if exponent > growthCapExponent {
		exponent = growthCapExponent
	}
	delay := base << uint(exponent)
	if p.Cap > 0 && delay > p.Cap {
		delay = p.Cap
	}

	if p.Jitter > 0 {
		// Uniform in [-jitter/2, +jitter/2) of the delay.
		offset := p.Jitter * (p.random() - 0.5)
		delay += time.Duration(offset * float64(delay))
	}

	if delay < minDelay {
		delay = minDelay
	}
	return delay
}

// Midpoint returns the unjittered delay for the attempt. Exposed so callers
// and tests can reason about growth independent of the random spread.
func (p Policy) Midpoint(attempt int) time.Duration {
	jitterless := p
	jitterless.Jitter = 0
	return jitterless.Delay(attempt)
}

func (p Policy) random() float64 {
	if p.Rand != nil {
		return p.Rand.Float64()
	}
	return rand.Float64()
}
