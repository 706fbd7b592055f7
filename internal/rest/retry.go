package rest

import (
	"math/rand"
	"sync"
	"time"
)

// RetryPolicy bounds retries for server and transport errors. 429 responses
// are handled separately: they wait out the reported reset and are bounded
// only by the caller's deadline.
type RetryPolicy struct {
	// MaxAttempts is the total attempt budget for retryable failures,
	// including the first attempt.
	MaxAttempts int

	// BaseDelay doubles per attempt up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// Jitter is the fraction of the computed delay added as extra random
	// wait, in (0, 1]. It only ever lengthens a delay, so backoff floors
	// hold while waiters still spread out after a shared reset.
	Jitter float64
}

// DefaultRetryPolicy matches the service's recommended client behavior.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    15 * time.Second,
		Jitter:      0.25,
	}
}

// Delay computes the backoff before the given retry. attempt counts completed
// attempts, so the first retry passes 1.
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	max := p.MaxDelay
	if max <= 0 {
		max = 15 * time.Second
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			delay = max
			break
		}
	}
	if delay > max {
		delay = max
	}

	if p.Jitter > 0 && p.Jitter <= 1 {
		spread := time.Duration(float64(delay) * p.Jitter)
		if spread > 0 {
			delay += time.Duration(jitterInt63n(int64(spread)))
			if delay > max {
				delay = max
			}
		}
	}
	return delay
}

func (p *RetryPolicy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

var (
	jitterMu   sync.Mutex
	jitterRand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func jitterInt63n(n int64) int64 {
	jitterMu.Lock()
	defer jitterMu.Unlock()
	return jitterRand.Int63n(n)
}
