package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Bucket tracks quota state for one bucket key and serializes access to it.
//
// Exactly one request may hold the bucket's in-flight slot at a time; waiters
// queue in FIFO submission order. Buckets created by one Manager share its
// mutex so a bucket can be merged into another when header reconciliation
// reveals they are the same remote bucket: the merged record forwards every
// operation to the canonical one, held slots included. A merge can leave the
// canonical record with more than one holder for requests that were already
// in flight; no new dispatch is admitted until all of them drain.
type Bucket struct {
	mu *sync.Mutex

	// Key is the locally resolved bucket key. Hash is the canonical bucket
	// identifier reported by the service, empty until first observed.
	Key  string
	Hash string

	limit     int
	remaining int
	reset     time.Time
	known     bool

	inflight int
	waiters  []*waiter

	// fwd points at the canonical bucket after a merge. All state lives
	// there; this record only exists so held handles keep working.
	fwd *Bucket

	clock func() time.Time
}

type waiter struct {
	ready   chan struct{}
	granted bool
}

func newBucket(key string, clock func() time.Time) *Bucket {
	return &Bucket{Key: key, mu: &sync.Mutex{}, clock: clock}
}

// latest follows the forwarding chain to the canonical bucket. Callers must
// hold mu.
func (b *Bucket) latest() *Bucket {
	for b.fwd != nil {
		b = b.fwd
	}
	return b
}

// mergeInto hands this bucket's holders and waiters to target and forwards
// all later operations there. Callers must hold mu, and both buckets must
// share it.
func (b *Bucket) mergeInto(target *Bucket) {
	target.inflight += b.inflight
	target.waiters = append(target.waiters, b.waiters...)
	b.inflight = 0
	b.waiters = nil
	b.fwd = target
}

// Acquire blocks until the caller holds the bucket's in-flight slot and the
// bucket has capacity. front queues the caller ahead of existing waiters,
// used when a dispatched request must be requeued after a 429.
//
// On success the caller owns the slot and must call Release exactly once. On
// error the slot has already been handed to the next waiter.
func (b *Bucket) Acquire(ctx context.Context, front bool) error {
	b.mu.Lock()
	cur := b.latest()
	if cur.inflight == 0 && len(cur.waiters) == 0 {
		cur.inflight++
		b.mu.Unlock()
		return b.waitCapacity(ctx)
	}

	w := &waiter{ready: make(chan struct{})}
	if front {
		cur.waiters = append([]*waiter{w}, cur.waiters...)
	} else {
		cur.waiters = append(cur.waiters, w)
	}
	b.mu.Unlock()

	select {
	case <-w.ready:
		return b.waitCapacity(ctx)
	case <-ctx.Done():
		b.mu.Lock()
		if w.granted {
			// Lost the race: the slot was handed to us as the context
			// expired. Pass it on so the queue keeps draining.
			b.mu.Unlock()
			b.Release()
			return ctx.Err()
		}
		cur := b.latest()
		for i, queued := range cur.waiters {
			if queued == w {
				cur.waiters = append(cur.waiters[:i], cur.waiters[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		return ctx.Err()
	}
}

// Release gives up the in-flight slot, waking the next queued waiter once no
// other holder remains.
func (b *Bucket) Release() {
	b.mu.Lock()
	cur := b.latest()
	if cur.inflight > 0 {
		cur.inflight--
	}
	if cur.inflight == 0 && len(cur.waiters) > 0 {
		next := cur.waiters[0]
		cur.waiters = cur.waiters[1:]
		cur.inflight++
		next.granted = true
		close(next.ready)
	}
	b.mu.Unlock()
}

// Wait re-checks capacity while already holding the slot, used before a
// retry re-dispatches. On error the slot has been handed to the next waiter.
func (b *Bucket) Wait(ctx context.Context) error {
	return b.waitCapacity(ctx)
}

// waitCapacity holds the slot until the bucket can admit a dispatch: either
// quota state is unknown (the holder is the probe that will learn it) or
// remaining is positive or the reset time has passed. Capacity is always
// read from the canonical bucket, so a handle acquired before a merge
// observes freezes applied after it.
func (b *Bucket) waitCapacity(ctx context.Context) error {
	for {
		b.mu.Lock()
		cur := b.latest()
		now := cur.now()
		if cur.known && cur.remaining <= 0 && !now.Before(cur.reset) {
			// Window refreshed while nobody was dispatching.
			cur.remaining = cur.limit
		}
		var wait time.Duration
		if cur.known && cur.remaining <= 0 {
			wait = cur.reset.Sub(now)
		}
		if wait <= 0 {
			if cur.known && cur.remaining > 0 {
				cur.remaining--
			}
			b.mu.Unlock()
			return nil
		}
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			b.Release()
			return ctx.Err()
		}
	}
}

// update applies observed quota state. Called by the store with data parsed
// from response headers; only a slot holder's response reaches here.
func (b *Bucket) update(h Headers) {
	b.mu.Lock()
	cur := b.latest()
	cur.limit = h.Limit
	cur.remaining = h.Remaining
	cur.reset = h.Reset
	cur.known = true
	if h.Bucket != "" {
		cur.Hash = h.Bucket
	}
	b.mu.Unlock()
}

// degrade drops the bucket back to unknown state, re-serializing subsequent
// requests until a parseable response is observed again.
func (b *Bucket) degrade() {
	b.mu.Lock()
	cur := b.latest()
	cur.known = false
	cur.limit = 0
	cur.remaining = 0
	cur.reset = time.Time{}
	b.mu.Unlock()
}

// freeze marks the bucket exhausted until the given time, used for 429
// responses whose retry-after exceeds any header-reported reset.
func (b *Bucket) freeze(until time.Time) {
	b.mu.Lock()
	cur := b.latest()
	if cur.limit == 0 {
		cur.limit = 1
	}
	cur.remaining = 0
	if until.After(cur.reset) {
		cur.reset = until
	}
	cur.known = true
	b.mu.Unlock()
}

// Snapshot returns a copy of the bucket's quota state.
func (b *Bucket) Snapshot() BucketState {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := b.latest()
	return BucketState{
		Key:       cur.Key,
		Hash:      cur.Hash,
		Limit:     cur.limit,
		Remaining: cur.remaining,
		Reset:     cur.reset,
		Known:     cur.known,
	}
}

func (b *Bucket) restore(state BucketState) {
	b.mu.Lock()
	cur := b.latest()
	cur.Hash = state.Hash
	cur.limit = state.Limit
	cur.remaining = state.Remaining
	cur.reset = state.Reset
	cur.known = state.Known
	b.mu.Unlock()
}

func (b *Bucket) now() time.Time {
	if b.clock != nil {
		return b.clock()
	}
	return time.Now()
}
