// Package ratelimit tracks per-bucket and global quota state for the Accord
// REST API and serializes dispatch within each bucket.
package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager owns every bucket record plus the single global limit record. It is
// dependency-injected into each dispatcher instance; two clients with
// different credentials get independent managers.
type Manager struct {
	mu      sync.Mutex
	routes  map[string]string // resolved route key -> canonical bucket id
	buckets map[string]*Bucket

	globalMu    sync.Mutex
	globalUntil time.Time

	Clock  func() time.Time
	Logger *zap.Logger
}

// BucketState is an externally visible copy of one bucket's quota state.
type BucketState struct {
	Key       string
	Hash      string
	Limit     int
	Remaining int
	Reset     time.Time
	Known     bool
}

// NewManager returns an empty bucket state store.
func NewManager() *Manager {
	return &Manager{
		routes:  make(map[string]string),
		buckets: make(map[string]*Bucket),
	}
}

// Bucket returns the bucket for a resolved route key, creating it on first
// use. Route keys that have been reconciled to a canonical bucket id share
// one bucket record.
func (m *Manager) Bucket(routeKey string) *Bucket {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.routes[routeKey]
	if !ok {
		id = routeKey
		m.routes[routeKey] = id
	}
	bucket, ok := m.buckets[id]
	if !ok {
		bucket = newBucket(id, m.now)
		// Buckets of one manager share its mutex so reconcile can merge
		// two of them atomically.
		bucket.mu = &m.mu
		m.buckets[id] = bucket
	}
	return bucket
}

// Update applies the rate limit headers of a response to the route's bucket.
// majorParams is the major-parameter portion of the route key, used to scope
// the canonical bucket identifier during reconciliation.
//
// A response whose quota headers are missing or unparseable degrades the
// bucket to unknown state and returns the parse error; callers treat that as
// a protocol anomaly, not a request failure.
func (m *Manager) Update(routeKey, majorParams string, header http.Header) (Headers, error) {
	now := m.now()
	parsed, err := ParseHeaders(header, now)
	bucket := m.Bucket(routeKey)

	if err != nil || !parsed.HasState {
		bucket.degrade()
		if err != nil && m.Logger != nil {
			m.Logger.Warn("degrading bucket after unparseable rate limit headers",
				zap.String("route", routeKey),
				zap.Error(err))
		}
		return parsed, err
	}

	if parsed.Bucket != "" {
		bucket = m.reconcile(routeKey, majorParams, parsed.Bucket, bucket)
	}
	bucket.update(parsed)

	if m.Logger != nil && parsed.Remaining == 0 {
		m.Logger.Debug("bucket exhausted until reset",
			zap.String("route", routeKey),
			zap.String("bucket", parsed.Bucket),
			zap.Time("reset", parsed.Reset))
	}
	return parsed, nil
}

// Observe applies quota headers when present and parseable, and otherwise
// leaves the bucket untouched. Used for error responses, which may legally
// omit the quota headers a success must carry.
func (m *Manager) Observe(routeKey, majorParams string, header http.Header) Headers {
	parsed, err := ParseHeaders(header, m.now())
	if err != nil || !parsed.HasState {
		return parsed
	}
	bucket := m.Bucket(routeKey)
	if parsed.Bucket != "" {
		bucket = m.reconcile(routeKey, majorParams, parsed.Bucket, bucket)
	}
	bucket.update(parsed)
	return parsed
}

// Freeze marks the route's bucket exhausted until now+retryAfter, used for
// bucket-scoped 429 responses.
func (m *Manager) Freeze(routeKey string, retryAfter time.Duration) {
	if retryAfter <= 0 {
		return
	}
	m.Bucket(routeKey).freeze(m.now().Add(retryAfter))
}

// reconcile re-keys a route onto the canonical bucket identifier reported by
// the service. Routes that resolve to distinct local keys but share a hash
// (within the same major parameters) collapse onto one bucket record; a
// record already holding slots or waiters is merged into the canonical one
// so its in-flight request and queue carry over.
func (m *Manager) reconcile(routeKey, majorParams, hash string, current *Bucket) *Bucket {
	canonical := hash
	if majorParams != "" {
		canonical = hash + "|" + majorParams
	}

	// m.mu doubles as the bucket mutex, so the route maps and both bucket
	// records change under one critical section.
	m.mu.Lock()
	defer m.mu.Unlock()

	current = current.latest()
	m.routes[routeKey] = canonical

	bucket, ok := m.buckets[canonical]
	if ok {
		bucket = bucket.latest()
	}
	switch {
	case !ok:
		// First route to observe this hash: promote its bucket record so
		// queued waiters keep their positions.
		bucket = current
		bucket.Hash = hash
		m.buckets[canonical] = bucket
	case bucket != current:
		current.mergeInto(bucket)
	}
	m.rekey(current, canonical)

	if m.Logger != nil && bucket != current {
		m.Logger.Debug("route reconciled to canonical bucket",
			zap.String("route", routeKey),
			zap.String("bucket", canonical))
	}
	return bucket
}

// rekey collapses every map entry that still points at old onto the
// canonical id, so lookups and exports see one record. Callers must hold
// m.mu.
func (m *Manager) rekey(old *Bucket, canonical string) {
	stale := make(map[string]bool)
	for id, bucket := range m.buckets {
		if bucket == old && id != canonical {
			stale[id] = true
			delete(m.buckets, id)
		}
	}
	if len(stale) == 0 {
		return
	}
	for key, id := range m.routes {
		if stale[id] {
			m.routes[key] = canonical
		}
	}
}

// SetGlobal records that the global quota is exhausted until the given time.
func (m *Manager) SetGlobal(until time.Time) {
	m.globalMu.Lock()
	if until.After(m.globalUntil) {
		m.globalUntil = until
	}
	m.globalMu.Unlock()

	if m.Logger != nil {
		m.Logger.Warn("global rate limit hit, pausing all buckets",
			zap.Time("until", until))
	}
}

// GlobalUntil reports when the global quota resets; zero when not exhausted.
func (m *Manager) GlobalUntil() time.Time {
	m.globalMu.Lock()
	defer m.globalMu.Unlock()
	return m.globalUntil
}

// WaitGlobal blocks while the global quota is exhausted. It holds no bucket
// state, so buckets whose requests are already in flight are unaffected.
func (m *Manager) WaitGlobal(ctx context.Context) error {
	for {
		m.globalMu.Lock()
		wait := m.globalUntil.Sub(m.now())
		m.globalMu.Unlock()
		if wait <= 0 {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Export returns a snapshot of all known buckets and route aliases, for
// persistence across short-lived processes.
func (m *Manager) Export() ([]BucketState, map[string]string) {
	m.mu.Lock()
	buckets := make([]*Bucket, 0, len(m.buckets))
	for _, bucket := range m.buckets {
		buckets = append(buckets, bucket)
	}
	routes := make(map[string]string, len(m.routes))
	for key, id := range m.routes {
		routes[key] = id
	}
	m.mu.Unlock()

	states := make([]BucketState, 0, len(buckets))
	for _, bucket := range buckets {
		state := bucket.Snapshot()
		if !state.Known {
			continue
		}
		states = append(states, state)
	}
	return states, routes
}

// Import seeds bucket state from a persisted snapshot. Buckets whose reset
// time has already passed are skipped; they would only re-learn state the
// next response provides anyway.
func (m *Manager) Import(states []BucketState, routes map[string]string) {
	now := m.now()

	m.mu.Lock()
	for key, id := range routes {
		m.routes[key] = id
	}
	m.mu.Unlock()

	for _, state := range states {
		if state.Key == "" || !state.Reset.After(now) {
			continue
		}
		bucket := m.Bucket(state.Key)
		bucket.restore(state)
	}
}

func (m *Manager) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}
