package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func quotaHeader(limit, remaining string, resetAfter string, bucket string) http.Header {
	h := http.Header{}
	h.Set(HeaderLimit, limit)
	h.Set(HeaderRemaining, remaining)
	h.Set(HeaderResetAfter, resetAfter)
	if bucket != "" {
		h.Set(HeaderBucket, bucket)
	}
	return h
}

func TestManagerBucketIsStablePerRoute(t *testing.T) {
	m := NewManager()
	a := m.Bucket("GET /channels/1")
	b := m.Bucket("GET /channels/1")
	require.Same(t, a, b)
	require.NotSame(t, a, m.Bucket("GET /channels/2"))
}

func TestManagerUpdateAppliesQuota(t *testing.T) {
	m := NewManager()
	parsed, err := m.Update("GET /channels/1", "1", quotaHeader("5", "4", "2", ""))
	require.NoError(t, err)
	require.True(t, parsed.HasState)

	state := m.Bucket("GET /channels/1").Snapshot()
	require.True(t, state.Known)
	require.Equal(t, 5, state.Limit)
	require.Equal(t, 4, state.Remaining)
}

func TestManagerUpdateDegradesOnMissingQuota(t *testing.T) {
	m := NewManager()
	_, err := m.Update("GET /channels/1", "1", quotaHeader("5", "4", "2", ""))
	require.NoError(t, err)

	_, err = m.Update("GET /channels/1", "1", http.Header{})
	require.NoError(t, err)
	require.False(t, m.Bucket("GET /channels/1").Snapshot().Known)
}

func TestManagerUpdateDegradesOnUnparseableQuota(t *testing.T) {
	m := NewManager()
	h := http.Header{}
	h.Set(HeaderLimit, "x")
	h.Set(HeaderRemaining, "3")

	_, err := m.Update("GET /channels/1", "1", h)
	require.Error(t, err)
	require.False(t, m.Bucket("GET /channels/1").Snapshot().Known)
}

func TestManagerObserveNeverDegrades(t *testing.T) {
	m := NewManager()
	_, err := m.Update("GET /channels/1", "1", quotaHeader("5", "4", "2", ""))
	require.NoError(t, err)

	m.Observe("GET /channels/1", "1", http.Header{})
	require.True(t, m.Bucket("GET /channels/1").Snapshot().Known)
}

func TestManagerReconcilesRoutesOntoSharedBucket(t *testing.T) {
	m := NewManager()

	// Two distinct routes report the same bucket hash within the same major
	// parameter scope.
	_, err := m.Update("GET /channels/1/messages", "1", quotaHeader("5", "4", "2", "hash-a"))
	require.NoError(t, err)
	_, err = m.Update("POST /channels/1/typing", "1", quotaHeader("5", "3", "2", "hash-a"))
	require.NoError(t, err)

	require.Same(t, m.Bucket("GET /channels/1/messages"), m.Bucket("POST /channels/1/typing"))
}

func TestManagerReconcileScopesHashByMajorParams(t *testing.T) {
	m := NewManager()

	_, err := m.Update("GET /channels/1/messages", "1", quotaHeader("5", "4", "2", "hash-a"))
	require.NoError(t, err)
	_, err = m.Update("GET /channels/2/messages", "2", quotaHeader("5", "4", "2", "hash-a"))
	require.NoError(t, err)

	// Same hash, different channel: still independent buckets.
	require.NotSame(t, m.Bucket("GET /channels/1/messages"), m.Bucket("GET /channels/2/messages"))
}

func TestManagerReconcileMergesHeldSlots(t *testing.T) {
	m := NewManager()
	a := m.Bucket("GET /channels/1/messages")
	require.NoError(t, a.Acquire(context.Background(), false))
	b := m.Bucket("POST /channels/1/typing")
	require.NoError(t, b.Acquire(context.Background(), false))

	// Both routes turn out to be the same remote bucket while both hold
	// their (separate) slots.
	_, err := m.Update("GET /channels/1/messages", "1", quotaHeader("5", "4", "60", "hash-a"))
	require.NoError(t, err)
	m.Observe("POST /channels/1/typing", "1", quotaHeader("5", "3", "60", "hash-a"))

	shared := m.Bucket("GET /channels/1/messages")
	require.Same(t, shared, m.Bucket("POST /channels/1/typing"))

	// A new caller queues until every pre-merge holder has drained.
	acquired := make(chan error, 1)
	go func() { acquired <- shared.Acquire(context.Background(), false) }()
	waitForWaiters(t, shared, 1)

	a.Release()
	select {
	case <-acquired:
		t.Fatal("slot granted while a merged holder was still in flight")
	case <-time.After(30 * time.Millisecond):
	}

	b.Release()
	require.NoError(t, <-acquired)
	shared.Release()
}

func TestManagerReconcileForwardsFreezeToHeldHandle(t *testing.T) {
	m := NewManager()

	// Another route has already established the canonical bucket.
	_, err := m.Update("GET /channels/1/messages", "1", quotaHeader("5", "4", "60", "hash-a"))
	require.NoError(t, err)

	b := m.Bucket("POST /channels/1/typing")
	require.NoError(t, b.Acquire(context.Background(), false))

	// The in-flight response reconciles the route onto the canonical bucket
	// and reports it exhausted; the handle acquired before the merge must
	// observe that state.
	m.Observe("POST /channels/1/typing", "1", quotaHeader("5", "0", "0.08", "hash-a"))

	start := time.Now()
	require.NoError(t, b.Wait(context.Background()))
	require.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
	b.Release()
}

func TestManagerExportDropsMergedRecords(t *testing.T) {
	m := NewManager()
	_, err := m.Update("GET /channels/1/messages", "1", quotaHeader("5", "4", "3600", "hash-a"))
	require.NoError(t, err)
	m.Observe("POST /channels/1/typing", "1", quotaHeader("5", "3", "3600", "hash-a"))

	states, routes := m.Export()
	require.Len(t, states, 1)
	require.Equal(t, "hash-a|1", routes["GET /channels/1/messages"])
	require.Equal(t, "hash-a|1", routes["POST /channels/1/typing"])
}

func TestManagerFreezeExhaustsBucket(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager()
	m.Clock = func() time.Time { return now }

	m.Freeze("GET /channels/1", 30*time.Second)

	state := m.Bucket("GET /channels/1").Snapshot()
	require.True(t, state.Known)
	require.Equal(t, 0, state.Remaining)
	require.Equal(t, now.Add(30*time.Second), state.Reset)
}

func TestManagerGlobalPause(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager()
	m.Clock = func() time.Time { return now }

	m.SetGlobal(now.Add(time.Minute))
	require.Equal(t, now.Add(time.Minute), m.GlobalUntil())

	// An earlier expiry never shortens the pause.
	m.SetGlobal(now.Add(time.Second))
	require.Equal(t, now.Add(time.Minute), m.GlobalUntil())
}

func TestManagerWaitGlobalReturnsWhenClear(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.WaitGlobal(context.Background()))
}

func TestManagerWaitGlobalBlocksUntilReset(t *testing.T) {
	m := NewManager()
	m.SetGlobal(time.Now().Add(40 * time.Millisecond))

	start := time.Now()
	require.NoError(t, m.WaitGlobal(context.Background()))
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestManagerWaitGlobalHonorsContext(t *testing.T) {
	m := NewManager()
	m.SetGlobal(time.Now().Add(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, m.WaitGlobal(ctx), context.DeadlineExceeded)
}

func TestManagerExportImportRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager()
	m.Clock = func() time.Time { return now }

	_, err := m.Update("GET /channels/1/messages", "1", quotaHeader("5", "2", "3600", "hash-a"))
	require.NoError(t, err)

	states, routes := m.Export()
	require.Len(t, states, 1)
	require.Equal(t, "hash-a|1", routes["GET /channels/1/messages"])

	restored := NewManager()
	restored.Clock = m.Clock
	restored.Import(states, routes)

	state := restored.Bucket("GET /channels/1/messages").Snapshot()
	require.True(t, state.Known)
	require.Equal(t, 2, state.Remaining)
}

func TestManagerImportSkipsExpiredBuckets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager()
	m.Clock = func() time.Time { return now }

	m.Import([]BucketState{{
		Key:       "GET /channels/1",
		Limit:     5,
		Remaining: 0,
		Reset:     now.Add(-time.Minute),
		Known:     true,
	}}, nil)

	require.False(t, m.Bucket("GET /channels/1").Snapshot().Known)
}
