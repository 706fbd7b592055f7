package ratelimit

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseHeadersQuotaTriple(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := http.Header{}
	h.Set(HeaderLimit, "5")
	h.Set(HeaderRemaining, "3")
	h.Set(HeaderResetAfter, "1.5")
	h.Set(HeaderBucket, "abcd1234")

	parsed, err := ParseHeaders(h, now)
	require.NoError(t, err)
	require.True(t, parsed.HasState)
	require.Equal(t, 5, parsed.Limit)
	require.Equal(t, 3, parsed.Remaining)
	require.Equal(t, now.Add(1500*time.Millisecond), parsed.Reset)
	require.Equal(t, 1500*time.Millisecond, parsed.ResetAfter)
	require.Equal(t, "abcd1234", parsed.Bucket)
}

func TestParseHeadersPrefersResetAfterOverReset(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := http.Header{}
	h.Set(HeaderLimit, "5")
	h.Set(HeaderRemaining, "0")
	h.Set(HeaderResetAfter, "2")
	// Absolute reset far in the future simulates clock skew.
	h.Set(HeaderReset, "9999999999")

	parsed, err := ParseHeaders(h, now)
	require.NoError(t, err)
	require.Equal(t, now.Add(2*time.Second), parsed.Reset)
}

func TestParseHeadersEpochResetFallback(t *testing.T) {
	now := time.Unix(1000, 0)
	h := http.Header{}
	h.Set(HeaderLimit, "1")
	h.Set(HeaderRemaining, "0")
	h.Set(HeaderReset, "1002.5")

	parsed, err := ParseHeaders(h, now)
	require.NoError(t, err)
	require.Equal(t, time.Unix(1002, int64(500*time.Millisecond)).Unix(), parsed.Reset.Unix())
}

func TestParseHeadersClampsNegativeRemaining(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderLimit, "5")
	h.Set(HeaderRemaining, "-2")
	h.Set(HeaderResetAfter, "1")

	parsed, err := ParseHeaders(h, time.Now())
	require.NoError(t, err)
	require.Equal(t, 0, parsed.Remaining)
}

func TestParseHeadersAbsentQuotaIsNotAnError(t *testing.T) {
	parsed, err := ParseHeaders(http.Header{}, time.Now())
	require.NoError(t, err)
	require.False(t, parsed.HasState)
}

func TestParseHeadersUnparseableQuota(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderLimit, "banana")
	h.Set(HeaderRemaining, "3")

	_, err := ParseHeaders(h, time.Now())
	require.Error(t, err)
}

func TestParseHeadersQuotaWithoutReset(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderLimit, "5")
	h.Set(HeaderRemaining, "3")

	parsed, err := ParseHeaders(h, time.Now())
	require.Error(t, err)
	require.False(t, parsed.HasState)
}

func TestParseHeadersRetryAfterSeconds(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderRetryAfter, "0.25")

	parsed, err := ParseHeaders(h, time.Now())
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, parsed.RetryAfter)
}

func TestParseHeadersRetryAfterHTTPDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := http.Header{}
	h.Set(HeaderRetryAfter, now.Add(3*time.Second).Format(http.TimeFormat))

	parsed, err := ParseHeaders(h, now)
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, parsed.RetryAfter)
}

func TestParseHeadersGlobalAndScope(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderGlobal, "true")
	h.Set(HeaderScope, ScopeGlobal)

	parsed, err := ParseHeaders(h, time.Now())
	require.NoError(t, err)
	require.True(t, parsed.Global)
	require.Equal(t, ScopeGlobal, parsed.Scope)
}
