package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/accordhq/accord/internal/rest/ratelimit"
	"github.com/accordhq/accord/internal/store"
)

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("json")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	_, err = ParseFormat("yaml")
	require.Error(t, err)
}

func sampleEntries(now time.Time) []store.BucketEntry {
	return []store.BucketEntry{{
		State: ratelimit.BucketState{
			Key:       "hash-a|111",
			Hash:      "hash-a",
			Limit:     5,
			Remaining: 2,
			Reset:     now.Add(30 * time.Second),
			Known:     true,
		},
		UpdatedAt: now,
	}}
}

func TestFormatBucketsTable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &TableFormatter{}

	rendered := f.FormatBuckets(sampleEntries(now), now)
	require.Contains(t, rendered, "hash-a|111")
	require.Contains(t, rendered, "in 30s")
	require.Contains(t, rendered, "1 bucket(s)")
}

func TestFormatBucketsTableEmpty(t *testing.T) {
	f := &TableFormatter{}
	rendered := f.FormatBuckets(nil, time.Now())
	require.Contains(t, rendered, "0 bucket(s)")
}

func TestResetLabel(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, "-", resetLabel(time.Time{}, now))
	require.Equal(t, "expired", resetLabel(now.Add(-time.Second), now))
	require.Equal(t, "in 1m0s", resetLabel(now.Add(time.Minute), now))
}

func TestWriteBucketsJSON(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer

	require.NoError(t, WriteBucketsJSON(&buf, sampleEntries(now)))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	require.Equal(t, "hash-a|111", decoded[0]["bucket"])
	require.Equal(t, float64(2), decoded[0]["remaining"])
}

func TestWriteBucketsJSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBucketsJSON(&buf, nil))
	require.Equal(t, "[]", string(bytes.TrimSpace(buf.Bytes())))
}
