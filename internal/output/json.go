package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/accordhq/accord/internal/store"
)

// WriteJSON renders any value as indented JSON.
func WriteJSON(w io.Writer, value any) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(payload))
	return err
}

type bucketJSON struct {
	Bucket    string    `json:"bucket"`
	Hash      string    `json:"hash,omitempty"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WriteBucketsJSON renders persisted bucket state as JSON.
func WriteBucketsJSON(w io.Writer, entries []store.BucketEntry) error {
	out := make([]bucketJSON, 0, len(entries))
	for _, entry := range entries {
		out = append(out, bucketJSON{
			Bucket:    entry.State.Key,
			Hash:      entry.State.Hash,
			Limit:     entry.State.Limit,
			Remaining: entry.State.Remaining,
			ResetAt:   entry.State.Reset,
			UpdatedAt: entry.UpdatedAt,
		})
	}
	return WriteJSON(w, out)
}
