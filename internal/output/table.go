package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/accordhq/accord/internal/store"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatBuckets renders persisted bucket state as a table.
func (f *TableFormatter) FormatBuckets(entries []store.BucketEntry, now time.Time) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Bucket", "Limit", "Remaining", "Reset", "Updated"})

	for _, entry := range entries {
		t.AppendRow(table.Row{
			entry.State.Key,
			entry.State.Limit,
			entry.State.Remaining,
			resetLabel(entry.State.Reset, now),
			entry.UpdatedAt.Format(time.RFC3339),
		})
	}

	t.AppendFooter(table.Row{fmt.Sprintf("%d bucket(s)", len(entries)), "", "", "", ""})
	return t.Render()
}

func resetLabel(reset time.Time, now time.Time) string {
	if reset.IsZero() {
		return "-"
	}
	if !reset.After(now) {
		return "expired"
	}
	return fmt.Sprintf("in %s", reset.Sub(now).Round(time.Second))
}
