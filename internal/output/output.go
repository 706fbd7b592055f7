// Package output renders CLI results in the supported formats.
package output

import "fmt"

// Format identifies an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatTable, FormatJSON:
		return Format(value), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}
