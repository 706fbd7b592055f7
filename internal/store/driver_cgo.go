//go:build cgo

package store

// The libsql driver is cgo-only; register it only in cgo builds, matching
// the cgo gate on the store's database-backed tests.
import _ "github.com/tursodatabase/go-libsql"
