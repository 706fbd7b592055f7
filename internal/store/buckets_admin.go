package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/accordhq/accord/internal/rest/ratelimit"
)

// BucketEntry is one persisted bucket row.
type BucketEntry struct {
	State     ratelimit.BucketState
	UpdatedAt time.Time
}

// BucketQuery selects persisted buckets for listing or reset.
type BucketQuery struct {
	All    bool
	Bucket string
	Prefix string
}

// Validate ensures exactly one selection mode was chosen.
func (q BucketQuery) Validate() error {
	if q.All {
		return nil
	}
	if strings.TrimSpace(q.Bucket) != "" {
		return nil
	}
	if strings.TrimSpace(q.Prefix) != "" {
		return nil
	}
	return errors.New("must specify --all, --bucket, or --prefix")
}

func (q BucketQuery) whereClause() (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	if q.All {
		return "", nil, nil
	}
	if bucket := strings.TrimSpace(q.Bucket); bucket != "" {
		return "WHERE bucket_id = ?", []any{bucket}, nil
	}
	return "WHERE bucket_id LIKE ?", []any{strings.TrimSpace(q.Prefix) + "%"}, nil
}

// ListBuckets returns persisted bucket state matching the query.
func (s *Store) ListBuckets(ctx context.Context, q BucketQuery) ([]BucketEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT bucket_id, hash, quota_limit, remaining, reset_at, updated_at
		FROM bucket_state
		%s
		ORDER BY bucket_id
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := []BucketEntry{}
	for rows.Next() {
		var (
			entry     BucketEntry
			hash      sql.NullString
			resetAt   int64
			updatedAt int64
		)
		if err := rows.Scan(&entry.State.Key, &hash, &entry.State.Limit, &entry.State.Remaining, &resetAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan buckets: %w", err)
		}
		entry.State.Hash = hash.String
		entry.State.Reset = time.Unix(resetAt, 0).UTC()
		entry.State.Known = true
		entry.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buckets: %w", err)
	}

	return entries, nil
}

// CountBuckets reports how many persisted buckets match the query.
func (s *Store) CountBuckets(ctx context.Context, q BucketQuery) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	var count int
	row := s.DB.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM bucket_state %s`, where), args...)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count buckets: %w", err)
	}
	return count, nil
}

// ResetBuckets deletes persisted bucket state matching the query along with
// the route aliases pointing at it, returning the number of buckets removed.
func (s *Store) ResetBuckets(ctx context.Context, q BucketQuery) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bucket reset: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM route_buckets %s`, where), args...); err != nil {
		return 0, fmt.Errorf("reset route buckets: %w", err)
	}

	result, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM bucket_state %s`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("reset bucket state: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset bucket state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bucket reset: %w", err)
	}
	return deleted, nil
}
