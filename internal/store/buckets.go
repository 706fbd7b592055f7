package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/accordhq/accord/internal/rest/ratelimit"
)

// SaveBuckets persists a manager snapshot, replacing stale rows and pruning
// buckets whose reset already passed.
func (s *Store) SaveBuckets(ctx context.Context, states []ratelimit.BucketState, routes map[string]string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Unix()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bucket save: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	for routeKey, bucketID := range routes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO route_buckets (route_key, bucket_id, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(route_key) DO UPDATE SET
				bucket_id = excluded.bucket_id,
				updated_at = excluded.updated_at
		`, routeKey, bucketID, now); err != nil {
			return fmt.Errorf("store route bucket: %w", err)
		}
	}

	for _, state := range states {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bucket_state (bucket_id, hash, quota_limit, remaining, reset_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(bucket_id) DO UPDATE SET
				hash = excluded.hash,
				quota_limit = excluded.quota_limit,
				remaining = excluded.remaining,
				reset_at = excluded.reset_at,
				updated_at = excluded.updated_at
		`, state.Key, state.Hash, state.Limit, state.Remaining, state.Reset.UTC().Unix(), now); err != nil {
			return fmt.Errorf("store bucket state: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bucket_state WHERE reset_at < ?`, now); err != nil {
		return fmt.Errorf("prune bucket state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bucket save: %w", err)
	}
	return nil
}

// LoadBuckets reads the persisted snapshot back. Expired buckets are skipped;
// the manager relearns them from the next response.
func (s *Store) LoadBuckets(ctx context.Context) ([]ratelimit.BucketState, map[string]string, error) {
	if s == nil || s.DB == nil {
		return nil, nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Unix()

	routes := make(map[string]string)
	rows, err := s.DB.QueryContext(ctx, `SELECT route_key, bucket_id FROM route_buckets`)
	if err != nil {
		return nil, nil, fmt.Errorf("load route buckets: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	for rows.Next() {
		var routeKey, bucketID string
		if err := rows.Scan(&routeKey, &bucketID); err != nil {
			return nil, nil, fmt.Errorf("scan route buckets: %w", err)
		}
		routes[routeKey] = bucketID
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate route buckets: %w", err)
	}

	stateRows, err := s.DB.QueryContext(ctx, `
		SELECT bucket_id, hash, quota_limit, remaining, reset_at
		FROM bucket_state
		WHERE reset_at >= ?
	`, now)
	if err != nil {
		return nil, nil, fmt.Errorf("load bucket state: %w", err)
	}
	defer stateRows.Close() // nolint:errcheck // best-effort cleanup

	states := []ratelimit.BucketState{}
	for stateRows.Next() {
		var (
			state   ratelimit.BucketState
			hash    sql.NullString
			resetAt int64
		)
		if err := stateRows.Scan(&state.Key, &hash, &state.Limit, &state.Remaining, &resetAt); err != nil {
			return nil, nil, fmt.Errorf("scan bucket state: %w", err)
		}
		state.Hash = hash.String
		state.Reset = time.Unix(resetAt, 0).UTC()
		state.Known = true
		states = append(states, state)
	}
	if err := stateRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate bucket state: %w", err)
	}

	return states, routes, nil
}
