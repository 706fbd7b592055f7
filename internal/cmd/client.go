package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/accordhq/accord/internal/api"
	"github.com/accordhq/accord/internal/config"
	"github.com/accordhq/accord/internal/observability"
	"github.com/accordhq/accord/internal/rest"
	"github.com/accordhq/accord/internal/rest/route"
	"github.com/accordhq/accord/internal/store"
)

// newAPIClient builds an API client from configuration. Bucket state
// persisted by earlier invocations is imported before the first request, and
// the returned closer exports it back before closing the database.
func newAPIClient(ctx context.Context, cfg *config.Config) (*api.Client, func(), error) {
	if cfg.Token == "" {
		return nil, nil, fmt.Errorf("no API token configured (set token in config or ACCORD_TOKEN)")
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := observability.NewZap(level)
	if err != nil {
		return nil, nil, err
	}

	table := route.DefaultTable()
	if cfg.Routes.TablePath != "" {
		table, err = route.LoadTable(cfg.Routes.TablePath)
		if err != nil {
			return nil, nil, fmt.Errorf("load route table: %w", err)
		}
	}

	rc := rest.New(cfg.Token)
	rc.BaseURL = cfg.BaseURL
	rc.UserAgent = cfg.UserAgent
	rc.Resolver = route.NewResolver(table)
	rc.Logger = logger
	if cfg.Timeout > 0 {
		rc.HTTP = &http.Client{Timeout: cfg.Timeout}
	}
	rc.Retry = rest.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
		Jitter:      cfg.Retry.Jitter,
	}
	if cfg.Pace.RequestsPerSecond > 0 {
		burst := cfg.Pace.Burst
		if burst < 1 {
			burst = 1
		}
		rc.Pace = rate.NewLimiter(rate.Limit(cfg.Pace.RequestsPerSecond), burst)
	}
	if cfg.Pace.MaxInflight > 0 {
		rc.Inflight = semaphore.NewWeighted(cfg.Pace.MaxInflight)
	}

	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		// The store only persists bucket state between runs; work without it.
		logger.Warn("bucket store unavailable, rate limit state will not persist", zap.Error(err))
		return api.NewClient(rc), func() { _ = logger.Sync() }, nil
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	states, routes, err := db.LoadBuckets(ctx)
	if err != nil {
		logger.Warn("failed to load persisted bucket state", zap.Error(err))
	} else {
		rc.Limiter.Import(states, routes)
	}

	closer := func() {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		states, routes := rc.Limiter.Export()
		if err := db.SaveBuckets(saveCtx, states, routes); err != nil {
			logger.Warn("failed to persist bucket state", zap.Error(err))
		}
		_ = db.Close()   // nolint:errcheck // best-effort cleanup
		_ = logger.Sync() // nolint:errcheck // best-effort cleanup
	}

	return api.NewClient(rc), closer, nil
}
