package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/accordhq/accord/internal/observability"
	"github.com/accordhq/accord/internal/server"
)

var (
	serveHost      string
	servePort      int
	servePublicKey string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interactions webhook server",
	Long: `Start the HTTP server that receives signed interaction webhooks.

Incoming requests are verified against the application public key; ping
interactions are answered with a pong.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit

The server will cleanly shut down the HTTP listener and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if cmd.Flags().Changed("public-key") {
			cfg.Server.PublicKey = servePublicKey
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err := observability.NewZap(level)
		if err != nil {
			return err
		}

		srv, err := server.New(cfg.Server, nil, logger)
		if err != nil {
			return err
		}

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = 15 * time.Second
		}

		// Graceful shutdown handlers run in LIFO order.
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Flushing logger...")
			_ = logger.Sync() // nolint:errcheck // stdout sync errors are benign
			return nil
		})
		signals.OnShutdown(func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()
		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		return <-errChan
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "server host")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8264, "server port")
	serveCmd.Flags().StringVar(&servePublicKey, "public-key", "", "hex-encoded ed25519 public key for signature verification")
}
