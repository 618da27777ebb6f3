package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/khanhnv2901/vulnscan/internal/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run vulnscan as a REST API service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig.Server

		httpServer, cleanup := newHTTPServer(appConfig, logger)
		defer cleanup()

		// Channel to listen for errors from the server
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("API server listening", zap.String("addr", cfg.Addr))
			fmt.Fprintf(cmd.OutOrStdout(), "%s API server listening on %s\n", colorInfo("→"), cfg.Addr)
			fmt.Fprintf(cmd.OutOrStdout(), "%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s Received signal %v, initiating graceful shutdown...\n", colorInfo("→"), sig)
			logger.Info("shutdown requested", zap.String("signal", sig.String()))

			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				// Force close if graceful shutdown fails
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Server shutdown complete\n", colorInfo("✓"))
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", defaultAddr, "Address for the API server")
	serveCmd.Flags().String("auth-token", "", "Optional shared secret for API requests")
	serveCmd.Flags().Duration("shutdown-timeout", defaultShutdownTimeout, "Graceful shutdown timeout")
	serveCmd.Flags().Duration("job-timeout", defaultJobTimeout, "Deadline for each async scan job")
	serveCmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (empty = allow all)")
	serveCmd.Flags().Int("rate-limit", defaultRateLimit, "Rate limit per IP (requests/second, 0 = disabled)")
	serveCmd.Flags().Int("rate-burst", defaultRateBurst, "Rate limit burst size")
}

// newHTTPServer assembles the API handler and its collaborators. The returned
// cleanup stops background maintenance and releases pooled connections.
func newHTTPServer(cfg *AppConfig, log *zap.Logger) (*http.Server, func()) {
	orchestrator, prober := newOrchestrator(cfg.Scan, log)
	jobs := api.NewJobManager()

	handler := api.NewServer(api.Config{
		Scanner:      orchestrator,
		Ports:        newPortScanner(cfg.Ports, log),
		Jobs:         jobs,
		AuthToken:    cfg.Server.AuthToken,
		Logger:       log,
		CORSOrigins:  cfg.Server.CORSOrigins,
		RateLimit:    cfg.Server.RateLimit,
		RateBurst:    cfg.Server.RateBurst,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		JobTimeout:   cfg.Server.JobTimeout,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Synchronous scans can take as long as the slowest probe chain; the
		// job stream is long-lived, so no write timeout is applied.
		IdleTimeout: 120 * time.Second,
	}

	cleanup := func() {
		handler.Close()
		jobs.Close()
		prober.CloseIdleConnections()
	}
	return httpServer, cleanup
}
