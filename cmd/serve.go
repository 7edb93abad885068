// ABOUTME: Serve command: runs the forum BFF HTTP server
// ABOUTME: Wires config, handlers, middleware, and metrics; shuts down on SIGINT/SIGTERM

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/communityforum/bff/config"
	"github.com/communityforum/bff/handlers"
	"github.com/communityforum/bff/logger"
	"github.com/communityforum/bff/metrics"
	"github.com/communityforum/bff/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the BFF HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServer serves until ctx is canceled, then drains in-flight requests.
func runServer(ctx context.Context, cfg *config.Config) error {
	slog.Info("Starting forum BFF")
	if cfg.UpstreamConfigured() {
		slog.Info("Upstream API configured", "url", cfg.UpstreamAPIBase, "timeout", cfg.UpstreamTimeout)
	} else {
		slog.Warn("UPSTREAM_API_BASE not set, API requests will fail until it is configured")
	}
	if cfg.UpstreamAllProxy != "" {
		slog.Info("Upstream traffic routed through SOCKS5 jump host")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, prometheus.NewRegistry()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newRouter registers every API route behind the middleware stack, plus
// /metrics when enabled. reg receives the BFF collectors.
func newRouter(cfg *config.Config, reg *prometheus.Registry) *http.ServeMux {
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
	}

	var limits *middleware.Limits
	if cfg.RateLimitEnabled {
		limits = middleware.NewLimits(cfg.RateLimitDefault, map[string]int{
			handlers.TierAuth: cfg.RateLimitAuth,
		})
		slog.Info("Rate limiting enabled", "auth_per_min", cfg.RateLimitAuth, "default_per_min", cfg.RateLimitDefault)
	} else {
		slog.Warn("Rate limiting disabled")
	}

	cors := middleware.CORS(cfg.CORSAllowedOrigins)
	h := handlers.NewHandler(cfg, m)
	mux := http.NewServeMux()

	for _, route := range h.Routes() {
		mux.HandleFunc(route.Method+" "+route.Path, middleware.Chain(route.Handler,
			middleware.LogRequest,
			middleware.Recover,
			cors,
			limits.For(route.RateLimit),
		))
	}

	// Preflight for every API path; CORS answers before the handler runs.
	mux.HandleFunc("OPTIONS /api/", middleware.Chain(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, cors))

	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}

	return mux
}
