package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"aging-dashboard/internal/api"
	"aging-dashboard/internal/api/handler"
	"aging-dashboard/internal/config"
	"aging-dashboard/internal/logging"
	"aging-dashboard/internal/pipeline"
	"aging-dashboard/internal/session"
	"aging-dashboard/internal/store"
	"aging-dashboard/pkg/router"
)

// @title Aging Dashboard API
// @version 1.0
// @description Upload receivables aging sheets, filter them and export the filtered rows.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.DefaultConfig()).Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: os.Stdout})
	logging.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *logging.Logger) error {
	st, err := store.Open(cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := pipeline.NewMetrics(reg)

	sessions := session.NewManager(session.Options{
		Format:        cfg.Dashboard.DisplayFormat,
		MetricsScope:  cfg.Dashboard.MetricsScope,
		TruncateWidth: cfg.Dashboard.TruncateWidth,
		TTL:           cfg.Dashboard.SessionTTL,
	}, st, metrics, logger)

	h := handler.NewDashboardHandler(sessions, st, cfg.Server.MaxUploadBytes, logger.Logger)
	r := router.New(router.Options{Logger: logger.Logger})
	api.RegisterRoutes(r, h, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := r.Server(router.ServerConfig{
		Addr:         cfg.Addr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		router.Banner(srv.Addr)
		logger.Info("Starting aging dashboard server", "addr", srv.Addr, "store", cfg.Store.DSN)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Dashboard.SessionTTL > 0 {
		g.Go(func() error {
			return sessions.Run(ctx, sweepInterval(cfg.Dashboard.SessionTTL))
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func sweepInterval(ttl time.Duration) time.Duration {
	if interval := ttl / 4; interval > time.Minute {
		return interval
	}
	return time.Minute
}
