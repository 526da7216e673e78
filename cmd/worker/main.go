package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/adlens/internal/app"
	"github.com/ignite/adlens/internal/config"
	"github.com/ignite/adlens/internal/observability"
	"github.com/ignite/adlens/internal/pkg/httputil"
	"github.com/ignite/adlens/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	addr := flag.String("addr", ":9091", "listen address for /metrics and /health/live")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	app.ConfigureLogger(cfg.Logging)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialise services", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Scheduler.Start(); err != nil {
		logger.Error("sync scheduler failed to start", "error", err)
		os.Exit(1)
	}
	logger.Info("sync worker started",
		"interval", cfg.Sync.Interval().String(),
		"concurrency", cfg.Sync.Concurrency,
		"lookback_days", cfg.Sync.LookbackDays)

	r := chi.NewRouter()
	r.Handle("/metrics", observability.Handler())
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		httputil.OK(w, map[string]interface{}{
			"status":    "alive",
			"scheduler": a.Scheduler.Stats(),
		})
	})
	srv := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("worker metrics listener", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener error", "error", err)
		}
	}()

	<-done
	logger.Info("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics listener shutdown error", "error", err)
	}
	a.Scheduler.Stop()
	logger.Info("worker stopped", "stats", a.Scheduler.Stats())
}
