package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/adlens/internal/api"
	"github.com/ignite/adlens/internal/app"
	"github.com/ignite/adlens/internal/auth"
	"github.com/ignite/adlens/internal/config"
	"github.com/ignite/adlens/internal/observability"
	"github.com/ignite/adlens/internal/pkg/logger"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %w", addr, err)
	}
	return ln.Close()
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
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

	if err := checkPortAvailable(cfg.Server.Addr()); err != nil {
		logger.Error("pre-flight check failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialise services", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	authManager := auth.NewAuthManager(cfg.Auth, cfg.BaseURL(), a.SessionStore(), a.Users)
	if cfg.Auth.DevMode {
		logger.Warn("DEV_MODE enabled: every request runs as the developer user")
	} else if cfg.Auth.Enabled {
		if err := authManager.ValidateCredentials(ctx); err != nil {
			logger.Warn("google sign-in credentials rejected", "error", err)
		}
	}

	if cfg.Sync.Enabled {
		if err := a.Scheduler.Start(); err != nil {
			logger.Error("sync scheduler failed to start", "error", err)
			os.Exit(1)
		}
	}

	handlers := api.NewHandlers(api.Services{
		Workspaces:  a.Workspaces,
		Connections: a.Connections,
		Sync:        a.Sync,
		Campaigns:   a.Campaigns,
		Analytics:   a.Analytics,
		Insights:    a.Insights,
		Reports:     a.Reports,
	})
	var bucketProbe api.BucketHeader
	if a.S3 != nil {
		bucketProbe = a.S3
	}
	server := api.NewServer(cfg.Server, handlers, authManager, api.RouteOptions{
		Health:  api.NewHealthChecker(a.DB, a.Redis, bucketProbe, cfg.Reports.S3Bucket, cfg.Sync.Interval()),
		Metrics: observability.Handler(),
	})

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr(), "base_url", cfg.BaseURL())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			done <- syscall.SIGTERM
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
