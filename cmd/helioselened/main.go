// Command helioselened serves satellite solar/lunar transit predictions over
// HTTP, keeping the tracked satellites' element sets fresh in the background.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/geraldgg/helioselene/internal/api"
	"github.com/geraldgg/helioselene/internal/auth"
	"github.com/geraldgg/helioselene/internal/metrics"
	"github.com/geraldgg/helioselene/internal/tle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("HELIOSELENE_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	tleCfg := loadTLEConfig(logger)
	store := tle.NewStore()
	manager := tle.NewManager(
		tle.NewFetcher(tleCfg.SourceURL),
		tle.NewCache(tleCfg.CacheDir, tleCfg.MaxFiles),
		store,
		logger,
	)

	// Start from the on-disk cache so predictions work before the first
	// fetch completes.
	manager.LoadCached()

	trustProxy := false
	if v := os.Getenv("HELIOSELENE_TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid HELIOSELENE_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			trustProxy = b
		}
	}

	srv := api.NewServer(addr, logger, authCfg, store, trustProxy)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if tleCfg.EnableFetch {
		go func() {
			if err := manager.Refresh(ctx); err != nil {
				logger.Warn("initial TLE refresh failed", "error", err)
			}
			ticker := time.NewTicker(tleCfg.RefreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := manager.Refresh(ctx); err != nil {
						logger.Warn("TLE refresh failed", "error", err)
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Keep the dataset age gauge current.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := store.AgeSeconds(); age >= 0 {
					metrics.SetTLEDatasetAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled, "tle_fetch_enabled", tleCfg.EnableFetch)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("HELIOSELENE_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("HELIOSELENE_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("HELIOSELENE_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("HELIOSELENE_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

type tleConfig struct {
	EnableFetch     bool
	SourceURL       string
	CacheDir        string
	MaxFiles        int
	RefreshInterval time.Duration
}

func loadTLEConfig(logger *slog.Logger) tleConfig {
	cfg := tleConfig{
		EnableFetch:     true,
		CacheDir:        "/tmp/helioselene/tle",
		MaxFiles:        5,
		RefreshInterval: 6 * time.Hour,
	}

	if v := os.Getenv("HELIOSELENE_ENABLE_TLE_FETCH"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid HELIOSELENE_ENABLE_TLE_FETCH value, defaulting to true", "value", v)
		} else {
			cfg.EnableFetch = enabled
		}
	}

	if v := os.Getenv("HELIOSELENE_TLE_SOURCE_URL"); v != "" {
		cfg.SourceURL = v
	}

	if v := os.Getenv("HELIOSELENE_TLE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("HELIOSELENE_TLE_REFRESH_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds < 60 {
			logger.Warn("invalid HELIOSELENE_TLE_REFRESH_SECONDS value, using default", "value", v, "default", 21600)
		} else {
			cfg.RefreshInterval = time.Duration(seconds) * time.Second
		}
	}

	logger.Info("TLE config",
		"source_url", cfg.SourceURL,
		"cache_dir", cfg.CacheDir,
		"refresh_interval_seconds", cfg.RefreshInterval.Seconds(),
	)

	return cfg
}
