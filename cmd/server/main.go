package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"
	"github.com/tendant/medical-artists/pkg/medart/api"
	"github.com/tendant/medical-artists/pkg/medart/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	rt, err := cfg.BuildService(ctx, prometheus.DefaultRegisterer, logger)
	if err != nil {
		cancel()
		slog.Error("Failed to initialize service", "err", err)
		os.Exit(1)
	}
	defer rt.Close()

	// Refuse to serve if the storage credentials cannot be used.
	if err := rt.Storage.Ping(ctx); err != nil {
		cancel()
		slog.Error("Storage check failed", "provider", cfg.StorageProvider, "err", err)
		os.Exit(1)
	}
	cancel()

	var admin *api.AdminHandler
	if rt.Sweeper != nil {
		if err := rt.Sweeper.Start(); err != nil {
			slog.Error("Failed to start sweeper", "err", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			if err := rt.Sweeper.Stop(stopCtx); err != nil {
				slog.Warn("Sweeper did not stop cleanly", "err", err)
			}
		}()
		admin = api.NewAdminHandler(rt.Sweeper)
	} else {
		admin = api.NewAdminHandler(nil)
	}

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)
	server.R.Handle("/metrics", promhttp.Handler())

	server.R.Mount("/api/v1", api.NewRouter(rt.Service, api.Authenticated(rt.Auth)))

	if cfg.AdminAPIKeySHA256 != "" {
		apiKeyMiddleware, err := middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
			APIKeys: map[string]string{
				"admin": cfg.AdminAPIKeySHA256,
			},
		})
		if err != nil {
			slog.Error("Failed initialize API Key middleware", "err", err)
			return
		}
		server.R.Route("/admin", func(r chi.Router) {
			r.Use(apiKeyMiddleware)
			r.Post("/sweep", admin.Sweep)
		})
	} else {
		slog.Info("ADMIN_API_KEY_SHA256 not set, admin routes disabled")
	}

	slog.Info("Starting medical artists server",
		"environment", cfg.Environment,
		"storage", cfg.StorageProvider,
		"database", cfg.DatabaseType(),
		"proxy", cfg.Proxy.URL)

	server.Run()
}
