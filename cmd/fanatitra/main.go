package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"fanatitra/internal/auth"
	"fanatitra/internal/backend"
	"fanatitra/internal/cli"
	"fanatitra/internal/directory"
	"fanatitra/internal/guard"
	apphttp "fanatitra/internal/http"
	"fanatitra/internal/ledger"
	"fanatitra/internal/log"
	"fanatitra/internal/stats"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	dir := directory.New(res.Store, logger, directory.WithPublisher(res.Publisher))
	led := ledger.New(res.Store, guard.New(dir, logger), logger, ledger.WithPublisher(res.Publisher))
	st := stats.NewService(led, dir, logger, stats.WithLocation(loc))
	authSvc := auth.New(auth.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		Secret:        cfg.JWTSecret,
		TTL:           cfg.TokenTTL,
	}, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Directory: dir,
		Ledger:    led,
		Stats:     st,
		Auth:      authSvc,
		Store:     res.Store,
		Logger:    logger,
	}, apphttp.Options{
		AuthRequired:       cfg.AuthRequired,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSAllowedOrigin:  cfg.CORSAllowedOrigin,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting fanatitra server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", loc.String(),
		"auth_required", cfg.AuthRequired,
		"change_events", res.Publisher != nil,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		_ = res.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
