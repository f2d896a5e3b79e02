package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apidoc "github.com/daap14/headless/api"
	"github.com/daap14/headless/internal/api"
	"github.com/daap14/headless/internal/api/middleware"
	"github.com/daap14/headless/internal/auth"
	"github.com/daap14/headless/internal/config"
	"github.com/daap14/headless/internal/datamanager"
	"github.com/daap14/headless/internal/docstore"
	"github.com/daap14/headless/internal/environment"
	"github.com/daap14/headless/internal/migrate"
	"github.com/daap14/headless/internal/settings"
	"github.com/daap14/headless/internal/tenant"
	"github.com/daap14/headless/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	ctx := context.Background()

	if cfg.AutoMigrate {
		runner, err := migrate.New(cfg.DatabaseURL, slog.Default())
		if err != nil {
			slog.Error("failed to configure migrations", "error", err)
			os.Exit(1)
		}
		if err := runner.Up(ctx); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	pool, err := docstore.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := docstore.NewPostgresStore(pool)
	tenantRepo := tenant.NewRepository(pool)
	userRepo := auth.NewRepository(pool)
	authService := auth.NewService(userRepo, cfg.BcryptCost)

	if _, err := authService.BootstrapSuperuser(ctx); err != nil {
		slog.Error("failed to bootstrap superuser", "error", err)
		os.Exit(1)
	}

	aliases := environment.NewAliasManager(store)
	envs := environment.NewManager(store, aliases, datamanager.New(store))
	settingsService := settings.NewService(store)

	deps := api.RouterDeps{
		DBPinger:      store,
		Version:       cfg.Version,
		OpenAPISpec:   apidoc.OpenAPISpec,
		Metrics:       middleware.NewMetrics(),
		AuthService:   authService,
		UserCreator:   authService,
		UserRepo:      userRepo,
		TenantRepo:    tenantRepo,
		Environments:  envs,
		Aliases:       aliases,
		Installer:     environment.NewInstaller(envs, aliases),
		Settings:      settingsService,
		DefaultTenant: cfg.DefaultTenant,
		DefaultLocale: cfg.DefaultLocale,
	}

	if cfg.S3.Enabled() {
		presigner, err := upload.NewS3Presigner(ctx, cfg.S3, cfg.UploadPresignExpiry)
		if err != nil {
			slog.Error("failed to configure upload bucket", "error", err, "bucket", cfg.S3.Bucket)
			os.Exit(1)
		}
		deps.Uploads = upload.NewService(presigner, settingsService)
		deps.Bucket = presigner
	} else {
		slog.Info("S3_BUCKET not set; upload routes disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting headless server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
