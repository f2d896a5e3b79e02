package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/daap14/headless/internal/config"
	"github.com/daap14/headless/internal/migrate"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|down)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	target := flag.Int64("target", 0, "target version for down command (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	runner, err := migrate.New(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to configure migration runner", "error", err)
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = runner.Up(ctx)
	case "status":
		err = runner.Status(ctx)
	case "down":
		err = runner.Down(ctx, *target)
	default:
		logger.Error("unsupported command", "command", *command)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("migration command failed", "command", *command, "error", err)
		os.Exit(1)
	}

	logger.Info("migration command completed", "command", *command)
}
