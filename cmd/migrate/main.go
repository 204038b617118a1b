package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/app/migrate"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/config"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/logger"
)

func main() {
	var (
		command = flag.String("command", "up", "up, status or down")
		timeout = flag.Duration("timeout", time.Minute, "overall command timeout")
		target  = flag.Int64("target", 0, "version to roll down to (0 = one step)")
	)
	flag.Parse()

	log := logger.New("migrate", slog.LevelInfo)
	if err := run(*command, *timeout, *target, log); err != nil {
		log.Error("migration failed", "command", *command, "error", err)
		os.Exit(1)
	}
	log.Info("migration command completed", "command", *command)
}

func run(command string, timeout time.Duration, target int64, log *slog.Logger) error {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		pool.Close()
		return fmt.Errorf("configure migration runner: %w", err)
	}
	defer runner.Close()

	switch command {
	case "up":
		return runner.Ensure(ctx)
	case "status":
		return runner.Status(ctx)
	case "down":
		return runner.Down(ctx, target)
	default:
		return fmt.Errorf("unsupported command %q", command)
	}
}
