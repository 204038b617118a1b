package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/app/migrate"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/collector"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/config"
	httpx "github.com/EazyNick/Kubernetes-Docker-Server/internal/http"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/logger"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository/postgres"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/admin"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/alert"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/auth"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/event"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/logs"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/monitor"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/stats"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/ws"
)

func main() {
	cfg := config.Load()
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	hub := ws.NewHub()

	authSvc := auth.New(repo, repo, repo, log, cfg)
	adminSvc := admin.New(repo, repo, log)
	monitorSvc := monitor.New(repo, repo, log)
	alertSvc := alert.New(repo, log)
	eventSvc := event.New(repo, hub, log)
	logSvc := logs.New(repo, hub, log)
	statsSvc := stats.New(repo, repo, repo, repo, log)

	if cfg.DockerCollect {
		dockerCollector, err := collector.New(cfg.DockerHost, cfg.NodeName, cfg.CollectInterval, repo, monitorSvc, log)
		if err != nil {
			log.Warn("docker collector unavailable", "error", err)
		} else if err := dockerCollector.Ping(ctx); err != nil {
			log.Warn("docker daemon unreachable, collector disabled", "error", err)
			_ = dockerCollector.Close()
		} else {
			defer dockerCollector.Close()
			go dockerCollector.Run(ctx)
		}
	}

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, authSvc, adminSvc, monitorSvc, alertSvc, eventSvc, logSvc, statsSvc, hub, limiter, cfg.AgentToken, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
