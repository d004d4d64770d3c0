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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hongminglow/finanzas-be/internal/config"
	"github.com/hongminglow/finanzas-be/internal/observability"
	"github.com/hongminglow/finanzas-be/internal/server"
	"github.com/hongminglow/finanzas-be/internal/session"
	"github.com/hongminglow/finanzas-be/internal/storage"
	"github.com/hongminglow/finanzas-be/internal/storage/memory"
	postgres "github.com/hongminglow/finanzas-be/internal/storage/postgres"
	"github.com/hongminglow/finanzas-be/internal/storage/rediskv"
	"github.com/hongminglow/finanzas-be/internal/storage/sqlite"
)

func main() {
	envLoaded := godotenv.Load() == nil

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	if !envLoaded {
		log.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	users, closeUsers, err := openDirectory(ctx, cfg)
	if err != nil {
		log.Error("init directory", "backend", cfg.DirectoryBackend, "err", err)
		os.Exit(1)
	}
	defer closeUsers()

	kv, closeKV, err := openSessionKV(ctx, cfg)
	if err != nil {
		log.Error("init session store", "backend", cfg.SessionBackend, "err", err)
		os.Exit(1)
	}
	defer closeKV()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.New(cfg, users, session.NewStore(kv), log, reg)

	go func() {
		log.Info("finanzas backend listening", "addr", cfg.HTTPAddress(), "env", cfg.Env,
			"directory", cfg.DirectoryBackend, "sessions", cfg.SessionBackend)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("server shutting down")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("graceful shutdown error", "err", err)
	}
}

func openDirectory(ctx context.Context, cfg config.Config) (storage.UserStore, func(), error) {
	switch cfg.DirectoryBackend {
	case config.DirectoryPostgres:
		store, err := postgres.NewUserStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return memory.NewDirectory(), func() {}, nil
	}
}

func openSessionKV(ctx context.Context, cfg config.Config) (storage.KeyValueStore, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionRedis:
		kv := rediskv.New(rediskv.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := kv.Ping(ctx); err != nil {
			kv.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return kv, func() { kv.Close() }, nil
	case config.SessionMemory:
		return memory.NewKV(), func() {}, nil
	default:
		kv, err := sqlite.NewKV(ctx, cfg.SessionDBPath)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { kv.Close() }, nil
	}
}
