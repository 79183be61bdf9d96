package main

import (
	"bufio"
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"taskstore/internal/config"
	"taskstore/internal/controller"
	"taskstore/internal/events"
	"taskstore/internal/routes"
	"taskstore/internal/store"
	"taskstore/internal/storage"
	"taskstore/pkg/logger"
)

func main() {
	loadEnvFile(".env")

	ctx := context.Background()
	cfg := config.Get()

	backend, err := storage.Open(ctx, cfg.StorageDSN, cfg.StorageKey)
	if err != nil {
		logger.Error(ctx, "Storage backend unavailable", "error", err, "dsn", cfg.StorageDSN)
		os.Exit(1)
	}
	defer backend.Close()

	s := store.New(backend)
	if err := s.Load(ctx); err != nil {
		// Corrupt or unreadable state is not fatal; start with an empty collection.
		logger.Warn(ctx, "Loading persisted tasks failed, starting empty", "error", err)
	}
	logger.Info(ctx, "Task store loaded", "tasks", s.Stats().Total)

	publisher := events.New(ctx)
	publisher.EnsureTopic(ctx)
	defer publisher.Close()

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      routes.Router(controller.New(s, publisher), cfg.JWTSecret),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "Server error", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Server stopped")
}

// loadEnvFile reads a .env file and sets env vars (only if not already set).
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`) {
			val = strings.Trim(val, `"`)
		} else if strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") {
			val = strings.Trim(val, "'")
		}
		if key != "" && os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
}
