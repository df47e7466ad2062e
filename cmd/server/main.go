// Package main is the entry point for the snapshot report server: the
// read-only HTTP surface over the CP snapshot, gated by validation.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cpstock/internal/domain/pipeline"
	v1 "cpstock/internal/infrastructure/http/v1"
	"cpstock/internal/infrastructure/storage/postgres"
	"cpstock/internal/infrastructure/storage/postgres/master_repo"
	"cpstock/internal/infrastructure/storage/postgres/snapshot_repo"
	"cpstock/internal/infrastructure/storage/postgres/voucher_repo"
	"cpstock/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting cpstock report server")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)
	engine := pipeline.NewEngine(
		txm,
		snapshot_repo.NewSnapshotRepo(txm),
		master_repo.NewInventoryRepo(txm),
		master_repo.NewCustomerRepo(txm),
		master_repo.NewSupplierRepo(txm),
		voucher_repo.NewSalesRepo(txm),
		voucher_repo.NewPurchaseRepo(txm),
		voucher_repo.NewAdjustmentRepo(txm),
	)

	router := v1.NewRouter(v1.RouterConfig{
		Pool:   pool,
		Logger: log,
		Engine: engine,
	})

	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
