// Package main is the entry point for the nightly batch run: it builds,
// aggregates, costs and validates the CP snapshot for one job date.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"cpstock/internal/core/apperror"
	"cpstock/internal/core/batchctx"
	"cpstock/internal/domain/pipeline"
	"cpstock/internal/infrastructure/storage/postgres"
	"cpstock/internal/infrastructure/storage/postgres/master_repo"
	"cpstock/internal/infrastructure/storage/postgres/snapshot_repo"
	"cpstock/internal/infrastructure/storage/postgres/voucher_repo"
	"cpstock/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var (
		dateFlag       = flag.String("date", "", "job date (YYYY-MM-DD, default today)")
		monthStartFlag = flag.String("month-start", "", "accounting month start (YYYY-MM-DD, default first of job date's month)")
		keepDays       = flag.Int("keep-days", 0, "purge snapshots older than this many days before the job date (0 disables)")
	)
	flag.Parse()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	jobDate, err := resolveJobDate(*dateFlag)
	if err != nil {
		log.Fatalw("invalid -date", "error", err)
	}
	monthStart, err := resolveMonthStart(*monthStartFlag, jobDate)
	if err != nil {
		log.Fatalw("invalid -month-start", "error", err)
	}
	if jobDate.Before(monthStart) {
		log.Fatalw("job date before month start",
			"job_date", jobDate.Format("2006-01-02"),
			"month_start", monthStart.Format("2006-01-02"),
		)
	}

	run := batchctx.NewRunContext(jobDate)
	ctx := batchctx.WithRun(logger.WithLogger(context.Background(), log), run)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

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

	logger.Info(ctx, "batch run starting",
		"job_date", jobDate.Format("2006-01-02"),
		"month_start", monthStart.Format("2006-01-02"),
	)

	result, err := engine.RunDaily(ctx, monthStart, jobDate)
	if err != nil {
		if apperror.IsValidationBlocked(err) {
			logger.Error(ctx, "snapshot blocked by validation errors",
				"errors", result.ErrorCount,
				"by_rule", result.ErrorsByRule(),
			)
			os.Exit(2)
		}
		log.Fatalw("batch run failed", "error", err)
	}

	if *keepDays > 0 {
		deleted, err := engine.PurgeStale(ctx, jobDate, *keepDays)
		if err != nil {
			log.Fatalw("purge failed", "error", err)
		}
		logger.Info(ctx, "stale snapshots purged", "deleted", deleted)
	}

	logger.Info(ctx, "batch run finished",
		"records", result.TotalRecords,
		"warnings", result.WarningCount,
	)
}

func resolveJobDate(raw string) (time.Time, error) {
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", raw)
}

func resolveMonthStart(raw string, jobDate time.Time) (time.Time, error) {
	if raw == "" {
		return time.Date(jobDate.Year(), jobDate.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", raw)
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
