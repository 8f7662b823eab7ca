package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/curriculab/payments-service/internal/config"
	"github.com/curriculab/payments-service/internal/infrastructure/database"
	"github.com/curriculab/payments-service/internal/usecase"
	"github.com/curriculab/payments-service/pkg/logger"
)

// Standalone janitor binary for cron environments that cannot reach the
// internal close-orders endpoint.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	repos := database.NewRepositories(db, zapLogger)
	janitor := usecase.NewJanitor(repos.Order, cfg.Janitor.DwellPeriod, cfg.Janitor.BatchLimit, zapLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := janitor.CloseDueOrders(ctx)
	if err != nil {
		zapLogger.Error("Janitor run failed", zap.Error(err))
		os.Exit(1)
	}

	out, _ := json.Marshal(report)
	os.Stdout.Write(append(out, '\n'))
}
