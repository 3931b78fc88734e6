package main

import (
	"context"
	"log"
	"time"

	"github.com/academypay/academypay/internal/config"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/postgres"
	postgresRepo "github.com/academypay/academypay/internal/repository/postgres"
)

func init() {
	time.Local = time.UTC
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	db, err := postgres.NewDB(cfg, logr)
	if err != nil {
		logr.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := postgresRepo.EnsureSchema(ctx, db); err != nil {
		logr.Fatalf("failed to apply schema: %v", err)
	}

	logr.Info("schema is up to date")
}
