package db

import (
	"context"
	"fmt"
	"time"

	"github.com/windoze95/reme-voice/internal/config"
	"github.com/windoze95/reme-voice/internal/db/migrations"
	"github.com/windoze95/reme-voice/internal/logger"
	"github.com/windoze95/reme-voice/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	connectTimeout = time.Minute
	retryInterval  = 5 * time.Second
)

// New creates a new database connection, migrates the schema and seeds the
// ingredient catalog.
func New(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	database, err := connectToDatabaseWithRetry(ctx, cfg.EnvVars.DatabaseUrl)
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(
		&models.Ingredient{},
		&models.InventoryItem{},
		&models.Appliance{},
		&models.Recipe{},
		&models.RecipeIngredient{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	if err := migrations.SeedIngredients(database.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("seed ingredients: %w", err)
	}
	return database, nil
}

// connectToDatabaseWithRetry connects to the database and retries if necessary.
func connectToDatabaseWithRetry(ctx context.Context, databaseURL string) (*gorm.DB, error) {
	logger.Get().Info("connecting to database")

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	start := time.Now()
	for {
		database, err := gorm.Open(postgres.Open(databaseURL), gormCfg)
		if err == nil {
			return database, nil
		}
		if time.Since(start) > connectTimeout {
			return nil, fmt.Errorf("could not connect to database after %s: %w", connectTimeout, err)
		}
		logger.Get().Warn("could not connect to database, retrying...", zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}
