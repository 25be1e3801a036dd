package cmd

import (
	"errors"
	"fmt"
	"strings"

	"plated-rewards/models"
	"plated-rewards/utils"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const sqlitePrefix = "sqlite://"

// openDB connects to Postgres, or to a SQLite file when dsn starts with sqlite://.
func openDB(dsn string) (*gorm.DB, error) {
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows one writer; serialize through a single connection.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// bootstrap loads config, builds the logger and opens the database.
func bootstrap() (utils.Config, *zap.SugaredLogger, *gorm.DB, error) {
	dotenvErr := utils.LoadDotEnv()
	cfg := utils.LoadConfig()

	log, err := utils.NewLogger(cfg.LogMode)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	if dotenvErr != nil {
		log.Warn("no .env file found, reading environment variables directly")
	}
	if cfg.DatabaseURL == "" {
		return cfg, log, nil, errors.New("DATABASE_URL environment variable not set")
	}

	db, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return cfg, log, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, log, db, nil
}
