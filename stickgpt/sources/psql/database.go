package psql

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"stickgpt/stickgpt/config"
	"stickgpt/stickgpt/sources/psql/models"
	"stickgpt/stickgpt/utils/logging"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase connects to Postgres with the DB_* settings.
func NewDatabase(ctx context.Context, cfg config.Config) (*Database, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
	)
	logging.AppLogger.Info("connecting to database",
		zap.String("host", cfg.DBHost),
		zap.String("port", cfg.DBPort),
		zap.String("db", cfg.DBName),
	)
	return open(ctx, postgres.Open(connStr), 0)
}

// NewSQLiteDatabase opens (or creates) an embedded database file. ":memory:" works too.
func NewSQLiteDatabase(ctx context.Context, path string) (*Database, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	return open(ctx, sqlite.Open(path), 1)
}

func open(ctx context.Context, dialector gorm.Dialector, maxOpenConns int) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if maxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(maxOpenConns)
	}

	// Auto-migrate models (automatic schema creation)
	err = db.WithContext(ctx).
		AutoMigrate(
			&models.Bookmark{},
			&models.Chat{},
			&models.UserMemory{},
			&models.KVEntry{},
		)
	if err != nil {
		return nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}

	return &Database{DB: db}, nil
}

func (db *Database) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
