package database

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/whisperwall/whisperwall-backend/internal/config"
	"github.com/whisperwall/whisperwall-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	DB *gorm.DB

	connectOnce sync.Once
	connectErr  error
)

// Connect opens the shared GORM handle. It is idempotent: the first caller
// establishes the connection, every later or concurrent caller observes the
// first outcome. The connection string is the only startup requirement the
// app cannot limp along without, so callers treat a returned error as fatal.
func Connect(cfg *config.Config) error {
	connectOnce.Do(func() {
		connectErr = open(cfg)
	})
	return connectErr
}

func open(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	DB = db
	slog.Info("database connected")
	return nil
}

// Migrate runs AutoMigrate for all persisted models.
func Migrate() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.SystemLog{},
	)
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
