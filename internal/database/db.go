package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/models"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const maxConnectAttempts = 5

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// GormConfig is shared by the server and the test helpers.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				Colorful:                  false,
				LogLevel:                  logger.Warn,
				SlowThreshold:             time.Second,
				IgnoreRecordNotFoundError: true,
			},
		),
	}
}

// Connect opens the database (waiting for it to come up) and migrates the schema.
func Connect(cfg *config.Config) *gorm.DB {
	dial, err := dialector(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}

	// 1. Connect with GORM (Wait for DB to be ready)
	var db *gorm.DB
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		db, err = gorm.Open(dial, GormConfig())
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<attempt)
		log.Printf("Failed to connect to database (attempt=%d/%d): %v; retrying in %s", attempt, maxConnectAttempts, err, sleep)
		time.Sleep(sleep)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database after %d attempts: %v", maxConnectAttempts, err)
	}

	if sqlDB, derr := db.DB(); derr == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if pluginErr := db.Use(otelgorm.NewPlugin()); pluginErr != nil {
		log.Printf("db connected but failed to install otelgorm plugin: %v", pluginErr)
	}

	log.Printf("Connected to %s", cfg.DBDriver)

	// 2. Auto-Migrate
	if err := Migrate(db); err != nil {
		log.Fatal("Failed to migrate database schema: ", err)
	}
	log.Println("Database schema synced")

	return db
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}
