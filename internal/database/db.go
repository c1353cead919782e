package database

import (
	"fmt"

	"gstdesk/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.WithError(err).Warn("failed to auto-migrate models")
	}

	return db, nil
}

// NewSQLite opens an SQLite database, used for local runs and tests.
// A single connection keeps in-memory databases consistent across queries.
func NewSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table of the schema
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Client{},
		&model.GSTRegistration{},
		&model.GSTReturn{},
		&model.GSTPayment{},
		&model.Notice{},
		&model.Document{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Notification{},
		&model.AuditLog{},
	)
}
