package datastore

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/MC-Knight/django-bims/internal/conf"
)

// PostgresStore implements DataStore for PostgreSQL
type PostgresStore struct {
	DataStore
	Settings *conf.Settings
}

func validatePostgresConfig(settings *conf.Settings) error {
	pgConf := settings.Output.Postgres
	if pgConf.Host == "" || pgConf.Port == "" || pgConf.Database == "" {
		return fmt.Errorf("incomplete postgres configuration: host, port and database are required")
	}
	return nil
}

// Open sets up the PostgreSQL database connection and runs migrations
func (store *PostgresStore) Open() error {
	if err := validatePostgresConfig(store.Settings); err != nil {
		return err
	}

	pgConf := store.Settings.Output.Postgres
	sslMode := pgConf.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pgConf.Host, pgConf.Port, pgConf.Username, pgConf.Password, pgConf.Database, sslMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: createGormLogger(store.Settings.Debug)})
	if err != nil {
		getDatastoreLogger().Error("Failed to open PostgreSQL database",
			"host", pgConf.Host,
			"port", pgConf.Port,
			"database", pgConf.Database,
			"error", err)
		return fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "PostgreSQL", pgConf.Host)
}

// Close PostgreSQL database connections
func (store *PostgresStore) Close() error {
	if store.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	sqlDB, err := store.DB.DB()
	if err != nil {
		getDatastoreLogger().Error("Failed to retrieve generic DB object", "error", err)
		return err
	}

	if err := sqlDB.Close(); err != nil {
		getDatastoreLogger().Error("Failed to close PostgreSQL database", "error", err)
		return err
	}

	return nil
}
