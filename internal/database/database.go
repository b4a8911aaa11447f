package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/tickethub/internal/models"
)

// Connect opens the Postgres database, creating it first when the server does
// not have it yet, and brings the schema up to date.
func Connect(dsn string, verbose bool) (*gorm.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := ensureDatabase(ctx, dsn); err != nil {
		return nil, fmt.Errorf("ensure database: %w", err)
	}

	level := logger.Warn
	if verbose {
		level = logger.Info
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Msg("database ready")
	return conn, nil
}

// Migrate creates or updates the schema for every model.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Event{},
		&models.EventImage{},
		&models.Booking{},
		&models.Transaction{},
		&models.PasswordResetToken{},
	)
}

// maintenanceDSN points dsn at the "postgres" database and returns the name
// of the database it originally targeted. ok is false for DSNs that are not
// URLs or name no database.
func maintenanceDSN(dsn string) (admin, name string, ok bool) {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return "", "", false
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", "", false
	}
	name = strings.TrimPrefix(parsed.Path, "/")
	if name == "" || name == "postgres" {
		return "", "", false
	}
	parsed.Path = "/postgres"
	return parsed.String(), name, true
}

func ensureDatabase(ctx context.Context, dsn string) error {
	admin, name, ok := maintenanceDSN(dsn)
	if !ok {
		return nil
	}

	sqlDB, err := sql.Open("postgres", admin)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var exists bool
	err = sqlDB.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
	if err != nil || exists {
		return err
	}

	log.Info().Str("database", name).Msg("creating database")
	_, err = sqlDB.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name))
	return err
}
