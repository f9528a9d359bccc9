package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	gosqlite "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"taskapp/internal/core/domain"
	"taskapp/pkg/config"
)

type DB struct {
	*sql.DB
	QueryBuilder *squirrel.StatementBuilderType
}

// DSN enables foreign keys on every pooled connection so ON DELETE CASCADE holds.
func DSN(path string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	return path + separator + "_foreign_keys=on&_busy_timeout=5000"
}

func Open(dsn string, cfg config.DatabaseConfig) (*sql.DB, error) {
	sqlDB, err := otelsql.Open("sqlite3", dsn,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName("taskapp"),
		otelsql.WithTracerProvider(otel.GetTracerProvider()),
	)

	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if cfg.LogQueries {
		queryLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logged := sqldblogger.OpenDriver(dsn, sqlDB.Driver(), zerologadapter.New(queryLogger))
		_ = sqlDB.Close()
		sqlDB = logged
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return sqlDB, nil
}

func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	sqlDB, err := Open(DSN(cfg.Path), cfg)

	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := RunMigrations(sqlDB, cfg.Migrations()); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logger.Info("Database ready", zap.String("driver", "sqlite"), zap.String("path", cfg.Path))

	return Wrap(sqlDB), nil
}

func Wrap(sqlDB *sql.DB) *DB {
	queryBuilder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

	return &DB{
		DB:           sqlDB,
		QueryBuilder: &queryBuilder,
	}
}

func NewMigrator(db *sql.DB, migrationsPath string) (*migrate.Migrate, error) {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})

	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "sqlite3", driver)

	if err != nil {
		return nil, fmt.Errorf("create migration instance: %w", err)
	}

	return m, nil
}

func RunMigrations(db *sql.DB, migrationsPath string) error {
	m, err := NewMigrator(db, migrationsPath)

	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// TranslateError maps driver errors onto domain errors.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var sqliteErr gosqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case gosqlite.ErrConstraintForeignKey, gosqlite.ErrConstraintNotNull, gosqlite.ErrConstraintCheck:
			return fmt.Errorf("%w: %v", domain.ErrIntegrity, err)
		case gosqlite.ErrConstraintUnique:
			return domain.NewValidationError("username", "a user with that username already exists").WithCause(domain.ErrIntegrity)
		}
	}

	return err
}
