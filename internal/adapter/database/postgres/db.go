package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"taskapp/internal/core/domain"
	"taskapp/pkg/config"
)

type DB struct {
	*pgxpool.Pool
	QueryBuilder *squirrel.StatementBuilderType
}

func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)

	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}

	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)

	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := RunMigrations(cfg.URL, cfg.Migrations()); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Database ready", zap.String("driver", "postgres"))

	return Wrap(pool), nil
}

func Wrap(pool *pgxpool.Pool) *DB {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	return &DB{
		Pool:         pool,
		QueryBuilder: &psql,
	}
}

// PingContext lets the health handler treat the pool like *sql.DB.
func (db *DB) PingContext(ctx context.Context) error {
	return db.Ping(ctx)
}

// NewMigrator opens a database/sql handle through the pgx stdlib driver for
// golang-migrate. Closing the migrator closes that handle.
func NewMigrator(url string, migrationsPath string) (*migrate.Migrate, error) {
	sqlDB, err := sql.Open("pgx", url)

	if err != nil {
		return nil, err
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})

	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("create migrate driver: %w", err)
	}

	return migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
}

func RunMigrations(url string, migrationsPath string) error {
	m, err := NewMigrator(url, migrationsPath)

	if err != nil {
		return err
	}

	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

const (
	codeNotNullViolation    = "23502"
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
)

// TranslateError maps driver errors onto domain errors.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation, codeNotNullViolation, codeCheckViolation:
			return fmt.Errorf("%w: %v", domain.ErrIntegrity, err)
		case codeUniqueViolation:
			return domain.NewValidationError("username", "a user with that username already exists").WithCause(domain.ErrIntegrity)
		}
	}

	return err
}
