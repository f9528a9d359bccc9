package repository

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"taskapp/internal/adapter/database/postgres"
	"taskapp/internal/core/domain"
	"taskapp/internal/core/port"
	tel "taskapp/internal/core/telemetry"
)

type UserRepository struct {
	db        *postgres.DB
	telemetry port.Telemetry
}

func NewUserRepository(db *postgres.DB, telemetry port.Telemetry) port.UserRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserRepository{db: db, telemetry: telemetry}
}

func (ur *UserRepository) getOne(ctx context.Context, where sq.Eq) (domain.User, error) {
	sql, args, err := ur.db.QueryBuilder.Select(postgres.UserColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	user, err := postgres.ScanUser(ur.db.QueryRow(ctx, sql, args...))

	if err != nil {
		return domain.User{}, postgres.TranslateError(err)
	}

	return user, nil
}

func (ur *UserRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return ur.getOne(ctx, sq.Eq{"id": id})
}

func (ur *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return ur.getOne(ctx, sq.Eq{"username": username})
}

func (ur *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, span := ur.telemetry.StartRepositorySpan(ctx, "Create", "user", map[string]any{
		"db.system":    "postgresql",
		"db.table":     "users",
		"db.operation": "INSERT",
	})
	defer span.End()

	start := time.Now()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query, args, err := ur.db.QueryBuilder.Insert("users").
		Columns("username", "email", "first_name", "last_name", "encrypted_password", "created_at").
		Values(user.Username, user.Email, user.FirstName, user.LastName, user.EncryptedPassword, user.CreatedAt).
		Suffix("RETURNING " + strings.Join(postgres.UserColumns, ", ")).
		ToSql()

	if err != nil {
		ur.telemetry.RecordRepositoryOperation(ctx, "Create", "user", time.Since(start), err)
		return domain.User{}, err
	}

	saved, err := postgres.ScanUser(ur.db.QueryRow(ctx, query, args...))
	err = postgres.TranslateError(err)
	ur.telemetry.RecordRepositoryOperation(ctx, "Create", "user", time.Since(start), err)

	if err != nil {
		return domain.User{}, err
	}

	return saved, nil
}

// Delete removes the user's tasks and then the user in one transaction.
func (ur *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := ur.telemetry.StartRepositorySpan(ctx, "Delete", "user", map[string]any{
		"db.system":    "postgresql",
		"db.table":     "users",
		"db.operation": "DELETE",
		"user.id":      id,
	})
	defer span.End()

	start := time.Now()

	err := pgx.BeginFunc(ctx, ur.db.Pool, func(tx pgx.Tx) error {
		tasksQuery, tasksArgs, err := ur.db.QueryBuilder.Delete("tasks").Where(sq.Eq{"user_id": id}).ToSql()

		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, tasksQuery, tasksArgs...); err != nil {
			return postgres.TranslateError(err)
		}

		userQuery, userArgs, err := ur.db.QueryBuilder.Delete("users").Where(sq.Eq{"id": id}).ToSql()

		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, userQuery, userArgs...)

		if err != nil {
			return postgres.TranslateError(err)
		}

		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}

		return nil
	})

	ur.telemetry.RecordRepositoryOperation(ctx, "Delete", "user", time.Since(start), ignoreNotFound(err))

	return err
}

