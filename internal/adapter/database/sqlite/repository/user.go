package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"taskapp/internal/adapter/database/sqlite"
	"taskapp/internal/core/domain"
	"taskapp/internal/core/port"
	tel "taskapp/internal/core/telemetry"
)

type UserRepository struct {
	db        *sqlite.DB
	telemetry port.Telemetry
}

func NewUserRepository(db *sqlite.DB, telemetry port.Telemetry) port.UserRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserRepository{
		db:        db,
		telemetry: telemetry,
	}
}

func (ur *UserRepository) getOne(ctx context.Context, where sq.Eq) (domain.User, error) {
	sql, args, err := ur.db.QueryBuilder.Select(sqlite.UserColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	user, err := sqlite.ScanUser(ur.db.QueryRowContext(ctx, sql, args...))

	if err != nil {
		return domain.User{}, sqlite.TranslateError(err)
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
		"db.system":    "sqlite",
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
		ToSql()

	if err != nil {
		ur.telemetry.RecordRepositoryOperation(ctx, "Create", "user", time.Since(start), err)
		return domain.User{}, err
	}

	result, err := ur.db.ExecContext(ctx, query, args...)

	if err != nil {
		err = sqlite.TranslateError(err)
		ur.telemetry.RecordRepositoryOperation(ctx, "Create", "user", time.Since(start), err)
		return domain.User{}, err
	}

	id, err := result.LastInsertId()

	if err != nil {
		ur.telemetry.RecordRepositoryOperation(ctx, "Create", "user", time.Since(start), err)
		return domain.User{}, err
	}

	saved, err := ur.GetByID(ctx, id)
	ur.telemetry.RecordRepositoryOperation(ctx, "Create", "user", time.Since(start), err)

	return saved, err
}

// Delete removes the user's tasks and then the user in one transaction,
// independent of whether the connection enforces foreign keys.
func (ur *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := ur.telemetry.StartRepositorySpan(ctx, "Delete", "user", map[string]any{
		"db.system":    "sqlite",
		"db.table":     "users",
		"db.operation": "DELETE",
		"user.id":      id,
	})
	defer span.End()

	start := time.Now()

	err := ur.delete(ctx, id)
	ur.telemetry.RecordRepositoryOperation(ctx, "Delete", "user", time.Since(start), ignoreNotFound(err))

	return err
}

func (ur *UserRepository) delete(ctx context.Context, id int64) error {
	tx, err := ur.db.BeginTx(ctx, nil)

	if err != nil {
		return err
	}

	defer tx.Rollback()

	tasksQuery, tasksArgs, err := ur.db.QueryBuilder.Delete("tasks").Where(sq.Eq{"user_id": id}).ToSql()

	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, tasksQuery, tasksArgs...); err != nil {
		return sqlite.TranslateError(err)
	}

	userQuery, userArgs, err := ur.db.QueryBuilder.Delete("users").Where(sq.Eq{"id": id}).ToSql()

	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, userQuery, userArgs...)

	if err != nil {
		return sqlite.TranslateError(err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrNotFound
	}

	return tx.Commit()
}
