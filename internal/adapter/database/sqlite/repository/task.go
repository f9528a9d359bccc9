package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"taskapp/internal/adapter/database/sqlite"
	"taskapp/internal/core/domain"
	"taskapp/internal/core/port"
	tel "taskapp/internal/core/telemetry"
)

type TaskRepository struct {
	db        *sqlite.DB
	telemetry port.Telemetry
}

func NewTaskRepository(db *sqlite.DB, telemetry port.Telemetry) port.TaskRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TaskRepository{
		db:        db,
		telemetry: telemetry,
	}
}

func (tr *TaskRepository) selectTasks() sq.SelectBuilder {
	return tr.db.QueryBuilder.Select(sqlite.TaskColumns...).
		From("tasks t").
		Join("users u ON u.id = t.user_id")
}

func (tr *TaskRepository) getOne(ctx context.Context, query sq.SelectBuilder) (domain.Task, error) {
	sql, args, err := query.Limit(1).ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	task, err := sqlite.ScanTask(tr.db.QueryRowContext(ctx, sql, args...))

	if err != nil {
		return domain.Task{}, sqlite.TranslateError(err)
	}

	return task, nil
}

func (tr *TaskRepository) GetByID(ctx context.Context, id int64) (domain.Task, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "GetByID", "task", map[string]any{
		"db.system": "sqlite",
		"task.id":   id,
	})
	defer span.End()

	start := time.Now()

	task, err := tr.getOne(ctx, tr.selectTasks().Where(sq.Eq{"t.id": id}))
	tr.telemetry.RecordRepositoryOperation(ctx, "GetByID", "task", time.Since(start), ignoreNotFound(err))

	return task, err
}

func (tr *TaskRepository) GetForOwner(ctx context.Context, ownerID int64, id int64) (domain.Task, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "GetForOwner", "task", map[string]any{
		"db.system": "sqlite",
		"task.id":   id,
		"user.id":   ownerID,
	})
	defer span.End()

	start := time.Now()

	task, err := tr.getOne(ctx, tr.selectTasks().Where(sq.Eq{"t.id": id, "t.user_id": ownerID}))
	tr.telemetry.RecordRepositoryOperation(ctx, "GetForOwner", "task", time.Since(start), ignoreNotFound(err))

	return task, err
}

func (tr *TaskRepository) GetByOwnerAndTitle(ctx context.Context, ownerID int64, title string) (domain.Task, error) {
	query := tr.selectTasks().
		Where(sq.Eq{"t.user_id": ownerID, "t.title": title}).
		OrderBy("t.id ASC")

	return tr.getOne(ctx, query)
}

func (tr *TaskRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "ListByOwner", "task", map[string]any{
		"db.system": "sqlite",
		"db.table":  "tasks",
		"user.id":   ownerID,
	})
	defer span.End()

	start := time.Now()

	sql, args, err := tr.selectTasks().
		Where(sq.Eq{"t.user_id": ownerID}).
		OrderBy("t.created_at DESC", "t.id DESC").
		ToSql()

	if err != nil {
		tr.telemetry.RecordRepositoryOperation(ctx, "ListByOwner", "task", time.Since(start), err)
		return nil, err
	}

	rows, err := tr.db.QueryContext(ctx, sql, args...)

	if err != nil {
		tr.telemetry.RecordRepositoryOperation(ctx, "ListByOwner", "task", time.Since(start), err)
		return nil, err
	}

	defer rows.Close()

	tasks, err := sqlite.ScanTasks(rows)
	tr.telemetry.RecordRepositoryOperation(ctx, "ListByOwner", "task", time.Since(start), err)

	if err != nil {
		return nil, err
	}

	span.SetAttributes(map[string]any{"db.rows_returned": len(tasks)})

	return tasks, nil
}

func (tr *TaskRepository) Create(ctx context.Context, ownerID int64, input domain.NewTask) (domain.Task, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Create", "task", map[string]any{
		"db.system":    "sqlite",
		"db.table":     "tasks",
		"db.operation": "INSERT",
		"user.id":      ownerID,
	})
	defer span.End()

	start := time.Now()

	task, err := tr.create(ctx, ownerID, input)
	tr.telemetry.RecordRepositoryOperation(ctx, "Create", "task", time.Since(start), err)

	return task, err
}

func (tr *TaskRepository) create(ctx context.Context, ownerID int64, input domain.NewTask) (domain.Task, error) {
	if err := checkNewTask(ownerID, input); err != nil {
		return domain.Task{}, err
	}

	now := time.Now().UTC()

	query, args, err := tr.db.QueryBuilder.Insert("tasks").
		Columns("title", "description", "completed", "user_id", "created_at", "updated_at").
		Values(strings.TrimSpace(input.Title), input.Description, input.Completed, ownerID, now, now).
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	result, err := tr.db.ExecContext(ctx, query, args...)

	if err != nil {
		return domain.Task{}, ownerError(sqlite.TranslateError(err))
	}

	id, err := result.LastInsertId()

	if err != nil {
		return domain.Task{}, err
	}

	return tr.getOne(ctx, tr.selectTasks().Where(sq.Eq{"t.id": id}))
}

// Update writes only the supplied fields and always refreshes updated_at.
func (tr *TaskRepository) Update(ctx context.Context, id int64, patch domain.TaskPatch) (domain.Task, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Update", "task", map[string]any{
		"db.system":    "sqlite",
		"db.table":     "tasks",
		"db.operation": "UPDATE",
		"task.id":      id,
	})
	defer span.End()

	start := time.Now()

	task, err := tr.update(ctx, id, patch)
	tr.telemetry.RecordRepositoryOperation(ctx, "Update", "task", time.Since(start), ignoreNotFound(err))

	return task, err
}

func (tr *TaskRepository) update(ctx context.Context, id int64, patch domain.TaskPatch) (domain.Task, error) {
	if patch.Title != nil {
		if err := domain.CheckTitle(*patch.Title); err != nil {
			return domain.Task{}, err
		}
	}

	query, args, err := tr.db.QueryBuilder.Update("tasks").
		SetMap(PatchColumns(patch, time.Now().UTC())).
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	result, err := tr.db.ExecContext(ctx, query, args...)

	if err != nil {
		return domain.Task{}, sqlite.TranslateError(err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.Task{}, domain.ErrNotFound
	}

	return tr.getOne(ctx, tr.selectTasks().Where(sq.Eq{"t.id": id}))
}

// PatchColumns turns a patch into the column set for an UPDATE.
func PatchColumns(patch domain.TaskPatch, now time.Time) map[string]any {
	columns := map[string]any{"updated_at": now}

	if patch.Title != nil {
		columns["title"] = strings.TrimSpace(*patch.Title)
	}

	if patch.DescriptionSet {
		columns["description"] = patch.Description
	}

	if patch.Completed != nil {
		columns["completed"] = *patch.Completed
	}

	return columns
}

func checkNewTask(ownerID int64, input domain.NewTask) error {
	if ownerID <= 0 {
		return domain.NewValidationError("user", "a task requires an owner").WithCause(domain.ErrIntegrity)
	}

	return domain.CheckTitle(input.Title)
}

// ownerError reports an unresolvable owner as a validation failure that still matches ErrIntegrity.
func ownerError(err error) error {
	if errors.Is(err, domain.ErrIntegrity) {
		if _, ok := domain.AsValidationError(err); !ok {
			return domain.NewValidationError("user", "user does not exist").WithCause(err)
		}
	}

	return err
}

func ignoreNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}

	return err
}
