package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"taskapp/internal/adapter/database/postgres"
	"taskapp/internal/core/domain"
	"taskapp/internal/core/port"
	tel "taskapp/internal/core/telemetry"
)

type TaskRepository struct {
	db        *postgres.DB
	telemetry port.Telemetry
}

func NewTaskRepository(db *postgres.DB, telemetry port.Telemetry) port.TaskRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TaskRepository{db: db, telemetry: telemetry}
}

func (tr *TaskRepository) selectTasks() sq.SelectBuilder {
	return tr.db.QueryBuilder.Select(postgres.TaskColumns...).
		From("tasks t").
		Join("users u ON u.id = t.user_id")
}

func (tr *TaskRepository) getOne(ctx context.Context, query sq.SelectBuilder) (domain.Task, error) {
	sql, args, err := query.Limit(1).ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	task, err := postgres.ScanTask(tr.db.QueryRow(ctx, sql, args...))

	if err != nil {
		return domain.Task{}, postgres.TranslateError(err)
	}

	return task, nil
}

func (tr *TaskRepository) observe(ctx context.Context, operation string, attrs map[string]any, fn func(ctx context.Context) error) error {
	attrs["db.system"] = "postgresql"

	ctx, span := tr.telemetry.StartRepositorySpan(ctx, operation, "task", attrs)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	tr.telemetry.RecordRepositoryOperation(ctx, operation, "task", time.Since(start), ignoreNotFound(err))

	return err
}

func (tr *TaskRepository) GetByID(ctx context.Context, id int64) (task domain.Task, err error) {
	err = tr.observe(ctx, "GetByID", map[string]any{"task.id": id}, func(ctx context.Context) error {
		task, err = tr.getOne(ctx, tr.selectTasks().Where(sq.Eq{"t.id": id}))
		return err
	})

	return task, err
}

func (tr *TaskRepository) GetForOwner(ctx context.Context, ownerID int64, id int64) (task domain.Task, err error) {
	err = tr.observe(ctx, "GetForOwner", map[string]any{"task.id": id, "user.id": ownerID}, func(ctx context.Context) error {
		task, err = tr.getOne(ctx, tr.selectTasks().Where(sq.Eq{"t.id": id, "t.user_id": ownerID}))
		return err
	})

	return task, err
}

func (tr *TaskRepository) GetByOwnerAndTitle(ctx context.Context, ownerID int64, title string) (domain.Task, error) {
	return tr.getOne(ctx, tr.selectTasks().
		Where(sq.Eq{"t.user_id": ownerID, "t.title": title}).
		OrderBy("t.id ASC"))
}

func (tr *TaskRepository) ListByOwner(ctx context.Context, ownerID int64) (tasks []domain.Task, err error) {
	err = tr.observe(ctx, "ListByOwner", map[string]any{"user.id": ownerID}, func(ctx context.Context) error {
		sql, args, err := tr.selectTasks().
			Where(sq.Eq{"t.user_id": ownerID}).
			OrderBy("t.created_at DESC", "t.id DESC").
			ToSql()

		if err != nil {
			return err
		}

		rows, err := tr.db.Query(ctx, sql, args...)

		if err != nil {
			return err
		}

		tasks, err = postgres.ScanTasks(rows)
		return err
	})

	return tasks, err
}

func (tr *TaskRepository) Create(ctx context.Context, ownerID int64, input domain.NewTask) (task domain.Task, err error) {
	err = tr.observe(ctx, "Create", map[string]any{"user.id": ownerID, "db.operation": "INSERT"}, func(ctx context.Context) error {
		if ownerID <= 0 {
			return domain.NewValidationError("user", "a task requires an owner").WithCause(domain.ErrIntegrity)
		}

		if err := domain.CheckTitle(input.Title); err != nil {
			return err
		}

		now := time.Now().UTC()

		sql, args, err := tr.db.QueryBuilder.Insert("tasks").
			Columns("title", "description", "completed", "user_id", "created_at", "updated_at").
			Values(strings.TrimSpace(input.Title), input.Description, input.Completed, ownerID, now, now).
			Suffix("RETURNING id").
			ToSql()

		if err != nil {
			return err
		}

		var id int64

		if err := tr.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
			return ownerError(postgres.TranslateError(err))
		}

		task, err = tr.getOne(ctx, tr.selectTasks().Where(sq.Eq{"t.id": id}))
		return err
	})

	return task, err
}

func (tr *TaskRepository) Update(ctx context.Context, id int64, patch domain.TaskPatch) (task domain.Task, err error) {
	err = tr.observe(ctx, "Update", map[string]any{"task.id": id, "db.operation": "UPDATE"}, func(ctx context.Context) error {
		if patch.Title != nil {
			if err := domain.CheckTitle(*patch.Title); err != nil {
				return err
			}
		}

		sql, args, err := tr.db.QueryBuilder.Update("tasks").
			SetMap(patchColumns(patch, time.Now().UTC())).
			Where(sq.Eq{"id": id}).
			ToSql()

		if err != nil {
			return err
		}

		tag, err := tr.db.Exec(ctx, sql, args...)

		if err != nil {
			return postgres.TranslateError(err)
		}

		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}

		task, err = tr.getOne(ctx, tr.selectTasks().Where(sq.Eq{"t.id": id}))
		return err
	})

	return task, err
}

func patchColumns(patch domain.TaskPatch, now time.Time) map[string]any {
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
