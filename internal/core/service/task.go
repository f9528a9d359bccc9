package service

import (
	"context"
	"time"

	"taskapp/internal/core/domain"
	"taskapp/internal/core/port"
	tel "taskapp/internal/core/telemetry"
	"taskapp/internal/core/util"
)

const taskServiceName = "task"

// taskFields carries the rules for client-supplied task fields.
type taskFields struct {
	Title string `json:"title" validate:"required,max=200"`
}

type TaskService struct {
	repo      port.TaskRepository
	validator port.Validator
	telemetry port.Telemetry
}

func NewTaskService(repo port.TaskRepository, validator port.Validator, telemetry port.Telemetry) *TaskService {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TaskService{
		repo:      repo,
		validator: validator,
		telemetry: telemetry,
	}
}

// List never fails for anonymous callers; they simply own nothing.
func (s *TaskService) List(ctx context.Context, principal domain.Principal) ([]domain.Task, error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, taskServiceName, "list", principal.UserID, nil)
	defer span.End()

	start := time.Now()

	if !principal.IsAuthenticated() {
		s.telemetry.RecordServiceOperation(ctx, taskServiceName, "list", 0, time.Since(start), nil)
		return []domain.Task{}, nil
	}

	tasks, err := s.repo.ListByOwner(ctx, principal.UserID)
	s.telemetry.RecordServiceOperation(ctx, taskServiceName, "list", principal.UserID, time.Since(start), err)

	if err != nil {
		return nil, err
	}

	span.SetAttributes(map[string]any{"task.count": len(tasks)})

	return tasks, nil
}

func (s *TaskService) Retrieve(ctx context.Context, principal domain.Principal, id string) (domain.Task, error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, taskServiceName, "retrieve", principal.UserID, map[string]any{"task.id": id})
	defer span.End()

	start := time.Now()

	task, err := s.scoped(ctx, principal, id)
	s.telemetry.RecordServiceOperation(ctx, taskServiceName, "retrieve", principal.UserID, time.Since(start), err)

	return task, err
}

func (s *TaskService) Create(ctx context.Context, principal domain.Principal, input domain.NewTask) (domain.Task, error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, taskServiceName, "create", principal.UserID, nil)
	defer span.End()

	start := time.Now()

	task, err := s.create(ctx, principal, input)
	s.telemetry.RecordServiceOperation(ctx, taskServiceName, "create", principal.UserID, time.Since(start), err)

	return task, err
}

func (s *TaskService) create(ctx context.Context, principal domain.Principal, input domain.NewTask) (domain.Task, error) {
	if !principal.IsAuthenticated() {
		return domain.Task{}, domain.ErrUnauthenticated
	}

	input = input.Normalize()

	if err := s.validator.Validate(taskFields{Title: input.Title}); err != nil {
		return domain.Task{}, err
	}

	task, err := s.repo.Create(ctx, principal.UserID, input)

	if err != nil {
		return domain.Task{}, err
	}

	s.telemetry.RecordBusinessEvent(ctx, "created", "task", task.ID, principal.UserID, map[string]any{
		"completed": task.Completed,
	})

	return task, nil
}

// Update applies a partial patch. An empty patch still refreshes updated_at.
func (s *TaskService) Update(ctx context.Context, principal domain.Principal, id string, patch domain.TaskPatch) (domain.Task, error) {
	return s.update(ctx, "update", principal, id, patch)
}

// Replace is Update with a mandatory title.
func (s *TaskService) Replace(ctx context.Context, principal domain.Principal, id string, patch domain.TaskPatch) (domain.Task, error) {
	return s.update(ctx, "replace", principal, id, patch)
}

func (s *TaskService) update(ctx context.Context, operation string, principal domain.Principal, id string, patch domain.TaskPatch) (domain.Task, error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, taskServiceName, operation, principal.UserID, map[string]any{"task.id": id})
	defer span.End()

	start := time.Now()

	task, err := s.applyPatch(ctx, operation, principal, id, patch)
	s.telemetry.RecordServiceOperation(ctx, taskServiceName, operation, principal.UserID, time.Since(start), err)

	return task, err
}

func (s *TaskService) applyPatch(ctx context.Context, operation string, principal domain.Principal, id string, patch domain.TaskPatch) (domain.Task, error) {
	current, err := s.scoped(ctx, principal, id)

	if err != nil {
		return domain.Task{}, err
	}

	patch = patch.Normalize()

	if operation == "replace" && patch.Title == nil {
		empty := ""
		patch.Title = &empty
	}

	if patch.Title != nil {
		if err := s.validator.Validate(taskFields{Title: *patch.Title}); err != nil {
			return domain.Task{}, err
		}
	}

	updated, err := s.repo.Update(ctx, current.ID, patch)

	if err != nil {
		return domain.Task{}, err
	}

	s.telemetry.RecordBusinessEvent(ctx, operation+"d", "task", updated.ID, principal.UserID, map[string]any{
		"fields_changed": !patch.IsEmpty(),
	})

	return updated, nil
}

// scoped resolves id among the principal's own tasks. Missing, foreign and
// malformed ids all come back as domain.ErrNotFound.
func (s *TaskService) scoped(ctx context.Context, principal domain.Principal, id string) (domain.Task, error) {
	if !principal.IsAuthenticated() {
		return domain.Task{}, domain.ErrNotFound
	}

	taskID, err := util.ParseID(id)

	if err != nil {
		return domain.Task{}, domain.ErrNotFound
	}

	return s.repo.GetForOwner(ctx, principal.UserID, taskID)
}
