package port

import (
	"context"

	"taskapp/internal/core/domain"
)

type TaskRepository interface {
	Create(ctx context.Context, ownerID int64, task domain.NewTask) (domain.Task, error)
	GetByID(ctx context.Context, id int64) (domain.Task, error)
	GetForOwner(ctx context.Context, ownerID int64, id int64) (domain.Task, error)
	GetByOwnerAndTitle(ctx context.Context, ownerID int64, title string) (domain.Task, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error)
	Update(ctx context.Context, id int64, patch domain.TaskPatch) (domain.Task, error)
}

// TaskService scopes every operation to the principal passed in.
type TaskService interface {
	List(ctx context.Context, principal domain.Principal) ([]domain.Task, error)
	Retrieve(ctx context.Context, principal domain.Principal, id string) (domain.Task, error)
	Create(ctx context.Context, principal domain.Principal, task domain.NewTask) (domain.Task, error)
	Update(ctx context.Context, principal domain.Principal, id string, patch domain.TaskPatch) (domain.Task, error)
	Replace(ctx context.Context, principal domain.Principal, id string, patch domain.TaskPatch) (domain.Task, error)
}
