package port

import (
	"context"

	"taskapp/internal/core/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	Delete(ctx context.Context, id int64) error
}

type UserService interface {
	Create(ctx context.Context, user domain.User, password string) (domain.User, error)
	GetOrCreate(ctx context.Context, user domain.User, password string) (domain.User, bool, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	Delete(ctx context.Context, id int64) error
}
