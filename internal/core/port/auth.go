package port

import (
	"context"

	"taskapp/internal/core/domain"
)

// PrincipalResolver turns a bearer token into the principal it identifies.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (domain.Principal, error)
}
