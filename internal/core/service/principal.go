package service

import (
	"context"
	"errors"

	"taskapp/internal/core/domain"
	"taskapp/internal/core/port"
)

// TokenVerifier extracts the user id from a bearer token.
type TokenVerifier interface {
	VerifyToken(token string) (int64, error)
}

type PrincipalResolver struct {
	tokens TokenVerifier
	users  port.UserRepository
}

func NewPrincipalResolver(tokens TokenVerifier, users port.UserRepository) *PrincipalResolver {
	return &PrincipalResolver{tokens: tokens, users: users}
}

// Resolve returns domain.ErrUnauthenticated for a bad token or a token whose
// user no longer exists.
func (r *PrincipalResolver) Resolve(ctx context.Context, token string) (domain.Principal, error) {
	userID, err := r.tokens.VerifyToken(token)

	if err != nil {
		return domain.Anonymous(), domain.ErrUnauthenticated
	}

	user, err := r.users.GetByID(ctx, userID)

	if errors.Is(err, domain.ErrNotFound) {
		return domain.Anonymous(), domain.ErrUnauthenticated
	}

	if err != nil {
		return domain.Anonymous(), err
	}

	return user.Principal(), nil
}

var _ port.PrincipalResolver = (*PrincipalResolver)(nil)
