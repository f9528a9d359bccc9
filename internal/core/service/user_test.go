package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskapp/internal/adapter/database/sqlite/repository"
	"taskapp/internal/adapter/http/validation"
	"taskapp/internal/core/domain"
	"taskapp/internal/core/util"
	. "taskapp/pkg/test"
)

func newUserService(t *testing.T) *UserService {
	db := InitTestDB()
	t.Cleanup(func() { CloseDB(t, db.DB) })

	return NewUserService(repository.NewUserRepository(db, nil), validation.New(), nil)
}

func TestUserService_Create(t *testing.T) {
	svc := newUserService(t)

	user, err := svc.Create(ctx, domain.User{Username: "  john ", Email: "john@example.com"}, "secret")

	require.NoError(t, err)
	assert.Equal(t, "john", user.Username)
	assert.NotEqual(t, "secret", user.EncryptedPassword)
	assert.NoError(t, util.ComparePassword("secret", user.EncryptedPassword))
}

func TestUserService_CreateInvalid(t *testing.T) {
	svc := newUserService(t)

	_, err := svc.Create(ctx, domain.User{Username: "", Email: "not-an-email"}, "secret")

	ve, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.True(t, ve.HasField("username"))
	assert.True(t, ve.HasField("email"))
}

func TestUserService_GetOrCreate(t *testing.T) {
	svc := newUserService(t)

	first, created, err := svc.GetOrCreate(ctx, domain.User{Username: "john"}, "secret")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.GetOrCreate(ctx, domain.User{Username: "john"}, "other")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestUserService_Delete(t *testing.T) {
	svc := newUserService(t)

	user, _ := svc.Create(ctx, domain.User{Username: "john"}, "secret")

	require.NoError(t, svc.Delete(ctx, user.ID))

	_, err := svc.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, user.ID), domain.ErrNotFound)
}
