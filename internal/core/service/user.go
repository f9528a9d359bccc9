package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskapp/internal/core/domain"
	"taskapp/internal/core/port"
	tel "taskapp/internal/core/telemetry"
	"taskapp/internal/core/util"
)

const userServiceName = "user"

type UserService struct {
	repo      port.UserRepository
	validator port.Validator
	telemetry port.Telemetry
}

func NewUserService(repo port.UserRepository, validator port.Validator, telemetry port.Telemetry) *UserService {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserService{
		repo:      repo,
		validator: validator,
		telemetry: telemetry,
	}
}

func (s *UserService) Create(ctx context.Context, user domain.User, password string) (domain.User, error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, userServiceName, "create", 0, map[string]any{"user.username": user.Username})
	defer span.End()

	start := time.Now()

	created, err := s.create(ctx, user, password)
	s.telemetry.RecordServiceOperation(ctx, userServiceName, "create", created.ID, time.Since(start), err)

	return created, err
}

func (s *UserService) create(ctx context.Context, user domain.User, password string) (domain.User, error) {
	user.Username = strings.TrimSpace(user.Username)

	if err := s.validator.Validate(user); err != nil {
		return domain.User{}, err
	}

	if password != "" {
		encrypted, err := util.GenerateEncrypt(password)

		if err != nil {
			return domain.User{}, err
		}

		user.EncryptedPassword = encrypted
	}

	return s.repo.Create(ctx, user)
}

// GetOrCreate looks the user up by username and creates it when missing.
// The boolean reports whether a row was created.
func (s *UserService) GetOrCreate(ctx context.Context, user domain.User, password string) (domain.User, bool, error) {
	existing, err := s.repo.GetByUsername(ctx, strings.TrimSpace(user.Username))

	if err == nil {
		return existing, false, nil
	}

	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, false, err
	}

	created, err := s.Create(ctx, user, password)

	if err != nil {
		return domain.User{}, false, err
	}

	return created, true, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Delete removes the user together with every task they own.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	ctx, span := s.telemetry.StartServiceSpan(ctx, userServiceName, "delete", id, nil)
	defer span.End()

	start := time.Now()

	err := s.repo.Delete(ctx, id)
	s.telemetry.RecordServiceOperation(ctx, userServiceName, "delete", id, time.Since(start), err)

	if err == nil {
		s.telemetry.RecordBusinessEvent(ctx, "deleted", "user", id, id, nil)
	}

	return err
}
