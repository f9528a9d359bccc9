package repository

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"taskapp/internal/adapter/database/sqlite"
	"taskapp/internal/core/domain"
	"taskapp/internal/core/port"
	. "taskapp/pkg/test"
	"taskapp/pkg/test/factory"
)

type UserRepositorySuite struct {
	suite.Suite
	DB       *sqlite.DB
	UserRepo port.UserRepository
	TaskRepo port.TaskRepository
}

func (s *UserRepositorySuite) SetupTest() {
	s.DB = InitTestDB()
	s.UserRepo = NewUserRepository(s.DB, nil)
	s.TaskRepo = NewTaskRepository(s.DB, nil)
}

func (s *UserRepositorySuite) TearDownTest() {
	CloseDB(s.T(), s.DB.DB)
}

func TestUserRepositorySuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(UserRepositorySuite))
}

func (s *UserRepositorySuite) TestCreateAndFind() {
	user, err := s.UserRepo.Create(ctx, factory.NewUser(map[string]any{
		"Username":  "John Doe",
		"Email":     "john@example.com",
		"FirstName": "John",
		"LastName":  "Doe",
	}))

	assert.NoError(s.T(), err)
	assert.NotZero(s.T(), user.ID)
	assert.Equal(s.T(), "John Doe", user.Username)
	assert.NotEmpty(s.T(), user.EncryptedPassword)
	assert.False(s.T(), user.CreatedAt.IsZero())

	byID, err := s.UserRepo.GetByID(ctx, user.ID)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), user, byID)

	byName, err := s.UserRepo.GetByUsername(ctx, "John Doe")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), user.ID, byName.ID)
}

func (s *UserRepositorySuite) TestGetMissing() {
	_, err := s.UserRepo.GetByID(ctx, 42)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	_, err = s.UserRepo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *UserRepositorySuite) TestCreate_DuplicateUsername() {
	_, err := s.UserRepo.Create(ctx, factory.NewUser(map[string]any{"Username": "john"}))
	assert.NoError(s.T(), err)

	_, err = s.UserRepo.Create(ctx, factory.NewUser(map[string]any{"Username": "john"}))

	ve, ok := domain.AsValidationError(err)
	assert.True(s.T(), ok)
	assert.True(s.T(), ve.HasField("username"))
	assert.True(s.T(), errors.Is(err, domain.ErrIntegrity))
}

func (s *UserRepositorySuite) TestDelete_CascadesToTasks() {
	john, _ := s.UserRepo.Create(ctx, factory.NewUser(map[string]any{"Username": "john"}))
	bell, _ := s.UserRepo.Create(ctx, factory.NewUser(map[string]any{"Username": "bell"}))

	first, _ := s.TaskRepo.Create(ctx, john.ID, factory.NewTask())
	second, _ := s.TaskRepo.Create(ctx, john.ID, factory.NewTask())
	kept, _ := s.TaskRepo.Create(ctx, bell.ID, factory.NewTask())

	err := s.UserRepo.Delete(ctx, john.ID)
	Expect(err).ToNot(HaveOccurred())

	_, err = s.TaskRepo.GetByID(ctx, first.ID)
	Expect(err).To(MatchError(domain.ErrNotFound))

	_, err = s.TaskRepo.GetByID(ctx, second.ID)
	Expect(err).To(MatchError(domain.ErrNotFound))

	_, err = s.UserRepo.GetByID(ctx, john.ID)
	Expect(err).To(MatchError(domain.ErrNotFound))

	var orphans int
	Expect(s.DB.QueryRow("SELECT COUNT(*) FROM tasks WHERE user_id = ?", john.ID).Scan(&orphans)).To(Succeed())
	Expect(orphans).To(Equal(0))

	remaining, err := s.TaskRepo.GetByID(ctx, kept.ID)
	Expect(err).ToNot(HaveOccurred())
	Expect(remaining.OwnerID).To(Equal(bell.ID))
}

func (s *UserRepositorySuite) TestDelete_ForeignKeyCascade() {
	john, _ := s.UserRepo.Create(ctx, factory.NewUser(map[string]any{"Username": "john"}))
	s.TaskRepo.Create(ctx, john.ID, factory.NewTask())

	_, err := s.DB.Exec("DELETE FROM users WHERE id = ?", john.ID)
	Expect(err).ToNot(HaveOccurred())

	var count int
	Expect(s.DB.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&count)).To(Succeed())
	Expect(count).To(Equal(0))
}

func (s *UserRepositorySuite) TestDelete_Missing() {
	err := s.UserRepo.Delete(ctx, 777)

	Expect(err).To(MatchError(domain.ErrNotFound))
}

func (s *UserRepositorySuite) TestCleanDB() {
	john, _ := s.UserRepo.Create(ctx, factory.NewUser())
	s.TaskRepo.Create(ctx, john.ID, factory.NewTask())

	CleanDB(s.T(), s.DB.DB)

	var users int
	Expect(s.DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&users)).To(Succeed())
	Expect(users).To(Equal(0))
}
