package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	"taskapp/internal/adapter/database/postgres"
	"taskapp/internal/core/domain"
	"taskapp/internal/core/port"
	"taskapp/pkg"
	"taskapp/pkg/test/factory"
)

var ctx = context.Background()

// PostgresRepositorySuite runs against TEST_DATABASE_URL and is skipped without it.
type PostgresRepositorySuite struct {
	suite.Suite
	DB       *postgres.DB
	TaskRepo port.TaskRepository
	UserRepo port.UserRepository
}

func TestPostgresRepositorySuite(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres integration tests")
	}

	RegisterTestingT(t)
	suite.Run(t, new(PostgresRepositorySuite))
}

func (s *PostgresRepositorySuite) SetupSuite() {
	url := os.Getenv("TEST_DATABASE_URL")

	err := postgres.RunMigrations(url, filepath.Join(pkg.FindProjectRoot(), "db", "migrations", "postgres"))
	s.Require().NoError(err)

	pool, err := pgxpool.New(ctx, url)
	s.Require().NoError(err)

	s.DB = postgres.Wrap(pool)
	s.TaskRepo = NewTaskRepository(s.DB, nil)
	s.UserRepo = NewUserRepository(s.DB, nil)
}

func (s *PostgresRepositorySuite) SetupTest() {
	_, err := s.DB.Exec(ctx, "TRUNCATE tasks, users RESTART IDENTITY CASCADE")
	s.Require().NoError(err)
}

func (s *PostgresRepositorySuite) TearDownSuite() {
	s.DB.Close()
}

func (s *PostgresRepositorySuite) createUser(username string) domain.User {
	user, err := s.UserRepo.Create(ctx, factory.NewUser(map[string]any{"Username": username}))
	Expect(err).ToNot(HaveOccurred())
	return user
}

func (s *PostgresRepositorySuite) TestCreateAndList() {
	john := s.createUser("john")
	bell := s.createUser("bell")

	s.TaskRepo.Create(ctx, john.ID, domain.NewTask{Title: "x"})
	s.TaskRepo.Create(ctx, bell.ID, domain.NewTask{Title: "other"})
	s.TaskRepo.Create(ctx, john.ID, domain.NewTask{Title: "y"})

	tasks, err := s.TaskRepo.ListByOwner(ctx, john.ID)

	Expect(err).ToNot(HaveOccurred())
	Expect(tasks).To(HaveLen(2))
	Expect(tasks[0].Title).To(Equal("y"))
	Expect(tasks[0].OwnerUsername).To(Equal("john"))
	Expect(tasks[1].Title).To(Equal("x"))
}

func (s *PostgresRepositorySuite) TestScopedLookup() {
	john := s.createUser("john")
	bell := s.createUser("bell")
	task, _ := s.TaskRepo.Create(ctx, john.ID, factory.NewTask())

	_, err := s.TaskRepo.GetForOwner(ctx, bell.ID, task.ID)
	Expect(err).To(MatchError(domain.ErrNotFound))

	found, err := s.TaskRepo.GetForOwner(ctx, john.ID, task.ID)
	Expect(err).ToNot(HaveOccurred())
	Expect(found.ID).To(Equal(task.ID))
}

func (s *PostgresRepositorySuite) TestCreate_UnknownOwner() {
	_, err := s.TaskRepo.Create(ctx, 424242, domain.NewTask{Title: "orphan"})

	ve, ok := domain.AsValidationError(err)
	Expect(ok).To(BeTrue())
	Expect(ve.HasField("user")).To(BeTrue())
	Expect(errors.Is(err, domain.ErrIntegrity)).To(BeTrue())
}

func (s *PostgresRepositorySuite) TestUpdate() {
	john := s.createUser("john")
	task, _ := s.TaskRepo.Create(ctx, john.ID, factory.NewTask(map[string]any{"Description": "d"}))

	time.Sleep(2 * time.Millisecond)

	done := true
	updated, err := s.TaskRepo.Update(ctx, task.ID, domain.TaskPatch{Completed: &done, DescriptionSet: true})

	Expect(err).ToNot(HaveOccurred())
	Expect(updated.Completed).To(BeTrue())
	Expect(updated.Description).To(BeNil())
	Expect(updated.UpdatedAt.After(task.UpdatedAt)).To(BeTrue())

	_, err = s.TaskRepo.Update(ctx, task.ID+1000, domain.TaskPatch{})
	Expect(err).To(MatchError(domain.ErrNotFound))
}

func (s *PostgresRepositorySuite) TestDeleteUserCascades() {
	john := s.createUser("john")
	task, _ := s.TaskRepo.Create(ctx, john.ID, factory.NewTask())

	Expect(s.UserRepo.Delete(ctx, john.ID)).To(Succeed())

	_, err := s.TaskRepo.GetByID(ctx, task.ID)
	Expect(err).To(MatchError(domain.ErrNotFound))

	Expect(s.UserRepo.Delete(ctx, john.ID)).To(MatchError(domain.ErrNotFound))
}

func (s *PostgresRepositorySuite) TestDuplicateUsername() {
	s.createUser("john")

	_, err := s.UserRepo.Create(ctx, factory.NewUser(map[string]any{"Username": "john"}))

	Expect(errors.Is(err, domain.ErrIntegrity)).To(BeTrue())
}
