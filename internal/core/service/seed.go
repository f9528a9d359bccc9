package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"taskapp/internal/core/domain"
	"taskapp/internal/core/port"
)

type SeedUser struct {
	User     domain.User
	Password string
}

type SeedTask struct {
	Owner string
	Task  domain.NewTask
}

type SeedReport struct {
	UsersCreated []string
	TasksCreated []string
}

func describe(s string) *string {
	return &s
}

var DevelopmentUsers = []SeedUser{
	{
		User:     domain.User{Username: "John Doe", Email: "john@example.com", FirstName: "John", LastName: "Doe"},
		Password: "password1",
	},
	{
		User:     domain.User{Username: "Bell Elm", Email: "bell.elm2003@gmail.com", FirstName: "Bell", LastName: "Elm"},
		Password: "password2",
	},
}

var DevelopmentTasks = []SeedTask{
	{Owner: "John Doe", Task: domain.NewTask{Title: "Complete Django REST API", Description: describe("Build out all endpoints for the task management system")}},
	{Owner: "John Doe", Task: domain.NewTask{Title: "Write API documentation", Description: describe("Document all endpoints with request/response examples")}},
	{Owner: "John Doe", Task: domain.NewTask{Title: "Set up authentication", Description: describe("Implement token-based authentication"), Completed: true}},
	{Owner: "Bell Elm", Task: domain.NewTask{Title: "Deploy to production", Description: describe("Deploy the API to a cloud provider")}},
	{Owner: "Bell Elm", Task: domain.NewTask{Title: "Add pagination", Description: describe("Implement pagination for task list endpoint")}},
}

// Seeder loads development fixtures. Running it twice creates nothing new.
type Seeder struct {
	users  port.UserService
	tasks  port.TaskRepository
	logger *zap.Logger
}

func NewSeeder(users port.UserService, tasks port.TaskRepository, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Seeder{users: users, tasks: tasks, logger: logger}
}

func (s *Seeder) Seed(ctx context.Context, users []SeedUser, tasks []SeedTask) (SeedReport, error) {
	report := SeedReport{}
	owners := make(map[string]domain.User, len(users))

	s.logger.Info("Seeding data")

	for _, seed := range users {
		user, created, err := s.users.GetOrCreate(ctx, seed.User, seed.Password)

		if err != nil {
			return report, fmt.Errorf("seed user %q: %w", seed.User.Username, err)
		}

		if created {
			report.UsersCreated = append(report.UsersCreated, user.Username)
			s.logger.Info("Created user", zap.String("username", user.Username))
		}

		owners[user.Username] = user
	}

	for _, seed := range tasks {
		owner, ok := owners[seed.Owner]

		if !ok {
			return report, fmt.Errorf("seed task %q: unknown owner %q", seed.Task.Title, seed.Owner)
		}

		_, err := s.tasks.GetByOwnerAndTitle(ctx, owner.ID, seed.Task.Title)

		if err == nil {
			continue
		}

		if !errors.Is(err, domain.ErrNotFound) {
			return report, fmt.Errorf("seed task %q: %w", seed.Task.Title, err)
		}

		task, err := s.tasks.Create(ctx, owner.ID, seed.Task)

		if err != nil {
			return report, fmt.Errorf("seed task %q: %w", seed.Task.Title, err)
		}

		report.TasksCreated = append(report.TasksCreated, task.Title)
		s.logger.Info("Created task", zap.String("title", task.Title), zap.String("owner", owner.Username))
	}

	s.logger.Info("Database seeded successfully",
		zap.Int("users_created", len(report.UsersCreated)),
		zap.Int("tasks_created", len(report.TasksCreated)))

	return report, nil
}
