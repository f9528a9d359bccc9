package http

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"taskapp/internal/adapter/database/memory"
	"taskapp/internal/adapter/database/postgres"
	pgrepository "taskapp/internal/adapter/database/postgres/repository"
	"taskapp/internal/adapter/database/redis"
	"taskapp/internal/adapter/database/sqlite"
	"taskapp/internal/adapter/database/sqlite/repository"
	"taskapp/internal/adapter/http/handler"
	"taskapp/internal/adapter/http/middleware"
	"taskapp/internal/adapter/http/validation"
	"taskapp/internal/adapter/telemetry"
	"taskapp/internal/core/port"
	"taskapp/internal/core/service"
	"taskapp/pkg/auth"
	"taskapp/pkg/config"
	"taskapp/pkg/logger"
)

// Store is one opened database with its repositories.
type Store struct {
	Tasks  port.TaskRepository
	Users  port.UserRepository
	Pinger handler.Pinger

	close func()
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore connects to the configured driver and applies pending migrations.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger, probe port.Telemetry) (*Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, log)

		if err != nil {
			return nil, err
		}

		return &Store{
			Tasks:  pgrepository.NewTaskRepository(db, probe),
			Users:  pgrepository.NewUserRepository(db, probe),
			Pinger: db,
			close:  db.Close,
		}, nil
	case "sqlite":
		db, err := sqlite.NewDB(cfg.Database, log)

		if err != nil {
			return nil, err
		}

		return &Store{
			Tasks:  repository.NewTaskRepository(db, probe),
			Users:  repository.NewUserRepository(db, probe),
			Pinger: db,
			close:  func() { _ = db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// NewRateLimitStore returns the counter store for the configured backend.
func NewRateLimitStore(ctx context.Context, cfg *config.Config) (port.RateLimitStore, error) {
	switch cfg.RateLimit.Backend {
	case "redis":
		return redis.NewRateLimitStore(ctx, redis.NewClient(cfg.Redis))
	case "memory", "":
		return memory.NewRateLimitStore(), nil
	default:
		return nil, fmt.Errorf("unsupported rate limit backend %q", cfg.RateLimit.Backend)
	}
}

type Container struct {
	Store *Store

	TaskService port.TaskService
	UserService port.UserService
	Resolver    port.PrincipalResolver

	TaskHandler   *handler.TaskHandler
	HealthHandler *handler.HealthHandler
	RateLimiter   *middleware.RateLimiter

	limitStore port.RateLimitStore
}

func NewContainer(ctx context.Context, cfg *config.Config, log *logger.Logger, tel *telemetry.Container) (*Container, error) {
	probe := tel.Probe()

	store, err := OpenStore(ctx, cfg, log.Zap(), probe)

	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	validator := validation.New()

	taskSvc := service.NewTaskService(store.Tasks, validator, probe)
	userSvc := service.NewUserService(store.Users, validator, probe)

	c := &Container{
		Store:         store,
		TaskService:   taskSvc,
		UserService:   userSvc,
		Resolver:      service.NewPrincipalResolver(auth.New(cfg.JWT), store.Users),
		TaskHandler:   handler.NewTaskHandler(taskSvc, log),
		HealthHandler: handler.NewHealthHandler(store.Pinger),
	}

	if cfg.RateLimit.Enabled {
		limitStore, err := NewRateLimitStore(ctx, cfg)

		if err != nil {
			store.Close()
			return nil, fmt.Errorf("rate limit store: %w", err)
		}

		c.limitStore = limitStore
		c.RateLimiter = middleware.NewRateLimiter(limitStore, cfg.RateLimit.Rules, log.Zap(), tel.AppMetrics)
	}

	return c, nil
}

func (c *Container) Close() {
	if c.limitStore != nil {
		_ = c.limitStore.Close()
	}

	c.Store.Close()
}
