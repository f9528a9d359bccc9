package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskapp/internal/adapter/database/postgres"
	"taskapp/internal/adapter/database/sqlite"
	api "taskapp/internal/adapter/http"
	"taskapp/internal/adapter/http/validation"
	"taskapp/internal/core/domain"
	"taskapp/internal/core/service"
	"taskapp/pkg/auth"
	"taskapp/pkg/config"
	"taskapp/pkg/logger"
	"taskapp/pkg/tracing"
)

// NewRootCommand wires every subcommand under the taskapp binary.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "taskapp",
		Short:         "Per-user task list API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewSeedCommand())
	rootCmd.AddCommand(NewUserCommand())

	return rootCmd
}

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()

			if err != nil {
				return err
			}

			defer log.Sync()

			return api.StartServer(cmd.Context(), cfg, log)
		},
	}
}

func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *migrate.Migrate) error {
				return report(cmd, "up", m.Up())
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *migrate.Migrate) error {
				return report(cmd, "down", m.Down())
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *migrate.Migrate) error {
				version, dirty, err := m.Version()

				if errors.Is(err, migrate.ErrNilVersion) {
					cmd.Println("No migrations applied")
					return nil
				}

				if err != nil {
					return err
				}

				cmd.Printf("Version: %d (dirty: %t)\n", version, dirty)

				return nil
			})
		},
	})

	return migrateCmd
}

func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the development users and tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, env *session) error {
				seeder := service.NewSeeder(env.users(), env.store.Tasks, env.log.Zap())

				return tracing.SpanWrapper(ctx, "seed", nil, func(ctx context.Context) error {
					seeded, err := seeder.Seed(ctx, service.DevelopmentUsers, service.DevelopmentTasks)

					if err != nil {
						return err
					}

					cmd.Printf("Created %d users and %d tasks\n", len(seeded.UsersCreated), len(seeded.TasksCreated))

					return nil
				})
			})
		},
	}
}

func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			username, _ := flags.GetString("username")
			email, _ := flags.GetString("email")
			password, _ := flags.GetString("password")
			firstName, _ := flags.GetString("first-name")
			lastName, _ := flags.GetString("last-name")

			if password == "" {
				return errors.New("--password is required")
			}

			return withStore(cmd.Context(), func(ctx context.Context, env *session) error {
				user, err := env.users().Create(ctx, domain.User{
					Username:  username,
					Email:     email,
					FirstName: firstName,
					LastName:  lastName,
				}, password)

				if err != nil {
					return err
				}

				env.log.Logger.Info("Created user", zap.Int64("id", user.ID), zap.String("username", user.Username))
				cmd.Printf("Created user %d (%s)\n", user.ID, user.Username)

				return nil
			})
		},
	}

	createCmd.Flags().String("username", "", "Username (required)")
	createCmd.Flags().String("email", "", "Email address")
	createCmd.Flags().String("password", "", "Password (required)")
	createCmd.Flags().String("first-name", "", "First name")
	createCmd.Flags().String("last-name", "", "Last name")

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user and every task they own",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")

			return withStore(cmd.Context(), func(ctx context.Context, env *session) error {
				users := env.users()

				user, err := users.GetByUsername(ctx, username)

				if err != nil {
					return fmt.Errorf("user %q: %w", username, err)
				}

				if err := users.Delete(ctx, user.ID); err != nil {
					return err
				}

				env.log.Logger.Info("Deleted user", zap.Int64("id", user.ID), zap.String("username", user.Username))
				cmd.Printf("Deleted user %d (%s)\n", user.ID, user.Username)

				return nil
			})
		},
	}

	deleteCmd.Flags().String("username", "", "Username (required)")
	_ = deleteCmd.MarkFlagRequired("username")

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")

			return withStore(cmd.Context(), func(ctx context.Context, env *session) error {
				user, err := env.store.Users.GetByUsername(ctx, username)

				if err != nil {
					return fmt.Errorf("user %q: %w", username, err)
				}

				token, err := auth.New(env.cfg.JWT).CreateToken(user.ID)

				if err != nil {
					return err
				}

				cmd.Println(token)

				return nil
			})
		},
	}

	tokenCmd.Flags().String("username", "", "Username (required)")
	_ = tokenCmd.MarkFlagRequired("username")

	userCmd.AddCommand(createCmd, deleteCmd, tokenCmd)

	return userCmd
}

func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()

	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	log, err := logger.New(cfg.Logger, cfg.App.Name)

	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}

	return cfg, log, nil
}

// session is what the data commands share: config, logger and an open store.
type session struct {
	cfg   *config.Config
	log   *logger.Logger
	store *api.Store
}

func (r *session) users() *service.UserService {
	return service.NewUserService(r.store.Users, validation.New(), nil)
}

func withStore(ctx context.Context, fn func(ctx context.Context, env *session) error) error {
	cfg, log, err := bootstrap()

	if err != nil {
		return err
	}

	defer log.Sync()

	store, err := api.OpenStore(ctx, cfg, log.Zap(), nil)

	if err != nil {
		return err
	}

	defer store.Close()

	return fn(ctx, &session{cfg: cfg, log: log, store: store})
}

func withMigrator(fn func(m *migrate.Migrate) error) error {
	cfg, err := config.Load()

	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	var m *migrate.Migrate

	switch cfg.Database.Driver {
	case "postgres":
		m, err = postgres.NewMigrator(cfg.Database.URL, cfg.Database.Migrations())
	default:
		db, openErr := sqlite.Open(sqlite.DSN(cfg.Database.Path), cfg.Database)

		if openErr != nil {
			return openErr
		}

		m, err = sqlite.NewMigrator(db, cfg.Database.Migrations())

		if err != nil {
			db.Close()
		}
	}

	if err != nil {
		return err
	}

	defer m.Close()

	return fn(m)
}

func report(cmd *cobra.Command, direction string, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		cmd.Println("No migrations to run")
		return nil
	}

	if err != nil {
		return fmt.Errorf("migration %s failed: %w", direction, err)
	}

	cmd.Printf("Migration %s completed successfully\n", direction)

	return nil
}
