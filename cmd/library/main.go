package main

import (
	"context"
	"fmt"
	stdLog "log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/app"
	"github.com/Astemirdum/library-catalog/library/config"
	"github.com/Astemirdum/library-catalog/library/internal/hub"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/library/internal/repository"
	"github.com/Astemirdum/library-catalog/library/internal/service"
	"github.com/Astemirdum/library-catalog/library/migrations"
	"github.com/Astemirdum/library-catalog/pkg/logger"
	"github.com/Astemirdum/library-catalog/pkg/postgres"
)

// @title Library catalog API
// @version 1.0
// @BasePath /api
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLog.Println("load envs from .env:", err)
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.NewConfig(config.WithWriteTimeout(time.Minute))
}

func rootCmd() *cobra.Command {
	serve := serveCmd()
	root := &cobra.Command{
		Use:          "library",
		Short:        "Library catalog and loan management",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.AddCommand(serve, migrateCmd(), createUserCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server, the push hub and the background workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			app.Run(cfg)
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply or inspect the database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := postgres.Connect(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()
			return postgres.Migrate(cmd.Context(), pool, migrations.MigrationFiles, args[0])
		},
	}
}

func createUserCmd() *cobra.Command {
	var (
		req      model.CreateUserRequest
		memberID string
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a login for a librarian or a member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if memberID != "" {
				id, err := uuid.Parse(memberID)
				if err != nil {
					return fmt.Errorf("member-id: %w", err)
				}
				req.MemberID = id
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.NewLogger(cfg.Log, "library-cli")
			defer func() { _ = log.Sync() }()

			return withService(cmd.Context(), cfg, log, func(svc *service.Service) error {
				id, err := svc.CreateUser(cmd.Context(), req)
				if err != nil {
					return err
				}
				log.Info("user created", zap.String("id", id.String()), zap.String("email", req.Email), zap.String("role", req.Role))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "login email")
	cmd.Flags().StringVar(&req.Password, "password", "", "login password, at least 6 characters")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Role, "role", "Librarian", "Librarian or Member")
	cmd.Flags().StringVar(&memberID, "member-id", "", "member the login belongs to (Member role)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func withService(ctx context.Context, cfg *config.Config, log *zap.Logger, fn func(svc *service.Service) error) error {
	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return err
	}
	defer db.Close()
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return err
	}
	svc := service.NewService(repo, hub.New(log), service.NewActivitySink(repo), nil, service.Options{
		LoanPeriod:   cfg.Library.LoanPeriod,
		ReviewPolicy: cfg.Library.ReviewPolicy,
	}, log)
	return fn(svc)
}
