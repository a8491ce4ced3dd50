package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"taskmate/internal/api"
	"taskmate/internal/config"
	"taskmate/internal/repository"
	"taskmate/internal/service"
)

func serveCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the task API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *configFile)
		},
	}
}

func runServe(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := newLogger(cfg.LogLevel)
	if log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	srv := api.NewServer(
		service.NewTaskService(taskRepo),
		service.NewStatsService(taskRepo),
		service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL),
		log,
		api.Options{CORSOrigins: cfg.CORSOrigins},
	)

	if err := srv.Run(ctx, cfg.Addr); err != nil {
		return err
	}
	log.Info().Msg("Shutdown complete")
	return nil
}
