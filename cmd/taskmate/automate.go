package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskmate/internal/automation"
	"taskmate/internal/notify"
	"taskmate/internal/service"
)

func automateCmd(configFile *string) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "automate",
		Short: "Create due recurring tasks, once or on an interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAutomate(ctx, *configFile, once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single pass and exit")

	return cmd
}

func runAutomate(ctx context.Context, configFile string, once bool) error {
	env, err := openClient(configFile)
	if err != nil {
		return err
	}

	notifiers := notify.Multi{notify.NewLog(env.log)}
	if env.cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(env.cfg.TelegramToken, env.cfg.TelegramChatID, env.log)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		go tg.Run(ctx)
		notifiers = append(notifiers, tg)
	}

	_, engine, err := env.newApp(ctx, notifiers)
	if err != nil {
		return err
	}

	if once {
		report, err := engine.RunPass(ctx)
		if err != nil {
			return reauthHint(err)
		}
		fmt.Printf("Checked %d rules, created %d tasks, %d failed.\n", report.Evaluated, report.Created, report.Failed)
		return nil
	}

	env.log.Info().Dur("interval", env.cfg.AutomationInterval).Msg("automation runner started")
	err = engine.Run(ctx, service.NewSchedulerService(time.Local, env.log), env.cfg.AutomationInterval)
	if errors.Is(err, automation.ErrReauthRequired) {
		return reauthHint(err)
	}
	if err != nil {
		return err
	}
	env.log.Info().Msg("automation runner stopped")
	return nil
}
