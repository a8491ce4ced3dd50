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
	"golang.org/x/term"

	"taskmate/internal/automation"
	"taskmate/internal/dashboard"
	"taskmate/internal/model"
)

func boardCmd(configFile *string) *cobra.Command {
	var (
		watch    time.Duration
		priority string
	)

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the task board, creating any due automated tasks first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := dashboard.ParsePriorityFilter(priority)
			if err != nil {
				return err
			}

			env, err := openClient(*configFile)
			if err != nil {
				return err
			}
			app, _, err := env.newApp(cmd.Context(), nil)
			if err != nil {
				return err
			}

			if _, err := app.Load(cmd.Context()); err != nil {
				return reauthHint(err)
			}
			printBoard(app, filter)

			if watch <= 0 {
				return nil
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchBoard(ctx, app, watch, filter)
		},
	}

	cmd.Flags().DurationVarP(&watch, "watch", "w", 0, "Keep refreshing at this interval")
	cmd.Flags().StringVarP(&priority, "priority", "p", "all", "Show only all, high, medium or low priority tasks")

	return cmd
}

func watchBoard(ctx context.Context, app *dashboard.App, every time.Duration, filter model.Priority) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		_, err := app.RunAutomation(ctx)
		if err != nil && !errors.Is(err, automation.ErrPassInFlight) {
			if app.NeedsReauth() {
				return reauthHint(err)
			}
			fmt.Fprintln(os.Stderr, "automation:", err)
		}
		if err := app.Refresh(ctx); err != nil {
			if app.NeedsReauth() {
				return reauthHint(err)
			}
			fmt.Fprintln(os.Stderr, "refresh:", err)
			continue
		}
		printBoard(app, filter)
	}
}

// printBoard draws the filtered board; stats still cover every task.
func printBoard(app *dashboard.App, filter model.Priority) {
	b := dashboard.BuildBoard(dashboard.FilterByPriority(app.Tasks(), filter))
	b.Stats = app.Board().Stats
	fmt.Println(dashboard.Render(b, terminalWidth(), time.Now()))
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 120
}
