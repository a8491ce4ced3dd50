package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var Version = "dev"

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "taskmate",
		Short:         "TaskMate - task board with recurring task automation",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a yaml config file")

	rootCmd.AddCommand(serveCmd(&configFile))
	rootCmd.AddCommand(registerCmd(&configFile))
	rootCmd.AddCommand(loginCmd(&configFile))
	rootCmd.AddCommand(logoutCmd(&configFile))
	rootCmd.AddCommand(boardCmd(&configFile))
	rootCmd.AddCommand(taskCmd(&configFile))
	rootCmd.AddCommand(automateCmd(&configFile))
	rootCmd.AddCommand(rulesCmd(&configFile))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger writes human-readable output to a terminal and JSON otherwise.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(lvl).With().Timestamp().Logger()
}
