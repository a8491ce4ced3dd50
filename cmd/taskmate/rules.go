package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"taskmate/internal/dashboard"
)

func rulesCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect or reset automation rules",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List active automation rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openClient(*configFile)
			if err != nil {
				return err
			}
			rules, err := env.rules.ListRules(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(dashboard.RenderRules(rules, time.Now()))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every automation rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openClient(*configFile)
			if err != nil {
				return err
			}
			if err := env.rules.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("All automation rules cleared.")
			return nil
		},
	})

	return cmd
}
