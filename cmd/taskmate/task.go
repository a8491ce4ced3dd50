package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"taskmate/internal/client"
	"taskmate/internal/model"
)

const dueLayout = "2006-01-02"

func taskCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, edit or delete tasks",
	}
	cmd.AddCommand(taskAddCmd(configFile))
	cmd.AddCommand(taskEditCmd(configFile))
	cmd.AddCommand(taskDeleteCmd(configFile))
	return cmd
}

func taskAddCmd(configFile *string) *cobra.Command {
	var description, priority, status, due, every string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task; --every makes it recurring",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := client.TaskPayload{
				Title:       strings.Join(args, " "),
				Description: description,
			}

			p, err := model.ParsePriority(priority)
			if err != nil {
				return err
			}
			payload.Priority = p
			s, err := model.ParseStatus(status)
			if err != nil {
				return err
			}
			payload.Status = s

			if due != "" {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				payload.DueDate = &d
			}
			if every != "" {
				f, err := model.ParseFrequency(every)
				if err != nil {
					return err
				}
				payload.IsRecurring = true
				payload.RecurringFrequency = f
			}

			env, err := openClient(*configFile)
			if err != nil {
				return err
			}
			app, _, err := env.newApp(cmd.Context(), nil)
			if err != nil {
				return err
			}

			task, err := app.SaveTask(cmd.Context(), payload)
			if err != nil {
				return userError(err)
			}
			fmt.Printf("Created %s (%s)\n", task.Title, task.ID)
			if task.IsRecurring {
				fmt.Printf("🤖 Automation enabled: repeats %s\n", task.RecurringFrequency)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(model.PriorityMedium), "low, medium or high")
	cmd.Flags().StringVarP(&status, "status", "s", string(model.StatusTodo), "todo, in-progress or completed")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&every, "every", "", "Repeat daily, weekly or monthly")

	return cmd
}

func taskEditCmd(configFile *string) *cobra.Command {
	var title, description, priority, status, due, every string
	var noRepeat, noDue bool

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update client.TaskUpdate
			flags := cmd.Flags()

			if flags.Changed("title") {
				update.Title = &title
			}
			if flags.Changed("description") {
				update.Description = &description
			}
			if flags.Changed("priority") {
				p, err := model.ParsePriority(priority)
				if err != nil {
					return err
				}
				update.Priority = &p
			}
			if flags.Changed("status") {
				s, err := model.ParseStatus(status)
				if err != nil {
					return err
				}
				update.Status = &s
			}
			switch {
			case noDue:
				update.ClearDueDate = true
			case flags.Changed("due"):
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				update.DueDate = &d
			}
			switch {
			case noRepeat:
				off := false
				update.IsRecurring = &off
			case flags.Changed("every"):
				f, err := model.ParseFrequency(every)
				if err != nil {
					return err
				}
				on := true
				update.IsRecurring = &on
				update.RecurringFrequency = &f
			}

			env, err := openClient(*configFile)
			if err != nil {
				return err
			}
			app, _, err := env.newApp(cmd.Context(), nil)
			if err != nil {
				return err
			}

			task, err := app.UpdateTask(cmd.Context(), args[0], update)
			if err != nil {
				return userError(err)
			}
			fmt.Printf("Updated %s (%s)\n", task.Title, task.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVarP(&status, "status", "s", "", "todo, in-progress or completed")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&noDue, "no-due", false, "Remove the due date")
	cmd.Flags().StringVar(&every, "every", "", "Repeat daily, weekly or monthly")
	cmd.Flags().BoolVar(&noRepeat, "no-repeat", false, "Stop repeating this task")
	cmd.MarkFlagsMutuallyExclusive("due", "no-due")
	cmd.MarkFlagsMutuallyExclusive("every", "no-repeat")

	return cmd
}

func taskDeleteCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task and its automation rule",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openClient(*configFile)
			if err != nil {
				return err
			}
			app, _, err := env.newApp(cmd.Context(), nil)
			if err != nil {
				return err
			}

			if err := app.DeleteTask(cmd.Context(), args[0]); err != nil {
				return userError(err)
			}
			fmt.Println("Task deleted.")
			return nil
		},
	}
}

func parseDue(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(dueLayout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("due date %q: expected YYYY-MM-DD", raw)
	}
	return d, nil
}
