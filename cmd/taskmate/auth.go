package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"taskmate/internal/client"
)

func registerCmd(configFile *string) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openClient(*configFile)
			if err != nil {
				return err
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			sess, err := env.api.Register(cmd.Context(), name, email, password)
			if err != nil {
				return describe(err)
			}
			if err := env.sessions.Save(cmd.Context(), *sess); err != nil {
				return err
			}
			fmt.Printf("Welcome, %s! You are signed in.\n", sess.User.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func loginCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and store the session locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openClient(*configFile)
			if err != nil {
				return err
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			sess, err := env.api.Login(cmd.Context(), args[0], password)
			if err != nil {
				return describe(err)
			}
			if err := env.sessions.Save(cmd.Context(), *sess); err != nil {
				return err
			}
			fmt.Printf("Signed in as %s.\n", sess.User.Email)
			return nil
		},
	}
}

func logoutCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openClient(*configFile)
			if err != nil {
				return err
			}
			if err := env.sessions.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}

// readPassword prompts without echo on a terminal and reads a plain line otherwise.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// describe turns API failures into the message the server sent.
func describe(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	return err
}
