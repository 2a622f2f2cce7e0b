package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yukikurage/taskflow/internal/backend"
)

func newSignupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup <email>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.authenticate(cmd, args[0], a.client.SignUp)
		},
	}
	cmd.Flags().String("password", "", "Password (prompted when omitted)")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.authenticate(cmd, args[0], a.client.SignIn)
		},
	}
	cmd.Flags().String("password", "", "Password (prompted when omitted)")
	return cmd
}

type authFunc func(ctx context.Context, email, password string) (*backend.Session, error)

func (a *app) authenticate(cmd *cobra.Command, email string, auth authFunc) error {
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		var err error
		if password, err = promptPassword(cmd); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
	defer cancel()

	session, err := auth(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.session.Save(session); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", session.User.Email)
	return nil
}

func promptPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
			defer cancel()

			signOutErr := a.client.SignOut(ctx)
			a.tasks.Reset()
			if err := a.session.Clear(); err != nil {
				return err
			}
			if signOutErr != nil {
				return signOutErr
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
			defer cancel()

			user, err := a.client.CurrentUser(ctx)
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
}
