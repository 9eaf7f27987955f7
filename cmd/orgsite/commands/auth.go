package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"orgsite-client/internal/domain"
)

func newLoginCommand(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = a.prompt.readLine("Email")
			}
			if password == "" {
				password = a.prompt.readSecret("Password")
			}

			res := a.auth.Login(cmd.Context(), email, password)
			if !res.Success {
				return errors.New(res.Error)
			}
			fmt.Fprintf(a.out, "Logged in as %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	return cmd
}

func newRegisterCommand(a *app) *cobra.Command {
	var name, phone, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.auth.Register(cmd.Context(), name, phone, email, password)
			if !res.Success {
				return errors.New(res.Error)
			}
			fmt.Fprintln(a.out, res.Message)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Full name")
	f.StringVar(&phone, "phone", "", "Phone number")
	f.StringVarP(&email, "email", "e", "", "Email")
	f.StringVarP(&password, "password", "p", "", "Password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.auth.Logout(cmd.Context())
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !a.auth.IsLoggedIn(ctx) {
				return domain.ErrAuthRequired
			}

			user := a.auth.CurrentUser(ctx)
			if user == nil {
				fmt.Fprintln(a.out, "Logged in (no profile stored)")
				return nil
			}
			printField(a.out, "Email", user.Email)
			if user.Name != "" {
				printField(a.out, "Name", user.Name)
			}
			if !user.LoginTime.IsZero() {
				printField(a.out, "Logged in", user.LoginTime.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
