package main

import (
	"fmt"
	"strings"

	"github.com/hackup/backend/internal/models"
	"github.com/spf13/cobra"
)

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func authCommands() []*cobra.Command {
	var quiet bool
	login := &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Log in and print an auth token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp authResponse
			err := client().post("/api/v1/auth/login", map[string]string{
				"email":    args[0],
				"password": args[1],
			}, &resp)
			if err != nil {
				return err
			}
			if quiet {
				fmt.Fprintln(stdout, resp.Token)
				return nil
			}
			return render(resp, func() {
				printSuccess("Logged in as %s", resp.User.Username)
				fmt.Fprintf(stdout, "export HACKUP_TOKEN=%s\n", resp.Token)
			})
		},
	}
	login.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the token")

	register := &cobra.Command{
		Use:   "register <email> <username> <password>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp authResponse
			err := client().post("/api/v1/auth/register", map[string]string{
				"email":    args[0],
				"username": args[1],
				"password": args[2],
			}, &resp)
			if err != nil {
				return err
			}
			return render(resp, func() {
				printSuccess("Welcome to HackUp, %s", resp.User.Username)
				fmt.Fprintf(stdout, "export HACKUP_TOKEN=%s\n", resp.Token)
			})
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the account behind the current token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var user models.User
			if err := client().get("/api/v1/auth/me", nil, &user); err != nil {
				return err
			}
			return render(user, func() {
				bold.Fprintf(stdout, "%s", user.Username)
				fmt.Fprintf(stdout, " <%s>\n", strings.ToLower(user.Email))
				fmt.Fprintf(stdout, "karma: %s\n", karmaColor(user.KarmaScore).Sprint(user.KarmaScore))
			})
		},
	}

	return []*cobra.Command{login, register, whoami}
}
