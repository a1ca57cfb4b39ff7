package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	authToken string
	apiURL    = "http://localhost:8787"
	output    = "text" // "text" or "json"
)

// commands that work without a token
var anonymousCommands = map[string]bool{
	"help":        true,
	"login":       true,
	"register":    true,
	"list":        true,
	"show":        true,
	"search":      true,
	"score":       true,
	"leaderboard": true,
	"user":        true,
}

var rootCmd = &cobra.Command{
	Use:   "hackup",
	Short: "HackUp CLI - browse, post and vote on life hacks",
	Long: `HackUp CLI provides command-line access to the HackUp API.
Read and search tips, post your own, vote, bookmark and check karma.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if authToken == "" {
			authToken = os.Getenv("HACKUP_TOKEN")
		}
		if envURL := os.Getenv("HACKUP_API_URL"); envURL != "" && !cmd.Flags().Changed("api") {
			apiURL = envURL
		}
		if authToken == "" && cmd.Parent() != nil && !anonymousCommands[cmd.Name()] {
			printError("HACKUP_TOKEN environment variable not set")
			fmt.Fprintf(os.Stderr, "Log in and export the token: export HACKUP_TOKEN=$(hackup login <email> <password> --quiet)\n")
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Authentication token (defaults to HACKUP_TOKEN env var)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", apiURL, "API server URL (defaults to HACKUP_API_URL env var)")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(authCommands()...)
	rootCmd.AddCommand(postsCmd, commentsCmd, searchCmd, karmaCmd, profileCmd, savedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
