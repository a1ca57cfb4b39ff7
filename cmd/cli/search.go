package main

import (
	"strconv"

	"github.com/hackup/backend/internal/models"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find tips whose title or content contains the query",
	Long: `Case-insensitive substring search over titles and content.

Examples:
  hackup search garlic
  hackup search "cable tidy" --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		var resp struct {
			Posts []models.PostWithStats `json:"posts"`
			Count int                    `json:"count"`
			Query string                 `json:"query"`
		}
		err := client().get("/api/v1/search", map[string]string{
			"q":     args[0],
			"limit": strconv.Itoa(limit),
		}, &resp)
		if err != nil {
			return err
		}
		return render(resp, func() {
			info.Fprintf(stdout, "%d result(s) for %q\n\n", resp.Count, resp.Query)
			printPosts(resp.Posts)
		})
	},
}

func init() {
	searchCmd.Flags().Int("limit", 20, "Maximum results (1-50)")
}
