package main

import (
	"fmt"
	"time"

	"github.com/hackup/backend/internal/karma"
	"github.com/hackup/backend/internal/models"
	"github.com/spf13/cobra"
)

type userProfile struct {
	ID         string          `json:"id"`
	Username   string          `json:"username"`
	IconURL    string          `json:"icon_url"`
	CreatedAt  time.Time       `json:"created_at"`
	KarmaScore int64           `json:"karma_score"`
	Formatted  karma.Formatted `json:"formatted"`
	PostCount  int64           `json:"post_count"`
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View profiles and manage your own",
}

var userProfileCmd = &cobra.Command{
	Use:   "user <user-id>",
	Short: "Show a user's profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var p userProfile
		if err := client().get("/api/v1/users/"+args[0], nil, &p); err != nil {
			return err
		}
		return render(p, func() {
			bold.Fprintln(stdout, p.Username)
			fmt.Fprintf(stdout, "karma:  %s %s\n", p.Formatted.Emoji, karmaColor(p.KarmaScore).Sprint(p.Formatted.Display))
			fmt.Fprintf(stdout, "posts:  %d\n", p.PostCount)
			fmt.Fprintf(stdout, "joined: %s\n", p.CreatedAt.Format("2006-01-02"))
			if p.IconURL != "" {
				fmt.Fprintf(stdout, "icon:   %s\n", p.IconURL)
			}
		})
	},
}

var setUsernameCmd = &cobra.Command{
	Use:   "set-username <username>",
	Short: "Change your username",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var user models.User
		if err := client().put("/api/v1/users/me", map[string]string{"username": args[0]}, &user); err != nil {
			return err
		}
		return render(user, func() { printSuccess("Username is now %s", user.Username) })
	},
}

var setIconCmd = &cobra.Command{
	Use:   "set-icon <path>",
	Short: "Upload a new profile icon (jpg, png, gif or webp, max 5MB)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			IconURL string `json:"icon_url"`
		}
		r, err := client().http.R().
			SetFile("icon", args[0]).
			SetResult(&resp).
			Post("/api/v1/users/me/icon")
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		if r.IsError() {
			return parseError(r)
		}
		return render(resp, func() { printSuccess("Icon uploaded: %s", resp.IconURL) })
	},
}

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List the posts and comments you liked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client()
		q := pageQuery(cmd)
		var posts struct {
			Posts      []models.PostWithStats `json:"posts"`
			TotalCount int64                  `json:"total_count"`
		}
		if err := c.get("/api/v1/users/me/saved-posts", q, &posts); err != nil {
			return err
		}
		var comments struct {
			Comments   []models.CommentWithStats `json:"comments"`
			TotalCount int64                     `json:"total_count"`
		}
		if err := c.get("/api/v1/users/me/saved-comments", q, &comments); err != nil {
			return err
		}
		return render(map[string]interface{}{"posts": posts, "comments": comments}, func() {
			info.Fprintf(stdout, "Saved posts (%d)\n", posts.TotalCount)
			printPosts(posts.Posts)
			info.Fprintf(stdout, "\nSaved comments (%d)\n", comments.TotalCount)
			for _, cm := range comments.Comments {
				title := ""
				if cm.Post != nil {
					title = cm.Post.Title
				}
				fmt.Fprintf(stdout, "  %s ", truncate(cm.Content, 60))
				faint.Fprintf(stdout, "on %q\n", title)
			}
		})
	},
}

var karmaCmd = &cobra.Command{
	Use:   "karma",
	Short: "Karma scores and the leaderboard",
}

var karmaScoreCmd = &cobra.Command{
	Use:   "score <user-id>",
	Short: "Show a user's karma with its breakdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			KarmaScore int64           `json:"karma_score"`
			Formatted  karma.Formatted `json:"formatted"`
			Details    karma.Detail    `json:"details"`
		}
		err := client().get("/api/v1/karma-score", map[string]string{"userId": args[0], "detailed": "true"}, &resp)
		if err != nil {
			return err
		}
		return render(resp, func() {
			fmt.Fprintf(stdout, "%s %s\n", resp.Formatted.Emoji, karmaColor(resp.KarmaScore).Sprint(resp.Formatted.Display))
			faint.Fprintf(stdout, "posts %+d (▲%d ▼%d), comments %+d (▲%d ▼%d)\n",
				resp.Details.PostKarma, resp.Details.Breakdown.PostUpVotes, resp.Details.Breakdown.PostDownVotes,
				resp.Details.CommentKarma, resp.Details.Breakdown.CommentUpVotes, resp.Details.Breakdown.CommentDownVotes)
		})
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Top users by karma",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Users []karma.LeaderboardEntry `json:"users"`
		}
		limit, _ := cmd.Flags().GetInt("limit")
		if err := client().get("/api/v1/karma/leaderboard", map[string]string{"limit": fmt.Sprint(limit)}, &resp); err != nil {
			return err
		}
		return render(resp, func() {
			for _, e := range resp.Users {
				fmt.Fprintf(stdout, "%3d. %s ", e.Rank, e.Formatted.Emoji)
				bold.Fprintf(stdout, "%-30s", e.User.Username)
				karmaColor(e.KarmaScore).Fprintf(stdout, " %s\n", e.Formatted.Display)
			}
		})
	},
}

func init() {
	addPageFlags(savedCmd, 20)
	leaderboardCmd.Flags().Int("limit", 10, "Number of users (1-100)")
	profileCmd.AddCommand(userProfileCmd, setUsernameCmd, setIconCmd)
	karmaCmd.AddCommand(karmaScoreCmd, leaderboardCmd)
}
