package main

import (
	"fmt"
	"strconv"

	"github.com/hackup/backend/internal/models"
	"github.com/spf13/cobra"
)

type pagination struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

type postList struct {
	Posts      []models.PostWithStats `json:"posts"`
	Pagination pagination             `json:"pagination"`
}

type voteResult struct {
	Action    string           `json:"action"`
	UserVote  *models.VoteType `json:"user_vote"`
	UpVotes   int64            `json:"up_votes"`
	DownVotes int64            `json:"down_votes"`
}

type likeResult struct {
	Message   string `json:"message"`
	Liked     bool   `json:"liked"`
	LikeCount int64  `json:"like_count"`
}

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Read, write and vote on tips",
}

func printPostLine(p models.PostWithStats) {
	score := p.Stats.UpVotes - p.Stats.DownVotes
	karmaColor(score).Fprintf(stdout, "%+5d ", score)
	bold.Fprintf(stdout, "%s", p.Title)
	faint.Fprintf(stdout, "  by %s, %s, %d comments, %d likes\n", p.User.Username, ago(p.CreatedAt), p.Stats.Comments, p.Stats.Likes)
	faint.Fprintf(stdout, "      %s\n", p.ID)
}

func printPosts(posts []models.PostWithStats) {
	if len(posts) == 0 {
		info.Fprintln(stdout, "No posts found")
		return
	}
	for _, p := range posts {
		printPostLine(p)
	}
}

func pageQuery(cmd *cobra.Command) map[string]string {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	return map[string]string{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(offset),
	}
}

func addPageFlags(cmd *cobra.Command, defaultLimit int) {
	cmd.Flags().Int("limit", defaultLimit, "Maximum results to return")
	cmd.Flags().Int("offset", 0, "Results to skip")
}

var listPostsCmd = &cobra.Command{
	Use:   "list",
	Short: "List tips, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp postList
		if err := client().get("/api/v1/posts", pageQuery(cmd), &resp); err != nil {
			return err
		}
		return render(resp, func() {
			printPosts(resp.Posts)
			if resp.Pagination.HasMore {
				faint.Fprintf(stdout, "… %d more, use --offset %d\n",
					resp.Pagination.Total-int64(resp.Pagination.Offset+len(resp.Posts)),
					resp.Pagination.Offset+resp.Pagination.Limit)
			}
		})
	},
}

var showPostCmd = &cobra.Command{
	Use:   "show <post-id>",
	Short: "Show a tip with its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client()
		var post models.PostWithStats
		if err := c.get("/api/v1/posts/"+args[0], nil, &post); err != nil {
			return err
		}
		var comments struct {
			Comments []models.CommentWithStats `json:"comments"`
		}
		if err := c.get("/api/v1/posts/"+args[0]+"/comments", map[string]string{"limit": "100"}, &comments); err != nil {
			return err
		}
		return render(map[string]interface{}{"post": post, "comments": comments.Comments}, func() {
			printPostLine(post)
			fmt.Fprintf(stdout, "\n%s\n\n", post.Content)
			for _, cm := range comments.Comments {
				score := cm.Stats.UpVotes - cm.Stats.DownVotes
				karmaColor(score).Fprintf(stdout, "  %+4d ", score)
				bold.Fprintf(stdout, "%s", cm.User.Username)
				fmt.Fprintf(stdout, ": %s ", cm.Content)
				faint.Fprintf(stdout, "(%s)\n", cm.ID)
			}
		})
	},
}

var createPostCmd = &cobra.Command{
	Use:   "create <title> <content>",
	Short: "Share a new tip",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var post models.PostWithStats
		if err := client().post("/api/v1/posts", map[string]string{"title": args[0], "content": args[1]}, &post); err != nil {
			return err
		}
		return render(post, func() { printSuccess("Posted %q (%s)", post.Title, post.ID) })
	},
}

var deletePostCmd = &cobra.Command{
	Use:   "delete <post-id>",
	Short: "Delete one of your tips",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client().delete("/api/v1/posts/"+args[0], nil); err != nil {
			return err
		}
		printSuccess("Deleted %s", args[0])
		return nil
	},
}

// voteCommand builds up/down/clear for posts or comments
func voteCommand(kind string) *cobra.Command {
	var down, clear bool
	cmd := &cobra.Command{
		Use:   "vote <" + kind + "-id>",
		Short: "Toggle an upvote (or --down) on a " + kind,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/" + kind + "s/" + args[0] + "/vote"
			if clear {
				if err := client().delete(path, nil); err != nil {
					return err
				}
				printSuccess("Vote cleared")
				return nil
			}

			voteType := models.VoteUp
			if down {
				voteType = models.VoteDown
			}
			var resp voteResult
			if err := client().post(path, map[string]string{"vote_type": string(voteType)}, &resp); err != nil {
				return err
			}
			return render(resp, func() {
				printSuccess("Vote %s", resp.Action)
				fmt.Fprintf(stdout, "▲ %d  ▼ %d\n", resp.UpVotes, resp.DownVotes)
			})
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "Downvote instead of upvote")
	cmd.Flags().BoolVar(&clear, "clear", false, "Remove your vote")
	return cmd
}

// likeCommand builds like/unlike for posts or comments
func likeCommand(kind string) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "like <" + kind + "-id>",
		Short: "Bookmark a " + kind + " (--remove to unlike)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/" + kind + "s/" + args[0] + "/like"
			var resp likeResult
			var err error
			if remove {
				err = client().delete(path, &resp)
			} else {
				err = client().post(path, nil, &resp)
			}
			if err != nil {
				return err
			}
			return render(resp, func() {
				if resp.Liked {
					printSuccess("Saved (%d likes)", resp.LikeCount)
				} else {
					printSuccess("Removed (%d likes)", resp.LikeCount)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "Remove your like")
	return cmd
}

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Comment on tips",
}

var addCommentCmd = &cobra.Command{
	Use:   "add <post-id> <content>",
	Short: "Comment on a tip",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var comment models.CommentWithStats
		if err := client().post("/api/v1/posts/"+args[0]+"/comments", map[string]string{"content": args[1]}, &comment); err != nil {
			return err
		}
		return render(comment, func() { printSuccess("Commented (%s)", comment.ID) })
	},
}

var deleteCommentCmd = &cobra.Command{
	Use:   "delete <comment-id>",
	Short: "Delete one of your comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client().delete("/api/v1/comments/"+args[0], nil); err != nil {
			return err
		}
		printSuccess("Deleted %s", args[0])
		return nil
	},
}

func init() {
	addPageFlags(listPostsCmd, 10)
	postsCmd.AddCommand(listPostsCmd, showPostCmd, createPostCmd, deletePostCmd, voteCommand("post"), likeCommand("post"))
	commentsCmd.AddCommand(addCommentCmd, deleteCommentCmd, voteCommand("comment"), likeCommand("comment"))
}
