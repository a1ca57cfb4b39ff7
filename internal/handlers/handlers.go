package handlers

import (
	"context"
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/errors"
	"github.com/hackup/backend/internal/karma"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/repository"
	"github.com/hackup/backend/internal/search"
	"github.com/hackup/backend/internal/storage"
	"github.com/hackup/backend/internal/util"
	"github.com/hackup/backend/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	votes    repository.VoteRepository
	likes    repository.LikeRepository
	karma    *karma.Service

	notifier websocket.Notifier
	searcher search.Searcher
	indexer  search.Indexer
	uploader storage.IconUploader
}

// searchInvalidator is implemented by searchers that cache results
type searchInvalidator interface {
	Invalidate(ctx context.Context) error
}

// NewHandlers creates a new handlers instance backed by db.
// Search defaults to the database searcher and events are dropped until
// SetNotifier is called.
func NewHandlers(db *gorm.DB, karmaService *karma.Service) *Handlers {
	posts := repository.NewPostRepository(db)
	return &Handlers{
		users:    repository.NewUserRepository(db),
		posts:    posts,
		comments: repository.NewCommentRepository(db),
		votes:    repository.NewVoteRepository(db),
		likes:    repository.NewLikeRepository(db),
		karma:    karmaService,
		notifier: websocket.NopNotifier{},
		searcher: search.NewDatabaseSearcher(posts),
	}
}

// SetNotifier sets the realtime event sink (normally the websocket hub)
func (h *Handlers) SetNotifier(n websocket.Notifier) {
	if n == nil {
		n = websocket.NopNotifier{}
	}
	h.notifier = n
}

// SetSearch replaces the searcher and, when non-nil, the external indexer
// kept in step with post mutations
func (h *Handlers) SetSearch(searcher search.Searcher, indexer search.Indexer) {
	if searcher != nil {
		h.searcher = searcher
	}
	h.indexer = indexer
}

// SetIconUploader enables icon uploads. Without one the upload route answers 503.
func (h *Handlers) SetIconUploader(u storage.IconUploader) {
	h.uploader = u
}

// respondRepoError maps repository sentinels onto API errors
func respondRepoError(c *gin.Context, err error, resource string) {
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		util.RespondNotFound(c, resource)
	case stderrors.Is(err, repository.ErrDuplicate):
		util.RespondConflict(c, resource)
	case stderrors.Is(err, repository.ErrInvalidInput):
		util.RespondBadRequest(c, "invalid "+resource)
	default:
		util.RespondError(c, err, "failed to process "+resource)
	}
}

// bindJSON binds the request body and answers 400 on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.RespondWithAPIError(c, errors.BadRequest("invalid request body").WithDetails(err.Error()))
		return false
	}
	return true
}

// postsWithStats attaches engagement stats relative to viewerID
func (h *Handlers) postsWithStats(ctx context.Context, posts []models.Post, viewerID string) ([]models.PostWithStats, error) {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	stats, err := h.posts.Stats(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}

	out := make([]models.PostWithStats, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.WithStats(stats[p.ID]))
	}
	return out, nil
}

func (h *Handlers) commentsWithStats(ctx context.Context, comments []models.Comment, viewerID string) ([]models.CommentWithStats, error) {
	ids := make([]string, len(comments))
	for i, cm := range comments {
		ids[i] = cm.ID
	}
	stats, err := h.comments.Stats(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}

	out := make([]models.CommentWithStats, 0, len(comments))
	for _, cm := range comments {
		out = append(out, cm.WithStats(stats[cm.ID]))
	}
	return out, nil
}

// refreshKarma recomputes and persists karma for each user and pushes the
// new score to their connections. Failures are logged; the triggering
// mutation has already committed.
func (h *Handlers) refreshKarma(ctx context.Context, userIDs ...string) {
	if h.karma == nil {
		return
	}
	for _, userID := range userIDs {
		score, err := h.karma.Refresh(ctx, userID)
		if err != nil {
			logger.Log.Warn("Failed to refresh karma", logger.WithUserID(userID), zap.Error(err))
			continue
		}
		logger.Log.Debug("Karma refreshed", logger.WithUserID(userID), logger.WithKarma(score))
		h.notifier.KarmaUpdated(websocket.KarmaPayload{
			UserID:     userID,
			KarmaScore: score,
			Formatted:  karma.Format(score),
		})
	}
}

// publishPostStats broadcasts fresh counters for a post
func (h *Handlers) publishPostStats(ctx context.Context, postID string) {
	stats, err := h.posts.Stats(ctx, []string{postID}, "")
	if err != nil {
		logger.Log.Warn("Failed to load post stats for broadcast", logger.WithPostID(postID), zap.Error(err))
		return
	}
	s := stats[postID]
	h.notifier.PostStatsUpdated(websocket.PostStatsPayload{
		PostID:       postID,
		UpVotes:      s.UpVotes,
		DownVotes:    s.DownVotes,
		LikeCount:    s.Likes,
		CommentCount: s.Comments,
	})
}

// publishCommentStats broadcasts fresh counters for a comment
func (h *Handlers) publishCommentStats(ctx context.Context, commentID, postID string) {
	stats, err := h.comments.Stats(ctx, []string{commentID}, "")
	if err != nil {
		logger.Log.Warn("Failed to load comment stats for broadcast", logger.WithCommentID(commentID), zap.Error(err))
		return
	}
	s := stats[commentID]
	h.notifier.CommentStatsUpdated(websocket.CommentStatsPayload{
		CommentID: commentID,
		PostID:    postID,
		UpVotes:   s.UpVotes,
		DownVotes: s.DownVotes,
		LikeCount: s.Likes,
	})
}

// syncSearch pushes a post mutation to the external index and drops cached
// search results. deleted selects removal over upsert.
func (h *Handlers) syncSearch(ctx context.Context, post *models.Post, deleted bool) {
	if h.indexer != nil {
		var err error
		if deleted {
			err = h.indexer.DeletePost(ctx, post.ID)
		} else {
			err = h.indexer.IndexPost(ctx, post)
		}
		if err != nil {
			logger.Log.Warn("Failed to sync post to search index", logger.WithPostID(post.ID), zap.Error(err))
		}
	}
	if inv, ok := h.searcher.(searchInvalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			logger.Log.Warn("Failed to invalidate search cache", zap.Error(err))
		}
	}
}
