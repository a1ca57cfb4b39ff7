package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/search"
	"github.com/hackup/backend/internal/util"
)

// SearchPosts finds posts whose title or content contains q
// GET /api/v1/search?q=&limit=
func (h *Handlers) SearchPosts(c *gin.Context) {
	query := search.NormalizeQuery(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{
			"posts": []models.PostWithStats{},
			"count": 0,
			"query": "",
		})
		return
	}

	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), search.DefaultLimit), search.DefaultLimit, search.MaxLimit)
	ctx := c.Request.Context()

	ids, err := h.searcher.SearchPosts(ctx, query, limit)
	if err != nil {
		util.RespondError(c, err, "search failed")
		return
	}

	posts, err := h.posts.GetByIDs(ctx, ids)
	if err != nil {
		util.RespondError(c, err, "failed to load search results")
		return
	}

	withStats, err := h.postsWithStats(ctx, posts, util.GetViewerID(c))
	if err != nil {
		util.RespondError(c, err, "failed to load post stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": withStats,
		"count": len(withStats),
		"query": query,
	})
}
