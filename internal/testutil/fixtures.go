// Package testutil holds fixtures shared by the package test suites.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hackup/backend/internal/database"
	"github.com/hackup/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory SQLite database scoped to the test
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user named username with a derived email
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Email:    strings.ToLower(username) + "@example.com",
		Username: username,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePost inserts a post by userID. Content is padded to pass length rules.
func CreatePost(t testing.TB, db *gorm.DB, userID, title string) *models.Post {
	t.Helper()
	p := &models.Post{
		UserID:  userID,
		Title:   title,
		Content: fmt.Sprintf("%s: a handy everyday trick.", title),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreatePostAt inserts a post with a fixed creation time
func CreatePostAt(t testing.TB, db *gorm.DB, userID, title string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		UserID:    userID,
		Title:     title,
		Content:   fmt.Sprintf("%s: a handy everyday trick.", title),
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateComment inserts a comment by userID on postID
func CreateComment(t testing.TB, db *gorm.DB, postID, userID, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: postID, UserID: userID, Content: content}
	require.NoError(t, db.Create(c).Error)
	return c
}

// VotePost records userID's vote on postID
func VotePost(t testing.TB, db *gorm.DB, postID, userID string, vt models.VoteType) {
	t.Helper()
	require.NoError(t, db.Create(&models.PostVote{PostID: postID, UserID: userID, VoteType: vt}).Error)
}

// VoteComment records userID's vote on commentID
func VoteComment(t testing.TB, db *gorm.DB, commentID, userID string, vt models.VoteType) {
	t.Helper()
	require.NoError(t, db.Create(&models.CommentVote{CommentID: commentID, UserID: userID, VoteType: vt}).Error)
}

// LikePost records userID's like on postID
func LikePost(t testing.TB, db *gorm.DB, postID, userID string) {
	t.Helper()
	require.NoError(t, db.Create(&models.PostLike{PostID: postID, UserID: userID}).Error)
}
