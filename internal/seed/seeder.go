package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/hackup/backend/internal/karma"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account
const DefaultPassword = "password123"

// Options sizes a seeding run
type Options struct {
	Users    int
	Posts    int
	Comments int
	// Votes and likes are drawn per post and per comment from [0, Max*]
	MaxVotesPerItem int
	MaxLikesPerItem int
}

// DevOptions is the realistic development dataset
var DevOptions = Options{
	Users:           50,
	Posts:           200,
	Comments:        600,
	MaxVotesPerItem: 15,
	MaxLikesPerItem: 5,
}

// Seeder handles database seeding operations
type Seeder struct {
	db    *gorm.DB
	karma *karma.Service
	now   func() time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	// Seed returns an error only for invalid sources
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:    db,
		karma: karma.NewService(db, nil),
		now:   time.Now,
	}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev(ctx context.Context) error {
	return s.Seed(ctx, DevOptions)
}

// Seed creates random users, tips, comments, votes and likes, then
// recomputes every user's karma snapshot
func (s *Seeder) Seed(ctx context.Context, opts Options) error {
	logger.Log.Info("Creating users...", zap.Int("count", opts.Users))
	users, err := s.seedUsers(ctx, opts.Users)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	if len(users) == 0 {
		return fmt.Errorf("no users available to author posts")
	}

	logger.Log.Info("Creating posts...", zap.Int("count", opts.Posts))
	posts, err := s.seedPosts(ctx, users, opts.Posts)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating comments...", zap.Int("count", opts.Comments))
	comments, err := s.seedComments(ctx, users, posts, opts.Comments)
	if err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	logger.Log.Info("Creating votes and likes...")
	if err := s.seedEngagement(ctx, users, posts, comments, opts); err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}

	return s.refreshKarma(ctx, users)
}

// SeedTest seeds a small fixed dataset that e2e tests can log in to
func (s *Seeder) SeedTest(ctx context.Context) error {
	accounts := []struct {
		username string
		email    string
	}{
		{"alice", "alice@example.com"},
		{"bob", "bob@example.com"},
		{"charlie", "charlie@example.com"},
		{"diana", "diana@example.com"},
		{"eve", "eve@example.com"},
	}

	hash, err := hashPassword()
	if err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	users := make([]models.User, 0, len(accounts))
	for _, acct := range accounts {
		var user models.User
		if err := db.Where("username = ? OR email = ?", acct.username, acct.email).First(&user).Error; err == nil {
			users = append(users, user)
			continue
		}

		user = models.User{
			Email:        acct.email,
			Username:     acct.username,
			PasswordHash: &hash,
			IconURL:      fmt.Sprintf("https://api.dicebear.com/7.x/shapes/png?seed=%s", acct.username),
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", acct.username, err)
		}
		users = append(users, user)
	}

	tips := []struct {
		title   string
		content string
	}{
		{"Freeze leftover herbs in oil", "Chop herbs into an ice cube tray, cover with olive oil and freeze for instant flavour."},
		{"Binder clips as cable tidy", "Clip binder clips to the desk edge and thread charging cables through the handles."},
		{"Rubber band on a stripped screw", "Press a wide rubber band between the driver and the screw head for extra grip."},
		{"Wooden spoon stops boil over", "Lay a wooden spoon across a pot of pasta and the foam will not spill over."},
		{"Label cords with bread tags", "Write the device name on a bread tag and clip it near the plug."},
	}

	posts := make([]models.Post, 0, len(tips))
	for i, tip := range tips {
		var post models.Post
		if err := db.Where("title = ?", tip.title).First(&post).Error; err == nil {
			posts = append(posts, post)
			continue
		}
		post = models.Post{
			UserID:    users[i%len(users)].ID,
			Title:     tip.title,
			Content:   tip.content,
			CreatedAt: s.now().Add(-time.Duration(len(tips)-i) * time.Hour),
		}
		if err := db.Create(&post).Error; err != nil {
			return fmt.Errorf("failed to create test post: %w", err)
		}
		posts = append(posts, post)
	}

	// everyone but the author upvotes the first tip; bob dislikes the last
	for _, u := range users {
		if u.ID == posts[0].UserID {
			continue
		}
		if err := createIgnoringDuplicates(db, &models.PostVote{PostID: posts[0].ID, UserID: u.ID, VoteType: models.VoteUp}); err != nil {
			return err
		}
	}
	if err := createIgnoringDuplicates(db, &models.PostVote{PostID: posts[len(posts)-1].ID, UserID: users[1].ID, VoteType: models.VoteDown}); err != nil {
		return err
	}
	if err := createIgnoringDuplicates(db, &models.PostLike{PostID: posts[1].ID, UserID: users[0].ID}); err != nil {
		return err
	}

	var existing int64
	if err := db.Model(&models.Comment{}).Where("post_id = ?", posts[0].ID).Count(&existing).Error; err != nil {
		return err
	}
	if existing == 0 {
		comment := models.Comment{PostID: posts[0].ID, UserID: users[1].ID, Content: "Tried this last night, works great."}
		if err := db.Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create test comment: %w", err)
		}
		if err := db.Create(&models.CommentVote{CommentID: comment.ID, UserID: users[0].ID, VoteType: models.VoteUp}).Error; err != nil {
			return fmt.Errorf("failed to create test comment vote: %w", err)
		}
	}

	return s.refreshKarma(ctx, users)
}

// Clean removes every row from the application tables (use with caution)
func (s *Seeder) Clean(ctx context.Context) error {
	// children before parents
	tables := []string{"comment_likes", "post_likes", "comment_votes", "post_votes", "comments", "posts", "users"}
	db := s.db.WithContext(ctx)
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func hashPassword() (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func createIgnoringDuplicates(db *gorm.DB, row interface{}) error {
	err := db.Create(row).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	return nil
}

// seedUsers creates count users with unique usernames and emails
func (s *Seeder) seedUsers(ctx context.Context, count int) ([]models.User, error) {
	db := s.db.WithContext(ctx)
	hash, err := hashPassword()
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username, email := fakeIdentity()
		for {
			var n int64
			if err := db.Model(&models.User{}).
				Where("LOWER(username) = ? OR LOWER(email) = ?", strings.ToLower(username), strings.ToLower(email)).
				Count(&n).Error; err != nil {
				return nil, err
			}
			if n == 0 {
				break
			}
			username, email = fakeIdentity()
		}

		user := models.User{
			Email:        email,
			Username:     username,
			PasswordHash: &hash,
			IconURL:      fmt.Sprintf("https://api.dicebear.com/7.x/shapes/png?seed=%s", username),
			CreatedAt:    gofakeit.DateRange(s.now().AddDate(0, 0, -90), s.now().AddDate(0, 0, -30)),
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", username, err)
		}
		users = append(users, user)
	}
	return users, nil
}

// fakeIdentity returns a username inside the 3..30 rule and a matching email
func fakeIdentity() (string, string) {
	username := gofakeit.Username()
	if len(username) > 30 {
		username = username[:30]
	}
	for len(username) < 3 {
		username += gofakeit.Letter()
	}
	return username, strings.ToLower(username) + "@example.com"
}

var tipVerbs = []string{"Use", "Reuse", "Freeze", "Fold", "Label", "Clip", "Soak", "Stack", "Wrap", "Rinse"}

// fakeTip builds a title within the length rules and 1-3 sentences of content
func fakeTip() (string, string) {
	title := fmt.Sprintf("%s %s %s %s",
		tipVerbs[rand.Intn(len(tipVerbs))],
		gofakeit.Adjective(),
		gofakeit.Noun(),
		gofakeit.Word(),
	)
	if len(title) > models.PostTitleMaxLength {
		title = strings.TrimSpace(title[:models.PostTitleMaxLength])
	}

	sentences := make([]string, rand.Intn(3)+1)
	for i := range sentences {
		sentences[i] = gofakeit.HipsterSentence()
	}
	content := strings.Join(sentences, " ")
	if len(content) > models.PostContentMaxLength {
		content = strings.TrimSpace(content[:models.PostContentMaxLength])
	}
	for len(content) < models.PostContentMinLength {
		content += " " + gofakeit.Word()
	}
	return title, content
}

// seedPosts creates count posts by random authors over the last 30 days
func (s *Seeder) seedPosts(ctx context.Context, users []models.User, count int) ([]models.Post, error) {
	db := s.db.WithContext(ctx)
	posts := make([]models.Post, 0, count)
	seen := make(map[string]struct{}, count)

	for len(posts) < count {
		title, content := fakeTip()
		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		createdAt := gofakeit.DateRange(s.now().AddDate(0, 0, -30), s.now())
		post := models.Post{
			UserID:    users[rand.Intn(len(users))].ID,
			Title:     title,
			Content:   content,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
		if err := db.Create(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// seedComments spreads count comments over random posts, each after its post
func (s *Seeder) seedComments(ctx context.Context, users []models.User, posts []models.Post, count int) ([]models.Comment, error) {
	if len(posts) == 0 {
		return nil, nil
	}
	db := s.db.WithContext(ctx)
	comments := make([]models.Comment, 0, count)
	for i := 0; i < count; i++ {
		post := posts[rand.Intn(len(posts))]
		content := gofakeit.HipsterSentence()
		if len(content) > models.CommentMaxLength {
			content = content[:models.CommentMaxLength]
		}
		comment := models.Comment{
			PostID:    post.ID,
			UserID:    users[rand.Intn(len(users))].ID,
			Content:   content,
			CreatedAt: gofakeit.DateRange(post.CreatedAt, s.now()),
		}
		if err := db.Create(&comment).Error; err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// voteType leans positive so the leaderboard has a visible top end
func voteType() models.VoteType {
	if rand.Float32() < 0.7 {
		return models.VoteUp
	}
	return models.VoteDown
}

// pickVoters returns up to n distinct users in random order
func pickVoters(users []models.User, n int) []models.User {
	if n > len(users) {
		n = len(users)
	}
	perm := rand.Perm(len(users))
	out := make([]models.User, n)
	for i := 0; i < n; i++ {
		out[i] = users[perm[i]]
	}
	return out
}

// seedEngagement adds votes and likes. Distinct voters per item keep the
// one-vote-per-user rule.
func (s *Seeder) seedEngagement(ctx context.Context, users []models.User, posts []models.Post, comments []models.Comment, opts Options) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, post := range posts {
			for _, u := range pickVoters(users, rand.Intn(opts.MaxVotesPerItem+1)) {
				if err := tx.Create(&models.PostVote{PostID: post.ID, UserID: u.ID, VoteType: voteType()}).Error; err != nil {
					return err
				}
			}
			for _, u := range pickVoters(users, rand.Intn(opts.MaxLikesPerItem+1)) {
				if err := tx.Create(&models.PostLike{PostID: post.ID, UserID: u.ID}).Error; err != nil {
					return err
				}
			}
		}
		for _, comment := range comments {
			for _, u := range pickVoters(users, rand.Intn(opts.MaxVotesPerItem/3+1)) {
				if err := tx.Create(&models.CommentVote{CommentID: comment.ID, UserID: u.ID, VoteType: voteType()}).Error; err != nil {
					return err
				}
			}
			for _, u := range pickVoters(users, rand.Intn(opts.MaxLikesPerItem/2+1)) {
				if err := tx.Create(&models.CommentLike{CommentID: comment.ID, UserID: u.ID}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Seeder) refreshKarma(ctx context.Context, users []models.User) error {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	scores, err := s.karma.RefreshMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to refresh karma: %w", err)
	}
	logger.Log.Info("Karma snapshots refreshed", zap.Int("users", len(scores)))
	return nil
}
