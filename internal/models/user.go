package models

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Username limits, counted in runes after trimming
const (
	UsernameMinLength = 3
	UsernameMaxLength = 30
)

// ValidUsername reports whether an already trimmed username fits the limits
func ValidUsername(username string) bool {
	n := utf8.RuneCountInString(username)
	return n >= UsernameMinLength && n <= UsernameMaxLength
}

// User is a HackUp account. KarmaScore is a snapshot of the last computed karma;
// the live value is always derived from vote rows.
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Username     string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	PasswordHash *string   `gorm:"size:255" json:"-"`
	IconURL      string    `gorm:"size:1024" json:"icon_url"`
	KarmaScore   int64     `gorm:"not null;default:0" json:"karma_score"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserSummary is the author block embedded in posts and comments
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IconURL  string `json:"icon_url"`
}

// Summary returns the public author fields of a user
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, IconURL: u.IconURL}
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func generateUUID() string {
	return uuid.New().String()
}
