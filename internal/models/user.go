// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Visibility values for DefaultSnippetVisibility.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// User represents a CodeSync account. Password is empty for OAuth-only
// accounts; Image/ImagePublicID reference the external image host asset.
type User struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Name          string `gorm:"not null" json:"name"`
	Username      string `gorm:"uniqueIndex;not null" json:"username"`
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	Password      string `json:"-"`
	Image         string `json:"image"`
	ImagePublicID string `json:"-"`
	Bio           string `json:"bio"`
	Location      string `json:"location"`
	Website       string `json:"website"`
	GitHubURL     string `json:"githubUrl"`
	TwitterURL    string `json:"twitterUrl"`
	IsVerified    bool   `json:"isVerified"`
	OAuthProvider string `json:"-"`

	// Preferences
	Theme                    string `gorm:"default:'system'" json:"theme"`
	Locale                   string `gorm:"default:'en'" json:"language"`
	DefaultSnippetVisibility string `gorm:"default:'public'" json:"defaultSnippetVisibility"`
	ShowEmail                bool   `json:"showEmail"`
	ShowLocation             bool   `gorm:"default:true" json:"showLocation"`

	// Computed at query time, never persisted.
	SnippetsCount  int64 `gorm:"->" json:"-"`
	FollowersCount int64 `gorm:"->" json:"-"`
	FollowingCount int64 `gorm:"->" json:"-"`
	LikesCount     int64 `gorm:"->" json:"-"`
	IsFollowing    bool  `gorm:"->" json:"isFollowing"`

	Count UserCounts `gorm:"-" json:"_count"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Snippets []Snippet `gorm:"foreignKey:AuthorID" json:"snippets,omitempty"`
}

// UserCounts is the aggregate block exposed as "_count" in JSON.
type UserCounts struct {
	Snippets  int64 `json:"snippets"`
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
	Likes     int64 `json:"likes"`
}

// AfterFind folds the computed columns into the _count block.
func (u *User) AfterFind(_ *gorm.DB) error {
	u.Count = UserCounts{
		Snippets:  u.SnippetsCount,
		Followers: u.FollowersCount,
		Following: u.FollowingCount,
		Likes:     u.LikesCount,
	}
	return nil
}

// UserSummary is the author shape embedded in snippet and comment payloads.
type UserSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image"`
}

// Summary trims a user down to the embedded author shape.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Image:    u.Image,
	}
}
