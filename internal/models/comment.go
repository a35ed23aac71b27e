package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a comment on a snippet. ParentID supports one level of
// threading; a parent must belong to the same snippet.
type Comment struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Content   string `gorm:"not null" json:"content"`
	SnippetID uint   `gorm:"not null;index" json:"snippetId"`
	AuthorID  uint   `gorm:"not null" json:"authorId"`
	ParentID  *uint  `gorm:"index" json:"parentId,omitempty"`
	Author    User   `gorm:"foreignKey:AuthorID" json:"-"`

	// RepliesCount is computed at query time.
	RepliesCount int64 `gorm:"->" json:"-"`

	AuthorSummary *UserSummary  `gorm:"-" json:"author,omitempty"`
	Count         CommentCounts `gorm:"-" json:"_count"`

	Replies []Comment `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"replies,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CommentCounts is the aggregate block exposed as "_count" in JSON.
type CommentCounts struct {
	Replies int64 `json:"replies"`
}

// AfterFind folds computed columns into the JSON-facing blocks.
func (c *Comment) AfterFind(_ *gorm.DB) error {
	c.Count = CommentCounts{Replies: c.RepliesCount}
	if c.Author.ID != 0 {
		summary := c.Author.Summary()
		c.AuthorSummary = &summary
	}
	return nil
}
