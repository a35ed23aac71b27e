package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// StringSlice stores a string array as a JSON column so it works on both
// PostgreSQL (jsonb) and the sqlite test database.
type StringSlice []string

// Value implements driver.Valuer.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		s = StringSlice{}
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type %T for StringSlice", value)
	}
}

// GormDataType tells GORM which column type to use.
func (StringSlice) GormDataType() string {
	return "jsonb"
}

// Snippet is a shared unit of code with metadata.
type Snippet struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Title       string      `gorm:"not null" json:"title"`
	Description string      `json:"description"`
	Content     string      `gorm:"type:text;not null" json:"content"`
	Language    string      `gorm:"not null;index" json:"language"`
	Tags        StringSlice `gorm:"type:jsonb" json:"tags"`
	IsPublic    bool        `gorm:"default:true;index" json:"isPublic"`
	Views       int64       `json:"views"`
	AuthorID    uint        `gorm:"not null;index" json:"authorId"`
	Author      User        `gorm:"foreignKey:AuthorID" json:"-"`

	// Computed at query time, never persisted.
	CommentsCount int64 `gorm:"->" json:"-"`
	LikesCount    int64 `gorm:"->" json:"-"`
	Liked         bool  `gorm:"->" json:"isLiked"`

	AuthorSummary *UserSummary  `gorm:"-" json:"author,omitempty"`
	Count         SnippetCounts `gorm:"-" json:"_count"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Comments []Comment `gorm:"foreignKey:SnippetID;constraint:OnDelete:CASCADE" json:"-"`
	Likes    []Like    `gorm:"foreignKey:SnippetID;constraint:OnDelete:CASCADE" json:"-"`
}

// SnippetCounts is the aggregate block exposed as "_count" in JSON.
type SnippetCounts struct {
	Comments int64 `json:"comments"`
	Likes    int64 `json:"likes"`
}

// AfterFind folds computed columns into the JSON-facing blocks.
func (s *Snippet) AfterFind(_ *gorm.DB) error {
	s.Count = SnippetCounts{Comments: s.CommentsCount, Likes: s.LikesCount}
	if s.Author.ID != 0 {
		summary := s.Author.Summary()
		s.AuthorSummary = &summary
	}
	if s.Tags == nil {
		s.Tags = StringSlice{}
	}
	return nil
}
