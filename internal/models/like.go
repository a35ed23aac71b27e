package models

import "time"

// Like marks that a user liked a snippet. Row existence is the signal;
// counts are always derived with COUNT queries, never stored.
// The (UserID, SnippetID) pair is unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_snippet" json:"userId"`
	SnippetID uint      `gorm:"not null;uniqueIndex:idx_like_user_snippet" json:"snippetId"`
	CreatedAt time.Time `json:"createdAt"`

	User    User    `gorm:"foreignKey:UserID" json:"-"`
	Snippet Snippet `gorm:"foreignKey:SnippetID" json:"-"`
}
