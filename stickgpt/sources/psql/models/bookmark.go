// stickgpt/sources/psql/models/bookmark.go
package models

import (
	"time"
)

// Bookmark is a saved chat message. At most one exists per (user_id, message_id).
// ChatID and MessageID are loose references; nothing checks they still exist.
type Bookmark struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_bookmarks_user_message"`
	ChatID    string    `json:"chat_id" gorm:"type:varchar(255);not null"`
	MessageID string    `json:"message_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_bookmarks_user_message"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;autoCreateTime:false"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}
