// stickgpt/sources/psql/models/chat.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// DefaultChatTitle is the sentinel title of a chat that has not been named yet.
const DefaultChatTitle = "New Chat"

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Chat is one conversation owned by one user. Messages are kept in append
// order. Chat ids are chosen by clients, so they are only unique per user.
type Chat struct {
	UserID    string                           `json:"user_id" gorm:"type:varchar(255);primaryKey"`
	ID        string                           `json:"id" gorm:"type:varchar(255);primaryKey"`
	Title     string                           `json:"title" gorm:"type:varchar(255);not null"`
	Messages  datatypes.JSONSlice[ChatMessage] `json:"messages"`
	CreatedAt time.Time                        `json:"created_at" gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time                        `json:"updated_at" gorm:"not null;index;autoUpdateTime:false"`
}

func (Chat) TableName() string {
	return "chats"
}

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}
