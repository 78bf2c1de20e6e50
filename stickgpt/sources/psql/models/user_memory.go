// stickgpt/sources/psql/models/user_memory.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

type MemoryType string

const (
	MemoryPreference  MemoryType = "preference"
	MemoryInterest    MemoryType = "interest"
	MemoryInteraction MemoryType = "interaction"
	MemoryContext     MemoryType = "context"
)

func (t MemoryType) Valid() bool {
	switch t {
	case MemoryPreference, MemoryInterest, MemoryInteraction, MemoryContext:
		return true
	}
	return false
}

// UserMemory is one remembered fact about a user, unique per (user_id, key).
type UserMemory struct {
	ID           string            `json:"id" gorm:"type:varchar(64);primaryKey"`
	UserID       string            `json:"user_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_user_memories_user_key"`
	MemoryType   MemoryType        `json:"memory_type" gorm:"type:varchar(32);not null;index"`
	Key          string            `json:"key" gorm:"type:varchar(255);not null;uniqueIndex:idx_user_memories_user_key"`
	Value        datatypes.JSONMap `json:"value"`
	Context      string            `json:"context,omitempty" gorm:"type:text"`
	Confidence   float64           `json:"confidence" gorm:"not null;default:1"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null;autoCreateTime:false"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"not null;autoUpdateTime:false"`
	LastAccessed time.Time         `json:"last_accessed" gorm:"not null"`
}

func (UserMemory) TableName() string {
	return "user_memories"
}
