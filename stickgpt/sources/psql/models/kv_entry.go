// stickgpt/sources/psql/models/kv_entry.go
package models

import "time"

// KVEntry holds a named text entry on relational backends.
type KVEntry struct {
	Name      string    `json:"name" gorm:"type:varchar(255);primaryKey"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
