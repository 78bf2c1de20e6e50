// stickgpt/sources/psql/dao/dao.kv.go
package dao

import (
	"context"
	"errors"

	"stickgpt/stickgpt/sources/psql/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVDAO keeps named entries in the kv_entries table. It satisfies kv.Storage.
type KVDAO struct {
	DB *gorm.DB
}

func NewKVDAO(db *gorm.DB) *KVDAO {
	return &KVDAO{DB: db}
}

func (dao *KVDAO) Get(ctx context.Context, name string) (string, bool, error) {
	var entry models.KVEntry
	err := dao.DB.WithContext(ctx).First(&entry, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set creates or updates the entry.
func (dao *KVDAO) Set(ctx context.Context, name, value string) error {
	entry := models.KVEntry{Name: name, Value: value}
	return dao.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

func (dao *KVDAO) Remove(ctx context.Context, name string) error {
	return dao.DB.WithContext(ctx).Where("name = ?", name).Delete(&models.KVEntry{}).Error
}
