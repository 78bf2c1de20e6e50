package dao

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TableCollection stores a whole collection as rows of one table.
// Save replaces the table contents inside a transaction: rows are upserted by
// primary key and rows missing from the saved collection are deleted.
// A collection returned by ForUser only sees and replaces that user's rows.
type TableCollection[T any] struct {
	DB     *gorm.DB
	idOf   func(*T) string
	order  string
	userID *string
}

func newTableCollection[T any](db *gorm.DB, idOf func(*T) string) *TableCollection[T] {
	return &TableCollection[T]{DB: db, idOf: idOf, order: "created_at asc, id asc"}
}

// ForUser narrows the collection to rows whose user_id is userID.
func (c *TableCollection[T]) ForUser(userID string) *TableCollection[T] {
	scoped := *c
	scoped.userID = &userID
	return &scoped
}

func (c *TableCollection[T]) scope(db *gorm.DB) *gorm.DB {
	if c.userID != nil {
		return db.Where("user_id = ?", *c.userID)
	}
	return db
}

func (c *TableCollection[T]) Load(ctx context.Context) ([]T, error) {
	var rows []T
	if err := c.scope(c.DB.WithContext(ctx)).Order(c.order).Find(&rows).Error; err != nil {
		return []T{}, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

func (c *TableCollection[T]) Save(ctx context.Context, records []T) error {
	return c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]string, 0, len(records))
		for i := range records {
			ids = append(ids, c.idOf(&records[i]))
		}
		del := c.scope(tx.Session(&gorm.Session{AllowGlobalUpdate: true}))
		if len(ids) > 0 {
			del = del.Where("id NOT IN ?", ids)
		}
		if err := del.Delete(new(T)).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&records, 100).Error
	})
}

func (c *TableCollection[T]) Clear(ctx context.Context) error {
	return c.scope(c.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})).Delete(new(T)).Error
}
