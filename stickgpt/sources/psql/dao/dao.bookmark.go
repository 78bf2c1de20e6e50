// stickgpt/sources/psql/dao/dao.bookmark.go
package dao

import (
	"stickgpt/stickgpt/sources/psql/models"

	"gorm.io/gorm"
)

type BookmarkDAO = TableCollection[models.Bookmark]

func NewBookmarkDAO(db *gorm.DB) *BookmarkDAO {
	return newTableCollection(db, func(b *models.Bookmark) string { return b.ID })
}
