// stickgpt/sources/psql/dao/dao.chat.go
package dao

import (
	"stickgpt/stickgpt/sources/psql/models"

	"gorm.io/gorm"
)

type ChatDAO = TableCollection[models.Chat]

func NewChatDAO(db *gorm.DB) *ChatDAO {
	return newTableCollection(db, func(c *models.Chat) string { return c.ID })
}
