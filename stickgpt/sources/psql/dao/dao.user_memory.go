// stickgpt/sources/psql/dao/dao.user_memory.go
package dao

import (
	"stickgpt/stickgpt/sources/psql/models"

	"gorm.io/gorm"
)

type UserMemoryDAO = TableCollection[models.UserMemory]

func NewUserMemoryDAO(db *gorm.DB) *UserMemoryDAO {
	return newTableCollection(db, func(m *models.UserMemory) string { return m.ID })
}
