package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&vocab.CurationEvent{},
	)
}
