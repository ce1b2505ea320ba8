package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Media{},
		&Folder{},
		&Tag{},
		&User{},
		&MediaUsage{},
		&AccessLog{},
		&HistoryEntry{},
		&Setting{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %v", err)
	}
	return nil
}
