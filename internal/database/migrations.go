package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/chatgate/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errNilDB
	}
	return db.AutoMigrate(
		&models.ServerSettings{},
	)
}
