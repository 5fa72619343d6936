package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/ternak-go-api/internal/models"
)

// Migrate creates or updates the livestock tables, including the unique index on internal ids.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Animal{}, &models.Activity{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
