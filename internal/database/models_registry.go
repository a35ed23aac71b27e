package database

import "codesync/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Snippet{},
		&models.Comment{},
		&models.Like{},
		&models.Follow{},
	}
}
