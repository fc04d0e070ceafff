package database

import (
	"github.com/chachabrian/sendit-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Destination{},
		&models.Parcel{},
	)
	if err != nil {
		return err
	}

	// Parcel listings are filtered by owner and ordered by id
	if !db.Migrator().HasIndex(&models.Parcel{}, "idx_parcels_user_id_id") {
		if err := db.Exec("CREATE INDEX idx_parcels_user_id_id ON parcels(user_id, id)").Error; err != nil {
			return err
		}
	}

	return nil
}
