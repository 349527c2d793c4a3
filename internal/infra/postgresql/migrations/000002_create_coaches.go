package migrations

import (
	"github.com/cabindev/sdnfutsal/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createCoachesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_coaches",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.CoachModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.CoachModel{})
		},
	}
}
