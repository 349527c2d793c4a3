package migrations

import (
	"github.com/cabindev/sdnfutsal/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_training_batches",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.TrainingBatchModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_training_batches_active_year ON training_batches (is_active, year)`,
					`ALTER TABLE training_batches ADD CONSTRAINT chk_training_batches_capacity CHECK (max_participants > 0)`,
				}
				return execAll(tx, indexes)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.TrainingBatchModel{})
			},
		},
		createCoachesTable(),
		createBatchParticipantsTable(),
		createLedgerOutboxTable(),
	})

	return m.Migrate()
}

func execAll(tx *gorm.DB, statements []string) error {
	for _, sql := range statements {
		if err := tx.Exec(sql).Error; err != nil {
			return err
		}
	}
	return nil
}
