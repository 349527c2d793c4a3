package migrations

import (
	"github.com/cabindev/sdnfutsal/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Participants reference batches and coaches without ON DELETE CASCADE; the
// ledger removes them explicitly inside the deleting transaction.
func createBatchParticipantsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_batch_participants",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.BatchParticipantModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`ALTER TABLE batch_participants ADD CONSTRAINT fk_batch_participants_batch FOREIGN KEY (batch_id) REFERENCES training_batches (id)`,
				`ALTER TABLE batch_participants ADD CONSTRAINT fk_batch_participants_coach FOREIGN KEY (coach_id) REFERENCES coaches (id)`,
				`ALTER TABLE batch_participants ADD CONSTRAINT chk_batch_participants_status CHECK (status IN ('PENDING', 'APPROVED', 'REJECTED', 'CANCELED'))`,
				`CREATE UNIQUE INDEX IF NOT EXISTS ` + repository.OpenParticipationIndex + ` ON batch_participants (batch_id, coach_id) WHERE status <> 'CANCELED'`,
				`CREATE INDEX IF NOT EXISTS idx_batch_participants_batch_status ON batch_participants (batch_id, status)`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.BatchParticipantModel{})
		},
	}
}
