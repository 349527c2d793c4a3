package migrations

import (
	"github.com/cabindev/sdnfutsal/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createLedgerOutboxTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_ledger_outbox",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.OutboxEventModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_ledger_outbox_due ON ledger_outbox (next_attempt_at, occurred_at) WHERE published_at IS NULL`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.OutboxEventModel{})
		},
	}
}
