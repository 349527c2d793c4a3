package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the ledger repositories behind one transactional boundary.
type Store interface {
	Batches() BatchRepository
	Coaches() CoachRepository
	Participants() ParticipantRepository
	Outbox() OutboxRepository
	// WithinTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type GormStore struct {
	db           *gorm.DB
	batches      *GormBatchRepo
	coaches      *GormCoachRepo
	participants *GormParticipantRepo
	outbox       *GormOutboxRepo
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:           db,
		batches:      NewGormBatchRepo(db),
		coaches:      NewGormCoachRepo(db),
		participants: NewGormParticipantRepo(db),
		outbox:       NewGormOutboxRepo(db),
	}
}

func (s *GormStore) Batches() BatchRepository           { return s.batches }
func (s *GormStore) Coaches() CoachRepository           { return s.coaches }
func (s *GormStore) Participants() ParticipantRepository { return s.participants }
func (s *GormStore) Outbox() OutboxRepository           { return s.outbox }

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
	return translateError(err)
}
