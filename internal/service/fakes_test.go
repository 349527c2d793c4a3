package service

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cabindev/sdnfutsal/internal/auth"
	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/cabindev/sdnfutsal/internal/lock"
	"github.com/cabindev/sdnfutsal/internal/queue"
	"github.com/cabindev/sdnfutsal/internal/ratelimit"
	"github.com/cabindev/sdnfutsal/internal/repository"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func adminCtx() context.Context {
	return auth.WithActor(context.Background(), domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin})
}

func userCtx(userID string) context.Context {
	return auth.WithActor(context.Background(), domain.Actor{UserID: userID, Role: domain.RoleUser})
}

func newTestLedger(t *testing.T, store repository.Store, opts LedgerOptions) *Ledger {
	t.Helper()

	ledger, err := NewLedger(store, auth.ContextGate{}, opts, nil)
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}
	var seq atomic.Int64
	ledger.now = func() time.Time { return testNow }
	ledger.newID = func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }
	return ledger
}

func openBatch(id string, capacity int) domain.TrainingBatch {
	return domain.TrainingBatch{
		ID:                  id,
		BatchNumber:         1,
		Year:                2025,
		StartDate:           testNow.AddDate(0, 0, 14),
		EndDate:             testNow.AddDate(0, 0, 16),
		RegistrationEndDate: testNow.AddDate(0, 0, 7),
		Location:            "Bangkok",
		MaxParticipants:     capacity,
		IsActive:            true,
	}
}

func coachFor(id, userID string) domain.Coach {
	return domain.Coach{
		ID:       id,
		UserID:   userID,
		FullName: "Coach " + id,
		Email:    id + "@example.com",
	}
}

// memStore is an in-memory repository.Store. Each operation holds the data
// mutex only while it runs, so transactions interleave the way they do
// against postgres. LockByID takes a row lock held until the transaction
// ends, and a failed transaction is undone operation by operation.
type memStore struct {
	mu     *sync.Mutex
	state  *memState
	rows   *rowLocks
	tx     *memTx
	faults map[string]error
	hooks  map[string]func()
	trace  *[]string
}

type memState struct {
	batches      map[string]domain.TrainingBatch
	coaches      map[string]domain.Coach
	participants map[string]domain.BatchParticipant
	outbox       []domain.ChangeEvent
}

type memTx struct {
	held map[string]*sync.Mutex
	undo []func(st *memState)
}

type rowLocks struct {
	mu   sync.Mutex
	rows map[string]*sync.Mutex
}

func (l *rowLocks) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.rows[key]
	if !ok {
		m = &sync.Mutex{}
		l.rows[key] = m
	}
	return m
}

func newMemStore() *memStore {
	return &memStore{
		mu: &sync.Mutex{},
		state: &memState{
			batches:      map[string]domain.TrainingBatch{},
			coaches:      map[string]domain.Coach{},
			participants: map[string]domain.BatchParticipant{},
		},
		rows:   &rowLocks{rows: map[string]*sync.Mutex{}},
		faults: map[string]error{},
		hooks:  map[string]func(){},
		trace:  &[]string{},
	}
}

func (s *memState) clone() memState {
	c := memState{
		batches:      make(map[string]domain.TrainingBatch, len(s.batches)),
		coaches:      make(map[string]domain.Coach, len(s.coaches)),
		participants: make(map[string]domain.BatchParticipant, len(s.participants)),
		outbox:       make([]domain.ChangeEvent, len(s.outbox)),
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.coaches {
		c.coaches[k] = v
	}
	for k, v := range s.participants {
		c.participants[k] = v
	}
	copy(c.outbox, s.outbox)
	return c
}

// undoFrom returns a function that puts back whatever changed between
// before and after, leaving other keys alone.
func undoFrom(before memState, after *memState) func(st *memState) {
	batches := restoreMap(before.batches, after.batches)
	coaches := restoreMap(before.coaches, after.coaches)
	participants := restoreMap(before.participants, after.participants)
	outbox := restoreOutbox(before.outbox, after.outbox)
	return func(st *memState) {
		batches(st.batches)
		coaches(st.coaches)
		participants(st.participants)
		outbox(&st.outbox)
	}
}

func restoreMap[V any](before, after map[string]V) func(m map[string]V) {
	changed := map[string]*V{}
	for k, v := range before {
		if av, ok := after[k]; !ok || !reflect.DeepEqual(av, v) {
			v := v
			changed[k] = &v
		}
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			changed[k] = nil
		}
	}
	return func(m map[string]V) {
		for k, v := range changed {
			if v == nil {
				delete(m, k)
				continue
			}
			m[k] = *v
		}
	}
}

func restoreOutbox(before, after []domain.ChangeEvent) func(events *[]domain.ChangeEvent) {
	old := make(map[string]domain.ChangeEvent, len(before))
	for _, e := range before {
		old[e.ID] = e
	}
	added := map[string]bool{}
	changed := map[string]domain.ChangeEvent{}
	for _, e := range after {
		prev, ok := old[e.ID]
		switch {
		case !ok:
			added[e.ID] = true
		case !reflect.DeepEqual(prev, e):
			changed[e.ID] = prev
		}
	}
	return func(events *[]domain.ChangeEvent) {
		kept := (*events)[:0]
		for _, e := range *events {
			if added[e.ID] {
				continue
			}
			if prev, ok := changed[e.ID]; ok {
				e = prev
			}
			kept = append(kept, e)
		}
		*events = kept
	}
}

var _ repository.Store = (*memStore)(nil)

func (s *memStore) Batches() repository.BatchRepository           { return memBatches{s} }
func (s *memStore) Coaches() repository.CoachRepository           { return memCoaches{s} }
func (s *memStore) Participants() repository.ParticipantRepository { return memParticipants{s} }
func (s *memStore) Outbox() repository.OutboxRepository           { return memOutbox{s} }

func (s *memStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memStore{
		mu:     s.mu,
		state:  s.state,
		rows:   s.rows,
		tx:     &memTx{held: map[string]*sync.Mutex{}},
		faults: s.faults,
		hooks:  s.hooks,
		trace:  s.trace,
	}
	defer tx.releaseRows()

	s.record("tx.begin")
	if err := fn(tx); err != nil {
		tx.rollback()
		s.record("tx.rollback")
		return err
	}
	s.record("tx.commit")
	return nil
}

func (s *memStore) rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.tx.undo) - 1; i >= 0; i-- {
		s.tx.undo[i](s.state)
	}
	s.tx.undo = nil
}

// lockRow blocks until the transaction owns key. Outside a transaction the
// lock would be released at once, so it is skipped.
func (s *memStore) lockRow(key string) {
	if s.tx == nil {
		return
	}
	if _, ok := s.tx.held[key]; ok {
		return
	}
	m := s.rows.get(key)
	m.Lock()
	s.tx.held[key] = m
}

func (s *memStore) releaseRows() {
	for key, m := range s.tx.held {
		delete(s.tx.held, key)
		m.Unlock()
	}
}

func (s *memStore) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.trace = append(*s.trace, op)
}

func (s *memStore) do(op string, fn func(st *memState) error) error {
	s.mu.Lock()
	*s.trace = append(*s.trace, op)
	if err := s.faults[op]; err != nil {
		s.mu.Unlock()
		return err
	}

	var before memState
	if s.tx != nil {
		before = s.state.clone()
	}
	err := fn(s.state)
	if s.tx != nil {
		s.tx.undo = append(s.tx.undo, undoFrom(before, s.state))
	}
	hook := s.hooks[op]
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

// afterOp runs fn each time op completes, outside the data mutex.
func (s *memStore) afterOp(op string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[op] = fn
}

func (s *memStore) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), (*s.trace)...)
}

func (s *memStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *memStore) seedBatch(b domain.TrainingBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.batches[b.ID] = b
}

func (s *memStore) seedCoach(c domain.Coach) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.coaches[c.ID] = c
}

func (s *memStore) seedParticipant(p domain.BatchParticipant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.RegisteredAt.IsZero() {
		p.RegisteredAt = testNow.Add(-time.Duration(len(s.state.participants)+1) * time.Hour)
	}
	s.state.participants[p.ID] = p
}

func (s *memStore) participant(id string) (domain.BatchParticipant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.participants[id]
	return p, ok
}

func (s *memStore) coach(id string) (domain.Coach, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.state.coaches[id]
	return c, ok
}

func (s *memStore) batch(id string) (domain.TrainingBatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.state.batches[id]
	return b, ok
}

func (s *memStore) events() []domain.ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChangeEvent(nil), s.state.outbox...)
}

func (s *memStore) seatedCount(batchID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countSeated(s.state, batchID)
}

func countSeated(st *memState, batchID string) int {
	n := 0
	for _, p := range st.participants {
		if p.BatchID == batchID && p.Status.Seated() {
			n++
		}
	}
	return n
}

type memBatches struct{ s *memStore }

func (r memBatches) Create(ctx context.Context, b *domain.TrainingBatch) error {
	return r.s.do("batches.Create", func(st *memState) error {
		for _, existing := range st.batches {
			if existing.BatchNumber == b.BatchNumber && existing.Year == b.Year {
				return fmt.Errorf("%w: duplicate", domain.ErrDuplicateBatch)
			}
		}
		b.CreatedAt, b.UpdatedAt = testNow, testNow
		st.batches[b.ID] = *b
		return nil
	})
}

func (r memBatches) GetByID(ctx context.Context, id string) (*domain.TrainingBatch, error) {
	return r.get("batches.GetByID", id)
}

func (r memBatches) LockByID(ctx context.Context, id string) (*domain.TrainingBatch, error) {
	r.s.lockRow("batch:" + id)
	return r.get("batches.LockByID", id)
}

func (r memBatches) get(op, id string) (*domain.TrainingBatch, error) {
	var out *domain.TrainingBatch
	err := r.s.do(op, func(st *memState) error {
		b, ok := st.batches[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r memBatches) ExistsByNumberAndYear(ctx context.Context, batchNumber, year int, excludeID string) (bool, error) {
	found := false
	err := r.s.do("batches.ExistsByNumberAndYear", func(st *memState) error {
		for id, b := range st.batches {
			if id != excludeID && b.BatchNumber == batchNumber && b.Year == year {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (r memBatches) Update(ctx context.Context, b *domain.TrainingBatch) error {
	return r.s.do("batches.Update", func(st *memState) error {
		if _, ok := st.batches[b.ID]; !ok {
			return domain.ErrNotFound
		}
		st.batches[b.ID] = *b
		return nil
	})
}

func (r memBatches) Delete(ctx context.Context, id string) error {
	return r.s.do("batches.Delete", func(st *memState) error {
		if _, ok := st.batches[id]; !ok {
			return domain.ErrNotFound
		}
		for _, p := range st.participants {
			if p.BatchID == id {
				return fmt.Errorf("%w: participants still reference batch", domain.ErrConstraintViolation)
			}
		}
		delete(st.batches, id)
		return nil
	})
}

func (r memBatches) List(ctx context.Context, params repository.BatchListParams) ([]domain.TrainingBatch, error) {
	var out []domain.TrainingBatch
	err := r.s.do("batches.List", func(st *memState) error {
		for _, b := range st.batches {
			if params.Year != nil && b.Year != *params.Year {
				continue
			}
			if params.ActiveOnly && !b.IsActive {
				continue
			}
			out = append(out, b)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].BatchNumber > out[j].BatchNumber
	})
	return out, err
}

type memCoaches struct{ s *memStore }

func (r memCoaches) Create(ctx context.Context, c *domain.Coach) error {
	return r.s.do("coaches.Create", func(st *memState) error {
		for _, existing := range st.coaches {
			if existing.UserID == c.UserID {
				return fmt.Errorf("%w: duplicate user", domain.ErrConstraintViolation)
			}
		}
		c.CreatedAt, c.UpdatedAt = testNow, testNow
		st.coaches[c.ID] = *c
		return nil
	})
}

func (r memCoaches) GetByID(ctx context.Context, id string) (*domain.Coach, error) {
	var out *domain.Coach
	err := r.s.do("coaches.GetByID", func(st *memState) error {
		c, ok := st.coaches[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r memCoaches) GetByUserID(ctx context.Context, userID string) (*domain.Coach, error) {
	var out *domain.Coach
	err := r.s.do("coaches.GetByUserID", func(st *memState) error {
		for _, c := range st.coaches {
			if c.UserID == userID {
				c := c
				out = &c
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (r memCoaches) SetApproved(ctx context.Context, id string, approved bool) error {
	return r.s.do("coaches.SetApproved", func(st *memState) error {
		c, ok := st.coaches[id]
		if !ok {
			return domain.ErrNotFound
		}
		c.IsApproved = approved
		st.coaches[id] = c
		return nil
	})
}

func (r memCoaches) Delete(ctx context.Context, id string) error {
	return r.s.do("coaches.Delete", func(st *memState) error {
		if _, ok := st.coaches[id]; !ok {
			return domain.ErrNotFound
		}
		for _, p := range st.participants {
			if p.CoachID == id {
				return fmt.Errorf("%w: participants still reference coach", domain.ErrConstraintViolation)
			}
		}
		delete(st.coaches, id)
		return nil
	})
}

func (r memCoaches) List(ctx context.Context, params repository.CoachListParams) ([]domain.Coach, error) {
	var out []domain.Coach
	err := r.s.do("coaches.List", func(st *memState) error {
		for _, c := range st.coaches {
			if params.Approved != nil && c.IsApproved != *params.Approved {
				continue
			}
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, err
}

type memParticipants struct{ s *memStore }

func (r memParticipants) Create(ctx context.Context, p *domain.BatchParticipant) error {
	return r.s.do("participants.Create", func(st *memState) error {
		for _, existing := range st.participants {
			if existing.BatchID == p.BatchID && existing.CoachID == p.CoachID && existing.Status != domain.ParticipantCanceled {
				return fmt.Errorf("%w: open pair", domain.ErrDuplicateParticipation)
			}
		}
		p.CreatedAt, p.UpdatedAt = testNow, testNow
		st.participants[p.ID] = *p
		return nil
	})
}

func (r memParticipants) GetByID(ctx context.Context, id string) (*domain.BatchParticipant, error) {
	return r.get("participants.GetByID", id)
}

func (r memParticipants) LockByID(ctx context.Context, id string) (*domain.BatchParticipant, error) {
	r.s.lockRow("participant:" + id)
	return r.get("participants.LockByID", id)
}

func (r memParticipants) get(op, id string) (*domain.BatchParticipant, error) {
	var out *domain.BatchParticipant
	err := r.s.do(op, func(st *memState) error {
		p, ok := st.participants[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r memParticipants) CountSeated(ctx context.Context, batchID string) (int, error) {
	n := 0
	err := r.s.do("participants.CountSeated", func(st *memState) error {
		n = countSeated(st, batchID)
		return nil
	})
	return n, err
}

func (r memParticipants) SeatedCounts(ctx context.Context, batchIDs []string) (map[string]int, error) {
	counts := map[string]int{}
	err := r.s.do("participants.SeatedCounts", func(st *memState) error {
		for _, id := range batchIDs {
			if n := countSeated(st, id); n > 0 {
				counts[id] = n
			}
		}
		return nil
	})
	return counts, err
}

func (r memParticipants) ExistsOpen(ctx context.Context, batchID, coachID string) (bool, error) {
	found := false
	err := r.s.do("participants.ExistsOpen", func(st *memState) error {
		for _, p := range st.participants {
			if p.BatchID == batchID && p.CoachID == coachID && p.Status != domain.ParticipantCanceled {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (r memParticipants) CountApprovedForCoach(ctx context.Context, coachID, excludeID string) (int, error) {
	n := 0
	err := r.s.do("participants.CountApprovedForCoach", func(st *memState) error {
		for id, p := range st.participants {
			if id != excludeID && p.CoachID == coachID && p.Status == domain.ParticipantApproved {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r memParticipants) update(op, id string, fn func(p *domain.BatchParticipant)) error {
	return r.s.do(op, func(st *memState) error {
		p, ok := st.participants[id]
		if !ok {
			return domain.ErrNotFound
		}
		fn(&p)
		st.participants[id] = p
		return nil
	})
}

func (r memParticipants) UpdateStatus(ctx context.Context, id string, status domain.ParticipantStatus) error {
	return r.update("participants.UpdateStatus", id, func(p *domain.BatchParticipant) { p.Status = status })
}

func (r memParticipants) SetAttended(ctx context.Context, id string, attended bool) error {
	return r.update("participants.SetAttended", id, func(p *domain.BatchParticipant) { p.Attended = attended })
}

func (r memParticipants) SetNotes(ctx context.Context, id string, notes string) error {
	return r.update("participants.SetNotes", id, func(p *domain.BatchParticipant) { p.Notes = notes })
}

func (r memParticipants) deleteWhere(op string, match func(p domain.BatchParticipant) bool) (int64, error) {
	var n int64
	err := r.s.do(op, func(st *memState) error {
		for id, p := range st.participants {
			if match(p) {
				delete(st.participants, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r memParticipants) DeleteByBatch(ctx context.Context, batchID string) (int64, error) {
	return r.deleteWhere("participants.DeleteByBatch", func(p domain.BatchParticipant) bool { return p.BatchID == batchID })
}

func (r memParticipants) DeleteByCoach(ctx context.Context, coachID string) (int64, error) {
	return r.deleteWhere("participants.DeleteByCoach", func(p domain.BatchParticipant) bool { return p.CoachID == coachID })
}

func (r memParticipants) List(ctx context.Context, params repository.ParticipantListParams) ([]domain.BatchParticipant, error) {
	var out []domain.BatchParticipant
	err := r.s.do("participants.List", func(st *memState) error {
		for _, p := range st.participants {
			if params.BatchID != "" && p.BatchID != params.BatchID {
				continue
			}
			if params.CoachID != "" && p.CoachID != params.CoachID {
				continue
			}
			if params.Status != nil && p.Status != *params.Status {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, err
}

func (r memParticipants) Roster(ctx context.Context, batchID string, status *domain.ParticipantStatus) ([]repository.RosterRow, error) {
	participants, err := r.List(ctx, repository.ParticipantListParams{BatchID: batchID, Status: status})
	if err != nil {
		return nil, err
	}
	rows := make([]repository.RosterRow, 0, len(participants))
	err = r.s.do("participants.Roster", func(st *memState) error {
		for _, p := range participants {
			c := st.coaches[p.CoachID]
			rows = append(rows, repository.RosterRow{
				Participant:       p,
				CoachName:         c.FullName,
				CoachEmail:        c.Email,
				CoachPhone:        c.Phone,
				CoachOrganization: c.Organization,
			})
		}
		return nil
	})
	return rows, err
}

type memOutbox struct{ s *memStore }

func (r memOutbox) Append(ctx context.Context, e *domain.ChangeEvent) error {
	return r.s.do("outbox.Append", func(st *memState) error {
		st.outbox = append(st.outbox, *e)
		return nil
	})
}

func (r memOutbox) LockDue(ctx context.Context, now time.Time, limit int) ([]domain.ChangeEvent, error) {
	var out []domain.ChangeEvent
	err := r.s.do("outbox.LockDue", func(st *memState) error {
		for _, e := range st.outbox {
			if e.PublishedAt != nil {
				continue
			}
			if e.NextAttemptAt != nil && e.NextAttemptAt.After(now) {
				continue
			}
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r memOutbox) mutate(op, id string, fn func(e *domain.ChangeEvent)) error {
	return r.s.do(op, func(st *memState) error {
		for i := range st.outbox {
			if st.outbox[i].ID == id {
				fn(&st.outbox[i])
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r memOutbox) MarkPublished(ctx context.Context, id string, at time.Time) error {
	return r.mutate("outbox.MarkPublished", id, func(e *domain.ChangeEvent) { e.PublishedAt = &at })
}

func (r memOutbox) ScheduleRetry(ctx context.Context, id string, nextAttemptAt time.Time, lastErr string) error {
	return r.mutate("outbox.ScheduleRetry", id, func(e *domain.ChangeEvent) {
		e.Attempts++
		e.NextAttemptAt = &nextAttemptAt
		e.LastError = &lastErr
	})
}

type fakeLocker struct {
	acquireFn func(ctx context.Context, key string, ttl time.Duration) (lock.Release, error)
}

func (f *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (lock.Release, error) {
	if f.acquireFn != nil {
		return f.acquireFn(ctx, key, ttl)
	}
	return func(context.Context) error { return nil }, nil
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, msg queue.ChangeMessage) error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.ChangeMessage) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, queueName, msg)
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queue string, handler queue.MessageHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, queueName, handler)
	}
	return nil
}

func (f *fakeConsumer) Close() error { return nil }

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, key string) (bool, error)
	waitFn  func(ctx context.Context, key string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, key)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, key string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, key)
	}
	return nil
}

var _ ratelimit.RateLimiter = (*fakeRateLimiter)(nil)

type fakeBumper struct {
	mu     sync.Mutex
	bumped [][]string
	err    error
}

func (f *fakeBumper) Bump(ctx context.Context, views ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.bumped = append(f.bumped, append([]string(nil), views...))
	return nil
}

type fakeRevalidator struct {
	revalidateFn func(ctx context.Context, views []string) error
}

func (f *fakeRevalidator) Revalidate(ctx context.Context, views []string) error {
	if f.revalidateFn != nil {
		return f.revalidateFn(ctx, views)
	}
	return nil
}
