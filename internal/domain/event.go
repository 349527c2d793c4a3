package domain

import (
	"sort"
	"time"
)

// EventKind names a committed ledger mutation.
type EventKind string

const (
	EventBatchCreated          EventKind = "batch.created"
	EventBatchUpdated          EventKind = "batch.updated"
	EventBatchDeleted          EventKind = "batch.deleted"
	EventParticipantRegistered EventKind = "participant.registered"
	EventParticipantStatus     EventKind = "participant.status_changed"
	EventParticipantUpdated    EventKind = "participant.updated"
	EventCoachCreated          EventKind = "coach.created"
	EventCoachApproval         EventKind = "coach.approval_changed"
	EventCoachDeleted          EventKind = "coach.deleted"
)

func (k EventKind) String() string { return string(k) }

func (k EventKind) IsValid() bool {
	switch k {
	case EventBatchCreated, EventBatchUpdated, EventBatchDeleted,
		EventParticipantRegistered, EventParticipantStatus, EventParticipantUpdated,
		EventCoachCreated, EventCoachApproval, EventCoachDeleted:
		return true
	}
	return false
}

// Logical read views that caches key on.
const (
	ViewBatchList = "batch-list"
	ViewCoachList = "coach-list"
)

func BatchView(batchID string) string        { return "batch:" + batchID }
func ParticipantsView(batchID string) string { return "participants:" + batchID }
func CoachView(coachID string) string        { return "coach:" + coachID }

// ChangeEvent records which views a committed mutation made stale. It is
// written to the outbox in the same transaction as the mutation.
type ChangeEvent struct {
	ID            string
	Kind          EventKind
	BatchID       string
	CoachID       string
	ParticipantID string
	Views         []string
	OccurredAt    time.Time
	PublishedAt   *time.Time
	Attempts      int
	NextAttemptAt *time.Time
	LastError     *string
}

// StaleViews returns the deduplicated, sorted view set for a mutation
// touching the given batch and coach. Empty ids are skipped.
func StaleViews(batchID, coachID string) []string {
	set := map[string]struct{}{}
	if batchID != "" {
		set[ViewBatchList] = struct{}{}
		set[BatchView(batchID)] = struct{}{}
		set[ParticipantsView(batchID)] = struct{}{}
	}
	if coachID != "" {
		set[ViewCoachList] = struct{}{}
		set[CoachView(coachID)] = struct{}{}
	}

	views := make([]string, 0, len(set))
	for v := range set {
		views = append(views, v)
	}
	sort.Strings(views)
	return views
}
