package domain

import (
	"fmt"
	"strings"
	"time"
)

// ParticipantStatus is the lifecycle state of a coach's participation in a batch.
type ParticipantStatus string

const (
	ParticipantPending  ParticipantStatus = "PENDING"
	ParticipantApproved ParticipantStatus = "APPROVED"
	ParticipantRejected ParticipantStatus = "REJECTED"
	ParticipantCanceled ParticipantStatus = "CANCELED"
)

const MaxNoteLength = 2000

func (s ParticipantStatus) String() string { return string(s) }

func (s ParticipantStatus) IsValid() bool {
	switch s {
	case ParticipantPending, ParticipantApproved, ParticipantRejected, ParticipantCanceled:
		return true
	}
	return false
}

// Seated reports whether the status consumes a seat.
func (s ParticipantStatus) Seated() bool {
	return s == ParticipantPending || s == ParticipantApproved
}

// CanTransitionTo reports whether moving from s to next is a real change the
// ledger accepts. Same-state moves are handled by callers as no-ops.
func (s ParticipantStatus) CanTransitionTo(next ParticipantStatus) bool {
	if s == next {
		return false
	}
	switch next {
	case ParticipantApproved:
		return s == ParticipantPending
	case ParticipantRejected:
		return s == ParticipantPending || s == ParticipantApproved
	case ParticipantCanceled:
		return true
	}
	return false
}

// SeatedStatuses lists the statuses counted against capacity.
func SeatedStatuses() []ParticipantStatus {
	return []ParticipantStatus{ParticipantPending, ParticipantApproved}
}

func ParseParticipantStatusFromString(s string) (ParticipantStatus, error) {
	st := ParticipantStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid participant status %q", ErrValidation, s)
	}
	return st, nil
}

// BatchParticipant is one coach's enrollment in one training batch.
type BatchParticipant struct {
	ID           string
	BatchID      string
	CoachID      string
	RegisteredAt time.Time
	Status       ParticipantStatus
	Attended     bool
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeNote trims a free-text admin note and enforces its length bound.
func NormalizeNote(note string) (string, error) {
	trimmed := strings.TrimSpace(note)
	if n := len([]rune(trimmed)); n > MaxNoteLength {
		return "", fmt.Errorf("%w: note exceeds %d characters (got %d)", ErrValidation, MaxNoteLength, n)
	}
	return trimmed, nil
}

// CancelApprovalPolicy decides what happens to a coach's approval flag when
// an APPROVED participation is canceled.
type CancelApprovalPolicy string

const (
	// CancelKeepsApproval leaves the coach approved after cancellation.
	CancelKeepsApproval CancelApprovalPolicy = "keep"
	// CancelRevokesApproval clears the flag when no other approved participation remains.
	CancelRevokesApproval CancelApprovalPolicy = "revoke"
)

func (p CancelApprovalPolicy) IsValid() bool {
	return p == CancelKeepsApproval || p == CancelRevokesApproval
}

func ParseCancelApprovalPolicy(s string) (CancelApprovalPolicy, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return CancelKeepsApproval, nil
	}
	p := CancelApprovalPolicy(normalized)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: invalid cancel approval policy %q", ErrValidation, s)
	}
	return p, nil
}
