package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/cabindev/sdnfutsal/internal/domain"
)

// ChangeMessage is the broker payload announcing a committed ledger mutation.
type ChangeMessage struct {
	EventID       string           `json:"eventId"`
	Kind          domain.EventKind `json:"kind"`
	BatchID       string           `json:"batchId,omitempty"`
	CoachID       string           `json:"coachId,omitempty"`
	ParticipantID string           `json:"participantId,omitempty"`
	Views         []string         `json:"views"`
	OccurredAt    time.Time        `json:"occurredAt"`
}

func NewChangeMessage(e domain.ChangeEvent) ChangeMessage {
	return ChangeMessage{
		EventID:       e.ID,
		Kind:          e.Kind,
		BatchID:       e.BatchID,
		CoachID:       e.CoachID,
		ParticipantID: e.ParticipantID,
		Views:         append([]string(nil), e.Views...),
		OccurredAt:    e.OccurredAt.UTC(),
	}
}

func (m ChangeMessage) Validate() error {
	if strings.TrimSpace(m.EventID) == "" {
		return fmt.Errorf("eventId is required")
	}
	if !m.Kind.IsValid() {
		return fmt.Errorf("invalid event kind %q", m.Kind)
	}
	if len(m.Views) == 0 {
		return fmt.Errorf("views must not be empty")
	}
	for _, view := range m.Views {
		if strings.TrimSpace(view) == "" {
			return fmt.Errorf("views must not contain blank names")
		}
	}
	return nil
}
