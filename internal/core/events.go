package core

import (
	"fmt"
	"time"
)

// EventType names a domain event.
type EventType string

const (
	// EventEditCreated is emitted when an edit is first referenced.
	EventEditCreated EventType = "edit.created"
	// EventEditCompleted is emitted when an edit reaches Done with a classification.
	EventEditCompleted EventType = "edit.completed"
	// EventEditDeleted is emitted the first time an edit is marked deleted.
	EventEditDeleted EventType = "edit.deleted"
)

// Event is the result of a core mutation, delivered to notifiers by a dispatcher.
type Event struct {
	Type           EventType       `json:"type"`
	EditID         int64           `json:"edit_id"`
	Status         EditStatus      `json:"status"`
	Classification *Classification `json:"classification,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// NewEvent builds an event for the given edit snapshot.
func NewEvent(t EventType, edit *Edit) Event {
	return Event{
		Type:           t,
		EditID:         edit.ID,
		Status:         edit.Status,
		Classification: edit.Classification,
		OccurredAt:     time.Now().UTC(),
	}
}

// Text renders the event as a single line for chat relays.
func (e Event) Text() string {
	switch e.Type {
	case EventEditCreated:
		return fmt.Sprintf("Edit %d is pending review", e.EditID)
	case EventEditCompleted:
		verdict := "unknown"
		if e.Classification != nil {
			verdict = e.Classification.String()
		}
		return fmt.Sprintf("Edit %d has been reviewed as %s", e.EditID, verdict)
	case EventEditDeleted:
		return fmt.Sprintf("Edit %d has been marked as deleted", e.EditID)
	default:
		return fmt.Sprintf("Edit %d: %s", e.EditID, e.Type)
	}
}
