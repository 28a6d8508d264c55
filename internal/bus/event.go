package bus

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event published on the bus.
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}

// NewEvent builds an event with a fresh ID and the current timestamp.
func NewEvent(kind string, payload any) Event {
	return Event{
		ID:        uuid.New().String(),
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}
