package orchestrator

import (
	"sync"
	"time"

	"cosmos/internal/models"
)

// EventType classifies status messages emitted by the orchestrator.
type EventType string

const (
	EventTypeStatus     EventType = "status"
	EventTypeResult     EventType = "result"
	EventTypeError      EventType = "error"
	EventTypeValidation EventType = "validation"
)

// Event is one sequenced status message.
type Event struct {
	Seq       int64            `json:"seq"`
	Timestamp time.Time        `json:"timestamp"`
	Session   string           `json:"session,omitempty"`
	Type      EventType        `json:"type"`
	State     State            `json:"state"`
	JobID     int64            `json:"job_id,omitempty"`
	JobStatus models.JobStatus `json:"job_status,omitempty"`
	Message   string           `json:"message"`
}

// EventBus stores recent events and provides incremental reads.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
