package audit

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event is one audit record of session activity.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	TabID     string            `json:"tab_id,omitempty"`
	LoginID   string            `json:"login_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Target    string            `json:"target,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewEvent stamps an event with a sortable id. Ids of events created in the same
// millisecond still sort in creation order.
func NewEvent(eventType string, now time.Time) Event {
	now = now.UTC()
	entropyMu.Lock()
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	entropyMu.Unlock()
	if err != nil {
		id = ulid.Make()
	}
	return Event{
		ID:        id.String(),
		Timestamp: now,
		EventType: eventType,
	}
}

// Time returns the creation time encoded in the event id, or the zero time when the
// id is not a ULID.
func (e Event) Time() time.Time {
	id, err := ulid.ParseStrict(e.ID)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(id.Time()).UTC()
}

// Sink receives emitted audit events. Emit is called from the dispatcher goroutine
// only, one event at a time.
type Sink interface {
	Emit(ctx context.Context, event Event)
}
