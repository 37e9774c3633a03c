package event

import (
	"time"

	"github.com/garyjia/budget-approval/internal/domain/entity"
	"github.com/google/uuid"
)

// Event is a fact about a record that other parts of the system react to.
// Record is a snapshot taken after the transition committed.
type Event struct {
	ID            string                `json:"id"`
	Type          Type                  `json:"type"`
	RecordID      int64                 `json:"record_id"`
	Record        *entity.ExpenseRecord `json:"record"`
	Actor         entity.Actor          `json:"actor"`
	Acted         entity.Department     `json:"acted,omitempty"`
	Next          entity.Department     `json:"next,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
	CorrelationID string                `json:"correlation_id"`
}

// NewEvent creates an event for rec with a fresh ID and timestamp.
func NewEvent(eventType Type, rec *entity.ExpenseRecord, actor entity.Actor) *Event {
	id := uuid.NewString()
	e := &Event{
		ID:            id,
		Type:          eventType,
		Record:        rec,
		Actor:         actor,
		Timestamp:     time.Now(),
		CorrelationID: id,
	}
	if rec != nil {
		e.RecordID = rec.ID
	}
	return e
}

// WithRouting returns a copy carrying the department that acted and the one to prompt next.
func (e *Event) WithRouting(acted, next entity.Department) *Event {
	cp := *e
	cp.Acted = acted
	cp.Next = next
	return &cp
}

// WithCorrelation returns a copy linked to an existing correlation chain.
func (e *Event) WithCorrelation(correlationID string) *Event {
	cp := *e
	cp.CorrelationID = correlationID
	return &cp
}

// TypeForTransition picks the event emitted when a record moves to status.
// A move into Pending is an escalation to the next tier.
func TypeForTransition(to entity.Status) (Type, bool) {
	switch to {
	case entity.StatusPending:
		return TypeRecordEscalated, true
	case entity.StatusApproved:
		return TypeRecordApproved, true
	case entity.StatusRejected:
		return TypeRecordRejected, true
	case entity.StatusPaid:
		return TypeRecordPaid, true
	}
	return "", false
}
