// Package queue defines the seat-event payloads exchanged over the message
// broker and the background consumer that turns them into a notification
// log.  The engine itself is synchronous; these events are the pull-free
// change feed the UI layer subscribes to.
package queue

import "github.com/chenti-tech/classseat/internal/model"

// Seat event types.
const (
    EventSeatClaimed    = "seat.claimed"
    EventSeatReleased   = "seat.released"
    EventSeatReassigned = "seat.reassigned"
    EventAutoAssigned   = "auto.assigned"
    EventWalkInAdded    = "walkin.added"
)

// SeatEvent is published after every successful allocation mutation.  It
// carries enough for downstream consumers to notify or log without
// querying the primary store.
type SeatEvent struct {
    Type           string      `json:"type"`
    Scope          model.Scope `json:"scope"`
    RegistrationID string      `json:"registration_id,omitempty"`
    StudentName    string      `json:"student_name,omitempty"`
    Classroom      string      `json:"classroom,omitempty"`
    Seat           string      `json:"seat,omitempty"`
    SeatedCount    int         `json:"seated_count,omitempty"`
    At             string      `json:"at"`
}
