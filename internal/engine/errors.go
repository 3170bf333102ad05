package engine

import (
    "errors"
    "fmt"
)

// Sentinel errors shared between the engine and its store implementations.
var (
    // ErrLockHeld is returned by Txn.AcquireLock when the key already
    // exists.  The engine maps it to a SeatOccupiedError; reaching a
    // handler unmapped means the caller skipped the occupancy check.
    ErrLockHeld = errors.New("seat lock already held")

    // ErrRegistrationNotFound is returned when an operation references a
    // registration ID that does not exist.
    ErrRegistrationNotFound = errors.New("registration not found")

    // ErrDuplicateRegistration is returned by Register when the same phone
    // number already has a registration in the scope.
    ErrDuplicateRegistration = errors.New("duplicate registration for phone in scope")

    // ErrPermissionDenied is returned when a privileged operation is
    // attempted without admin rights.
    ErrPermissionDenied = errors.New("permission denied")
)

// SeatOccupiedError reports a claim conflict.  It carries the incumbent's
// identity so the caller can prompt the operator before retrying with
// force.  OccupantID may be empty when the lock exists but the occupant
// scan could not resolve it (a concurrent writer between scan and commit).
type SeatOccupiedError struct {
    Classroom    string
    Seat         string
    OccupantID   string
    OccupantName string
}

func (e *SeatOccupiedError) Error() string {
    if e.OccupantName != "" {
        return fmt.Sprintf("seat %s in classroom %s is occupied by %s", e.Seat, e.Classroom, e.OccupantName)
    }
    return fmt.Sprintf("seat %s in classroom %s is occupied", e.Seat, e.Classroom)
}

// IsSeatOccupied reports whether err is a SeatOccupiedError, unwrapping as
// needed.
func IsSeatOccupied(err error) bool {
    var se *SeatOccupiedError
    return errors.As(err, &se)
}

// InvalidSeatError reports a seat identifier outside the classroom's
// defined seat set.  It is raised before any store mutation.
type InvalidSeatError struct {
    Classroom string
    Seat      string
}

func (e *InvalidSeatError) Error() string {
    return fmt.Sprintf("seat %q is not defined in classroom %q", e.Seat, e.Classroom)
}

// IsInvalidSeat reports whether err is an InvalidSeatError.
func IsInvalidSeat(err error) bool {
    var ie *InvalidSeatError
    return errors.As(err, &ie)
}

// InvalidPreferencesError reports a malformed preference list: too many
// entries, duplicates, or a seat outside the classroom grid.
type InvalidPreferencesError struct {
    Reason string
}

func (e *InvalidPreferencesError) Error() string {
    return "invalid preferences: " + e.Reason
}

// StoreUnavailableError wraps a failure of the backing store's atomic
// batch.  No partial state is ever committed, so the caller may retry.
type StoreUnavailableError struct {
    Op  string
    Err error
}

func (e *StoreUnavailableError) Error() string {
    return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }
