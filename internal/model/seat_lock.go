package model

import "time"

// Assignment methods recorded on a seat lock.
const (
    MethodManual     = "manual"
    MethodAutoAssign = "auto-assign"
)

// SeatLock asserts exclusive occupancy of one seat within one scope.  It is
// the source of truth for occupancy: a lock exists for a key exactly when
// one registration holds that seat under the matching scope.  The redundant
// index lets the store's own write-conflict detection apply per seat instead
// of scanning every registration.
//
// Fields:
//  Key         – seat_locks.lock_key; built by engine.LockKey.
//  StudentName – seat_locks.student_name; holder identity for display.
//  AcquiredAt  – seat_locks.acquired_at.
//  Method      – seat_locks.method; manual or auto-assign.
type SeatLock struct {
    Key         string    `json:"key"`
    StudentName string    `json:"studentName"`
    AcquiredAt  time.Time `json:"acquiredAt"`
    Method      string    `json:"method"`
}
