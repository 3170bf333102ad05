package model

import (
    "sort"
    "time"
)

// Registration status values.  A registration is confirmed exactly when it
// holds a seat; kicked marks an applicant whose seat was forcibly given to
// someone else and stays kicked until an operator reseats them.
const (
    StatusPending   = "pending"
    StatusConfirmed = "confirmed"
    StatusKicked    = "kicked"
)

// MaxPreferences caps how many preferred seats an applicant may list.
const MaxPreferences = 3

// Registration is one applicant's membership in a cohort.  It is always
// mutated together with its paired SeatLock inside one atomic batch.
//
// Fields:
//  ID           – registrations.id (UUID).
//  StudentName  – registrations.student_name.
//  ParentPhone  – registrations.parent_phone; one registration per phone per scope.
//  AcademicYear – registrations.academic_year (scope component).
//  Semester     – registrations.semester (scope component).
//  ClassType    – registrations.class_type (scope component).
//  Classroom    – registrations.classroom; one of the configured classroom keys.
//  Preferences  – registrations.preferences; ordered, 0–3 seat IDs, no duplicates.
//  AssignedSeat – registrations.assigned_seat; empty means unseated.
//  Status       – registrations.status; see constants above.
//  Priority     – registrations.priority; queue position in microseconds.
//  OwnerID      – registrations.owner_id; identity of the submitting session.
//  CreatedAt    – registrations.created_at.
type Registration struct {
    ID           string    `json:"id"`
    StudentName  string    `json:"studentName"`
    ParentPhone  string    `json:"parentPhone"`
    AcademicYear string    `json:"academicYear"`
    Semester     string    `json:"semester"`
    ClassType    string    `json:"classType"`
    Classroom    string    `json:"classroom"`
    Preferences  []string  `json:"preferences"`
    AssignedSeat string    `json:"assignedSeat,omitempty"`
    Status       string    `json:"status"`
    Priority     int64     `json:"priority"`
    OwnerID      string    `json:"ownerId"`
    CreatedAt    time.Time `json:"createdAt"`
}

// Scope returns the allocation pool this registration belongs to.
func (r *Registration) Scope() Scope {
    return Scope{AcademicYear: r.AcademicYear, Semester: r.Semester, ClassType: r.ClassType}
}

// Seated reports whether the registration currently holds a seat.
func (r *Registration) Seated() bool { return r.AssignedSeat != "" }

// SortByQueueOrder orders registrations by priority ascending.  Ties fall
// back to creation time and then ID so that every component that sorts a
// cohort produces the same sequence; auto-assignment depends on this being
// the single ordering source.
func SortByQueueOrder(regs []Registration) {
    sort.SliceStable(regs, func(i, j int) bool {
        a, b := &regs[i], &regs[j]
        if a.Priority != b.Priority {
            return a.Priority < b.Priority
        }
        if !a.CreatedAt.Equal(b.CreatedAt) {
            return a.CreatedAt.Before(b.CreatedAt)
        }
        return a.ID < b.ID
    })
}
