// Package engine implements the seat allocation core: claiming, releasing
// and reassigning individual seats, deterministic cohort auto-assignment,
// and gap-based queue reordering.  Every mutation that touches both a
// registration and its seat lock is submitted to the store as one atomic
// batch; the lock insert inside that batch is the occupancy enforcement
// point, never a preceding read.
package engine

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"

    "github.com/chenti-tech/classseat/internal/layout"
    "github.com/chenti-tech/classseat/internal/metrics"
    "github.com/chenti-tech/classseat/internal/model"
)

// Engine coordinates registrations and seat locks through a transactional
// store.  It carries no mutable state of its own, so one instance serves
// all concurrent callers.
type Engine struct {
    store Store
    now   func() time.Time
    newID func() string
}

// New returns an Engine bound to the given store.
func New(store Store) *Engine {
    if store == nil {
        panic("nil store passed to engine.New")
    }
    return &Engine{
        store: store,
        now:   func() time.Time { return time.Now().UTC() },
        newID: uuid.NewString,
    }
}

// WithClock overrides the engine clock.  Tests use this to make priority
// values deterministic.
func (e *Engine) WithClock(now func() time.Time) *Engine {
    e.now = now
    return e
}

// RegistrationInput carries the fields a form submission provides.
type RegistrationInput struct {
    StudentName string
    ParentPhone string
    Classroom   string
    Preferences []string
    OwnerID     string
}

// Register creates a pending registration from a form submission.  The
// preference list is validated against the classroom grid, a class bound to
// a fixed classroom overrides the submitted room, and a second submission
// with the same phone in the same scope is rejected.  The new registration
// is unseated; seats are granted later by ClaimSeat or AutoAssign.
func (e *Engine) Register(ctx context.Context, scope model.Scope, in RegistrationInput) (*model.Registration, error) {
    if err := scope.Validate(); err != nil {
        return nil, err
    }
    room := in.Classroom
    if bound, ok := layout.BoundClassroom(scope.ClassType); ok {
        room = bound
    }
    grid, ok := layout.Get(room)
    if !ok {
        return nil, &InvalidSeatError{Classroom: room}
    }
    if err := validatePreferences(grid, in.Preferences); err != nil {
        return nil, err
    }
    now := e.now()
    reg := &model.Registration{
        ID:           e.newID(),
        StudentName:  in.StudentName,
        ParentPhone:  in.ParentPhone,
        AcademicYear: scope.AcademicYear,
        Semester:     scope.Semester,
        ClassType:    scope.ClassType,
        Classroom:    room,
        Preferences:  append([]string(nil), in.Preferences...),
        Status:       model.StatusPending,
        Priority:     now.UnixMicro(),
        OwnerID:      in.OwnerID,
        CreatedAt:    now,
    }
    err := e.store.Atomic(ctx, func(tx Txn) error {
        if in.ParentPhone != "" {
            dup, err := tx.FindByPhone(scope, in.ParentPhone)
            if err != nil {
                return err
            }
            if dup != nil {
                return ErrDuplicateRegistration
            }
        }
        return tx.InsertRegistration(reg)
    })
    if err != nil {
        return nil, wrapStoreErr("register", err)
    }
    return reg, nil
}

// ClaimSeat assigns a specific seat to a registration.  The seat must
// belong to the classroom grid and be unoccupied in the registration's
// scope; on conflict the incumbent's identity is reported and nothing is
// written.  Clearing the old seat, setting the new one and acquiring the
// lock commit as one batch.
func (e *Engine) ClaimSeat(ctx context.Context, regID, classroom, seat string) (*model.Registration, error) {
    grid, ok := layout.Get(classroom)
    if !ok || !grid.Contains(seat) {
        return nil, &InvalidSeatError{Classroom: classroom, Seat: seat}
    }
    var claimed *model.Registration
    err := e.store.Atomic(ctx, func(tx Txn) error {
        reg, err := tx.GetRegistration(regID)
        if err != nil {
            return err
        }
        scope := reg.Scope()
        key := LockKey(scope.AcademicYear, scope.Semester, scope.ClassType, classroom, seat)
        if held, err := tx.FindLock(key); err != nil {
            return err
        } else if held != nil {
            return e.occupiedError(tx, scope, classroom, seat, regID)
        }
        if reg.Seated() {
            oldKey := LockKey(scope.AcademicYear, scope.Semester, scope.ClassType, reg.Classroom, reg.AssignedSeat)
            if err := tx.ReleaseLock(oldKey); err != nil {
                return err
            }
        }
        reg.AssignedSeat = seat
        reg.Classroom = classroom
        reg.Status = model.StatusConfirmed
        if err := tx.UpdateRegistration(reg); err != nil {
            return err
        }
        if err := tx.AcquireLock(&model.SeatLock{
            Key:         key,
            StudentName: reg.StudentName,
            AcquiredAt:  e.now(),
            Method:      model.MethodManual,
        }); err != nil {
            if errors.Is(err, ErrLockHeld) {
                return &SeatOccupiedError{Classroom: classroom, Seat: seat}
            }
            return err
        }
        claimed = reg
        return nil
    })
    if err != nil {
        if IsSeatOccupied(err) {
            metrics.SeatConflicts.Inc()
        }
        return nil, wrapStoreErr("claim seat", err)
    }
    metrics.SeatClaims.Inc()
    return claimed, nil
}

// ReleaseSeat returns a registration to the pending queue and frees its
// seat.  Releasing an unseated registration succeeds without writing.
func (e *Engine) ReleaseSeat(ctx context.Context, regID string) (*model.Registration, error) {
    var released *model.Registration
    err := e.store.Atomic(ctx, func(tx Txn) error {
        reg, err := tx.GetRegistration(regID)
        if err != nil {
            return err
        }
        if !reg.Seated() {
            released = reg
            return nil
        }
        scope := reg.Scope()
        key := LockKey(scope.AcademicYear, scope.Semester, scope.ClassType, reg.Classroom, reg.AssignedSeat)
        if err := tx.ReleaseLock(key); err != nil {
            return err
        }
        reg.AssignedSeat = ""
        reg.Status = model.StatusPending
        if err := tx.UpdateRegistration(reg); err != nil {
            return err
        }
        released = reg
        return nil
    })
    if err != nil {
        return nil, wrapStoreErr("release seat", err)
    }
    return released, nil
}

// ReassignSeat moves a registration onto a seat, optionally evicting the
// incumbent.  With force false an occupied seat produces a
// SeatOccupiedError carrying the occupant so the operator can confirm;
// no state is touched.  With force true the eviction (seat cleared, status
// kicked, lock released), the move and the new lock commit as one batch.
func (e *Engine) ReassignSeat(ctx context.Context, regID, classroom, seat string, force bool) (*model.Registration, error) {
    grid, ok := layout.Get(classroom)
    if !ok || !grid.Contains(seat) {
        return nil, &InvalidSeatError{Classroom: classroom, Seat: seat}
    }
    var moved *model.Registration
    evicted := false
    err := e.store.Atomic(ctx, func(tx Txn) error {
        reg, err := tx.GetRegistration(regID)
        if err != nil {
            return err
        }
        scope := reg.Scope()
        key := LockKey(scope.AcademicYear, scope.Semester, scope.ClassType, classroom, seat)
        occupant, err := e.findOccupant(tx, scope, classroom, seat, regID)
        if err != nil {
            return err
        }
        if occupant != nil {
            if !force {
                return &SeatOccupiedError{
                    Classroom:    classroom,
                    Seat:         seat,
                    OccupantID:   occupant.ID,
                    OccupantName: occupant.StudentName,
                }
            }
            if err := tx.ReleaseLock(key); err != nil {
                return err
            }
            occupant.AssignedSeat = ""
            occupant.Status = model.StatusKicked
            if err := tx.UpdateRegistration(occupant); err != nil {
                return err
            }
            evicted = true
        }
        if reg.Seated() {
            oldKey := LockKey(scope.AcademicYear, scope.Semester, scope.ClassType, reg.Classroom, reg.AssignedSeat)
            if err := tx.ReleaseLock(oldKey); err != nil {
                return err
            }
        }
        reg.AssignedSeat = seat
        reg.Classroom = classroom
        reg.Status = model.StatusConfirmed
        if err := tx.UpdateRegistration(reg); err != nil {
            return err
        }
        if err := tx.AcquireLock(&model.SeatLock{
            Key:         key,
            StudentName: reg.StudentName,
            AcquiredAt:  e.now(),
            Method:      model.MethodManual,
        }); err != nil {
            if errors.Is(err, ErrLockHeld) {
                return &SeatOccupiedError{Classroom: classroom, Seat: seat}
            }
            return err
        }
        moved = reg
        return nil
    })
    if err != nil {
        if IsSeatOccupied(err) {
            metrics.SeatConflicts.Inc()
        }
        return nil, wrapStoreErr("reassign seat", err)
    }
    metrics.SeatClaims.Inc()
    if evicted {
        metrics.ForceEvictions.Inc()
    }
    return moved, nil
}

// AutoAssign reseats an entire cohort from scratch: every lock in scope is
// released, registrations are walked in queue order, and each receives the
// first preference not yet taken in this pass.  Applicants with no free
// preference become pending and unseated.  The whole pass commits as one
// batch, so re-running it on unchanged input yields the same assignment.
// Prior manual placements inside the scope do not survive.
func (e *Engine) AutoAssign(ctx context.Context, scope model.Scope) (int, error) {
    if err := scope.Validate(); err != nil {
        return 0, err
    }
    seated := 0
    err := e.store.Atomic(ctx, func(tx Txn) error {
        seated = 0
        regs, err := tx.ListRegistrations(scope)
        if err != nil {
            return err
        }
        if err := tx.ReleaseScopeLocks(ScopeKeyPrefix(scope)); err != nil {
            return err
        }
        taken := make(map[string]bool, len(regs))
        now := e.now()
        for i := range regs {
            reg := &regs[i]
            grid, ok := layout.Get(reg.Classroom)
            allocated := ""
            if ok {
                for _, pref := range reg.Preferences {
                    if !grid.Contains(pref) {
                        continue
                    }
                    key := LockKey(scope.AcademicYear, scope.Semester, scope.ClassType, reg.Classroom, pref)
                    if !taken[key] {
                        taken[key] = true
                        allocated = pref
                        break
                    }
                }
            }
            if allocated == "" {
                reg.AssignedSeat = ""
                reg.Status = model.StatusPending
                if err := tx.UpdateRegistration(reg); err != nil {
                    return err
                }
                continue
            }
            reg.AssignedSeat = allocated
            reg.Status = model.StatusConfirmed
            if err := tx.UpdateRegistration(reg); err != nil {
                return err
            }
            key := LockKey(scope.AcademicYear, scope.Semester, scope.ClassType, reg.Classroom, allocated)
            if err := tx.AcquireLock(&model.SeatLock{
                Key:         key,
                StudentName: reg.StudentName,
                AcquiredAt:  now,
                Method:      model.MethodAutoAssign,
            }); err != nil {
                return err
            }
            seated++
        }
        return nil
    })
    if err != nil {
        return 0, wrapStoreErr("auto assign", err)
    }
    metrics.AutoAssignRuns.Inc()
    metrics.AutoAssignSeated.Add(float64(seated))
    return seated, nil
}

// AddWalkIn creates an unseated registration for someone who signed up at
// the counter.  Priority is "now", which in normal use places the walk-in
// after every previously submitted applicant; operators reorder the queue
// afterwards when needed.
func (e *Engine) AddWalkIn(ctx context.Context, scope model.Scope, name, phone string) (*model.Registration, error) {
    if err := scope.Validate(); err != nil {
        return nil, err
    }
    room := ""
    if bound, ok := layout.BoundClassroom(scope.ClassType); ok {
        room = bound
    } else if keys := layout.Keys(); len(keys) > 0 {
        room = keys[0]
    }
    now := e.now()
    reg := &model.Registration{
        ID:           e.newID(),
        StudentName:  name,
        ParentPhone:  phone,
        AcademicYear: scope.AcademicYear,
        Semester:     scope.Semester,
        ClassType:    scope.ClassType,
        Classroom:    room,
        Preferences:  []string{},
        Status:       model.StatusPending,
        Priority:     now.UnixMicro(),
        OwnerID:      "walk-in",
        CreatedAt:    now,
    }
    err := e.store.Atomic(ctx, func(tx Txn) error {
        return tx.InsertRegistration(reg)
    })
    if err != nil {
        return nil, wrapStoreErr("add walk-in", err)
    }
    return reg, nil
}

// DeleteRegistration removes a registration and, when seated, its lock in
// one batch.
func (e *Engine) DeleteRegistration(ctx context.Context, regID string) error {
    err := e.store.Atomic(ctx, func(tx Txn) error {
        reg, err := tx.GetRegistration(regID)
        if err != nil {
            return err
        }
        if reg.Seated() {
            scope := reg.Scope()
            key := LockKey(scope.AcademicYear, scope.Semester, scope.ClassType, reg.Classroom, reg.AssignedSeat)
            if err := tx.ReleaseLock(key); err != nil {
                return err
            }
        }
        return tx.DeleteRegistration(regID)
    })
    return wrapStoreErr("delete registration", err)
}

// ListRegistrations returns the cohort in queue order for display and
// export.
func (e *Engine) ListRegistrations(ctx context.Context, scope model.Scope) ([]model.Registration, error) {
    if err := scope.Validate(); err != nil {
        return nil, err
    }
    regs, err := e.store.ListRegistrations(ctx, scope)
    if err != nil {
        return nil, wrapStoreErr("list registrations", err)
    }
    return regs, nil
}

// occupiedError builds a SeatOccupiedError with the incumbent resolved
// from the cohort.  The occupant fields stay empty if the lock exists but
// no registration in scope claims the seat (possible mid-race).
func (e *Engine) occupiedError(tx Txn, scope model.Scope, classroom, seat, excludeID string) error {
    se := &SeatOccupiedError{Classroom: classroom, Seat: seat}
    if occ, err := e.findOccupant(tx, scope, classroom, seat, excludeID); err == nil && occ != nil {
        se.OccupantID = occ.ID
        se.OccupantName = occ.StudentName
    }
    return se
}

// findOccupant scans the cohort for the registration seated at (classroom,
// seat), ignoring excludeID.  The scan is advisory; the lock insert in the
// same batch remains the authoritative conflict check.
func (e *Engine) findOccupant(tx Txn, scope model.Scope, classroom, seat, excludeID string) (*model.Registration, error) {
    regs, err := tx.ListRegistrations(scope)
    if err != nil {
        return nil, err
    }
    for i := range regs {
        r := &regs[i]
        if r.ID != excludeID && r.AssignedSeat == seat && r.Classroom == classroom {
            return r, nil
        }
    }
    return nil, nil
}

func validatePreferences(grid layout.Layout, prefs []string) error {
    if len(prefs) > model.MaxPreferences {
        return &InvalidPreferencesError{Reason: "at most three preferred seats"}
    }
    seen := make(map[string]bool, len(prefs))
    for _, p := range prefs {
        if seen[p] {
            return &InvalidPreferencesError{Reason: "duplicate seat " + p}
        }
        seen[p] = true
        if !grid.Contains(p) {
            return &InvalidSeatError{Classroom: grid.Key, Seat: p}
        }
    }
    return nil
}

// wrapStoreErr passes domain errors through untouched and wraps anything
// else as a StoreUnavailableError so callers can distinguish retryable
// batch failures from logic conflicts.
func wrapStoreErr(op string, err error) error {
    if err == nil {
        return nil
    }
    var so *SeatOccupiedError
    var is *InvalidSeatError
    var ip *InvalidPreferencesError
    if errors.As(err, &so) || errors.As(err, &is) || errors.As(err, &ip) ||
        errors.Is(err, ErrRegistrationNotFound) ||
        errors.Is(err, ErrDuplicateRegistration) ||
        errors.Is(err, ErrPermissionDenied) {
        return err
    }
    return &StoreUnavailableError{Op: op, Err: err}
}
