package engine

import (
    "context"

    "github.com/chenti-tech/classseat/internal/model"
)

// Store is the transactional document store the engine runs against.  All
// cross-client coordination is delegated to Atomic: every state-changing
// operation that touches both a registration and its seat lock goes through
// one call, so partial application is structurally impossible.
type Store interface {
    // Atomic runs fn against a transaction.  If fn returns an error, or
    // the commit itself fails, no writes become visible and the error is
    // returned unchanged (commit failures may be wrapped by the
    // implementation).
    Atomic(ctx context.Context, fn func(Txn) error) error

    // ListRegistrations returns all registrations in scope ordered by
    // queue position (priority ascending).  This is the read model for
    // display and export; occupancy decisions never rely on it alone.
    ListRegistrations(ctx context.Context, scope model.Scope) ([]model.Registration, error)
}

// Txn is the mutation surface available inside one atomic batch.  Lock
// acquisition is the enforcement point for seat occupancy: AcquireLock on
// an existing key fails the whole batch with ErrLockHeld regardless of what
// any earlier read reported.
type Txn interface {
    // GetRegistration returns the registration with the given ID or
    // ErrRegistrationNotFound.
    GetRegistration(id string) (*model.Registration, error)

    // ListRegistrations returns all registrations in scope in queue order.
    ListRegistrations(scope model.Scope) ([]model.Registration, error)

    // FindByPhone returns the registration with the given contact phone in
    // scope, or nil when none exists.
    FindByPhone(scope model.Scope, phone string) (*model.Registration, error)

    // InsertRegistration stores a new registration.
    InsertRegistration(reg *model.Registration) error

    // UpdateRegistration overwrites an existing registration.
    UpdateRegistration(reg *model.Registration) error

    // DeleteRegistration removes a registration by ID.  Deleting a missing
    // registration returns ErrRegistrationNotFound.
    DeleteRegistration(id string) error

    // FindLock returns the lock for key, or nil when the seat is free.
    FindLock(key string) (*model.SeatLock, error)

    // AcquireLock inserts a lock record.  It returns ErrLockHeld when the
    // key already exists, failing the batch.
    AcquireLock(lock *model.SeatLock) error

    // ReleaseLock removes the lock for key.  Releasing an absent key is a
    // no-op.
    ReleaseLock(key string) error

    // ReleaseScopeLocks removes every lock whose key starts with prefix.
    // Used by auto-assignment to free a whole cohort in one step.
    ReleaseScopeLocks(prefix string) error
}
