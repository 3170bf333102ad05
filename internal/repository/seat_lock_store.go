package repository

import (
    "database/sql"
    "errors"

    "github.com/chenti-tech/classseat/internal/model"
)

// FindLock returns the lock for a key, or nil when the seat is free.  The
// read participates in the surrounding transaction, but occupancy is still
// enforced by the insert below, not by this lookup.
func (t *txn) FindLock(key string) (*model.SeatLock, error) {
    const q = `SELECT lock_key, student_name, acquired_at, method FROM seat_locks WHERE lock_key = ?`
    var l model.SeatLock
    err := t.tx.QueryRowContext(t.ctx, q, key).Scan(&l.Key, &l.StudentName, &l.AcquiredAt, &l.Method)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    return &l, nil
}

// AcquireLock inserts a lock row.  The UNIQUE index on lock_key makes a
// concurrent claim of the same seat fail here with a duplicate-key error,
// surfaced as engine.ErrLockHeld.
func (t *txn) AcquireLock(lock *model.SeatLock) error {
    const q = `INSERT INTO seat_locks (lock_key, student_name, acquired_at, method) VALUES (?, ?, ?, ?)`
    _, err := t.tx.ExecContext(t.ctx, q, lock.Key, lock.StudentName, lock.AcquiredAt.UTC(), lock.Method)
    return mapSQLErr(err)
}

// ReleaseLock removes the lock row for a key; absent keys are a no-op.
func (t *txn) ReleaseLock(key string) error {
    _, err := t.tx.ExecContext(t.ctx, `DELETE FROM seat_locks WHERE lock_key = ?`, key)
    return err
}

// ReleaseScopeLocks removes every lock in one scope.  The prefix comes
// from engine.ScopeKeyPrefix; the trailing underscore keeps one scope from
// matching another's keys.
func (t *txn) ReleaseScopeLocks(prefix string) error {
    _, err := t.tx.ExecContext(t.ctx,
        `DELETE FROM seat_locks WHERE lock_key LIKE CONCAT(?, '%')`, prefix)
    return err
}
