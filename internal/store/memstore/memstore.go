// Package memstore provides an in-memory implementation of the engine's
// transactional store.  A transaction stages its writes on a copy of the
// state and publishes the copy only when the callback succeeds, so a failed
// batch leaves everything exactly as before.  It backs the engine tests and
// the dev mode of the server.
package memstore

import (
    "context"
    "strings"
    "sync"

    "github.com/chenti-tech/classseat/internal/engine"
    "github.com/chenti-tech/classseat/internal/model"
)

type state struct {
    regs  map[string]model.Registration
    locks map[string]model.SeatLock
}

func (s state) clone() state {
    c := state{
        regs:  make(map[string]model.Registration, len(s.regs)),
        locks: make(map[string]model.SeatLock, len(s.locks)),
    }
    for k, v := range s.regs {
        v.Preferences = append([]string(nil), v.Preferences...)
        c.regs[k] = v
    }
    for k, v := range s.locks {
        c.locks[k] = v
    }
    return c
}

// Store is an in-memory engine.Store.  A mutex serializes transactions; the
// staged-copy discipline still exercises the same commit-time conflict
// detection the SQL store gets from its unique lock key.
type Store struct {
    mu sync.Mutex
    st state
}

// New returns an empty Store.
func New() *Store {
    return &Store{st: state{
        regs:  map[string]model.Registration{},
        locks: map[string]model.SeatLock{},
    }}
}

// Atomic runs fn against a staged copy of the state.  The copy replaces
// the live state only when fn returns nil.
func (s *Store) Atomic(ctx context.Context, fn func(engine.Txn) error) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    staged := s.st.clone()
    if err := fn(&txn{st: &staged}); err != nil {
        return err
    }
    s.st = staged
    return nil
}

// ListRegistrations returns the cohort in queue order.
func (s *Store) ListRegistrations(ctx context.Context, scope model.Scope) ([]model.Registration, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    return listScope(&s.st, scope), nil
}

// LockCount reports how many locks exist whose key starts with prefix.
// Test helper; not part of the engine contract.
func (s *Store) LockCount(prefix string) int {
    s.mu.Lock()
    defer s.mu.Unlock()
    n := 0
    for k := range s.st.locks {
        if strings.HasPrefix(k, prefix) {
            n++
        }
    }
    return n
}

func listScope(st *state, scope model.Scope) []model.Registration {
    out := make([]model.Registration, 0)
    for _, r := range st.regs {
        if scope.Matches(&r) {
            r.Preferences = append([]string(nil), r.Preferences...)
            out = append(out, r)
        }
    }
    model.SortByQueueOrder(out)
    return out
}

type txn struct {
    st *state
}

func (t *txn) GetRegistration(id string) (*model.Registration, error) {
    r, ok := t.st.regs[id]
    if !ok {
        return nil, engine.ErrRegistrationNotFound
    }
    r.Preferences = append([]string(nil), r.Preferences...)
    return &r, nil
}

func (t *txn) ListRegistrations(scope model.Scope) ([]model.Registration, error) {
    return listScope(t.st, scope), nil
}

func (t *txn) FindByPhone(scope model.Scope, phone string) (*model.Registration, error) {
    for _, r := range t.st.regs {
        if scope.Matches(&r) && r.ParentPhone == phone {
            match := r
            return &match, nil
        }
    }
    return nil, nil
}

func (t *txn) InsertRegistration(reg *model.Registration) error {
    t.st.regs[reg.ID] = *reg
    return nil
}

func (t *txn) UpdateRegistration(reg *model.Registration) error {
    if _, ok := t.st.regs[reg.ID]; !ok {
        return engine.ErrRegistrationNotFound
    }
    t.st.regs[reg.ID] = *reg
    return nil
}

func (t *txn) DeleteRegistration(id string) error {
    if _, ok := t.st.regs[id]; !ok {
        return engine.ErrRegistrationNotFound
    }
    delete(t.st.regs, id)
    return nil
}

func (t *txn) FindLock(key string) (*model.SeatLock, error) {
    l, ok := t.st.locks[key]
    if !ok {
        return nil, nil
    }
    return &l, nil
}

func (t *txn) AcquireLock(lock *model.SeatLock) error {
    if _, held := t.st.locks[lock.Key]; held {
        return engine.ErrLockHeld
    }
    t.st.locks[lock.Key] = *lock
    return nil
}

func (t *txn) ReleaseLock(key string) error {
    delete(t.st.locks, key)
    return nil
}

func (t *txn) ReleaseScopeLocks(prefix string) error {
    for k := range t.st.locks {
        if strings.HasPrefix(k, prefix) {
            delete(t.st.locks, k)
        }
    }
    return nil
}
