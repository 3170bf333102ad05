package memstore

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/chenti-tech/classseat/internal/engine"
    "github.com/chenti-tech/classseat/internal/model"
)

var scope = model.Scope{AcademicYear: "114", Semester: "上", ClassType: "國三數學"}

func reg(id string, priority int64) model.Registration {
    return model.Registration{
        ID:           id,
        StudentName:  "學生" + id,
        ParentPhone:  "0912" + id,
        AcademicYear: scope.AcademicYear,
        Semester:     scope.Semester,
        ClassType:    scope.ClassType,
        Classroom:    "A",
        Preferences:  []string{"A-1-1"},
        Status:       model.StatusPending,
        Priority:     priority,
        CreatedAt:    time.Unix(0, priority*1000).UTC(),
    }
}

func TestAtomicCommitPublishesWrites(t *testing.T) {
    s := New()
    r := reg("r1", 10)
    err := s.Atomic(context.Background(), func(tx engine.Txn) error {
        return tx.InsertRegistration(&r)
    })
    require.NoError(t, err)

    regs, err := s.ListRegistrations(context.Background(), scope)
    require.NoError(t, err)
    require.Len(t, regs, 1)
    assert.Equal(t, "r1", regs[0].ID)
}

func TestAtomicFailureRollsEverythingBack(t *testing.T) {
    s := New()
    r1 := reg("r1", 10)
    require.NoError(t, s.Atomic(context.Background(), func(tx engine.Txn) error {
        return tx.InsertRegistration(&r1)
    }))

    boom := errors.New("boom")
    r2 := reg("r2", 20)
    err := s.Atomic(context.Background(), func(tx engine.Txn) error {
        if err := tx.InsertRegistration(&r2); err != nil {
            return err
        }
        if err := tx.AcquireLock(&model.SeatLock{Key: "k1", StudentName: r2.StudentName}); err != nil {
            return err
        }
        got, err := tx.GetRegistration("r1")
        if err != nil {
            return err
        }
        got.Status = model.StatusKicked
        if err := tx.UpdateRegistration(got); err != nil {
            return err
        }
        return boom
    })
    require.ErrorIs(t, err, boom)

    // Nothing from the failed batch is visible.
    regs, err := s.ListRegistrations(context.Background(), scope)
    require.NoError(t, err)
    require.Len(t, regs, 1)
    assert.Equal(t, "r1", regs[0].ID)
    assert.Equal(t, model.StatusPending, regs[0].Status)
    assert.Equal(t, 0, s.LockCount(""))
}

func TestAcquireLockConflicts(t *testing.T) {
    s := New()
    err := s.Atomic(context.Background(), func(tx engine.Txn) error {
        return tx.AcquireLock(&model.SeatLock{Key: "k1", StudentName: "甲"})
    })
    require.NoError(t, err)

    err = s.Atomic(context.Background(), func(tx engine.Txn) error {
        return tx.AcquireLock(&model.SeatLock{Key: "k1", StudentName: "乙"})
    })
    assert.ErrorIs(t, err, engine.ErrLockHeld)

    // The original holder survives the failed attempt.
    err = s.Atomic(context.Background(), func(tx engine.Txn) error {
        held, err := tx.FindLock("k1")
        require.NoError(t, err)
        require.NotNil(t, held)
        assert.Equal(t, "甲", held.StudentName)
        return nil
    })
    require.NoError(t, err)
}

func TestReleaseLockIsIdempotent(t *testing.T) {
    s := New()
    err := s.Atomic(context.Background(), func(tx engine.Txn) error {
        return tx.ReleaseLock("never-held")
    })
    assert.NoError(t, err)
}

func TestReleaseScopeLocksMatchesPrefixOnly(t *testing.T) {
    s := New()
    require.NoError(t, s.Atomic(context.Background(), func(tx engine.Txn) error {
        for _, k := range []string{"scopeA_s1", "scopeA_s2", "scopeB_s1"} {
            if err := tx.AcquireLock(&model.SeatLock{Key: k}); err != nil {
                return err
            }
        }
        return nil
    }))

    require.NoError(t, s.Atomic(context.Background(), func(tx engine.Txn) error {
        return tx.ReleaseScopeLocks("scopeA_")
    }))

    assert.Equal(t, 0, s.LockCount("scopeA_"))
    assert.Equal(t, 1, s.LockCount("scopeB_"))
}

func TestListRegistrationsQueueOrder(t *testing.T) {
    s := New()
    a := reg("a", 30)
    b := reg("b", 10)
    c := reg("c", 10)
    c.CreatedAt = b.CreatedAt.Add(time.Second)
    require.NoError(t, s.Atomic(context.Background(), func(tx engine.Txn) error {
        for _, r := range []*model.Registration{&a, &b, &c} {
            if err := tx.InsertRegistration(r); err != nil {
                return err
            }
        }
        return nil
    }))

    regs, err := s.ListRegistrations(context.Background(), scope)
    require.NoError(t, err)
    require.Len(t, regs, 3)
    assert.Equal(t, "b", regs[0].ID) // same priority, earlier createdAt
    assert.Equal(t, "c", regs[1].ID)
    assert.Equal(t, "a", regs[2].ID)
}

func TestSnapshotsDoNotAliasLiveState(t *testing.T) {
    s := New()
    r := reg("r1", 10)
    require.NoError(t, s.Atomic(context.Background(), func(tx engine.Txn) error {
        return tx.InsertRegistration(&r)
    }))

    regs, err := s.ListRegistrations(context.Background(), scope)
    require.NoError(t, err)
    regs[0].Preferences[0] = "A-9-9"

    again, err := s.ListRegistrations(context.Background(), scope)
    require.NoError(t, err)
    assert.Equal(t, "A-1-1", again[0].Preferences[0])
}

func TestConcurrentAtomicClaimsOneWinner(t *testing.T) {
    s := New()
    const n = 16
    var wg sync.WaitGroup
    errs := make([]error, n)
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            errs[i] = s.Atomic(context.Background(), func(tx engine.Txn) error {
                return tx.AcquireLock(&model.SeatLock{Key: "contested"})
            })
        }(i)
    }
    wg.Wait()

    winners := 0
    for _, err := range errs {
        if err == nil {
            winners++
        } else {
            assert.ErrorIs(t, err, engine.ErrLockHeld)
        }
    }
    assert.Equal(t, 1, winners)
    assert.Equal(t, 1, s.LockCount("contested"))
}

func TestAtomicHonorsContextCancellation(t *testing.T) {
    s := New()
    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    err := s.Atomic(ctx, func(tx engine.Txn) error { return nil })
    assert.ErrorIs(t, err, context.Canceled)
}
