package engine_test

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/chenti-tech/classseat/internal/engine"
    "github.com/chenti-tech/classseat/internal/model"
    "github.com/chenti-tech/classseat/internal/store/memstore"
)

var testScope = model.Scope{AcademicYear: "114", Semester: "上", ClassType: "國三數學"}

func newTestEngine(t *testing.T) (*engine.Engine, *memstore.Store) {
    t.Helper()
    st := memstore.New()
    eng := engine.New(st).WithClock(func() time.Time {
        return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    })
    return eng, st
}

func seed(t *testing.T, st *memstore.Store, id string, priority int64, prefs ...string) {
    t.Helper()
    reg := model.Registration{
        ID:           id,
        StudentName:  "學生" + id,
        ParentPhone:  "0912" + id,
        AcademicYear: testScope.AcademicYear,
        Semester:     testScope.Semester,
        ClassType:    testScope.ClassType,
        Classroom:    "A",
        Preferences:  append([]string{}, prefs...),
        Status:       model.StatusPending,
        Priority:     priority,
        CreatedAt:    time.Unix(0, priority*1000).UTC(),
    }
    err := st.Atomic(context.Background(), func(tx engine.Txn) error {
        return tx.InsertRegistration(&reg)
    })
    require.NoError(t, err)
}

func get(t *testing.T, st *memstore.Store, id string) model.Registration {
    t.Helper()
    regs, err := st.ListRegistrations(context.Background(), testScope)
    require.NoError(t, err)
    for _, r := range regs {
        if r.ID == id {
            return r
        }
    }
    t.Fatalf("registration %s not found", id)
    return model.Registration{}
}

func TestClaimSeatAssignsAndLocks(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 10)

    reg, err := eng.ClaimSeat(context.Background(), "r1", "A", "A-1-1")
    require.NoError(t, err)
    assert.Equal(t, "A-1-1", reg.AssignedSeat)
    assert.Equal(t, model.StatusConfirmed, reg.Status)
    assert.Equal(t, 1, st.LockCount(engine.ScopeKeyPrefix(testScope)))
}

func TestClaimSeatConflictReportsOccupant(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r4", 10)
    seed(t, st, "r5", 20)

    _, err := eng.ClaimSeat(context.Background(), "r4", "A", "A-1-1")
    require.NoError(t, err)

    _, err = eng.ClaimSeat(context.Background(), "r5", "A", "A-1-1")
    require.Error(t, err)
    require.True(t, engine.IsSeatOccupied(err))
    occupied := err.(*engine.SeatOccupiedError)
    assert.Equal(t, "r4", occupied.OccupantID)
    assert.Equal(t, "學生r4", occupied.OccupantName)

    // The loser must not have been seated.
    assert.Equal(t, model.StatusPending, get(t, st, "r5").Status)
    assert.Equal(t, 1, st.LockCount(engine.ScopeKeyPrefix(testScope)))
}

func TestClaimSeatMovesExistingLock(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 10)

    _, err := eng.ClaimSeat(context.Background(), "r1", "A", "A-1-1")
    require.NoError(t, err)
    _, err = eng.ClaimSeat(context.Background(), "r1", "A", "A-2-2")
    require.NoError(t, err)

    // Moving within the scope must not leak the old lock.
    assert.Equal(t, 1, st.LockCount(engine.ScopeKeyPrefix(testScope)))
    assert.Equal(t, "A-2-2", get(t, st, "r1").AssignedSeat)
}

func TestClaimSeatRejectsUnknownSeat(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 10)

    _, err := eng.ClaimSeat(context.Background(), "r1", "A", "A-9-9")
    require.Error(t, err)
    assert.True(t, engine.IsInvalidSeat(err))
    assert.Equal(t, 0, st.LockCount(""))
}

func TestReleaseSeatClearsLockAndStatus(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 10)
    _, err := eng.ClaimSeat(context.Background(), "r1", "A", "A-1-1")
    require.NoError(t, err)

    reg, err := eng.ReleaseSeat(context.Background(), "r1")
    require.NoError(t, err)
    assert.Empty(t, reg.AssignedSeat)
    assert.Equal(t, model.StatusPending, reg.Status)
    assert.Equal(t, 0, st.LockCount(""))
}

func TestReleaseSeatUnseatedIsNoOp(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 10)

    reg, err := eng.ReleaseSeat(context.Background(), "r1")
    require.NoError(t, err)
    assert.Equal(t, model.StatusPending, reg.Status)
}

func TestReassignSeatWithoutForceIsPure(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r4", 10)
    seed(t, st, "r5", 20)
    _, err := eng.ClaimSeat(context.Background(), "r4", "A", "A-1-1")
    require.NoError(t, err)

    before, err := st.ListRegistrations(context.Background(), testScope)
    require.NoError(t, err)

    _, err = eng.ReassignSeat(context.Background(), "r5", "A", "A-1-1", false)
    require.Error(t, err)
    require.True(t, engine.IsSeatOccupied(err))
    occupied := err.(*engine.SeatOccupiedError)
    assert.Equal(t, "r4", occupied.OccupantID)

    after, err := st.ListRegistrations(context.Background(), testScope)
    require.NoError(t, err)
    assert.Equal(t, before, after, "a refused reassignment must not mutate anything")
    assert.Equal(t, 1, st.LockCount(engine.ScopeKeyPrefix(testScope)))
}

func TestReassignSeatForceEvictsIncumbent(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r4", 10)
    seed(t, st, "r5", 20)
    _, err := eng.ClaimSeat(context.Background(), "r4", "A", "A-1-1")
    require.NoError(t, err)

    moved, err := eng.ReassignSeat(context.Background(), "r5", "A", "A-1-1", true)
    require.NoError(t, err)
    assert.Equal(t, "A-1-1", moved.AssignedSeat)
    assert.Equal(t, model.StatusConfirmed, moved.Status)

    kicked := get(t, st, "r4")
    assert.Equal(t, model.StatusKicked, kicked.Status)
    assert.Empty(t, kicked.AssignedSeat)

    // Exactly one lock remains and it belongs to the new holder.
    assert.Equal(t, 1, st.LockCount(engine.ScopeKeyPrefix(testScope)))
}

func TestKickedRegistrationCanBeReseated(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r4", 10)
    seed(t, st, "r5", 20)
    _, err := eng.ClaimSeat(context.Background(), "r4", "A", "A-1-1")
    require.NoError(t, err)
    _, err = eng.ReassignSeat(context.Background(), "r5", "A", "A-1-1", true)
    require.NoError(t, err)

    reg, err := eng.ClaimSeat(context.Background(), "r4", "A", "A-1-2")
    require.NoError(t, err)
    assert.Equal(t, model.StatusConfirmed, reg.Status)
    assert.Equal(t, "A-1-2", reg.AssignedSeat)
}

func TestAutoAssignGrantsPreferencesByPriority(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 1, "A-1-1")
    seed(t, st, "r2", 2, "A-1-1", "A-1-2")
    seed(t, st, "r3", 3, "A-1-1")

    seated, err := eng.AutoAssign(context.Background(), testScope)
    require.NoError(t, err)
    assert.Equal(t, 2, seated)

    assert.Equal(t, "A-1-1", get(t, st, "r1").AssignedSeat)
    assert.Equal(t, "A-1-2", get(t, st, "r2").AssignedSeat)
    r3 := get(t, st, "r3")
    assert.Empty(t, r3.AssignedSeat)
    assert.Equal(t, model.StatusPending, r3.Status)
    assert.Equal(t, 2, st.LockCount(engine.ScopeKeyPrefix(testScope)))
}

func TestAutoAssignIsIdempotent(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 1, "A-1-1")
    seed(t, st, "r2", 2, "A-1-1", "A-1-2")
    seed(t, st, "r3", 3, "A-1-1")

    first, err := eng.AutoAssign(context.Background(), testScope)
    require.NoError(t, err)
    snapshot, err := st.ListRegistrations(context.Background(), testScope)
    require.NoError(t, err)

    second, err := eng.AutoAssign(context.Background(), testScope)
    require.NoError(t, err)
    again, err := st.ListRegistrations(context.Background(), testScope)
    require.NoError(t, err)

    assert.Equal(t, first, second)
    assert.Equal(t, snapshot, again)
}

func TestAutoAssignOverridesManualPlacement(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 1, "A-1-1")
    seed(t, st, "r2", 2, "A-1-1")
    // r2 was seated manually on r1's only preference.
    _, err := eng.ClaimSeat(context.Background(), "r2", "A", "A-1-1")
    require.NoError(t, err)

    _, err = eng.AutoAssign(context.Background(), testScope)
    require.NoError(t, err)

    // The earlier priority wins once the cohort is re-run.
    assert.Equal(t, "A-1-1", get(t, st, "r1").AssignedSeat)
    assert.Empty(t, get(t, st, "r2").AssignedSeat)
}

func TestAutoAssignEarlierPriorityWinsContestedSeat(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "x", 100, "A-3-3")
    seed(t, st, "y", 200, "A-3-3")

    _, err := eng.AutoAssign(context.Background(), testScope)
    require.NoError(t, err)

    assert.Equal(t, "A-3-3", get(t, st, "x").AssignedSeat)
    assert.Empty(t, get(t, st, "y").AssignedSeat)
}

func TestRegisterCreatesPendingRegistration(t *testing.T) {
    eng, st := newTestEngine(t)

    reg, err := eng.Register(context.Background(), testScope, engine.RegistrationInput{
        StudentName: "陳小明",
        ParentPhone: "0912345678",
        Classroom:   "A",
        Preferences: []string{"A-1-1", "A-2-1"},
    })
    require.NoError(t, err)
    assert.Equal(t, model.StatusPending, reg.Status)
    assert.Empty(t, reg.AssignedSeat)
    assert.Equal(t, []string{"A-1-1", "A-2-1"}, reg.Preferences)

    regs, err := st.ListRegistrations(context.Background(), testScope)
    require.NoError(t, err)
    require.Len(t, regs, 1)
}

func TestRegisterRejectsDuplicatePhone(t *testing.T) {
    eng, _ := newTestEngine(t)

    in := engine.RegistrationInput{StudentName: "陳小明", ParentPhone: "0912345678", Classroom: "A"}
    _, err := eng.Register(context.Background(), testScope, in)
    require.NoError(t, err)

    _, err = eng.Register(context.Background(), testScope, in)
    assert.ErrorIs(t, err, engine.ErrDuplicateRegistration)
}

func TestRegisterValidatesPreferences(t *testing.T) {
    eng, _ := newTestEngine(t)

    cases := []struct {
        name  string
        prefs []string
    }{
        {"foreign seat", []string{"B-1-1"}},
        {"duplicate seat", []string{"A-1-1", "A-1-1"}},
        {"too many", []string{"A-1-1", "A-1-2", "A-1-3", "A-1-4"}},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            _, err := eng.Register(context.Background(), testScope, engine.RegistrationInput{
                StudentName: "測試",
                ParentPhone: "0987000000",
                Classroom:   "A",
                Preferences: tc.prefs,
            })
            assert.Error(t, err)
        })
    }
}

func TestAddWalkInSortsAfterExisting(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 10)

    reg, err := eng.AddWalkIn(context.Background(), testScope, "現場學員", "0900000000")
    require.NoError(t, err)
    assert.Equal(t, model.StatusPending, reg.Status)
    assert.Empty(t, reg.Preferences)

    regs, err := st.ListRegistrations(context.Background(), testScope)
    require.NoError(t, err)
    require.Len(t, regs, 2)
    assert.Equal(t, reg.ID, regs[1].ID, "walk-in joins the back of the queue")
}

func TestDeleteRegistrationRemovesLock(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 10)
    _, err := eng.ClaimSeat(context.Background(), "r1", "A", "A-1-1")
    require.NoError(t, err)

    require.NoError(t, eng.DeleteRegistration(context.Background(), "r1"))
    assert.Equal(t, 0, st.LockCount(""))

    regs, err := st.ListRegistrations(context.Background(), testScope)
    require.NoError(t, err)
    assert.Empty(t, regs)
}

func TestScopesDoNotShareSeats(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 10)

    other := model.Scope{AcademicYear: "114", Semester: "下", ClassType: "國三數學"}
    reg := model.Registration{
        ID: "r2", StudentName: "學生r2", ParentPhone: "0911r2",
        AcademicYear: other.AcademicYear, Semester: other.Semester, ClassType: other.ClassType,
        Classroom: "A", Preferences: []string{}, Status: model.StatusPending, Priority: 5,
        CreatedAt: time.Unix(0, 0).UTC(),
    }
    require.NoError(t, st.Atomic(context.Background(), func(tx engine.Txn) error {
        return tx.InsertRegistration(&reg)
    }))

    // The same seat in two different scopes never conflicts.
    _, err := eng.ClaimSeat(context.Background(), "r1", "A", "A-1-1")
    require.NoError(t, err)
    _, err = eng.ClaimSeat(context.Background(), "r2", "A", "A-1-1")
    require.NoError(t, err)
}

func TestConcurrentClaimsHaveOneWinner(t *testing.T) {
    eng, st := newTestEngine(t)
    const contenders = 8
    for i := 0; i < contenders; i++ {
        seed(t, st, string(rune('a'+i)), int64(i+1))
    }

    var wg sync.WaitGroup
    errs := make([]error, contenders)
    for i := 0; i < contenders; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = eng.ClaimSeat(context.Background(), string(rune('a'+i)), "A", "A-1-1")
        }(i)
    }
    wg.Wait()

    winners := 0
    for _, err := range errs {
        if err == nil {
            winners++
        } else {
            assert.True(t, engine.IsSeatOccupied(err))
        }
    }
    assert.Equal(t, 1, winners)
    assert.Equal(t, 1, st.LockCount(engine.ScopeKeyPrefix(testScope)))
}
