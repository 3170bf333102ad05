package engine_test

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/chenti-tech/classseat/internal/engine"
)

func TestReorderBeforeUsesMidpoint(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 10)
    seed(t, st, "r2", 20)
    seed(t, st, "r3", 30)

    moved, err := eng.Reorder(context.Background(), testScope, "r3", "r2", engine.Before)
    require.NoError(t, err)
    assert.Equal(t, int64(15), moved.Priority)

    // Nobody else's priority changes.
    assert.Equal(t, int64(10), get(t, st, "r1").Priority)
    assert.Equal(t, int64(20), get(t, st, "r2").Priority)

    regs, err := st.ListRegistrations(context.Background(), testScope)
    require.NoError(t, err)
    require.Len(t, regs, 3)
    assert.Equal(t, "r1", regs[0].ID)
    assert.Equal(t, "r3", regs[1].ID)
    assert.Equal(t, "r2", regs[2].ID)
}

func TestReorderAfterUsesMidpoint(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 10)
    seed(t, st, "r2", 20)
    seed(t, st, "r3", 30)

    moved, err := eng.Reorder(context.Background(), testScope, "r1", "r2", engine.After)
    require.NoError(t, err)
    assert.Equal(t, int64(25), moved.Priority)

    regs, err := st.ListRegistrations(context.Background(), testScope)
    require.NoError(t, err)
    assert.Equal(t, []string{regs[0].ID, regs[1].ID, regs[2].ID}, []string{"r2", "r1", "r3"})
}

func TestReorderBeforeHeadUsesEdgeOffset(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 1_000_000_000)
    seed(t, st, "r2", 2_000_000_000)

    moved, err := eng.Reorder(context.Background(), testScope, "r2", "r1", engine.Before)
    require.NoError(t, err)
    assert.Equal(t, int64(1_000_000_000-60_000_000), moved.Priority)

    regs, err := st.ListRegistrations(context.Background(), testScope)
    require.NoError(t, err)
    assert.Equal(t, "r2", regs[0].ID)
}

func TestReorderAfterTailUsesEdgeOffset(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 1_000_000_000)
    seed(t, st, "r2", 2_000_000_000)

    moved, err := eng.Reorder(context.Background(), testScope, "r1", "r2", engine.After)
    require.NoError(t, err)
    assert.Equal(t, int64(2_000_000_000+60_000_000), moved.Priority)

    regs, err := st.ListRegistrations(context.Background(), testScope)
    require.NoError(t, err)
    assert.Equal(t, "r2", regs[0].ID)
    assert.Equal(t, "r1", regs[1].ID)
}

func TestReorderRenormalizesDegenerateGap(t *testing.T) {
    eng, st := newTestEngine(t)
    // The interval between r1 and r2 is too narrow for a midpoint.
    seed(t, st, "r1", 10)
    seed(t, st, "r2", 11)
    seed(t, st, "r3", 30)

    _, err := eng.Reorder(context.Background(), testScope, "r3", "r2", engine.Before)
    require.NoError(t, err)

    regs, err := st.ListRegistrations(context.Background(), testScope)
    require.NoError(t, err)
    require.Len(t, regs, 3)
    assert.Equal(t, "r1", regs[0].ID)
    assert.Equal(t, "r3", regs[1].ID)
    assert.Equal(t, "r2", regs[2].ID)

    // After renormalization priorities sit on a fixed grid, strictly
    // increasing from the head's value.
    assert.Equal(t, int64(10), regs[0].Priority)
    assert.Equal(t, int64(10+60_000_000), regs[1].Priority)
    assert.Equal(t, int64(10+120_000_000), regs[2].Priority)
}

func TestReorderRejectsBadArguments(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 10)
    seed(t, st, "r2", 20)

    _, err := eng.Reorder(context.Background(), testScope, "r1", "r1", engine.Before)
    assert.Error(t, err)

    _, err = eng.Reorder(context.Background(), testScope, "r1", "r2", engine.Direction("sideways"))
    assert.Error(t, err)

    _, err = eng.Reorder(context.Background(), testScope, "r1", "ghost", engine.After)
    assert.ErrorIs(t, err, engine.ErrRegistrationNotFound)
}

func TestReorderDoesNotTouchSeats(t *testing.T) {
    eng, st := newTestEngine(t)
    seed(t, st, "r1", 10)
    seed(t, st, "r2", 20)
    _, err := eng.ClaimSeat(context.Background(), "r1", "A", "A-1-1")
    require.NoError(t, err)

    _, err = eng.Reorder(context.Background(), testScope, "r1", "r2", engine.After)
    require.NoError(t, err)

    r1 := get(t, st, "r1")
    assert.Equal(t, "A-1-1", r1.AssignedSeat)
    assert.Equal(t, 1, st.LockCount(engine.ScopeKeyPrefix(testScope)))
}
