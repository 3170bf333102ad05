package layout

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestGetKnownClassrooms(t *testing.T) {
    a, ok := Get("A")
    require.True(t, ok)
    assert.Equal(t, 5, a.Rows)
    assert.Equal(t, 8, a.Cols)
    assert.Equal(t, 40, a.Capacity())

    b, ok := Get("B")
    require.True(t, ok)
    assert.Equal(t, 24, b.Capacity())

    _, ok = Get("C")
    assert.False(t, ok)
}

func TestSeatIDsFollowRoomRowColConvention(t *testing.T) {
    a, _ := Get("A")
    assert.Equal(t, "A-1-1", a.SeatIDs[0])
    assert.Equal(t, "A-5-8", a.SeatIDs[len(a.SeatIDs)-1])
    assert.True(t, a.Contains("A-3-4"))
    assert.False(t, a.Contains("A-6-1"))
    assert.False(t, a.Contains("B-1-1"))
    assert.False(t, a.Contains(""))
}

func TestBindPinsClassToRoom(t *testing.T) {
    t.Cleanup(func() { Unbind("國三數學") })

    require.NoError(t, Bind("國三數學", "B"))
    room, ok := BoundClassroom("國三數學")
    require.True(t, ok)
    assert.Equal(t, "B", room)

    _, ok = BoundClassroom("高一英文")
    assert.False(t, ok)
}

func TestBindRejectsUnknownRoom(t *testing.T) {
    assert.Error(t, Bind("國三數學", "Z"))
}
