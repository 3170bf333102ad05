package engine_test

import (
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"

    "github.com/chenti-tech/classseat/internal/engine"
    "github.com/chenti-tech/classseat/internal/model"
)

func TestLockKeyIsDeterministic(t *testing.T) {
    a := engine.LockKey("114", "上", "國三數學", "A", "A-1-1")
    b := engine.LockKey("114", "上", "國三數學", "A", "A-1-1")
    assert.Equal(t, a, b)
    assert.Equal(t, "114_上_國三數學_A_A-1-1", a)
}

func TestLockKeySanitizesClassLabel(t *testing.T) {
    // Punctuation and spacing in the class label must not fork keys.
    plain := engine.LockKey("114", "上", "國三數學", "A", "A-1-1")
    spaced := engine.LockKey("114", "上", " 國三 數學! ", "A", "A-1-1")
    assert.Equal(t, plain, spaced)

    mixed := engine.LockKey("114", "上", "Math-101 先修", "A", "A-1-1")
    assert.Equal(t, "114_上_Math101先修_A_A-1-1", mixed)
}

func TestLockKeyEmptySeat(t *testing.T) {
    assert.Empty(t, engine.LockKey("114", "上", "國三數學", "A", ""))
}

func TestLockKeyDistinctSeatsDistinctKeys(t *testing.T) {
    seen := map[string]bool{}
    for _, seat := range []string{"A-1-1", "A-1-2", "A-2-1", "B-1-1"} {
        k := engine.LockKey("114", "上", "國三數學", "A", seat)
        assert.False(t, seen[k], "key %q produced twice", k)
        seen[k] = true
    }
}

func TestScopeKeyPrefixCoversOnlyItsScope(t *testing.T) {
    scope := model.Scope{AcademicYear: "114", Semester: "上", ClassType: "國三數學"}
    prefix := engine.ScopeKeyPrefix(scope)

    inScope := engine.LockKey("114", "上", "國三數學", "A", "A-1-1")
    assert.True(t, strings.HasPrefix(inScope, prefix))

    otherSemester := engine.LockKey("114", "下", "國三數學", "A", "A-1-1")
    otherClass := engine.LockKey("114", "上", "高一英文", "A", "A-1-1")
    assert.False(t, strings.HasPrefix(otherSemester, prefix))
    assert.False(t, strings.HasPrefix(otherClass, prefix))
}
