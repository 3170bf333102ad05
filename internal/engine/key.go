package engine

import (
    "strings"
    "unicode"

    "github.com/chenti-tech/classseat/internal/model"
)

// LockKey derives the canonical seat-lock key for one seat within one scope.
// The class label is sanitized so that punctuation or spacing differences in
// how staff type the class name cannot fork two keys for the same offering.
// An empty seat yields an empty key; callers treat that as "no lock to
// manage".  Distinct (classroom, seat) pairs cannot collide because the
// classroom and seat components are joined verbatim.
func LockKey(year, semester, classType, classroom, seat string) string {
    if seat == "" {
        return ""
    }
    return year + "_" + semester + "_" + sanitizeClassType(classType) + "_" + classroom + "_" + seat
}

// ScopeKeyPrefix returns the prefix shared by every lock key in a scope.
// Bulk lock release during auto-assignment matches on this prefix.
func ScopeKeyPrefix(scope model.Scope) string {
    return scope.AcademicYear + "_" + scope.Semester + "_" + sanitizeClassType(scope.ClassType) + "_"
}

// sanitizeClassType keeps ASCII letters, digits and Han characters and
// drops everything else, mirroring how the class label appears on lock
// records regardless of formatting.
func sanitizeClassType(s string) string {
    return strings.Map(func(r rune) rune {
        switch {
        case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
            return r
        case unicode.Is(unicode.Han, r):
            return r
        }
        return -1
    }, s)
}
