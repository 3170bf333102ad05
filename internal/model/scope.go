package model

import "fmt"

// Scope is the (academic year, semester, class offering) tuple that
// partitions registrations and seat locks into independent allocation
// pools.  Every engine operation receives its scope explicitly; there is
// no ambient "active term" state.
//
// Fields:
//  AcademicYear – e.g. "114".
//  Semester     – e.g. "上" or "下".
//  ClassType    – class offering label as entered by staff; may contain
//                 CJK characters and punctuation.
type Scope struct {
    AcademicYear string `json:"academicYear"`
    Semester     string `json:"semester"`
    ClassType    string `json:"classType"`
}

// Matches reports whether a registration belongs to this scope.
func (s Scope) Matches(r *Registration) bool {
    return r.AcademicYear == s.AcademicYear &&
        r.Semester == s.Semester &&
        r.ClassType == s.ClassType
}

// Validate rejects scopes with empty components.  A partial scope would
// silently widen a cohort operation to unrelated terms.
func (s Scope) Validate() error {
    if s.AcademicYear == "" || s.Semester == "" || s.ClassType == "" {
        return fmt.Errorf("incomplete scope %q/%q/%q", s.AcademicYear, s.Semester, s.ClassType)
    }
    return nil
}
