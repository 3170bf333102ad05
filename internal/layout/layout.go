// Package layout holds the static classroom reference data: seat grids,
// display names and the class-to-classroom binding table.  The allocation
// engine never mutates anything here; it only validates seat identifiers
// against the configured grids.
package layout

import "fmt"

// Layout describes one physical classroom.
type Layout struct {
    Key     string   // classroom key, e.g. "A"
    Name    string   // display name
    Rows    int      // number of seat rows
    Cols    int      // seats per row
    SeatIDs []string // all valid seat identifiers, row-major
}

// classrooms is the fixed set of rooms seats can be assigned in.  Seat IDs
// follow the "<room>-<row>-<col>" convention used on the printed floor maps.
var classrooms = map[string]Layout{
    "A": newLayout("A", "教室 A", 5, 8),
    "B": newLayout("B", "教室 B", 4, 6),
}

// bindings restricts certain class offerings to a single classroom.  A class
// absent from this table may seat students in any room.
var bindings = map[string]string{}

func newLayout(key, name string, rows, cols int) Layout {
    l := Layout{Key: key, Name: name, Rows: rows, Cols: cols}
    l.SeatIDs = make([]string, 0, rows*cols)
    for r := 1; r <= rows; r++ {
        for c := 1; c <= cols; c++ {
            l.SeatIDs = append(l.SeatIDs, fmt.Sprintf("%s-%d-%d", key, r, c))
        }
    }
    return l
}

// Get returns the layout for a classroom key.
func Get(classroom string) (Layout, bool) {
    l, ok := classrooms[classroom]
    return l, ok
}

// Keys returns the configured classroom keys.
func Keys() []string {
    keys := make([]string, 0, len(classrooms))
    for k := range classrooms {
        keys = append(keys, k)
    }
    return keys
}

// Contains reports whether seat is a valid identifier in this classroom.
func (l Layout) Contains(seat string) bool {
    for _, id := range l.SeatIDs {
        if id == seat {
            return true
        }
    }
    return false
}

// Capacity returns the number of seats in the classroom.
func (l Layout) Capacity() int { return len(l.SeatIDs) }

// BoundClassroom returns the classroom a class offering is pinned to, if
// any.  Form-side callers use this to restrict the rooms offered; the
// engine still validates seat membership independently at commit time.
func BoundClassroom(classType string) (string, bool) {
    room, ok := bindings[classType]
    return room, ok
}

// Bind pins a class offering to a classroom.  Used by configuration
// loading and by tests; not part of the allocation flow.
func Bind(classType, classroom string) error {
    if _, ok := classrooms[classroom]; !ok {
        return fmt.Errorf("unknown classroom %q", classroom)
    }
    bindings[classType] = classroom
    return nil
}

// Unbind removes a class-to-classroom binding.
func Unbind(classType string) { delete(bindings, classType) }
