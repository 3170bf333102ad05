package engine

import (
    "context"
    "errors"
    "fmt"

    "github.com/chenti-tech/classseat/internal/metrics"
    "github.com/chenti-tech/classseat/internal/model"
)

// Direction selects which side of the anchor a moved registration lands on.
type Direction string

const (
    // Before places the moved registration immediately ahead of the anchor.
    Before Direction = "before"
    // After places the moved registration immediately behind the anchor.
    After Direction = "after"
)

const (
    // edgeOffset is the priority delta used when the target position has
    // no neighbor to interpolate against (start or end of the queue).
    edgeOffset = int64(60_000_000) // 60s in microseconds

    // minGap is the narrowest interval midpoint interpolation can split
    // while still producing a value strictly between both ends.  At or
    // below this the cohort's priorities are renormalized.
    minGap = int64(1)

    // renormSpacing is the gap between adjacent priorities after a
    // renormalization pass.
    renormSpacing = edgeOffset
)

// Reorder moves one registration next to an anchor in the waiting queue by
// rewriting only the moved record's priority: the new value is the midpoint
// of the two priorities bracketing the target position, or an edge offset
// when no neighbor exists on that side.  Relative order of every other
// registration is untouched, so a reorder is O(1) in writes.  When the
// bracketing interval is too narrow to split, the whole cohort is
// renormalized to fixed spacing inside the same atomic batch.
func (e *Engine) Reorder(ctx context.Context, scope model.Scope, movedID, anchorID string, dir Direction) (*model.Registration, error) {
    if err := scope.Validate(); err != nil {
        return nil, err
    }
    if movedID == anchorID {
        return nil, fmt.Errorf("cannot reorder %s relative to itself", movedID)
    }
    if dir != Before && dir != After {
        return nil, fmt.Errorf("unknown reorder direction %q", dir)
    }
    var moved *model.Registration
    err := e.store.Atomic(ctx, func(tx Txn) error {
        regs, err := tx.ListRegistrations(scope)
        if err != nil {
            return err
        }
        rest := make([]model.Registration, 0, len(regs))
        var movedReg *model.Registration
        anchorAt := -1
        for i := range regs {
            if regs[i].ID == movedID {
                movedReg = &regs[i]
                continue
            }
            if regs[i].ID == anchorID {
                anchorAt = len(rest)
            }
            rest = append(rest, regs[i])
        }
        if movedReg == nil || anchorAt == -1 {
            return ErrRegistrationNotFound
        }

        anchor := rest[anchorAt].Priority
        var lo, hi int64
        switch dir {
        case Before:
            hi = anchor
            if anchorAt > 0 {
                lo = rest[anchorAt-1].Priority
            } else {
                lo = anchor - 2*edgeOffset
            }
        case After:
            lo = anchor
            if anchorAt < len(rest)-1 {
                hi = rest[anchorAt+1].Priority
            } else {
                hi = anchor + 2*edgeOffset
            }
        }

        if hi-lo > minGap {
            movedReg.Priority = lo + (hi-lo)/2
            if err := tx.UpdateRegistration(movedReg); err != nil {
                return err
            }
            moved = movedReg
            return nil
        }

        // The interval is degenerate; rebuild the whole sequence with
        // fixed spacing, moved record included at its target slot.
        insertAt := anchorAt
        if dir == After {
            insertAt = anchorAt + 1
        }
        order := make([]*model.Registration, 0, len(rest)+1)
        for i := range rest {
            if i == insertAt {
                order = append(order, movedReg)
            }
            order = append(order, &rest[i])
        }
        if insertAt == len(rest) {
            order = append(order, movedReg)
        }
        base := order[0].Priority
        for i, r := range order {
            want := base + int64(i)*renormSpacing
            if r.Priority == want {
                continue
            }
            r.Priority = want
            if err := tx.UpdateRegistration(r); err != nil {
                return err
            }
        }
        moved = movedReg
        return nil
    })
    if err != nil {
        if errors.Is(err, ErrRegistrationNotFound) {
            return nil, err
        }
        return nil, wrapStoreErr("reorder", err)
    }
    metrics.QueueReorders.Inc()
    return moved, nil
}
