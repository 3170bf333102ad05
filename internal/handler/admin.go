package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/chenti-tech/classseat/internal/config"
    "github.com/chenti-tech/classseat/internal/engine"
    "github.com/chenti-tech/classseat/internal/model"
    "github.com/chenti-tech/classseat/internal/queue"
)

// AdminHandler exposes the privileged allocation operations: manual seat
// placement, forced reassignment, cohort auto-assignment, walk-in intake,
// queue reordering and registration removal.  Role enforcement happens in
// middleware; every success publishes a seat event for the notification
// feed.
type AdminHandler struct {
    Engine *engine.Engine
    Cfg    config.Config
}

// NewAdminHandler constructs an AdminHandler.  The engine must be non-nil.
func NewAdminHandler(eng *engine.Engine, cfg config.Config) *AdminHandler {
    if eng == nil {
        panic("nil engine passed to NewAdminHandler")
    }
    return &AdminHandler{Engine: eng, Cfg: cfg}
}

// publish sends a seat event to the broker when messaging is enabled.
// Failures are already logged by the publisher and never affect the
// response: the mutation has committed by the time this runs.
func (h *AdminHandler) publish(c echo.Context, ev queue.SeatEvent) {
    if !h.Cfg.AMQPEnabled {
        return
    }
    ev.At = time.Now().UTC().Format(time.RFC3339)
    _ = queue.PublishSeatEvent(c.Request().Context(), ev)
}

type seatReq struct {
    Classroom string `json:"classroom"`
    Seat      string `json:"seat"`
    Force     bool   `json:"force"`
}

// ClaimSeat handles POST /v1/admin/registrations/:id/claim.  It assigns a
// free seat; a 409 with the occupant means the operator should either pick
// another seat or retry through reassign with force.
func (h *AdminHandler) ClaimSeat(c echo.Context) error {
    var body seatReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    reg, err := h.Engine.ClaimSeat(c.Request().Context(), c.Param("id"), body.Classroom, body.Seat)
    if err != nil {
        return engineError(c, err)
    }
    h.publish(c, queue.SeatEvent{
        Type:           queue.EventSeatClaimed,
        Scope:          reg.Scope(),
        RegistrationID: reg.ID,
        StudentName:    reg.StudentName,
        Classroom:      reg.Classroom,
        Seat:           reg.AssignedSeat,
    })
    return c.JSON(http.StatusOK, reg)
}

// ReleaseSeat handles POST /v1/admin/registrations/:id/release.  The
// registration returns to the pending queue; releasing an unseated one is
// a successful no-op.
func (h *AdminHandler) ReleaseSeat(c echo.Context) error {
    reg, err := h.Engine.ReleaseSeat(c.Request().Context(), c.Param("id"))
    if err != nil {
        return engineError(c, err)
    }
    h.publish(c, queue.SeatEvent{
        Type:           queue.EventSeatReleased,
        Scope:          reg.Scope(),
        RegistrationID: reg.ID,
        StudentName:    reg.StudentName,
    })
    return c.JSON(http.StatusOK, reg)
}

// ReassignSeat handles POST /v1/admin/registrations/:id/reassign.  Without
// force an occupied seat yields a 409 carrying the occupant so the UI can
// confirm the eviction; with force the incumbent is kicked and the seat
// transferred in one batch.
func (h *AdminHandler) ReassignSeat(c echo.Context) error {
    var body seatReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    reg, err := h.Engine.ReassignSeat(c.Request().Context(), c.Param("id"), body.Classroom, body.Seat, body.Force)
    if err != nil {
        return engineError(c, err)
    }
    h.publish(c, queue.SeatEvent{
        Type:           queue.EventSeatReassigned,
        Scope:          reg.Scope(),
        RegistrationID: reg.ID,
        StudentName:    reg.StudentName,
        Classroom:      reg.Classroom,
        Seat:           reg.AssignedSeat,
    })
    return c.JSON(http.StatusOK, reg)
}

type scopeReq struct {
    AcademicYear string `json:"academicYear"`
    Semester     string `json:"semester"`
    ClassType    string `json:"classType"`
}

func (r scopeReq) scope() model.Scope {
    return model.Scope{AcademicYear: r.AcademicYear, Semester: r.Semester, ClassType: r.ClassType}
}

// AutoAssign handles POST /v1/admin/auto-assign.  It reseats the whole
// cohort by priority and preferences and reports how many applicants got a
// seat.  Manual placements inside the scope do not survive the re-run.
func (h *AdminHandler) AutoAssign(c echo.Context) error {
    var body scopeReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    seated, err := h.Engine.AutoAssign(c.Request().Context(), body.scope())
    if err != nil {
        return engineError(c, err)
    }
    h.publish(c, queue.SeatEvent{
        Type:        queue.EventAutoAssigned,
        Scope:       body.scope(),
        SeatedCount: seated,
    })
    return c.JSON(http.StatusOK, echo.Map{"seated": seated})
}

type walkInReq struct {
    scopeReq
    StudentName string `json:"studentName"`
    ParentPhone string `json:"parentPhone"`
}

// AddWalkIn handles POST /v1/admin/walk-ins.  The walk-in joins the queue
// unseated with priority "now".
func (h *AdminHandler) AddWalkIn(c echo.Context) error {
    var body walkInReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.StudentName == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "studentName is required"})
    }
    reg, err := h.Engine.AddWalkIn(c.Request().Context(), body.scope(), body.StudentName, body.ParentPhone)
    if err != nil {
        return engineError(c, err)
    }
    h.publish(c, queue.SeatEvent{
        Type:           queue.EventWalkInAdded,
        Scope:          reg.Scope(),
        RegistrationID: reg.ID,
        StudentName:    reg.StudentName,
    })
    return c.JSON(http.StatusCreated, reg)
}

type reorderReq struct {
    scopeReq
    MovedID   string `json:"movedId"`
    AnchorID  string `json:"anchorId"`
    Direction string `json:"direction"` // "before" or "after"
}

// Reorder handles POST /v1/admin/reorder.  It moves one registration next
// to an anchor in the waiting queue without touching anyone else's
// priority.
func (h *AdminHandler) Reorder(c echo.Context) error {
    var body reorderReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    reg, err := h.Engine.Reorder(c.Request().Context(), body.scope(),
        body.MovedID, body.AnchorID, engine.Direction(body.Direction))
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, reg)
}

// DeleteRegistration handles DELETE /v1/admin/registrations/:id.  The
// registration and its seat lock disappear together.
func (h *AdminHandler) DeleteRegistration(c echo.Context) error {
    if err := h.Engine.DeleteRegistration(c.Request().Context(), c.Param("id")); err != nil {
        return engineError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
