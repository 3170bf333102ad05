package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/chenti-tech/classseat/internal/engine"
    "github.com/chenti-tech/classseat/internal/layout"
    "github.com/chenti-tech/classseat/internal/model"
)

// PublicHandler serves the anonymous registration form: creating a
// registration with seat preferences, browsing classroom layouts, and
// viewing the cohort queue.  All allocation logic lives in the engine;
// these handlers only translate HTTP to engine calls and engine errors to
// status codes.
type PublicHandler struct {
    Engine *engine.Engine
}

// NewPublicHandler constructs a PublicHandler.  The engine must be non-nil.
func NewPublicHandler(eng *engine.Engine) *PublicHandler {
    if eng == nil {
        panic("nil engine passed to NewPublicHandler")
    }
    return &PublicHandler{Engine: eng}
}

// scopeFromQuery builds the allocation scope from query parameters.  Every
// cohort endpoint requires the full tuple; a partial scope is rejected by
// the engine.
func scopeFromQuery(c echo.Context) model.Scope {
    return model.Scope{
        AcademicYear: c.QueryParam("academic_year"),
        Semester:     c.QueryParam("semester"),
        ClassType:    c.QueryParam("class_type"),
    }
}

// engineError maps engine errors onto HTTP responses.  Conflict responses
// carry the occupant so the admin UI can ask for confirmation before
// forcing; invalid-seat responses carry the offending seat.
func engineError(c echo.Context, err error) error {
    var occupied *engine.SeatOccupiedError
    if errors.As(err, &occupied) {
        return c.JSON(http.StatusConflict, echo.Map{
            "error":         "seat occupied",
            "classroom":     occupied.Classroom,
            "seat":          occupied.Seat,
            "occupant_id":   occupied.OccupantID,
            "occupant_name": occupied.OccupantName,
        })
    }
    var invalid *engine.InvalidSeatError
    if errors.As(err, &invalid) {
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error":     "invalid seat",
            "classroom": invalid.Classroom,
            "seat":      invalid.Seat,
        })
    }
    var prefs *engine.InvalidPreferencesError
    if errors.As(err, &prefs) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": prefs.Error()})
    }
    switch {
    case errors.Is(err, engine.ErrRegistrationNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
    case errors.Is(err, engine.ErrDuplicateRegistration):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already registered in this class"})
    case errors.Is(err, engine.ErrPermissionDenied):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    var unavailable *engine.StoreUnavailableError
    if errors.As(err, &unavailable) {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable, retry"})
    }
    return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
}

type createRegistrationReq struct {
    AcademicYear string   `json:"academicYear"`
    Semester     string   `json:"semester"`
    ClassType    string   `json:"classType"`
    StudentName  string   `json:"studentName"`
    ParentPhone  string   `json:"parentPhone"`
    Classroom    string   `json:"classroom"`
    Preferences  []string `json:"preferences"`
}

// CreateRegistration handles POST /v1/registrations.  It validates the
// form fields, then lets the engine create a pending registration with the
// submitted seat preferences.  Seats are granted later by staff.
func (h *PublicHandler) CreateRegistration(c echo.Context) error {
    var body createRegistrationReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.StudentName == "" || body.ParentPhone == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "studentName and parentPhone are required"})
    }
    scope := model.Scope{
        AcademicYear: body.AcademicYear,
        Semester:     body.Semester,
        ClassType:    body.ClassType,
    }
    ownerID := ""
    if v, ok := c.Get("user_id").(string); ok {
        ownerID = v
    }
    reg, err := h.Engine.Register(c.Request().Context(), scope, engine.RegistrationInput{
        StudentName: body.StudentName,
        ParentPhone: body.ParentPhone,
        Classroom:   body.Classroom,
        Preferences: body.Preferences,
        OwnerID:     ownerID,
    })
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusCreated, reg)
}

// ListRegistrations handles GET /v1/registrations.  It returns the cohort
// ordered by queue position for display and export.
func (h *PublicHandler) ListRegistrations(c echo.Context) error {
    regs, err := h.Engine.ListRegistrations(c.Request().Context(), scopeFromQuery(c))
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"registrations": regs})
}

// GetClassroomLayout handles GET /v1/classrooms/:id/layout.  It returns
// the static seat grid so the form can render a seat picker.
func (h *PublicHandler) GetClassroomLayout(c echo.Context) error {
    l, ok := layout.Get(c.Param("id"))
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown classroom"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "classroom": l.Key,
        "name":      l.Name,
        "rows":      l.Rows,
        "cols":      l.Cols,
        "seats":     l.SeatIDs,
    })
}

// GetClassBinding handles GET /v1/classes/:classType/classroom.  It tells
// the form whether a class offering is pinned to a single classroom.
func (h *PublicHandler) GetClassBinding(c echo.Context) error {
    room, ok := layout.BoundClassroom(c.Param("classType"))
    return c.JSON(http.StatusOK, echo.Map{"bound": ok, "classroom": room})
}
