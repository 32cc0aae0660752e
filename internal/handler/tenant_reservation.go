package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/lilycrest/lilycrest-server/internal/flow"
    "github.com/lilycrest/lilycrest-server/internal/model"
    "github.com/lilycrest/lilycrest-server/internal/repository"
    "github.com/lilycrest/lilycrest-server/internal/utils"
)

// TenantReservationHandler serves the tenant-facing side of the
// reservation workflow.  All stage semantics live in the flow
// controller; the handler only binds payloads and shapes responses.
type TenantReservationHandler struct {
    Flow         *flow.Controller
    Reservations *repository.ReservationRepo
}

func NewTenantReservationHandler(fc *flow.Controller, rr *repository.ReservationRepo) *TenantReservationHandler {
    if fc == nil || rr == nil {
        panic("nil dependency passed to NewTenantReservationHandler")
    }
    return &TenantReservationHandler{Flow: fc, Reservations: rr}
}

// Start handles POST /v1/reservations.  Without a reservation_id it
// validates the room-selection payload and creates the draft; with one
// it resumes the existing record idempotently, so a client retrying
// after a lost response never creates a duplicate.
func (h *TenantReservationHandler) Start(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var in flow.StartInput
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rec, stage, created, err := h.Flow.Start(ctx, caller, in)
    if err != nil {
        return writeError(c, err)
    }
    status := http.StatusOK
    if created {
        status = http.StatusCreated
        audit(caller, "reservation.created", "reservation", rec.ID, caller.Branch, "")
    }
    return c.JSON(status, reservationJSON(rec, stage))
}

// Get handles GET /v1/reservations/:id, the resume read.  The
// response carries the derived stage so the client knows which step to
// render.
func (h *TenantReservationHandler) Get(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_RESERVATION_ID"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rec, stage, err := h.Flow.Resume(ctx, caller, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, reservationJSON(rec, stage))
}

// ListMine handles GET /v1/reservations.
func (h *TenantReservationHandler) ListMine(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    recs, err := h.Reservations.ListByUser(ctx, caller.UserID)
    if err != nil {
        return writeError(c, err)
    }
    items := make([]echo.Map, 0, len(recs))
    for i := range recs {
        rec := &recs[i]
        items = append(items, echo.Map{
            "reservation": rec,
            "code":        utils.ReservationCode(rec.ID),
            "stage":       int(flow.DeriveStage(rec)),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}

// ScheduleVisit handles PATCH /v1/reservations/:id/visit.
func (h *TenantReservationHandler) ScheduleVisit(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_RESERVATION_ID"})
    }
    var p flow.VisitPatch
    if err := c.Bind(&p); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rec, stage, err := h.Flow.ScheduleVisit(ctx, caller, id, p)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, reservationJSON(rec, stage))
}

// SubmitApplication handles PATCH /v1/reservations/:id/application.
func (h *TenantReservationHandler) SubmitApplication(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_RESERVATION_ID"})
    }
    var app model.Application
    if err := c.Bind(&app); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rec, stage, err := h.Flow.SubmitApplication(ctx, caller, id, app)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, reservationJSON(rec, stage))
}

// SubmitPayment handles PATCH /v1/reservations/:id/payment.
func (h *TenantReservationHandler) SubmitPayment(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_RESERVATION_ID"})
    }
    var p flow.PaymentPatch
    if err := c.Bind(&p); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rec, stage, err := h.Flow.SubmitPayment(ctx, caller, id, p)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, reservationJSON(rec, stage))
}
