package handler

import (
    "context"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/lilycrest/lilycrest-server/internal/flow"
    "github.com/lilycrest/lilycrest-server/internal/gate"
    "github.com/lilycrest/lilycrest-server/internal/model"
    "github.com/lilycrest/lilycrest-server/internal/queue"
    "github.com/lilycrest/lilycrest-server/internal/repository"
    queue_publisher "github.com/lilycrest/lilycrest-server/internal/service"
    "github.com/lilycrest/lilycrest-server/internal/utils"
)

// AdminReservationHandler serves the admin side of the workflow:
// listing, visit approval, status decisions and deletion.  Every
// operation first loads the record with its room branch joined in and
// asks the gate; the branch scope is enforced here per record, on top
// of the coarse role middleware on the route group.
type AdminReservationHandler struct {
    Reservations *repository.ReservationRepo
}

func NewAdminReservationHandler(rr *repository.ReservationRepo) *AdminReservationHandler {
    if rr == nil {
        panic("nil repository passed to NewAdminReservationHandler")
    }
    return &AdminReservationHandler{Reservations: rr}
}

// audit fires an audit event without blocking the response.  Broker
// failures are the publisher's problem; the admin action has already
// committed.
func audit(caller gate.Identity, action, resource string, resourceID uint64, branch, detail string) {
    ev := queue.AuditEvent{
        Action:       action,
        ResourceType: resource,
        ResourceID:   resourceID,
        ActorID:      caller.UserID,
        ActorRole:    caller.Role,
        Branch:       branch,
        Detail:       detail,
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        _ = queue_publisher.PublishAuditEvent(ctx, ev)
    }()
}

// List handles GET /v1/admin/reservations.  Admins see their own
// branch only; a super-admin sees every branch and may narrow with
// ?branch=.
func (h *AdminReservationHandler) List(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    branch := gate.BranchFilter(caller)
    if caller.Role == model.RoleSuperAdmin {
        q := strings.ToLower(strings.TrimSpace(c.QueryParam("branch")))
        if q != "" {
            if !model.ValidBranch(q) {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_BRANCH"})
            }
            branch = q
        }
    } else if branch == "" {
        // an admin without a branch assignment can administer nothing
        return c.JSON(http.StatusForbidden, echo.Map{"error": "FORBIDDEN"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, err := h.Reservations.ListByBranch(ctx, branch)
    if err != nil {
        return writeError(c, err)
    }
    out := make([]echo.Map, 0, len(items))
    for i := range items {
        s := &items[i]
        out = append(out, echo.Map{
            "reservation": s,
            "code":        utils.ReservationCode(s.ID),
            "stage":       int(flow.DeriveStage(&s.Reservation)),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// Get handles GET /v1/admin/reservations/:id.
func (h *AdminReservationHandler) Get(c echo.Context) error {
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

    det, err := h.Reservations.GetDetail(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    if err := gate.CanAdminAccess(caller, det.Branch); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "reservation": det,
        "code":        utils.ReservationCode(det.ID),
        "stage":       int(flow.DeriveStage(&det.Reservation)),
    })
}

type approveVisitReq struct {
    Approved bool   `json:"approved"`
    Location string `json:"location"`
}

// ApproveVisit handles PATCH /v1/admin/reservations/:id/approve-visit.
// Approval is what advances the record to the application stage; the
// optional location pins where the tenant will be met.
func (h *AdminReservationHandler) ApproveVisit(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_RESERVATION_ID"})
    }
    var req approveVisitReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    det, err := h.Reservations.GetDetail(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    if err := gate.CanAdminAccess(caller, det.Branch); err != nil {
        return writeError(c, err)
    }
    // a visit can only be judged once it has been scheduled
    if !det.HasVisitFields() {
        return writeError(c, flow.ErrStageNotReached)
    }
    if err := h.Reservations.SetVisitApproved(ctx, id, req.Approved, strings.TrimSpace(req.Location)); err != nil {
        return writeError(c, err)
    }
    action := "reservation.visit_rejected"
    if req.Approved {
        action = "reservation.visit_approved"
    }
    audit(caller, action, "reservation", id, det.Branch, "")

    rec, err := h.Reservations.GetByID(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, reservationJSON(rec, flow.DeriveStage(rec)))
}

type statusReq struct {
    Status string `json:"status"` // CONFIRMED | CANCELLED
}

// SetStatus handles PATCH /v1/admin/reservations/:id/status.
// Confirming occupies the claimed bed, cancelling releases it; both
// happen atomically with the status write.
func (h *AdminReservationHandler) SetStatus(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_RESERVATION_ID"})
    }
    var req statusReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    status := strings.ToUpper(strings.TrimSpace(req.Status))
    if status != model.ReservationConfirmed && status != model.ReservationCancelled {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_STATUS"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    det, err := h.Reservations.GetDetail(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    if err := gate.CanSetReservationStatus(caller, det.Branch); err != nil {
        return writeError(c, err)
    }
    if err := h.Reservations.UpdateStatus(ctx, id, status); err != nil {
        return writeError(c, err)
    }
    audit(caller, "reservation."+strings.ToLower(status), "reservation", id, det.Branch,
        fmt.Sprintf("from=%s", det.Status))

    rec, err := h.Reservations.GetByID(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, reservationJSON(rec, flow.DeriveStage(rec)))
}

type paymentStatusReq struct {
    PaymentStatus string `json:"payment_status"` // PENDING | PARTIAL | PAID
}

// SetPaymentStatus handles PATCH /v1/admin/reservations/:id/payment-status.
func (h *AdminReservationHandler) SetPaymentStatus(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_RESERVATION_ID"})
    }
    var req paymentStatusReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    status := strings.ToUpper(strings.TrimSpace(req.PaymentStatus))
    switch status {
    case model.PaymentPending, model.PaymentPartial, model.PaymentPaid:
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_PAYMENT_STATUS"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    det, err := h.Reservations.GetDetail(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    if err := gate.CanSetReservationStatus(caller, det.Branch); err != nil {
        return writeError(c, err)
    }
    if err := h.Reservations.SetPaymentStatus(ctx, id, status); err != nil {
        return writeError(c, err)
    }
    audit(caller, "reservation.payment_"+strings.ToLower(status), "reservation", id, det.Branch, "")

    rec, err := h.Reservations.GetByID(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, reservationJSON(rec, flow.DeriveStage(rec)))
}

// Delete handles DELETE /v1/admin/reservations/:id.  The bed is
// released as part of the same transaction.
func (h *AdminReservationHandler) Delete(c echo.Context) error {
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

    det, err := h.Reservations.GetDetail(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    if err := gate.CanDeleteReservation(caller, det.Branch); err != nil {
        return writeError(c, err)
    }
    if err := h.Reservations.Delete(ctx, id); err != nil {
        return writeError(c, err)
    }
    audit(caller, "reservation.deleted", "reservation", id, det.Branch,
        fmt.Sprintf("status=%s", det.Status))
    return c.NoContent(http.StatusNoContent)
}
