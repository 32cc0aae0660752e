package router

import (
    "github.com/labstack/echo/v4"

    "github.com/lilycrest/lilycrest-server/internal/handler"
    "github.com/lilycrest/lilycrest-server/internal/middleware"
    "github.com/lilycrest/lilycrest-server/internal/model"
)

// RegisterAdmin registers the staff endpoints under /v1/admin.  The
// role middleware admits ADMIN and SUPER_ADMIN; per-record branch
// scoping happens in the handlers through the gate, which is what
// tells a wrong-branch admin apart from a missing record.
func RegisterAdmin(e *echo.Echo, r *handler.AdminReservationHandler, rm *handler.AdminRoomHandler, jwtSecret string) {
    g := e.Group(
        "/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin),
    )

    // ---- Reservations ----
    g.GET("/reservations", r.List)
    g.GET("/reservations/:id", r.Get)
    g.PATCH("/reservations/:id/approve-visit", r.ApproveVisit)
    g.PATCH("/reservations/:id/status", r.SetStatus)
    g.PATCH("/reservations/:id/payment-status", r.SetPaymentStatus)
    g.DELETE("/reservations/:id", r.Delete)

    // ---- Rooms and beds ----
    g.POST("/rooms", rm.CreateRoom)
    g.GET("/rooms/:id", rm.GetRoom)
    g.PATCH("/rooms/:id", rm.UpdateRoom)
    g.POST("/beds/:id/move-out", rm.MoveOutBed)
}
