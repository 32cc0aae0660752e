package router

import (
    "github.com/labstack/echo/v4"

    "github.com/lilycrest/lilycrest-server/internal/handler"
    "github.com/lilycrest/lilycrest-server/internal/middleware"
    "github.com/lilycrest/lilycrest-server/internal/model"
)

// RegisterTenant registers the tenant-facing reservation workflow
// under /v1.  All routes require a valid JWT with the TENANT role;
// ownership of the individual record is enforced inside the flow
// controller.
func RegisterTenant(e *echo.Echo, h *handler.TenantReservationHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleTenant),
    )
    g.POST("/reservations", h.Start)
    g.GET("/reservations", h.ListMine)
    g.GET("/reservations/:id", h.Get)
    g.PATCH("/reservations/:id/visit", h.ScheduleVisit)
    g.PATCH("/reservations/:id/application", h.SubmitApplication)
    g.PATCH("/reservations/:id/payment", h.SubmitPayment)
}
