// Package handler defines the HTTP handlers.  Handlers stay thin: they
// bind and sanity-check the payload, assemble the caller's identity
// from the JWT claims, and delegate to the flow controller, the gate
// and the repositories.  Domain errors come back as sentinels and are
// translated to HTTP exactly once, in writeError.
package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/lilycrest/lilycrest-server/internal/flow"
    "github.com/lilycrest/lilycrest-server/internal/gate"
    "github.com/lilycrest/lilycrest-server/internal/model"
    "github.com/lilycrest/lilycrest-server/internal/repository"
    "github.com/lilycrest/lilycrest-server/internal/utils"
)

// getUserID extracts the user id claim from the context.  JWT numeric
// claims decode as float64; older tokens may carry strings.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// callerIdentity assembles the gate.Identity for the authenticated
// caller.  Role and branch come from the JWT claims placed in context
// by the auth middleware, never from the request payload.
func callerIdentity(c echo.Context) (gate.Identity, error) {
    uid, err := getUserID(c)
    if err != nil {
        return gate.Identity{}, err
    }
    role, _ := c.Get("role").(string)
    branch, _ := c.Get("branch").(string)
    return gate.Identity{UserID: uid, Role: role, Branch: branch}, nil
}

// parseIDParam parses a numeric path parameter.
func parseIDParam(c echo.Context, name string) (uint64, bool) {
    n, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || n == 0 {
        return 0, false
    }
    return n, true
}

// writeError translates a domain error into its HTTP response.  The
// mapping is deliberate about ambiguity: a branch mismatch surfaces as
// UNAUTHORIZED_BRANCH with 403, never as a 404, so an admin hitting
// the wrong branch knows the record exists.
func writeError(c echo.Context, err error) error {
    var ve *flow.ValidationError
    if errors.As(err, &ve) {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{
            "error":  "VALIDATION_FAILED",
            "fields": ve.Fields,
        })
    }
    switch {
    case errors.Is(err, gate.ErrUnauthorizedBranch):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "UNAUTHORIZED_BRANCH"})
    case errors.Is(err, gate.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "FORBIDDEN"})
    case errors.Is(err, flow.ErrStageNotReached):
        return c.JSON(http.StatusConflict, echo.Map{"error": "STAGE_NOT_REACHED"})
    case errors.Is(err, flow.ErrFlowClosed):
        return c.JSON(http.StatusConflict, echo.Map{"error": "RESERVATION_CLOSED"})
    case errors.Is(err, repository.ErrReservationNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "RESERVATION_NOT_FOUND"})
    case errors.Is(err, repository.ErrRoomNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "ROOM_NOT_FOUND"})
    case errors.Is(err, repository.ErrBedNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "BED_NOT_FOUND"})
    case errors.Is(err, repository.ErrUserNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "USER_NOT_FOUND"})
    case errors.Is(err, repository.ErrBedUnavailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": "BED_UNAVAILABLE"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "CONFLICT"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "INTERNAL"})
}

// reservationJSON shapes a record for the tenant-facing responses:
// the record itself plus its display code and the stage the client
// should render next.
func reservationJSON(rec *model.Reservation, stage flow.Stage) echo.Map {
    return echo.Map{
        "reservation": rec,
        "code":        utils.ReservationCode(rec.ID),
        "stage":       int(stage),
        "stage_name":  stage.String(),
    }
}
