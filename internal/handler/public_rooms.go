package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/lilycrest/lilycrest-server/internal/model"
    "github.com/lilycrest/lilycrest-server/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints: the room
// catalog and branch occupancy.  These sit behind the Redis response
// cache, so they must not leak anything caller-specific.
type PublicHandler struct {
    Rooms *repository.RoomRepo
}

func NewPublicHandler(rooms *repository.RoomRepo) *PublicHandler {
    if rooms == nil {
        panic("nil repository passed to NewPublicHandler")
    }
    return &PublicHandler{Rooms: rooms}
}

// branchQuery reads and validates the optional ?branch= filter.
func branchQuery(c echo.Context) (string, bool) {
    branch := strings.ToLower(strings.TrimSpace(c.QueryParam("branch")))
    if branch != "" && !model.ValidBranch(branch) {
        return "", false
    }
    return branch, true
}

// ListRooms handles GET /v1/rooms.
func (h *PublicHandler) ListRooms(c echo.Context) error {
    branch, ok := branchQuery(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_BRANCH"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rooms, err := h.Rooms.ListRooms(ctx, branch)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// GetRoom handles GET /v1/rooms/:id.  The public view exposes each
// bed's position and availability but never who occupies it; occupant
// details are an admin-only concern.
func (h *PublicHandler) GetRoom(c echo.Context) error {
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_ROOM_ID"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    det, err := h.Rooms.GetRoomDetail(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    beds := make([]echo.Map, 0, len(det.Beds))
    for _, b := range det.Beds {
        beds = append(beds, echo.Map{
            "id":       b.ID,
            "position": b.Position,
            "status":   b.Status,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"room": det.Room, "beds": beds})
}

// Occupancy handles GET /v1/occupancy, aggregating per branch or
// across all branches when no filter is given.
func (h *PublicHandler) Occupancy(c echo.Context) error {
    branch, ok := branchQuery(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_BRANCH"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    stats, err := h.Rooms.GetBranchOccupancy(ctx, branch)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"branch": branch, "occupancy": stats})
}
