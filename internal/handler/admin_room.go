package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/lilycrest/lilycrest-server/internal/gate"
    "github.com/lilycrest/lilycrest-server/internal/model"
    "github.com/lilycrest/lilycrest-server/internal/repository"
)

// AdminRoomHandler manages the room and bed inventory.  Creation and
// edits are confined to the admin's own branch; a super-admin may act
// anywhere.
type AdminRoomHandler struct {
    Rooms *repository.RoomRepo
}

func NewAdminRoomHandler(rooms *repository.RoomRepo) *AdminRoomHandler {
    if rooms == nil {
        panic("nil repository passed to NewAdminRoomHandler")
    }
    return &AdminRoomHandler{Rooms: rooms}
}

type createRoomReq struct {
    Branch   string `json:"branch"`
    Name     string `json:"name"`
    Floor    uint32 `json:"floor"`
    RoomType string `json:"room_type"`
}

// bedCountFor maps a room type to its fixed bed count.
func bedCountFor(roomType string) (uint32, bool) {
    switch roomType {
    case model.RoomPrivate:
        return 1, true
    case model.RoomDoubleSharing:
        return 2, true
    case model.RoomQuadSharing:
        return 4, true
    }
    return 0, false
}

// CreateRoom handles POST /v1/admin/rooms.  Capacity is derived from
// the room type and the beds are created alongside the room, so the
// capacity-equals-beds invariant holds from the first row.
func (h *AdminRoomHandler) CreateRoom(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createRoomReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    branch := strings.ToLower(strings.TrimSpace(req.Branch))
    if !model.ValidBranch(branch) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_BRANCH"})
    }
    name := strings.TrimSpace(req.Name)
    if name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "NAME_REQUIRED"})
    }
    roomType := strings.ToUpper(strings.TrimSpace(req.RoomType))
    capacity, ok := bedCountFor(roomType)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_ROOM_TYPE"})
    }
    if err := gate.CanAdminAccess(caller, branch); err != nil {
        return writeError(c, err)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    room := &model.Room{
        Branch:   branch,
        Name:     name,
        Floor:    req.Floor,
        RoomType: roomType,
        Capacity: capacity,
        IsActive: true,
    }
    if err := h.Rooms.CreateRoom(ctx, room); err != nil {
        return writeError(c, err)
    }
    audit(caller, "room.created", "room", room.ID, branch, name)
    return c.JSON(http.StatusCreated, echo.Map{"room": room})
}

type updateRoomReq struct {
    Name     string `json:"name"`
    Floor    uint32 `json:"floor"`
    IsActive *bool  `json:"is_active"`
}

// UpdateRoom handles PATCH /v1/admin/rooms/:id.  Omitted fields keep
// their current value; capacity and type are immutable.
func (h *AdminRoomHandler) UpdateRoom(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_ROOM_ID"})
    }
    var req updateRoomReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    room, err := h.Rooms.RoomByID(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    if err := gate.CanAdminAccess(caller, room.Branch); err != nil {
        return writeError(c, err)
    }

    name := room.Name
    if strings.TrimSpace(req.Name) != "" {
        name = strings.TrimSpace(req.Name)
    }
    floor := room.Floor
    if req.Floor != 0 {
        floor = req.Floor
    }
    active := room.IsActive
    if req.IsActive != nil {
        active = *req.IsActive
    }
    if err := h.Rooms.UpdateRoom(ctx, id, name, floor, active); err != nil {
        return writeError(c, err)
    }
    audit(caller, "room.updated", "room", id, room.Branch, name)

    updated, err := h.Rooms.RoomByID(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"room": updated})
}

// GetRoom handles GET /v1/admin/rooms/:id, the staff view with
// occupant identities, unlike the public endpoint.
func (h *AdminRoomHandler) GetRoom(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
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
    if err := gate.CanAdminAccess(caller, det.Room.Branch); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, det)
}

// MoveOutBed handles POST /v1/admin/beds/:id/move-out, returning an
// occupied bed to the available pool.
func (h *AdminRoomHandler) MoveOutBed(c echo.Context) error {
    caller, err := callerIdentity(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "INVALID_BED_ID"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    branch, err := h.Rooms.GetBedBranch(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    if err := gate.CanAdminAccess(caller, branch); err != nil {
        return writeError(c, err)
    }
    if err := h.Rooms.MoveOutBed(ctx, id); err != nil {
        return writeError(c, err)
    }
    audit(caller, "bed.moved_out", "bed", id, branch, "")
    return c.NoContent(http.StatusNoContent)
}
