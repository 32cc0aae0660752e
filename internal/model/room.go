package model

import "time"

// Room types stored in rooms.room_type.  The type determines how many
// beds the room holds: a private room has one, double-sharing two,
// quadruple-sharing four.
const (
    RoomPrivate       = "PRIVATE"
    RoomDoubleSharing = "DOUBLE_SHARING"
    RoomQuadSharing   = "QUAD_SHARING"
)

// Room represents a dormitory room within a branch.  Each room owns a
// fixed set of beds; Capacity always equals the bed count.  This
// struct corresponds to a row in the `rooms` table.
//
// Fields:
//  ID        – primary key identifier.
//  Branch    – branch the room belongs to (one of the Branch* constants).
//  Name      – human-readable room label, unique per branch (e.g. "GP-101").
//  Floor     – floor number within the building.
//  RoomType  – one of the Room* constants above.
//  Capacity  – number of beds in the room.
//  IsActive  – whether the room is open for reservations.
//  CreatedAt – timestamp when the room was created.
//  UpdatedAt – timestamp of last update.
type Room struct {
    ID        uint64    `json:"id"`         // rooms.id
    Branch    string    `json:"branch"`     // rooms.branch
    Name      string    `json:"name"`       // rooms.name
    Floor     uint32    `json:"floor"`      // rooms.floor
    RoomType  string    `json:"room_type"`  // rooms.room_type
    Capacity  uint32    `json:"capacity"`   // rooms.capacity
    IsActive  bool      `json:"is_active"`  // rooms.is_active
    CreatedAt time.Time `json:"created_at"` // rooms.created_at
    UpdatedAt time.Time `json:"updated_at"` // rooms.updated_at
}
