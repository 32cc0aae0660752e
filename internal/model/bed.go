package model

import "time"

// Bed statuses stored in beds.status.  A bed moves
// AVAILABLE → RESERVED when a draft reservation claims it,
// RESERVED → OCCUPIED when an admin confirms the reservation, and
// back to AVAILABLE on cancellation or move-out.  Every transition is
// a conditional update keyed on the current status so that two
// concurrent requests can never claim the same bed.
const (
    BedAvailable = "AVAILABLE"
    BedReserved  = "RESERVED"
    BedOccupied  = "OCCUPIED"
)

// Bed is the smallest unit of occupancy within a room.  At most one
// active (non-cancelled) reservation references a bed at a time.
//
// Fields:
//  ID             – primary key identifier.
//  RoomID         – room to which this bed belongs.
//  Position       – 1-based position of the bed within the room.
//  Status         – one of the Bed* constants above.
//  OccupantUserID – user currently occupying the bed (nil when vacant).
//  OccupiedSince  – when the current occupant moved in (nil when vacant).
//  Version        – bumped on every status transition; conditional
//                   updates compare against it to detect lost races.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Bed struct {
    ID             uint64     `json:"id"`                         // beds.id
    RoomID         uint64     `json:"room_id"`                    // beds.room_id
    Position       uint32     `json:"position"`                   // beds.position
    Status         string     `json:"status"`                     // beds.status
    OccupantUserID *uint64    `json:"occupant_user_id,omitempty"` // beds.occupant_user_id (nullable)
    OccupiedSince  *time.Time `json:"occupied_since,omitempty"`   // beds.occupied_since (nullable)
    Version        uint32     `json:"version"`                    // beds.version
    CreatedAt      time.Time  `json:"created_at"`                 // beds.created_at
    UpdatedAt      time.Time  `json:"updated_at"`                 // beds.updated_at
}
