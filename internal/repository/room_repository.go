package repository

import (
    "context"
    "database/sql"
    "errors"
    "math"

    "github.com/lilycrest/lilycrest-server/internal/model"
)

// RoomRepo provides access to the room catalog and its beds.  Rooms
// are read-mostly: the reservation flow only reads them, while bed
// status transitions happen as a side effect of reservation mutations.
// Every bed transition is a conditional update keyed on the current
// status (and bumping the version column), so concurrent requests can
// never both claim the same bed.
type RoomRepo struct {
    db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so that handlers can open
// transactions spanning rooms and reservations.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = "id, branch, name, floor, room_type, capacity, is_active, created_at, updated_at"

// ListRooms returns the catalog, optionally filtered to one branch.
// Inactive rooms are excluded; ordering is stable by branch and name.
func (r *RoomRepo) ListRooms(ctx context.Context, branch string) ([]model.Room, error) {
    query := "SELECT " + roomColumns + " FROM rooms WHERE is_active = 1"
    args := []interface{}{}
    if branch != "" {
        query += " AND branch = ?"
        args = append(args, branch)
    }
    query += " ORDER BY branch, name"
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Room, 0)
    for rows.Next() {
        var rm model.Room
        if err := rows.Scan(&rm.ID, &rm.Branch, &rm.Name, &rm.Floor, &rm.RoomType, &rm.Capacity, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, rm)
    }
    return out, rows.Err()
}

// RoomByID fetches a single room.  ErrRoomNotFound is returned when no
// row matches.
func (r *RoomRepo) RoomByID(ctx context.Context, id uint64) (*model.Room, error) {
    var rm model.Room
    err := r.db.QueryRowContext(ctx,
        "SELECT "+roomColumns+" FROM rooms WHERE id = ?", id).
        Scan(&rm.ID, &rm.Branch, &rm.Name, &rm.Floor, &rm.RoomType, &rm.Capacity, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrRoomNotFound
        }
        return nil, err
    }
    return &rm, nil
}

// RoomByLabel matches a normalized label within one branch by exact
// name or by room-number equality (the part of the name after the
// final dash).  No fuzzy matching: a miss is ErrRoomNotFound.
func (r *RoomRepo) RoomByLabel(ctx context.Context, branch, label string) (*model.Room, error) {
    var rm model.Room
    err := r.db.QueryRowContext(ctx,
        "SELECT "+roomColumns+" FROM rooms WHERE branch = ? AND is_active = 1 AND (name = ? OR SUBSTRING_INDEX(name, '-', -1) = ?) LIMIT 1",
        branch, label, label).
        Scan(&rm.ID, &rm.Branch, &rm.Name, &rm.Floor, &rm.RoomType, &rm.Capacity, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrRoomNotFound
        }
        return nil, err
    }
    return &rm, nil
}

// BedDetail is a bed row joined with its occupant's email for the
// room-occupancy view.
type BedDetail struct {
    model.Bed
    OccupantEmail *string `json:"occupant_email,omitempty"`
}

// RoomDetail is a room together with the current state of each of its
// beds.
type RoomDetail struct {
    Room model.Room  `json:"room"`
    Beds []BedDetail `json:"beds"`
}

// GetRoomDetail loads a room and its beds, including who occupies each
// bed and since when.
func (r *RoomRepo) GetRoomDetail(ctx context.Context, id uint64) (*RoomDetail, error) {
    room, err := r.RoomByID(ctx, id)
    if err != nil {
        return nil, err
    }
    const q = `SELECT b.id, b.room_id, b.position, b.status, b.occupant_user_id, b.occupied_since, b.version, b.created_at, b.updated_at, u.email
               FROM beds b
               LEFT JOIN users u ON u.id = b.occupant_user_id
               WHERE b.room_id = ?
               ORDER BY b.position`
    rows, err := r.db.QueryContext(ctx, q, id)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    det := &RoomDetail{Room: *room, Beds: make([]BedDetail, 0, room.Capacity)}
    for rows.Next() {
        var (
            b        BedDetail
            occupant sql.NullInt64
            since    sql.NullTime
            email    sql.NullString
        )
        if err := rows.Scan(&b.ID, &b.RoomID, &b.Position, &b.Status, &occupant, &since, &b.Version, &b.CreatedAt, &b.UpdatedAt, &email); err != nil {
            return nil, err
        }
        if occupant.Valid {
            v := uint64(occupant.Int64)
            b.OccupantUserID = &v
        }
        if since.Valid {
            t := since.Time
            b.OccupiedSince = &t
        }
        if email.Valid {
            e := email.String
            b.OccupantEmail = &e
        }
        det.Beds = append(det.Beds, b)
    }
    return det, rows.Err()
}

// OccupancyStats aggregates bed occupancy, either per branch or across
// all branches.  Rate is occupied/capacity rounded to the nearest
// percent.
type OccupancyStats struct {
    TotalRooms    uint32 `json:"total_rooms"`
    TotalCapacity uint32 `json:"total_capacity"`
    TotalOccupied uint32 `json:"total_occupied"`
    TotalReserved uint32 `json:"total_reserved"`
    Rate          uint32 `json:"rate"`
}

// GetBranchOccupancy computes occupancy statistics over active rooms.
// An empty branch aggregates all branches.
func (r *RoomRepo) GetBranchOccupancy(ctx context.Context, branch string) (OccupancyStats, error) {
    query := `SELECT COUNT(DISTINCT rm.id),
                     COUNT(b.id),
                     COALESCE(SUM(b.status = 'OCCUPIED'), 0),
                     COALESCE(SUM(b.status = 'RESERVED'), 0)
              FROM rooms rm
              LEFT JOIN beds b ON b.room_id = rm.id
              WHERE rm.is_active = 1`
    args := []interface{}{}
    if branch != "" {
        query += " AND rm.branch = ?"
        args = append(args, branch)
    }
    var s OccupancyStats
    if err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.TotalRooms, &s.TotalCapacity, &s.TotalOccupied, &s.TotalReserved); err != nil {
        return OccupancyStats{}, err
    }
    if s.TotalCapacity > 0 {
        s.Rate = uint32(math.Round(float64(s.TotalOccupied) / float64(s.TotalCapacity) * 100))
    }
    return s, nil
}

// CreateRoom inserts a room and its beds (positions 1..capacity) in a
// single transaction, keeping the capacity-equals-bed-count invariant
// from the start.
func (r *RoomRepo) CreateRoom(ctx context.Context, rm *model.Room) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    res, err := tx.ExecContext(ctx,
        "INSERT INTO rooms (branch, name, floor, room_type, capacity, is_active) VALUES (?,?,?,?,?,1)",
        rm.Branch, rm.Name, rm.Floor, rm.RoomType, rm.Capacity)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rm.ID = uint64(id)
    if rm.Capacity > 0 {
        query := "INSERT INTO beds (room_id, position, status) VALUES "
        args := make([]interface{}, 0, int(rm.Capacity)*3)
        for i := uint32(0); i < rm.Capacity; i++ {
            if i > 0 {
                query += ","
            }
            query += "(?,?,?)"
            args = append(args, rm.ID, i+1, model.BedAvailable)
        }
        if _, err := tx.ExecContext(ctx, query, args...); err != nil {
            return err
        }
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// UpdateRoom patches a room's mutable fields (name, floor, active
// flag).  Capacity is fixed after creation; changing it would break
// the bed-count invariant.
func (r *RoomRepo) UpdateRoom(ctx context.Context, id uint64, name string, floor uint32, isActive bool) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE rooms SET name = ?, floor = ?, is_active = ? WHERE id = ?",
        name, floor, isActive, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrRoomNotFound
    }
    return nil
}

// ReserveBedTx claims a bed for a draft reservation within an existing
// transaction.  The update only matches a bed that is still AVAILABLE
// in the expected room; zero rows affected means a concurrent request
// won the bed (or the id was wrong), reported as ErrBedUnavailable /
// ErrBedNotFound.
func (r *RoomRepo) ReserveBedTx(ctx context.Context, tx *sql.Tx, bedID, roomID uint64) error {
    res, err := tx.ExecContext(ctx,
        "UPDATE beds SET status = ?, version = version + 1 WHERE id = ? AND room_id = ? AND status = ?",
        model.BedReserved, bedID, roomID, model.BedAvailable)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return r.classifyBedMiss(ctx, tx, bedID)
    }
    return nil
}

// OccupyBedTx marks a reserved bed as occupied by the given tenant.
// Used when an admin confirms a reservation.
func (r *RoomRepo) OccupyBedTx(ctx context.Context, tx *sql.Tx, bedID, occupantID uint64) error {
    res, err := tx.ExecContext(ctx,
        "UPDATE beds SET status = ?, occupant_user_id = ?, occupied_since = UTC_TIMESTAMP(), version = version + 1 WHERE id = ? AND status = ?",
        model.BedOccupied, occupantID, bedID, model.BedReserved)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return r.classifyBedMiss(ctx, tx, bedID)
    }
    return nil
}

// ReleaseBedTx returns a reserved or occupied bed to AVAILABLE,
// clearing its occupant.  Used on cancellation, deletion and move-out.
func (r *RoomRepo) ReleaseBedTx(ctx context.Context, tx *sql.Tx, bedID uint64) error {
    res, err := tx.ExecContext(ctx,
        "UPDATE beds SET status = ?, occupant_user_id = NULL, occupied_since = NULL, version = version + 1 WHERE id = ? AND status IN (?, ?)",
        model.BedAvailable, bedID, model.BedReserved, model.BedOccupied)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return r.classifyBedMiss(ctx, tx, bedID)
    }
    return nil
}

// MoveOutBed transitions an occupied bed back to AVAILABLE outside any
// larger transaction, for the admin move-out operation.  Callers
// authorize first via GetBedBranch.  ErrBedUnavailable is returned
// when the bed was not occupied.
func (r *RoomRepo) MoveOutBed(ctx context.Context, bedID uint64) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE beds SET status = ?, occupant_user_id = NULL, occupied_since = NULL, version = version + 1 WHERE id = ? AND status = ?",
        model.BedAvailable, bedID, model.BedOccupied)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists int
        if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM beds WHERE id = ?", bedID).Scan(&exists); err != nil {
            if errors.Is(err, sql.ErrNoRows) {
                return ErrBedNotFound
            }
            return err
        }
        return ErrBedUnavailable
    }
    return nil
}

// GetBedBranch returns the branch of the room a bed belongs to, for
// branch-scope authorization of bed mutations.
func (r *RoomRepo) GetBedBranch(ctx context.Context, bedID uint64) (string, error) {
    var branch string
    err := r.db.QueryRowContext(ctx,
        "SELECT rm.branch FROM beds b JOIN rooms rm ON rm.id = b.room_id WHERE b.id = ?", bedID).
        Scan(&branch)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return "", ErrBedNotFound
        }
        return "", err
    }
    return branch, nil
}

// classifyBedMiss distinguishes a conditional update that matched no
// row because the bed does not exist from one that lost a race on the
// status check.
func (r *RoomRepo) classifyBedMiss(ctx context.Context, tx *sql.Tx, bedID uint64) error {
    var exists int
    err := tx.QueryRowContext(ctx, "SELECT 1 FROM beds WHERE id = ?", bedID).Scan(&exists)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return ErrBedNotFound
        }
        return err
    }
    return ErrBedUnavailable
}
