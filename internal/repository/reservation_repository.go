package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "strings"
    "time"

    "github.com/lilycrest/lilycrest-server/internal/flow"
    "github.com/lilycrest/lilycrest-server/internal/model"
)

// ReservationRepo persists reservation records.  It owns the
// transactions that pair a reservation mutation with its bed-status
// side effect: creating a draft claims the chosen bed, confirming
// occupies it, cancelling or deleting releases it.  Bed transitions go
// through RoomRepo's conditional updates so two concurrent requests
// can never both take the same bed.
type ReservationRepo struct {
    db    *sql.DB
    rooms *RoomRepo
}

// NewReservationRepo returns a ReservationRepo bound to the given
// database and room repository.
func NewReservationRepo(db *sql.DB, rooms *RoomRepo) *ReservationRepo {
    return &ReservationRepo{db: db, rooms: rooms}
}

const reservationColumns = `id, user_id, room_id, bed_id,
    target_move_in_date, lease_months, billing_email,
    viewing_type, privacy_agreed, visitor_name, visitor_phone, visit_date, visit_time, is_out_of_town, visit_approved, visit_location,
    application_json, application_complete,
    final_move_in_date, estimated_move_in_time, payment_method, proof_of_payment_url,
    status, payment_status, created_at, updated_at`

// Create inserts a draft record, claiming the chosen bed first when
// one was picked.  Both writes share a transaction: a lost bed race
// rolls the whole draft back and the caller sees ErrBedUnavailable.
func (r *ReservationRepo) Create(ctx context.Context, rec *model.Reservation) error {
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
    if rec.BedID != nil {
        if err := r.rooms.ReserveBedTx(ctx, tx, *rec.BedID, rec.RoomID); err != nil {
            return err
        }
    }
    var bedID interface{}
    if rec.BedID != nil {
        bedID = *rec.BedID
    }
    res, err := tx.ExecContext(ctx,
        `INSERT INTO reservations (user_id, room_id, bed_id, target_move_in_date, lease_months, billing_email, status, payment_status)
         VALUES (?,?,?,?,?,?,?,?)`,
        rec.UserID, rec.RoomID, bedID,
        rec.TargetMoveInDate.Format("2006-01-02"), rec.LeaseMonths, rec.BillingEmail,
        rec.Status, rec.PaymentStatus)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    rec.ID = uint64(id)
    return nil
}

// GetByID loads one record.  ErrReservationNotFound when no row
// matches.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    row := r.db.QueryRowContext(ctx,
        "SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
    rec, err := scanReservation(row)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrReservationNotFound
        }
        return nil, err
    }
    return rec, nil
}

// ApplyVisit writes the visit-stage columns.  It only sets this
// stage's fields; nothing from the room-selection stage is touched, so
// the derived stage can only move forward.
func (r *ReservationRepo) ApplyVisit(ctx context.Context, id uint64, p flow.VisitPatch) error {
    var visitDate interface{}
    if p.VisitDate != "" {
        visitDate = p.VisitDate
    }
    var visitTime interface{}
    if p.VisitTime != "" {
        visitTime = p.VisitTime
    }
    var location interface{}
    if p.Location != "" {
        location = p.Location
    }
    res, err := r.db.ExecContext(ctx,
        `UPDATE reservations
         SET viewing_type = ?, privacy_agreed = ?, visitor_name = ?, visitor_phone = ?,
             visit_date = ?, visit_time = ?, is_out_of_town = ?, visit_location = ?
         WHERE id = ?`,
        p.ViewingType, p.PrivacyAgreed, p.VisitorName, p.VisitorPhone,
        visitDate, visitTime, p.IsOutOfTown, location, id)
    if err != nil {
        return err
    }
    return oneRowOr(res, ErrReservationNotFound)
}

// ApplyApplication stores the application document and marks the stage
// complete.  The flow only calls this after every required field
// passed, so the flag and the document always agree.
func (r *ReservationRepo) ApplyApplication(ctx context.Context, id uint64, app model.Application) error {
    doc, err := json.Marshal(app)
    if err != nil {
        return err
    }
    res, err := r.db.ExecContext(ctx,
        "UPDATE reservations SET application_json = ?, application_complete = 1 WHERE id = ?",
        doc, id)
    if err != nil {
        return err
    }
    return oneRowOr(res, ErrReservationNotFound)
}

// ApplyPayment writes the payment-stage columns.
func (r *ReservationRepo) ApplyPayment(ctx context.Context, id uint64, p flow.PaymentPatch) error {
    var moveIn interface{}
    if p.FinalMoveInDate != "" {
        moveIn = p.FinalMoveInDate
    }
    var moveInTime interface{}
    if p.EstimatedMoveInTime != "" {
        moveInTime = p.EstimatedMoveInTime
    }
    res, err := r.db.ExecContext(ctx,
        `UPDATE reservations
         SET final_move_in_date = ?, estimated_move_in_time = ?, payment_method = ?, proof_of_payment_url = ?
         WHERE id = ?`,
        moveIn, moveInTime, p.PaymentMethod, p.ProofOfPaymentURL, id)
    if err != nil {
        return err
    }
    return oneRowOr(res, ErrReservationNotFound)
}

// ListByUser returns a tenant's records, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT "+reservationColumns+" FROM reservations WHERE user_id = ? ORDER BY id DESC", userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        rec, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *rec)
    }
    return out, rows.Err()
}

// Summary is a reservation joined with its room and tenant, the shape
// the admin list and detail views need.  Branch comes from the room
// row and is what the authorization gate scopes on.
type Summary struct {
    model.Reservation
    RoomName    string `json:"room_name"`
    Branch      string `json:"branch"`
    TenantEmail string `json:"tenant_email"`
}

const summaryJoin = ` FROM reservations rv
    JOIN rooms rm ON rm.id = rv.room_id
    JOIN users u ON u.id = rv.user_id`

func summarySelect() string {
    return "SELECT " + prefixColumns("rv", reservationColumns) + ", rm.name, rm.branch, u.email" + summaryJoin
}

// ListByBranch returns reservations whose room belongs to the branch,
// newest first.  An empty branch returns every branch, which is how a
// super-admin lists.
func (r *ReservationRepo) ListByBranch(ctx context.Context, branch string) ([]Summary, error) {
    query := summarySelect()
    args := []interface{}{}
    if branch != "" {
        query += " WHERE rm.branch = ?"
        args = append(args, branch)
    }
    query += " ORDER BY rv.id DESC"
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]Summary, 0)
    for rows.Next() {
        s, err := scanSummary(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *s)
    }
    return out, rows.Err()
}

// GetDetail loads one record with its room and tenant joined in.
// Admin handlers authorize against the returned Branch before acting.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (*Summary, error) {
    row := r.db.QueryRowContext(ctx, summarySelect()+" WHERE rv.id = ?", id)
    s, err := scanSummary(row)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrReservationNotFound
        }
        return nil, err
    }
    return s, nil
}

// SetVisitApproved records an admin's decision on the scheduled visit,
// optionally pinning the meeting location.
func (r *ReservationRepo) SetVisitApproved(ctx context.Context, id uint64, approved bool, location string) error {
    var loc interface{}
    if location != "" {
        loc = location
    }
    res, err := r.db.ExecContext(ctx,
        "UPDATE reservations SET visit_approved = ?, visit_location = ? WHERE id = ?",
        approved, loc, id)
    if err != nil {
        return err
    }
    return oneRowOr(res, ErrReservationNotFound)
}

// SetPaymentStatus moves payment_status between PENDING, PARTIAL and
// PAID.
func (r *ReservationRepo) SetPaymentStatus(ctx context.Context, id uint64, status string) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE reservations SET payment_status = ? WHERE id = ?", status, id)
    if err != nil {
        return err
    }
    return oneRowOr(res, ErrReservationNotFound)
}

// UpdateStatus applies an admin status decision together with its bed
// side effect in one transaction: confirming occupies the claimed bed
// for the tenant, cancelling releases it.  Transitions out of a
// terminal state (and re-confirming) are rejected with ErrConflict.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
    if status != model.ReservationConfirmed && status != model.ReservationCancelled {
        return ErrConflict
    }
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

    var (
        current string
        userID  uint64
        bedID   sql.NullInt64
    )
    err = tx.QueryRowContext(ctx,
        "SELECT status, user_id, bed_id FROM reservations WHERE id = ? FOR UPDATE", id).
        Scan(&current, &userID, &bedID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return ErrReservationNotFound
        }
        return err
    }

    // cancelled is terminal; re-applying the same status is a conflict
    if current == status || current == model.ReservationCancelled {
        return ErrConflict
    }

    if bedID.Valid {
        bed := uint64(bedID.Int64)
        switch status {
        case model.ReservationConfirmed:
            if err := r.rooms.OccupyBedTx(ctx, tx, bed, userID); err != nil {
                return err
            }
        case model.ReservationCancelled:
            if err := r.rooms.ReleaseBedTx(ctx, tx, bed); err != nil && !errors.Is(err, ErrBedUnavailable) {
                return err
            }
        }
    }

    if _, err := tx.ExecContext(ctx,
        "UPDATE reservations SET status = ? WHERE id = ?", status, id); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// Delete removes a record and frees its bed.  A bed already back to
// AVAILABLE (the record was cancelled earlier) is not an error.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
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

    var bedID sql.NullInt64
    err = tx.QueryRowContext(ctx,
        "SELECT bed_id FROM reservations WHERE id = ? FOR UPDATE", id).Scan(&bedID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return ErrReservationNotFound
        }
        return err
    }
    if bedID.Valid {
        if err := r.rooms.ReleaseBedTx(ctx, tx, uint64(bedID.Int64)); err != nil && !errors.Is(err, ErrBedUnavailable) {
            return err
        }
    }
    if _, err := tx.ExecContext(ctx, "DELETE FROM reservations WHERE id = ?", id); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

// scanReservation maps one row onto the model, converting nullable
// columns to pointers and unpacking the application document.
func scanReservation(row rowScanner) (*model.Reservation, error) {
    var (
        rec         model.Reservation
        bedID       sql.NullInt64
        viewing     sql.NullString
        visitorName sql.NullString
        visitorTel  sql.NullString
        visitDate   sql.NullTime
        visitTime   sql.NullString
        location    sql.NullString
        appJSON     []byte
        finalMoveIn sql.NullTime
        moveInTime  sql.NullString
        payMethod   sql.NullString
        proofURL    sql.NullString
    )
    err := row.Scan(
        &rec.ID, &rec.UserID, &rec.RoomID, &bedID,
        &rec.TargetMoveInDate, &rec.LeaseMonths, &rec.BillingEmail,
        &viewing, &rec.PrivacyAgreed, &visitorName, &visitorTel, &visitDate, &visitTime, &rec.IsOutOfTown, &rec.VisitApproved, &location,
        &appJSON, &rec.ApplicationComplete,
        &finalMoveIn, &moveInTime, &payMethod, &proofURL,
        &rec.Status, &rec.PaymentStatus, &rec.CreatedAt, &rec.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if bedID.Valid {
        v := uint64(bedID.Int64)
        rec.BedID = &v
    }
    rec.ViewingType = nullStr(viewing)
    rec.VisitorName = nullStr(visitorName)
    rec.VisitorPhone = nullStr(visitorTel)
    if visitDate.Valid {
        t := visitDate.Time
        rec.VisitDate = &t
    }
    rec.VisitTime = nullStr(visitTime)
    rec.VisitLocation = nullStr(location)
    if len(appJSON) > 0 {
        var app model.Application
        if err := json.Unmarshal(appJSON, &app); err != nil {
            return nil, err
        }
        rec.Application = &app
    }
    if finalMoveIn.Valid {
        t := finalMoveIn.Time
        rec.FinalMoveInDate = &t
    }
    rec.EstimatedMoveInTime = nullStr(moveInTime)
    rec.PaymentMethod = nullStr(payMethod)
    rec.ProofOfPaymentURL = nullStr(proofURL)
    return &rec, nil
}

func scanSummary(row rowScanner) (*Summary, error) {
    // same columns as scanReservation plus the joined room and tenant
    var (
        s           Summary
        bedID       sql.NullInt64
        viewing     sql.NullString
        visitorName sql.NullString
        visitorTel  sql.NullString
        visitDate   sql.NullTime
        visitTime   sql.NullString
        location    sql.NullString
        appJSON     []byte
        finalMoveIn sql.NullTime
        moveInTime  sql.NullString
        payMethod   sql.NullString
        proofURL    sql.NullString
    )
    err := row.Scan(
        &s.ID, &s.UserID, &s.RoomID, &bedID,
        &s.TargetMoveInDate, &s.LeaseMonths, &s.BillingEmail,
        &viewing, &s.PrivacyAgreed, &visitorName, &visitorTel, &visitDate, &visitTime, &s.IsOutOfTown, &s.VisitApproved, &location,
        &appJSON, &s.ApplicationComplete,
        &finalMoveIn, &moveInTime, &payMethod, &proofURL,
        &s.Status, &s.PaymentStatus, &s.CreatedAt, &s.UpdatedAt,
        &s.RoomName, &s.Branch, &s.TenantEmail)
    if err != nil {
        return nil, err
    }
    if bedID.Valid {
        v := uint64(bedID.Int64)
        s.BedID = &v
    }
    s.ViewingType = nullStr(viewing)
    s.VisitorName = nullStr(visitorName)
    s.VisitorPhone = nullStr(visitorTel)
    if visitDate.Valid {
        t := visitDate.Time
        s.VisitDate = &t
    }
    s.VisitTime = nullStr(visitTime)
    s.VisitLocation = nullStr(location)
    if len(appJSON) > 0 {
        var app model.Application
        if err := json.Unmarshal(appJSON, &app); err != nil {
            return nil, err
        }
        s.Application = &app
    }
    if finalMoveIn.Valid {
        t := finalMoveIn.Time
        s.FinalMoveInDate = &t
    }
    s.EstimatedMoveInTime = nullStr(moveInTime)
    s.PaymentMethod = nullStr(payMethod)
    s.ProofOfPaymentURL = nullStr(proofURL)
    return &s, nil
}

func nullStr(v sql.NullString) *string {
    if !v.Valid {
        return nil
    }
    s := v.String
    return &s
}

func oneRowOr(res sql.Result, notFound error) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return notFound
    }
    return nil
}

// prefixColumns qualifies a comma-separated column list with a table
// alias for use in joins.
func prefixColumns(alias, cols string) string {
    parts := strings.Split(cols, ",")
    for i, p := range parts {
        parts[i] = alias + "." + strings.TrimSpace(p)
    }
    return strings.Join(parts, ", ")
}

// ensure the repo satisfies the flow's persistence contract
var _ flow.Store = (*ReservationRepo)(nil)

// PurgeExpiredDrafts deletes IN_PROGRESS records older than the given
// age whose derived stage never left room selection, releasing their
// beds.  Run periodically by the janitor in cmd/server.
func (r *ReservationRepo) PurgeExpiredDrafts(ctx context.Context, olderThan time.Duration) (int64, error) {
    cutoff := time.Now().Add(-olderThan)
    rows, err := r.db.QueryContext(ctx,
        `SELECT id FROM reservations
         WHERE status = ? AND viewing_type IS NULL AND created_at < ?`,
        model.ReservationInProgress, cutoff)
    if err != nil {
        return 0, err
    }
    ids := make([]uint64, 0)
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            rows.Close()
            return 0, err
        }
        ids = append(ids, id)
    }
    rows.Close()
    if err := rows.Err(); err != nil {
        return 0, err
    }
    var purged int64
    for _, id := range ids {
        if err := r.Delete(ctx, id); err != nil {
            if errors.Is(err, ErrReservationNotFound) {
                continue
            }
            return purged, err
        }
        purged++
    }
    return purged, nil
}
