package repository

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/lilycrest/lilycrest-server/internal/flow"
    "github.com/lilycrest/lilycrest-server/internal/model"
)

func newReservationMock(t *testing.T) (*ReservationRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    rooms := NewRoomRepo(db)
    return NewReservationRepo(db, rooms), mock
}

func draft(bedID uint64) *model.Reservation {
    rec := &model.Reservation{
        UserID:           42,
        RoomID:           7,
        TargetMoveInDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
        LeaseMonths:      6,
        BillingEmail:     "dormer@example.com",
        Status:           model.ReservationInProgress,
        PaymentStatus:    model.PaymentPending,
    }
    if bedID != 0 {
        rec.BedID = &bedID
    }
    return rec
}

// Create pairs the bed claim and the insert in one transaction.
func TestCreateClaimsBedAndInserts(t *testing.T) {
    repo, mock := newReservationMock(t)

    mock.ExpectBegin()
    mock.ExpectExec("UPDATE beds SET status").
        WithArgs(model.BedReserved, 5, 7, model.BedAvailable).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO reservations").
        WithArgs(42, 7, uint64(5), "2026-09-15", 6, "dormer@example.com",
            model.ReservationInProgress, model.PaymentPending).
        WillReturnResult(sqlmock.NewResult(11, 1))
    mock.ExpectCommit()

    rec := draft(5)
    require.NoError(t, repo.Create(context.Background(), rec))
    assert.Equal(t, uint64(11), rec.ID)
    assert.NoError(t, mock.ExpectationsWereMet())
}

// Losing the bed race rolls back the whole draft; no record may exist.
func TestCreateRollsBackOnBedRace(t *testing.T) {
    repo, mock := newReservationMock(t)

    mock.ExpectBegin()
    mock.ExpectExec("UPDATE beds SET status").
        WithArgs(model.BedReserved, 5, 7, model.BedAvailable).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT 1 FROM beds WHERE id = \\?").
        WithArgs(5).
        WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
    mock.ExpectRollback()

    err := repo.Create(context.Background(), draft(5))
    assert.ErrorIs(t, err, ErrBedUnavailable)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithoutBedSkipsClaim(t *testing.T) {
    repo, mock := newReservationMock(t)

    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO reservations").
        WithArgs(42, 7, nil, "2026-09-15", 6, "dormer@example.com",
            model.ReservationInProgress, model.PaymentPending).
        WillReturnResult(sqlmock.NewResult(12, 1))
    mock.ExpectCommit()

    rec := draft(0)
    require.NoError(t, repo.Create(context.Background(), rec))
    assert.Equal(t, uint64(12), rec.ID)
    assert.NoError(t, mock.ExpectationsWereMet())
}

// Confirming a reservation occupies the claimed bed in the same
// transaction as the status write.
func TestUpdateStatusConfirmOccupiesBed(t *testing.T) {
    repo, mock := newReservationMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT status, user_id, bed_id FROM reservations").
        WithArgs(11).
        WillReturnRows(sqlmock.NewRows([]string{"status", "user_id", "bed_id"}).
            AddRow(model.ReservationInProgress, 42, 5))
    mock.ExpectExec("UPDATE beds SET status").
        WithArgs(model.BedOccupied, 42, 5, model.BedReserved).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE reservations SET status").
        WithArgs(model.ReservationConfirmed, 11).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    require.NoError(t, repo.UpdateStatus(context.Background(), 11, model.ReservationConfirmed))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusCancelReleasesBed(t *testing.T) {
    repo, mock := newReservationMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT status, user_id, bed_id FROM reservations").
        WithArgs(11).
        WillReturnRows(sqlmock.NewRows([]string{"status", "user_id", "bed_id"}).
            AddRow(model.ReservationInProgress, 42, 5))
    mock.ExpectExec("UPDATE beds SET status").
        WithArgs(model.BedAvailable, 5, model.BedReserved, model.BedOccupied).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE reservations SET status").
        WithArgs(model.ReservationCancelled, 11).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    require.NoError(t, repo.UpdateStatus(context.Background(), 11, model.ReservationCancelled))
    assert.NoError(t, mock.ExpectationsWereMet())
}

// Cancelled is terminal; nothing moves a record out of it.
func TestUpdateStatusCancelledIsTerminal(t *testing.T) {
    repo, mock := newReservationMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT status, user_id, bed_id FROM reservations").
        WithArgs(11).
        WillReturnRows(sqlmock.NewRows([]string{"status", "user_id", "bed_id"}).
            AddRow(model.ReservationCancelled, 42, 5))
    mock.ExpectRollback()

    err := repo.UpdateStatus(context.Background(), 11, model.ReservationConfirmed)
    assert.ErrorIs(t, err, ErrConflict)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
    repo, _ := newReservationMock(t)
    err := repo.UpdateStatus(context.Background(), 11, "SHIPPED")
    assert.ErrorIs(t, err, ErrConflict)
}

func TestApplyApplicationStoresDocument(t *testing.T) {
    repo, mock := newReservationMock(t)

    mock.ExpectExec("UPDATE reservations SET application_json = \\?, application_complete = 1").
        WillReturnResult(sqlmock.NewResult(0, 1))

    app := model.Application{FirstName: "Maria", LastName: "Clara", AgreedHouseRules: true, AgreedDataPrivacy: true}
    require.NoError(t, repo.ApplyApplication(context.Background(), 11, app))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyVisitMissingRecord(t *testing.T) {
    repo, mock := newReservationMock(t)

    mock.ExpectExec("UPDATE reservations").
        WillReturnResult(sqlmock.NewResult(0, 0))

    patch := flow.VisitPatch{
        ViewingType:   model.ViewingInPerson,
        PrivacyAgreed: true,
        VisitorName:   "Jose Rizal",
        VisitorPhone:  "+639171234567",
        VisitDate:     "2026-09-05",
        VisitTime:     "10:00",
    }
    err := repo.ApplyVisit(context.Background(), 999, patch)
    assert.ErrorIs(t, err, ErrReservationNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReleasesBed(t *testing.T) {
    repo, mock := newReservationMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT bed_id FROM reservations").
        WithArgs(11).
        WillReturnRows(sqlmock.NewRows([]string{"bed_id"}).AddRow(5))
    mock.ExpectExec("UPDATE beds SET status").
        WithArgs(model.BedAvailable, 5, model.BedReserved, model.BedOccupied).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("DELETE FROM reservations").
        WithArgs(11).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    require.NoError(t, repo.Delete(context.Background(), 11))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
    repo, mock := newReservationMock(t)

    mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id = \\?").
        WithArgs(999).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    _, err := repo.GetByID(context.Background(), 999)
    assert.ErrorIs(t, err, ErrReservationNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}
