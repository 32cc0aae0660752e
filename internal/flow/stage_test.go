package flow

import (
    "testing"

    "github.com/stretchr/testify/assert"

    "github.com/lilycrest/lilycrest-server/internal/model"
)

func strPtr(s string) *string { return &s }

func TestDeriveStageFreshRecord(t *testing.T) {
    rec := &model.Reservation{Status: model.ReservationInProgress}
    assert.Equal(t, StageVisitAndPolicies, DeriveStage(rec))
}

func TestDeriveStageVisitScheduled(t *testing.T) {
    rec := &model.Reservation{
        Status:      model.ReservationInProgress,
        ViewingType: strPtr(model.ViewingInPerson),
    }
    assert.Equal(t, StageVisitScheduled, DeriveStage(rec))
}

func TestDeriveStageVisitApproved(t *testing.T) {
    rec := &model.Reservation{
        Status:        model.ReservationInProgress,
        ViewingType:   strPtr(model.ViewingInPerson),
        VisitApproved: true,
    }
    assert.Equal(t, StageApplication, DeriveStage(rec))
}

func TestDeriveStageApplicationComplete(t *testing.T) {
    rec := &model.Reservation{
        Status:              model.ReservationInProgress,
        ViewingType:         strPtr(model.ViewingInPerson),
        VisitApproved:       true,
        ApplicationComplete: true,
    }
    assert.Equal(t, StagePayment, DeriveStage(rec))
}

func TestDeriveStageProofOfPayment(t *testing.T) {
    rec := &model.Reservation{
        Status:              model.ReservationInProgress,
        ViewingType:         strPtr(model.ViewingInPerson),
        VisitApproved:       true,
        ApplicationComplete: true,
        ProofOfPaymentURL:   strPtr("https://cdn.example.com/proof.jpg"),
    }
    assert.Equal(t, StageConfirmation, DeriveStage(rec))
}

// Payment evidence dominates the derivation even when earlier field
// groups are inconsistent, e.g. after a manual backfill that skipped
// the visit columns.
func TestDeriveStagePaymentDominates(t *testing.T) {
    rec := &model.Reservation{
        Status:            model.ReservationInProgress,
        ProofOfPaymentURL: strPtr("https://cdn.example.com/proof.jpg"),
    }
    assert.Equal(t, StageConfirmation, DeriveStage(rec))

    rec = &model.Reservation{
        Status:              model.ReservationInProgress,
        ApplicationComplete: true, // visit fields absent
    }
    assert.Equal(t, StagePayment, DeriveStage(rec))
}

func TestDeriveStageConfirmedStatus(t *testing.T) {
    rec := &model.Reservation{Status: model.ReservationConfirmed}
    assert.Equal(t, StageConfirmation, DeriveStage(rec))
}

func TestDeriveStageEmptyViewingType(t *testing.T) {
    // an empty string in the column does not count as a scheduled visit
    rec := &model.Reservation{
        Status:      model.ReservationInProgress,
        ViewingType: strPtr(""),
    }
    assert.Equal(t, StageVisitAndPolicies, DeriveStage(rec))
}
