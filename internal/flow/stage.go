// Package flow implements the six-step reservation workflow as a
// state machine over the persisted reservation record.  There is no
// stored "current stage" column: the stage is re-derived from which
// field groups are populated every time a record is loaded, and every
// patch is guarded so the field set always corresponds to exactly one
// derivable stage.
package flow

import "github.com/lilycrest/lilycrest-server/internal/model"

// Stage is one step in the fixed reservation sequence.  The values
// match the 1-indexed progress bar shown to tenants.
type Stage int

const (
    StageRoomSelection    Stage = iota + 1 // pick a room, move-in date, billing email
    StageVisitAndPolicies                  // choose viewing type, accept privacy policy
    StageVisitScheduled                    // waiting state until staff approves the visit
    StageApplication                       // full personal/employment/emergency application
    StagePayment                           // final move-in date and proof of payment
    StageConfirmation                      // terminal, display-only
)

// String returns the progress-bar label for the stage.
func (s Stage) String() string {
    switch s {
    case StageRoomSelection:
        return "room-selection"
    case StageVisitAndPolicies:
        return "visit-and-policies"
    case StageVisitScheduled:
        return "visit-scheduled"
    case StageApplication:
        return "application"
    case StagePayment:
        return "payment"
    case StageConfirmation:
        return "confirmation"
    }
    return "unknown"
}

// DeriveStage computes the stage a tenant resumes at from the record's
// field set alone.  The checks run in strict order and the first match
// wins, so payment presence dominates everything that came before it:
//
//  1. proof of payment uploaded, or status CONFIRMED  -> Confirmation
//  2. application submitted complete                  -> Payment
//  3. visit approved by staff                         -> Application
//  4. visit fields present                            -> VisitScheduled
//  5. otherwise                                       -> VisitAndPolicies
//
// A record that exists at all has already passed room selection, so
// StageRoomSelection is never derived.
func DeriveStage(r *model.Reservation) Stage {
    switch {
    case r.HasProofOfPayment() || r.Status == model.ReservationConfirmed:
        return StageConfirmation
    case r.ApplicationComplete:
        return StagePayment
    case r.VisitApproved:
        return StageApplication
    case r.HasVisitFields():
        return StageVisitScheduled
    default:
        return StageVisitAndPolicies
    }
}
