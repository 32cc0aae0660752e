package flow

import (
    "context"
    "strings"
    "time"

    "github.com/lilycrest/lilycrest-server/internal/gate"
    "github.com/lilycrest/lilycrest-server/internal/model"
    "github.com/lilycrest/lilycrest-server/internal/validate"
)

const dateLayout = "2006-01-02"

// Inventory is the read-only room catalog the controller resolves
// rooms against during draft creation.  Implementations return
// repository.ErrRoomNotFound when nothing matches; the controller
// propagates that as a resolution error without creating a record.
type Inventory interface {
    RoomByID(ctx context.Context, id uint64) (*model.Room, error)
    // RoomByLabel matches a normalized label against the branch's
    // rooms by exact name or room-number equality.  No fuzzy matching.
    RoomByLabel(ctx context.Context, branch, label string) (*model.Room, error)
}

// Store persists reservation records.  Create claims the chosen bed
// (conditional AVAILABLE -> RESERVED update) and inserts the record in
// one transaction; the Apply* methods are partial updates that only
// write their own stage's columns, never clearing earlier fields.
type Store interface {
    Create(ctx context.Context, rec *model.Reservation) error
    GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
    ApplyVisit(ctx context.Context, id uint64, p VisitPatch) error
    ApplyApplication(ctx context.Context, id uint64, app model.Application) error
    ApplyPayment(ctx context.Context, id uint64, p PaymentPatch) error
}

// Controller drives the tenant-facing side of the reservation
// workflow: which fields each stage requires, what is persisted on
// advance, and how a record resumes.  It holds no per-request state;
// the flow is reconstructed from the record on every call.
type Controller struct {
    Inventory Inventory
    Store     Store
    Now       func() time.Time // injectable clock; defaults to time.Now
}

// NewController wires a Controller.  Both dependencies are required.
func NewController(inv Inventory, store Store) *Controller {
    if inv == nil || store == nil {
        panic("nil dependency passed to flow.NewController")
    }
    return &Controller{Inventory: inv, Store: store, Now: time.Now}
}

func (fc *Controller) now() time.Time {
    if fc.Now != nil {
        return fc.Now()
    }
    return time.Now()
}

// StartInput carries the room-selection stage payload.  When
// ReservationID is set the call is a resume, not a create.
type StartInput struct {
    ReservationID    uint64 `json:"reservation_id"`
    RoomID           uint64 `json:"room_id"`
    RoomLabel        string `json:"room_label"`
    BedID            uint64 `json:"bed_id"`
    TargetMoveInDate string `json:"target_move_in_date"` // "2006-01-02"
    LeaseMonths      uint32 `json:"lease_months"`
    BillingEmail     string `json:"billing_email"`
}

// VisitPatch is the visit-and-policies stage payload.
type VisitPatch struct {
    ViewingType   string `json:"viewing_type"` // "inperson" | "virtual"
    PrivacyAgreed bool   `json:"privacy_agreed"`
    VisitorName   string `json:"visitor_name"`
    VisitorPhone  string `json:"visitor_phone"`
    VisitDate     string `json:"visit_date"` // "2006-01-02"
    VisitTime     string `json:"visit_time"` // "HH:MM"
    IsOutOfTown   bool   `json:"is_out_of_town"`
    Location      string `json:"location"`
}

// PaymentPatch is the payment stage payload.
type PaymentPatch struct {
    FinalMoveInDate     string `json:"final_move_in_date"` // "2006-01-02"
    EstimatedMoveInTime string `json:"estimated_move_in_time"`
    PaymentMethod       string `json:"payment_method"`
    ProofOfPaymentURL   string `json:"proof_of_payment_url"`
}

// NormalizeRoomLabel prepares a human-readable room label for exact
// matching: surrounding whitespace and a leading "Room " prefix are
// stripped.  Nothing else is altered; a non-match after this is a
// hard resolution error.
func NormalizeRoomLabel(raw string) string {
    s := strings.TrimSpace(raw)
    if len(s) >= 5 && strings.EqualFold(s[:5], "room ") {
        s = strings.TrimSpace(s[5:])
    }
    return s
}

// Start advances the room-selection stage.  On first invocation it
// validates the stage-1 fields, resolves the room, claims the optional
// bed and creates the record, the workflow's first persistence.  When
// the caller already holds a record id the same call is an idempotent
// resume: the record is loaded and returned unchanged, never
// re-created.  The boolean result reports whether a record was
// created.
func (fc *Controller) Start(ctx context.Context, caller gate.Identity, in StartInput) (*model.Reservation, Stage, bool, error) {
    if err := gate.CanStartReservation(caller); err != nil {
        return nil, 0, false, err
    }

    if in.ReservationID != 0 {
        rec, err := fc.Store.GetByID(ctx, in.ReservationID)
        if err != nil {
            return nil, 0, false, err
        }
        if err := gate.CanAccessOwnReservation(caller, rec.UserID); err != nil {
            return nil, 0, false, err
        }
        return rec, DeriveStage(rec), false, nil
    }

    v := newValidation()
    var moveIn time.Time
    if strings.TrimSpace(in.TargetMoveInDate) == "" {
        v.missing("target_move_in_date")
    } else {
        d, err := time.Parse(dateLayout, in.TargetMoveInDate)
        if err != nil {
            v.add("target_move_in_date", "must be in YYYY-MM-DD format")
        } else if err := validate.TargetMoveInDate(d, fc.now()); err != nil {
            v.add("target_move_in_date", err.Error())
        } else {
            moveIn = d
        }
    }
    if strings.TrimSpace(in.BillingEmail) == "" {
        v.missing("billing_email")
    } else if err := validate.Email(in.BillingEmail); err != nil {
        v.add("billing_email", err.Error())
    }
    if err := v.errOrNil(); err != nil {
        return nil, 0, false, err
    }

    room, err := fc.resolveRoom(ctx, caller.Branch, in.RoomID, in.RoomLabel)
    if err != nil {
        return nil, 0, false, err
    }

    rec := &model.Reservation{
        UserID:           caller.UserID,
        RoomID:           room.ID,
        TargetMoveInDate: moveIn,
        LeaseMonths:      in.LeaseMonths,
        BillingEmail:     strings.TrimSpace(in.BillingEmail),
        Status:           model.ReservationInProgress,
        PaymentStatus:    model.PaymentPending,
    }
    if in.BedID != 0 {
        bedID := in.BedID
        rec.BedID = &bedID
    }
    if err := fc.Store.Create(ctx, rec); err != nil {
        return nil, 0, false, err
    }
    return rec, StageVisitAndPolicies, true, nil
}

// resolveRoom applies the stage-1 resolution order: a direct id when
// known, otherwise an exact match of the normalized label within the
// tenant's branch.  A room outside the caller's branch is forbidden
// rather than silently accepted.
func (fc *Controller) resolveRoom(ctx context.Context, branch string, roomID uint64, label string) (*model.Room, error) {
    if roomID != 0 {
        room, err := fc.Inventory.RoomByID(ctx, roomID)
        if err != nil {
            return nil, err
        }
        if room.Branch != branch {
            return nil, gate.ErrForbidden
        }
        return room, nil
    }
    norm := NormalizeRoomLabel(label)
    if norm == "" {
        v := newValidation()
        v.missing("room")
        return nil, v
    }
    return fc.Inventory.RoomByLabel(ctx, branch, norm)
}

// Resume loads a record for its owner and reports the stage the client
// should continue at.
func (fc *Controller) Resume(ctx context.Context, caller gate.Identity, id uint64) (*model.Reservation, Stage, error) {
    rec, err := fc.Store.GetByID(ctx, id)
    if err != nil {
        return nil, 0, err
    }
    if err := gate.CanAccessOwnReservation(caller, rec.UserID); err != nil {
        return nil, 0, err
    }
    return rec, DeriveStage(rec), nil
}

// ScheduleVisit advances the visit-and-policies stage.  A viewing type
// and the privacy agreement are required; a virtual viewing
// additionally requires the out-of-town confirmation.  A rejected
// patch leaves the record untouched.
func (fc *Controller) ScheduleVisit(ctx context.Context, caller gate.Identity, id uint64, p VisitPatch) (*model.Reservation, Stage, error) {
    rec, err := fc.loadOpen(ctx, caller, id)
    if err != nil {
        return nil, 0, err
    }

    v := newValidation()
    switch p.ViewingType {
    case model.ViewingInPerson:
    case model.ViewingVirtual:
        if !p.IsOutOfTown {
            v.add("is_out_of_town", "out-of-town confirmation is required for virtual viewing")
        }
    case "":
        v.missing("viewing_type")
    default:
        v.add("viewing_type", "must be inperson or virtual")
    }
    if !p.PrivacyAgreed {
        v.add("privacy_agreed", "privacy agreement is required")
    }
    if strings.TrimSpace(p.VisitorName) == "" {
        v.missing("visitor_name")
    } else if err := validate.Name(p.VisitorName, 64); err != nil {
        v.add("visitor_name", err.Error())
    }
    if strings.TrimSpace(p.VisitorPhone) == "" {
        v.missing("visitor_phone")
    } else if err := validate.PhoneNumber(p.VisitorPhone); err != nil {
        v.add("visitor_phone", err.Error())
    }
    if p.VisitDate != "" {
        if _, err := time.Parse(dateLayout, p.VisitDate); err != nil {
            v.add("visit_date", "must be in YYYY-MM-DD format")
        }
    }
    if p.VisitTime != "" {
        if _, err := time.Parse("15:04", p.VisitTime); err != nil {
            v.add("visit_time", "must be in HH:MM format")
        }
    }
    if err := v.errOrNil(); err != nil {
        return nil, 0, err
    }

    if err := fc.Store.ApplyVisit(ctx, rec.ID, p); err != nil {
        return nil, 0, err
    }
    rec, err = fc.Store.GetByID(ctx, rec.ID)
    if err != nil {
        return nil, 0, err
    }
    return rec, DeriveStage(rec), nil
}

// SubmitApplication advances the application stage.  The record must
// already derive to the application stage (visit approved); the
// submission must carry every required field non-empty and both
// agreement flags, and each field must individually pass its
// validator.  Presence and field-level validity are checked
// separately; both must hold.
func (fc *Controller) SubmitApplication(ctx context.Context, caller gate.Identity, id uint64, app model.Application) (*model.Reservation, Stage, error) {
    rec, err := fc.loadOpen(ctx, caller, id)
    if err != nil {
        return nil, 0, err
    }
    if DeriveStage(rec) < StageApplication {
        return nil, 0, ErrStageNotReached
    }

    v := newValidation()
    for _, f := range requiredApplicationFields(&app) {
        if strings.TrimSpace(f.value) == "" {
            v.missing(f.name)
        }
    }
    if !app.AgreedHouseRules {
        v.add("agreed_house_rules", "agreement is required")
    }
    if !app.AgreedDataPrivacy {
        v.add("agreed_data_privacy", "agreement is required")
    }
    validateApplicationFields(&app, fc.now(), v)
    if err := v.errOrNil(); err != nil {
        return nil, 0, err
    }

    if err := fc.Store.ApplyApplication(ctx, rec.ID, app); err != nil {
        return nil, 0, err
    }
    rec, err = fc.Store.GetByID(ctx, rec.ID)
    if err != nil {
        return nil, 0, err
    }
    return rec, DeriveStage(rec), nil
}

// SubmitPayment advances the payment stage.  A proof-of-payment
// reference is mandatory; the record must already derive to the
// payment stage (application complete).
func (fc *Controller) SubmitPayment(ctx context.Context, caller gate.Identity, id uint64, p PaymentPatch) (*model.Reservation, Stage, error) {
    rec, err := fc.loadOpen(ctx, caller, id)
    if err != nil {
        return nil, 0, err
    }
    if DeriveStage(rec) < StagePayment {
        return nil, 0, ErrStageNotReached
    }

    v := newValidation()
    if strings.TrimSpace(p.ProofOfPaymentURL) == "" {
        v.missing("proof_of_payment_url")
    }
    if p.FinalMoveInDate != "" {
        if _, err := time.Parse(dateLayout, p.FinalMoveInDate); err != nil {
            v.add("final_move_in_date", "must be in YYYY-MM-DD format")
        }
    }
    if p.EstimatedMoveInTime != "" {
        if err := validate.MoveInTime(p.EstimatedMoveInTime); err != nil {
            v.add("estimated_move_in_time", err.Error())
        }
    }
    if err := v.errOrNil(); err != nil {
        return nil, 0, err
    }

    if err := fc.Store.ApplyPayment(ctx, rec.ID, p); err != nil {
        return nil, 0, err
    }
    rec, err = fc.Store.GetByID(ctx, rec.ID)
    if err != nil {
        return nil, 0, err
    }
    return rec, DeriveStage(rec), nil
}

// loadOpen fetches a record, enforces ownership and rejects patches to
// confirmed or cancelled reservations.
func (fc *Controller) loadOpen(ctx context.Context, caller gate.Identity, id uint64) (*model.Reservation, error) {
    rec, err := fc.Store.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if err := gate.CanAccessOwnReservation(caller, rec.UserID); err != nil {
        return nil, err
    }
    if rec.Status != model.ReservationInProgress {
        return nil, ErrFlowClosed
    }
    return rec, nil
}

type appField struct {
    name  string
    value string
}

// requiredApplicationFields enumerates every application field that
// must be non-empty before the stage may advance.
func requiredApplicationFields(a *model.Application) []appField {
    return []appField{
        {"first_name", a.FirstName},
        {"middle_name", a.MiddleName},
        {"last_name", a.LastName},
        {"nickname", a.Nickname},
        {"birthday", a.Birthday},
        {"gender", a.Gender},
        {"civil_status", a.CivilStatus},
        {"nationality", a.Nationality},
        {"phone", a.Phone},
        {"email", a.Email},
        {"address_line", a.AddressLine},
        {"city", a.City},
        {"province", a.Province},
        {"zip_code", a.ZipCode},
        {"employment_status", a.EmploymentStatus},
        {"employer", a.Employer},
        {"employer_address", a.EmployerAddress},
        {"work_phone", a.WorkPhone},
        {"occupation", a.Occupation},
        {"monthly_income", a.MonthlyIncome},
        {"emergency_name", a.EmergencyName},
        {"emergency_relation", a.EmergencyRelation},
        {"emergency_phone", a.EmergencyPhone},
        {"emergency_address", a.EmergencyAddress},
        {"selfie_url", a.SelfieURL},
        {"id_front_url", a.IDFrontURL},
        {"id_back_url", a.IDBackURL},
        {"nbi_clearance_url", a.NBIClearanceURL},
    }
}

// validateApplicationFields runs the per-field validators over a
// submission.  Presence is checked separately; validators here only
// fire on non-empty values so a missing field is reported once.
func validateApplicationFields(a *model.Application, today time.Time, v *ValidationError) {
    names := []appField{
        {"first_name", a.FirstName},
        {"middle_name", a.MiddleName},
        {"last_name", a.LastName},
        {"nickname", a.Nickname},
        {"emergency_name", a.EmergencyName},
    }
    for _, f := range names {
        if f.value == "" {
            continue
        }
        if err := validate.Name(f.value, 32); err != nil {
            v.add(f.name, err.Error())
        }
    }
    phones := []appField{
        {"phone", a.Phone},
        {"work_phone", a.WorkPhone},
        {"emergency_phone", a.EmergencyPhone},
    }
    for _, f := range phones {
        if f.value == "" {
            continue
        }
        if err := validate.PhoneNumber(f.value); err != nil {
            v.add(f.name, err.Error())
        }
    }
    if a.Birthday != "" {
        birth, err := time.Parse(dateLayout, a.Birthday)
        if err != nil {
            v.add("birthday", "must be in YYYY-MM-DD format")
        } else if err := validate.Birthday(birth, today); err != nil {
            v.add("birthday", err.Error())
        }
    }
    if a.Email != "" {
        if err := validate.Email(a.Email); err != nil {
            v.add("email", err.Error())
        }
    }
    addrs := []struct {
        name  string
        value string
        max   int
    }{
        {"address_line", a.AddressLine, 100},
        {"city", a.City, 64},
        {"province", a.Province, 64},
        {"zip_code", a.ZipCode, 32},
        {"employer_address", a.EmployerAddress, 100},
        {"emergency_address", a.EmergencyAddress, 100},
    }
    for _, f := range addrs {
        if f.value == "" {
            continue
        }
        if err := validate.AddressLine(f.value, f.max); err != nil {
            v.add(f.name, err.Error())
        }
    }
}
