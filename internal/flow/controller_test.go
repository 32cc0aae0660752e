package flow

import (
    "context"
    "errors"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/lilycrest/lilycrest-server/internal/gate"
    "github.com/lilycrest/lilycrest-server/internal/model"
)

var errNoRoom = errors.New("room not found")

type fakeInventory struct {
    rooms []model.Room
}

func (f *fakeInventory) RoomByID(_ context.Context, id uint64) (*model.Room, error) {
    for i := range f.rooms {
        if f.rooms[i].ID == id {
            r := f.rooms[i]
            return &r, nil
        }
    }
    return nil, errNoRoom
}

func (f *fakeInventory) RoomByLabel(_ context.Context, branch, label string) (*model.Room, error) {
    for i := range f.rooms {
        r := f.rooms[i]
        if r.Branch != branch {
            continue
        }
        number := r.Name
        if dash := strings.LastIndex(r.Name, "-"); dash >= 0 {
            number = r.Name[dash+1:]
        }
        if strings.EqualFold(r.Name, label) || label == number {
            return &r, nil
        }
    }
    return nil, errNoRoom
}

type fakeStore struct {
    recs   map[uint64]*model.Reservation
    nextID uint64
}

func newFakeStore() *fakeStore {
    return &fakeStore{recs: map[uint64]*model.Reservation{}, nextID: 1}
}

func (f *fakeStore) Create(_ context.Context, rec *model.Reservation) error {
    rec.ID = f.nextID
    f.nextID++
    cp := *rec
    f.recs[rec.ID] = &cp
    return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
    rec, ok := f.recs[id]
    if !ok {
        return nil, errors.New("reservation not found")
    }
    cp := *rec
    return &cp, nil
}

func (f *fakeStore) ApplyVisit(_ context.Context, id uint64, p VisitPatch) error {
    rec := f.recs[id]
    vt := p.ViewingType
    rec.ViewingType = &vt
    rec.PrivacyAgreed = p.PrivacyAgreed
    name, phone := p.VisitorName, p.VisitorPhone
    rec.VisitorName = &name
    rec.VisitorPhone = &phone
    rec.IsOutOfTown = p.IsOutOfTown
    if p.VisitDate != "" {
        d, _ := time.Parse("2006-01-02", p.VisitDate)
        rec.VisitDate = &d
    }
    if p.VisitTime != "" {
        vtime := p.VisitTime
        rec.VisitTime = &vtime
    }
    if p.Location != "" {
        loc := p.Location
        rec.VisitLocation = &loc
    }
    return nil
}

func (f *fakeStore) ApplyApplication(_ context.Context, id uint64, app model.Application) error {
    rec := f.recs[id]
    cp := app
    rec.Application = &cp
    rec.ApplicationComplete = true
    return nil
}

func (f *fakeStore) ApplyPayment(_ context.Context, id uint64, p PaymentPatch) error {
    rec := f.recs[id]
    method, proof := p.PaymentMethod, p.ProofOfPaymentURL
    rec.PaymentMethod = &method
    rec.ProofOfPaymentURL = &proof
    return nil
}

func testController(rooms ...model.Room) (*Controller, *fakeStore) {
    store := newFakeStore()
    fc := NewController(&fakeInventory{rooms: rooms}, store)
    fc.Now = func() time.Time {
        return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
    }
    return fc, store
}

var gpRoom = model.Room{ID: 7, Branch: model.BranchGilPuyat, Name: "GP-101", Capacity: 2, IsActive: true}

func tenant(id uint64, branch string) gate.Identity {
    return gate.Identity{UserID: id, Role: model.RoleTenant, Branch: branch}
}

func validStart() StartInput {
    return StartInput{
        RoomID:           7,
        TargetMoveInDate: "2026-09-15",
        LeaseMonths:      6,
        BillingEmail:     "dormer@example.com",
    }
}

func TestStartCreatesDraft(t *testing.T) {
    fc, store := testController(gpRoom)

    rec, stage, created, err := fc.Start(context.Background(), tenant(42, model.BranchGilPuyat), validStart())
    require.NoError(t, err)
    assert.True(t, created)
    assert.Equal(t, StageVisitAndPolicies, stage)
    assert.Equal(t, uint64(42), rec.UserID)
    assert.Equal(t, uint64(7), rec.RoomID)
    assert.Equal(t, model.ReservationInProgress, rec.Status)
    assert.Equal(t, model.PaymentPending, rec.PaymentStatus)
    assert.Len(t, store.recs, 1)
}

func TestStartIsIdempotentWithReservationID(t *testing.T) {
    fc, store := testController(gpRoom)
    caller := tenant(42, model.BranchGilPuyat)

    first, _, _, err := fc.Start(context.Background(), caller, validStart())
    require.NoError(t, err)

    in := StartInput{ReservationID: first.ID}
    rec, stage, created, err := fc.Start(context.Background(), caller, in)
    require.NoError(t, err)
    assert.False(t, created)
    assert.Equal(t, first.ID, rec.ID)
    assert.Equal(t, StageVisitAndPolicies, stage)
    assert.Len(t, store.recs, 1, "resume must not create a second record")
}

func TestStartRejectsNonTenants(t *testing.T) {
    fc, _ := testController(gpRoom)

    _, _, _, err := fc.Start(context.Background(),
        gate.Identity{UserID: 1, Role: model.RoleUser}, validStart())
    assert.ErrorIs(t, err, gate.ErrForbidden)

    // tenant without a branch assignment
    _, _, _, err = fc.Start(context.Background(), tenant(1, ""), validStart())
    assert.ErrorIs(t, err, gate.ErrForbidden)
}

func TestStartRejectsRoomOutsideBranch(t *testing.T) {
    fc, _ := testController(gpRoom)

    _, _, _, err := fc.Start(context.Background(), tenant(42, model.BranchMalate), validStart())
    assert.ErrorIs(t, err, gate.ErrForbidden)
}

func TestStartResolvesRoomLabel(t *testing.T) {
    fc, _ := testController(gpRoom)
    caller := tenant(42, model.BranchGilPuyat)

    for _, label := range []string{"GP-101", "Room GP-101", "  room 101  ", "101"} {
        in := validStart()
        in.RoomID = 0
        in.RoomLabel = label
        rec, _, _, err := fc.Start(context.Background(), caller, in)
        require.NoError(t, err, "label %q", label)
        assert.Equal(t, uint64(7), rec.RoomID)
    }
}

func TestStartUnknownLabelIsHardError(t *testing.T) {
    fc, store := testController(gpRoom)

    in := validStart()
    in.RoomID = 0
    in.RoomLabel = "GP-999"
    _, _, _, err := fc.Start(context.Background(), tenant(42, model.BranchGilPuyat), in)
    assert.ErrorIs(t, err, errNoRoom)
    assert.Empty(t, store.recs, "no record may exist after failed resolution")
}

func TestStartFieldValidation(t *testing.T) {
    fc, _ := testController(gpRoom)
    caller := tenant(42, model.BranchGilPuyat)

    in := validStart()
    in.TargetMoveInDate = ""
    in.BillingEmail = "not-an-email"
    _, _, _, err := fc.Start(context.Background(), caller, in)

    var ve *ValidationError
    require.ErrorAs(t, err, &ve)
    assert.Contains(t, ve.Fields, "target_move_in_date")
    assert.Contains(t, ve.Fields, "billing_email")
}

func startDraft(t *testing.T, fc *Controller, caller gate.Identity) uint64 {
    t.Helper()
    rec, _, _, err := fc.Start(context.Background(), caller, validStart())
    require.NoError(t, err)
    return rec.ID
}

func validVisit() VisitPatch {
    return VisitPatch{
        ViewingType:   model.ViewingInPerson,
        PrivacyAgreed: true,
        VisitorName:   "Maria Clara",
        VisitorPhone:  "+639171234567",
        VisitDate:     "2026-09-01",
        VisitTime:     "14:00",
    }
}

func TestScheduleVisitAdvancesStage(t *testing.T) {
    fc, _ := testController(gpRoom)
    caller := tenant(42, model.BranchGilPuyat)
    id := startDraft(t, fc, caller)

    rec, stage, err := fc.ScheduleVisit(context.Background(), caller, id, validVisit())
    require.NoError(t, err)
    assert.Equal(t, StageVisitScheduled, stage)
    require.NotNil(t, rec.ViewingType)
    assert.Equal(t, model.ViewingInPerson, *rec.ViewingType)
}

func TestScheduleVisitVirtualNeedsOutOfTown(t *testing.T) {
    fc, store := testController(gpRoom)
    caller := tenant(42, model.BranchGilPuyat)
    id := startDraft(t, fc, caller)

    p := validVisit()
    p.ViewingType = model.ViewingVirtual
    p.IsOutOfTown = false
    _, _, err := fc.ScheduleVisit(context.Background(), caller, id, p)

    var ve *ValidationError
    require.ErrorAs(t, err, &ve)
    assert.Contains(t, ve.Fields, "is_out_of_town")
    // rejected patch leaves the record untouched
    assert.Nil(t, store.recs[id].ViewingType)

    // the corrected resubmission goes through
    p.IsOutOfTown = true
    rec, stage, err := fc.ScheduleVisit(context.Background(), caller, id, p)
    require.NoError(t, err)
    assert.Equal(t, StageVisitScheduled, stage)
    assert.True(t, rec.IsOutOfTown)
}

func TestScheduleVisitRequiresPrivacyAgreement(t *testing.T) {
    fc, _ := testController(gpRoom)
    caller := tenant(42, model.BranchGilPuyat)
    id := startDraft(t, fc, caller)

    p := validVisit()
    p.PrivacyAgreed = false
    _, _, err := fc.ScheduleVisit(context.Background(), caller, id, p)

    var ve *ValidationError
    require.ErrorAs(t, err, &ve)
    assert.Contains(t, ve.Fields, "privacy_agreed")
}

func validApplication() model.Application {
    return model.Application{
        FirstName: "Maria", MiddleName: "Santos", LastName: "Clara", Nickname: "Mia",
        Birthday: "2000-03-14", Gender: "female", CivilStatus: "single",
        Nationality: "Filipino", Phone: "+639171234567", Email: "mia@example.com",
        AddressLine: "123 Kalayaan Ave", City: "Makati", Province: "Metro Manila", ZipCode: "1200",
        EmploymentStatus: "employed", Employer: "Acme Corp", EmployerAddress: "456 Ayala Ave",
        WorkPhone: "+639181234567", Occupation: "Engineer", MonthlyIncome: "45000",
        EmergencyName: "Juan Clara", EmergencyRelation: "father",
        EmergencyPhone: "+639191234567", EmergencyAddress: "789 Rizal St",
        SelfieURL: "https://cdn.example.com/selfie.jpg", IDFrontURL: "https://cdn.example.com/front.jpg",
        IDBackURL: "https://cdn.example.com/back.jpg", NBIClearanceURL: "https://cdn.example.com/nbi.jpg",
        AgreedHouseRules: true, AgreedDataPrivacy: true,
    }
}

func TestSubmitApplicationRequiresApproval(t *testing.T) {
    fc, _ := testController(gpRoom)
    caller := tenant(42, model.BranchGilPuyat)
    id := startDraft(t, fc, caller)

    _, _, err := fc.ScheduleVisit(context.Background(), caller, id, validVisit())
    require.NoError(t, err)

    // visit scheduled but not yet approved by staff
    _, _, err = fc.SubmitApplication(context.Background(), caller, id, validApplication())
    assert.ErrorIs(t, err, ErrStageNotReached)
}

func TestSubmitApplicationListsMissingFields(t *testing.T) {
    fc, store := testController(gpRoom)
    caller := tenant(42, model.BranchGilPuyat)
    id := startDraft(t, fc, caller)
    _, _, err := fc.ScheduleVisit(context.Background(), caller, id, validVisit())
    require.NoError(t, err)
    store.recs[id].VisitApproved = true

    app := validApplication()
    app.Nickname = ""
    app.NBIClearanceURL = "  "
    app.AgreedHouseRules = false
    _, _, err = fc.SubmitApplication(context.Background(), caller, id, app)

    var ve *ValidationError
    require.ErrorAs(t, err, &ve)
    assert.Contains(t, ve.Fields, "nickname")
    assert.Contains(t, ve.Fields, "nbi_clearance_url")
    assert.Contains(t, ve.Fields, "agreed_house_rules")
    assert.False(t, store.recs[id].ApplicationComplete)
}

func TestSubmitApplicationValidatesFields(t *testing.T) {
    fc, store := testController(gpRoom)
    caller := tenant(42, model.BranchGilPuyat)
    id := startDraft(t, fc, caller)
    _, _, err := fc.ScheduleVisit(context.Background(), caller, id, validVisit())
    require.NoError(t, err)
    store.recs[id].VisitApproved = true

    app := validApplication()
    app.FirstName = "Maria3"
    app.Phone = "09171234567"
    app.Birthday = "2010-01-01" // underage
    _, _, err = fc.SubmitApplication(context.Background(), caller, id, app)

    var ve *ValidationError
    require.ErrorAs(t, err, &ve)
    assert.Contains(t, ve.Fields, "first_name")
    assert.Contains(t, ve.Fields, "phone")
    assert.Contains(t, ve.Fields, "birthday")
}

func TestSubmitPaymentRequiresApplication(t *testing.T) {
    fc, store := testController(gpRoom)
    caller := tenant(42, model.BranchGilPuyat)
    id := startDraft(t, fc, caller)
    _, _, err := fc.ScheduleVisit(context.Background(), caller, id, validVisit())
    require.NoError(t, err)
    store.recs[id].VisitApproved = true

    _, _, err = fc.SubmitPayment(context.Background(), caller, id, PaymentPatch{
        PaymentMethod:     "gcash",
        ProofOfPaymentURL: "https://cdn.example.com/proof.jpg",
    })
    assert.ErrorIs(t, err, ErrStageNotReached)
}

func TestClosedRecordRejectsPatches(t *testing.T) {
    fc, store := testController(gpRoom)
    caller := tenant(42, model.BranchGilPuyat)
    id := startDraft(t, fc, caller)
    store.recs[id].Status = model.ReservationCancelled

    _, _, err := fc.ScheduleVisit(context.Background(), caller, id, validVisit())
    assert.ErrorIs(t, err, ErrFlowClosed)
}

func TestOwnershipEnforcedOnPatches(t *testing.T) {
    fc, _ := testController(gpRoom)
    owner := tenant(42, model.BranchGilPuyat)
    id := startDraft(t, fc, owner)

    other := tenant(99, model.BranchGilPuyat)
    _, _, err := fc.ScheduleVisit(context.Background(), other, id, validVisit())
    assert.ErrorIs(t, err, gate.ErrForbidden)
}

// The full walk a tenant takes from room selection to confirmation.
func TestFullWorkflow(t *testing.T) {
    fc, store := testController(gpRoom)
    caller := tenant(42, model.BranchGilPuyat)
    ctx := context.Background()

    rec, stage, created, err := fc.Start(ctx, caller, validStart())
    require.NoError(t, err)
    require.True(t, created)
    require.Equal(t, StageVisitAndPolicies, stage)
    id := rec.ID

    _, stage, err = fc.ScheduleVisit(ctx, caller, id, validVisit())
    require.NoError(t, err)
    require.Equal(t, StageVisitScheduled, stage)

    // staff approves the visit
    store.recs[id].VisitApproved = true

    rec, stage, err = fc.Resume(ctx, caller, id)
    require.NoError(t, err)
    require.Equal(t, StageApplication, stage)

    _, stage, err = fc.SubmitApplication(ctx, caller, id, validApplication())
    require.NoError(t, err)
    require.Equal(t, StagePayment, stage)

    rec, stage, err = fc.SubmitPayment(ctx, caller, id, PaymentPatch{
        FinalMoveInDate:     "2026-09-15",
        EstimatedMoveInTime: "10:00",
        PaymentMethod:       "gcash",
        ProofOfPaymentURL:   "https://cdn.example.com/proof.jpg",
    })
    require.NoError(t, err)
    assert.Equal(t, StageConfirmation, stage)
    assert.True(t, rec.HasProofOfPayment())
}

func TestNormalizeRoomLabel(t *testing.T) {
    assert.Equal(t, "GP-101", NormalizeRoomLabel("  Room GP-101 "))
    assert.Equal(t, "101", NormalizeRoomLabel("room 101"))
    assert.Equal(t, "GP-101", NormalizeRoomLabel("GP-101"))
    assert.Equal(t, "", NormalizeRoomLabel("   "))
}
