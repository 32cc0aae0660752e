package model

import "time"

// Reservation statuses stored in reservations.status.  A record stays
// IN_PROGRESS while the tenant works through the stages; only an admin
// (or super-admin) moves it to CONFIRMED or CANCELLED.
const (
    ReservationInProgress = "IN_PROGRESS"
    ReservationConfirmed  = "CONFIRMED"
    ReservationCancelled  = "CANCELLED"
)

// Payment statuses stored in reservations.payment_status.
const (
    PaymentPending = "PENDING"
    PaymentPartial = "PARTIAL"
    PaymentPaid    = "PAID"
)

// Viewing types for the visit stage.
const (
    ViewingInPerson = "inperson"
    ViewingVirtual  = "virtual"
)

// Reservation is the stage-accumulating record behind the six-step
// reservation workflow.  It is created when a tenant advances past
// room selection and then patched at each later stage.  There is no
// persisted "current stage" column: the stage is always re-derived
// from which field groups are populated (see the flow package), so a
// patch must never leave the field set between two stages.
//
// Nullable columns are modelled as pointers; a nil pointer means the
// stage that writes the field has not been completed yet.
type Reservation struct {
    ID     uint64  `json:"id"`               // reservations.id
    UserID uint64  `json:"user_id"`          // reservations.user_id (owning tenant)
    RoomID uint64  `json:"room_id"`          // reservations.room_id
    BedID  *uint64 `json:"bed_id,omitempty"` // reservations.bed_id (nullable; set when a specific bed was chosen)

    // Room-selection stage (written on create).
    TargetMoveInDate time.Time `json:"target_move_in_date"` // reservations.target_move_in_date
    LeaseMonths      uint32    `json:"lease_months"`        // reservations.lease_months
    BillingEmail     string    `json:"billing_email"`       // reservations.billing_email

    // Visit stage.
    ViewingType   *string    `json:"viewing_type,omitempty"`   // reservations.viewing_type ("inperson"|"virtual")
    PrivacyAgreed bool       `json:"privacy_agreed"`           // reservations.privacy_agreed
    VisitorName   *string    `json:"visitor_name,omitempty"`   // reservations.visitor_name
    VisitorPhone  *string    `json:"visitor_phone,omitempty"`  // reservations.visitor_phone
    VisitDate     *time.Time `json:"visit_date,omitempty"`     // reservations.visit_date
    VisitTime     *string    `json:"visit_time,omitempty"`     // reservations.visit_time ("HH:MM")
    IsOutOfTown   bool       `json:"is_out_of_town"`           // reservations.is_out_of_town
    VisitApproved bool       `json:"visit_approved"`           // reservations.visit_approved (set by an admin)
    VisitLocation *string    `json:"visit_location,omitempty"` // reservations.visit_location

    // Application stage.  The full payload is stored as one JSON
    // document; ApplicationComplete is set only after a submission in
    // which every required field was present.
    Application         *Application `json:"application,omitempty"`  // reservations.application_json
    ApplicationComplete bool         `json:"application_complete"`   // reservations.application_complete

    // Payment stage.
    FinalMoveInDate     *time.Time `json:"final_move_in_date,omitempty"`     // reservations.final_move_in_date
    EstimatedMoveInTime *string    `json:"estimated_move_in_time,omitempty"` // reservations.estimated_move_in_time ("HH:MM")
    PaymentMethod       *string    `json:"payment_method,omitempty"`         // reservations.payment_method
    ProofOfPaymentURL   *string    `json:"proof_of_payment_url,omitempty"`   // reservations.proof_of_payment_url

    Status        string    `json:"status"`         // reservations.status
    PaymentStatus string    `json:"payment_status"` // reservations.payment_status
    CreatedAt     time.Time `json:"created_at"`     // reservations.created_at
    UpdatedAt     time.Time `json:"updated_at"`     // reservations.updated_at
}

// Application carries the personal, employment, emergency-contact and
// document fields collected at the application stage.  Every field is
// required; the flow gate rejects a submission listing whichever
// fields are empty.  The struct is both the request payload and the
// stored document, serialized into reservations.application_json.
type Application struct {
    FirstName   string `json:"first_name"`
    MiddleName  string `json:"middle_name"`
    LastName    string `json:"last_name"`
    Nickname    string `json:"nickname"`
    Birthday    string `json:"birthday"` // "2006-01-02"
    Gender      string `json:"gender"`
    CivilStatus string `json:"civil_status"`
    Nationality string `json:"nationality"`
    Phone       string `json:"phone"`
    Email       string `json:"email"`

    AddressLine string `json:"address_line"`
    City        string `json:"city"`
    Province    string `json:"province"`
    ZipCode     string `json:"zip_code"`

    EmploymentStatus string `json:"employment_status"`
    Employer         string `json:"employer"`
    EmployerAddress  string `json:"employer_address"`
    WorkPhone        string `json:"work_phone"`
    Occupation       string `json:"occupation"`
    MonthlyIncome    string `json:"monthly_income"`

    EmergencyName     string `json:"emergency_name"`
    EmergencyRelation string `json:"emergency_relation"`
    EmergencyPhone    string `json:"emergency_phone"`
    EmergencyAddress  string `json:"emergency_address"`

    SelfieURL       string `json:"selfie_url"`
    IDFrontURL      string `json:"id_front_url"`
    IDBackURL       string `json:"id_back_url"`
    NBIClearanceURL string `json:"nbi_clearance_url"`

    AgreedHouseRules  bool `json:"agreed_house_rules"`
    AgreedDataPrivacy bool `json:"agreed_data_privacy"`
}

// HasVisitFields reports whether the visit stage has been submitted.
// The privacy agreement is recorded in the same patch as the viewing
// type, so either marks the stage as reached.
func (r *Reservation) HasVisitFields() bool {
    return r.ViewingType != nil && *r.ViewingType != ""
}

// HasProofOfPayment reports whether a proof-of-payment reference has
// been uploaded.
func (r *Reservation) HasProofOfPayment() bool {
    return r.ProofOfPaymentURL != nil && *r.ProofOfPaymentURL != ""
}
