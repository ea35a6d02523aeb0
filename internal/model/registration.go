package model

import (
	"errors"
	"fmt"
)

// ErrInvalidStatus is returned for a status outside the known set.
var ErrInvalidStatus = errors.New("invalid registration status")

// RegistrationStatus is the lifecycle state of a registration. The zero value
// is RegistrationRegular.
type RegistrationStatus int

const (
	RegistrationRegular RegistrationStatus = iota
	RegistrationWaitingList
	RegistrationNonbinding
)

// Valid reports whether s is one of the known statuses.
func (s RegistrationStatus) Valid() bool {
	return s >= RegistrationRegular && s <= RegistrationNonbinding
}

func (s RegistrationStatus) String() string {
	switch s {
	case RegistrationRegular:
		return "regular"
	case RegistrationWaitingList:
		return "waiting_list"
	case RegistrationNonbinding:
		return "nonbinding_reservation"
	}
	return fmt.Sprintf("RegistrationStatus(%d)", int(s))
}

func (s RegistrationStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrInvalidStatus
	}
	return []byte(s.String()), nil
}

// ParseRegistrationStatus is the inverse of RegistrationStatus.String.
func ParseRegistrationStatus(text string) (RegistrationStatus, error) {
	switch text {
	case "regular":
		return RegistrationRegular, nil
	case "waiting_list":
		return RegistrationWaitingList, nil
	case "nonbinding_reservation":
		return RegistrationNonbinding, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, text)
}

func (s *RegistrationStatus) UnmarshalText(text []byte) error {
	status, err := ParseRegistrationStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// AttendanceMode tells whether an attendee takes part on site, online or both.
type AttendanceMode int

const (
	AttendanceNotSet AttendanceMode = iota
	AttendanceOnSite
	AttendanceOnline
	AttendanceHybrid
)

func (m AttendanceMode) String() string {
	switch m {
	case AttendanceOnSite:
		return "on_site"
	case AttendanceOnline:
		return "online"
	case AttendanceHybrid:
		return "hybrid"
	}
	return "not_set"
}

func (m AttendanceMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText reads the String form; anything else is AttendanceNotSet.
func (m *AttendanceMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "on_site":
		*m = AttendanceOnSite
	case "online":
		*m = AttendanceOnline
	case "hybrid":
		*m = AttendanceHybrid
	default:
		*m = AttendanceNotSet
	}
	return nil
}

// PriceCode selects one of the four price tiers of an event.
type PriceCode string

const (
	PriceStandard         PriceCode = "price_regular"
	PriceEarlyBird        PriceCode = "price_regular_early"
	PriceSpecial          PriceCode = "price_special"
	PriceSpecialEarlyBird PriceCode = "price_special_early"
)

// Normalize maps every unknown code to PriceStandard.
//
// TODO: unknown codes from imports are silently accepted as standard; reject
// them at the handler once legacy data has been cleaned up.
func (c PriceCode) Normalize() PriceCode {
	switch c {
	case PriceStandard, PriceEarlyBird, PriceSpecial, PriceSpecialEarlyBird:
		return c
	}
	return PriceStandard
}

// Label is the human readable name of the tier.
func (c PriceCode) Label() string {
	switch c.Normalize() {
	case PriceEarlyBird:
		return "Early bird"
	case PriceSpecial:
		return "Special"
	case PriceSpecialEarlyBird:
		return "Special early bird"
	default:
		return "Standard"
	}
}

// UnmarshalText applies the same coercion as Normalize.
func (c *PriceCode) UnmarshalText(text []byte) error {
	*c = PriceCode(text).Normalize()
	return nil
}

// BillingAddress is the invoice address given with a registration.
type BillingAddress struct {
	Company     string
	FullName    string
	Street      string
	ZIP         string
	City        string
	Country     string
	PhoneNumber string
	Email       string
}

// Option is a selectable extra (accommodation, food, checkbox) booked with a
// registration.
type Option struct {
	UID   int64
	Title string
}

// Registration is an attendee's booking against a bookable event.
type Registration struct {
	Record

	// Reference is the public booking handle.
	Reference string
	Event     Event
	User      *User
	Status    RegistrationStatus
	Seats     int

	RegisteredThemselves bool
	AttendeesNames       string
	Price                string
	TotalPrice           float64
	Billing              BillingAddress

	Interests           string
	Expectations        string
	Comments            string
	KnownFrom           string
	BackgroundKnowledge string

	ConsentToTerms       bool
	ConsentToAdditional  bool
	ConsentToDataSharing bool

	AttendanceMode  AttendanceMode
	OrderReference  string
	PaymentMethod   *PaymentMethod
	AdditionalUsers []User
	LodgingOptions  []Option
	FoodOptions     []Option
	CheckboxOptions []Option

	Deleted bool
	// Raw holds untyped export columns attached by the export collaborator.
	Raw map[string]string

	priceCode PriceCode
}

// NewRegistration returns a regular one-seat registration at the standard
// price.
func NewRegistration() *Registration {
	return &Registration{
		Seats:     1,
		priceCode: PriceStandard,
	}
}

// Validate rejects registrations that cannot be stored.
func (r *Registration) Validate() error {
	if r.Seats < 1 {
		return ErrInvalidSeats
	}
	if !r.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// SetSeats sets the number of booked seats, which must be at least one.
func (r *Registration) SetSeats(seats int) error {
	if seats < 1 {
		return ErrInvalidSeats
	}
	r.Seats = seats
	return nil
}

// HasNecessaryAssociations is true when both a user and a directly bookable
// event are set.
func (r *Registration) HasNecessaryAssociations() bool {
	if r.User == nil {
		return false
	}
	_, ok := AsBookable(r.Event)
	return ok
}

// EventUID returns 0 when the registration has lost its event.
func (r *Registration) EventUID() int64 {
	if IsNil(r.Event) {
		return 0
	}
	return r.Event.Base().UID
}

// UserUID returns 0 when the registration has lost its user.
func (r *Registration) UserUID() int64 {
	if r.User == nil {
		return 0
	}
	return r.User.UID
}

// BelongsToUser never matches non-positive uids.
func (r *Registration) BelongsToUser(uid int64) bool {
	if uid <= 0 || r.User == nil {
		return false
	}
	return r.User.UID == uid
}

func (r *Registration) IsRegularRegistration() bool {
	return r.Status == RegistrationRegular
}

func (r *Registration) IsOnWaitingList() bool {
	return r.Status == RegistrationWaitingList
}

func (r *Registration) IsNonbindingReservation() bool {
	return r.Status == RegistrationNonbinding
}

// SetStatus accepts any of the three statuses regardless of the current one.
func (r *Registration) SetStatus(status RegistrationStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	r.Status = status
	return nil
}

func (r *Registration) ConvertToRegularRegistration() {
	r.Status = RegistrationRegular
}

func (r *Registration) MoveToWaitingList() {
	r.Status = RegistrationWaitingList
}

func (r *Registration) IsAtLeastPartiallyOnSite() bool {
	return r.AttendanceMode == AttendanceOnSite || r.AttendanceMode == AttendanceHybrid
}

func (r *Registration) IsAtLeastPartiallyOnline() bool {
	return r.AttendanceMode == AttendanceOnline || r.AttendanceMode == AttendanceHybrid
}

// PriceCode returns the selected tier. A registration that never had a tier
// set reports PriceStandard.
func (r *Registration) PriceCode() PriceCode {
	return r.priceCode.Normalize()
}

// SetPriceCode stores code, falling back to PriceStandard for unknown codes.
func (r *Registration) SetPriceCode(code PriceCode) {
	r.priceCode = code.Normalize()
}

// IsActive is false for rows the host has hidden or soft-deleted.
func (r *Registration) IsActive() bool {
	return !r.Hidden && !r.Deleted
}

// CountsSeats reports whether the registration contributes seats to any
// capacity sum.
func (r *Registration) CountsSeats() bool {
	return r.IsActive() && r.Seats > 0
}
