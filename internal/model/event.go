package model

import "time"

// Kind identifies which event variant a record is.
type Kind string

const (
	KindSingleEvent Kind = "single"
	KindTopic       Kind = "topic"
	KindDate        Kind = "date"
)

// EventStatus is the organisational state of a bookable event.
type EventStatus string

const (
	StatusPlanned   EventStatus = "planned"
	StatusCanceled  EventStatus = "canceled"
	StatusConfirmed EventStatus = "confirmed"
)

// Event is implemented by *Topic, *SingleEvent and *Date only.
type Event interface {
	Base() *Record
	Kind() Kind
	// Info returns the descriptive and pricing data of the event. It never
	// fails: variants without data return the zero Details.
	Info() Details
	sealed()
}

// Bookable is an event that can be registered for directly. *Topic does not
// implement it.
type Bookable interface {
	Event
	Timing() *Schedule
}

// Details holds the descriptive and pricing fields shared by topics and
// single events.
type Details struct {
	DisplayTitle          string
	Subtitle              string
	Description           string
	AdditionalTerms       bool
	OwnerUID              int64
	StandardPrice         float64
	EarlyBirdPrice        float64
	SpecialPrice          float64
	SpecialEarlyBirdPrice float64
	PaymentMethods        []PaymentMethod
	Categories            []Category
}

// HasAdditionalTermsAndConditions reports whether attendees must accept the
// event's own terms on top of the general ones.
func (d Details) HasAdditionalTermsAndConditions() bool {
	return d.AdditionalTerms
}

func (d Details) HasEarlyBirdPrice() bool {
	return d.EarlyBirdPrice > 0
}

func (d Details) HasSpecialPrice() bool {
	return d.SpecialPrice > 0
}

func (d Details) HasSpecialEarlyBirdPrice() bool {
	return d.SpecialEarlyBirdPrice > 0
}

// PriceFor returns the price of a single seat in the given tier.
func (d Details) PriceFor(code PriceCode) float64 {
	switch code.Normalize() {
	case PriceEarlyBird:
		return d.EarlyBirdPrice
	case PriceSpecial:
		return d.SpecialPrice
	case PriceSpecialEarlyBird:
		return d.SpecialEarlyBirdPrice
	default:
		return d.StandardPrice
	}
}

// Schedule holds the scheduling and capacity fields of a bookable event.
type Schedule struct {
	Start                 time.Time
	End                   time.Time
	EarlyBirdDeadline     time.Time
	RegistrationDeadline  time.Time
	RegistrationRequired  bool
	WaitingList           bool
	MinimumRegistrations  int
	MaximumRegistrations  int // 0 means unlimited
	OfflineRegistrations  int
	Venues                []Ref
	Speakers              []Ref
	Organizers            []Ref
	Status                EventStatus
	AutomaticStatusChange bool

	statistics *EventStatistics
}

// Validate checks the counters that must never be negative.
func (s *Schedule) Validate() error {
	if s.MinimumRegistrations < 0 || s.MaximumRegistrations < 0 || s.OfflineRegistrations < 0 {
		return ErrNegativeCount
	}
	return nil
}

// HasUnlimitedSeats is true when no seat limit is configured.
func (s *Schedule) HasUnlimitedSeats() bool {
	return s.MaximumRegistrations <= 0
}

func (s *Schedule) HasStarted(now time.Time) bool {
	return !s.Start.IsZero() && !now.Before(s.Start)
}

func (s *Schedule) HasEnded(now time.Time) bool {
	return !s.End.IsZero() && !now.Before(s.End)
}

// IsEarlyBirdActive is true while an early-bird deadline is set and not yet
// reached.
func (s *Schedule) IsEarlyBirdActive(now time.Time) bool {
	return !s.EarlyBirdDeadline.IsZero() && now.Before(s.EarlyBirdDeadline)
}

// EffectiveRegistrationDeadline falls back to the start when no explicit
// registration deadline is set. It is zero when neither is set.
func (s *Schedule) EffectiveRegistrationDeadline() time.Time {
	if !s.RegistrationDeadline.IsZero() {
		return s.RegistrationDeadline
	}
	return s.Start
}

func (s *Schedule) IsRegistrationDeadlineOver(now time.Time) bool {
	deadline := s.EffectiveRegistrationDeadline()
	return !deadline.IsZero() && !now.Before(deadline)
}

// IsRegistrationPossible reports whether new registrations may be taken at
// now. Capacity is not considered here.
func (s *Schedule) IsRegistrationPossible(now time.Time) bool {
	if !s.RegistrationRequired || s.IsCanceled() {
		return false
	}
	return !s.IsRegistrationDeadlineOver(now)
}

func (s *Schedule) IsPlanned() bool {
	return s.Status == "" || s.Status == StatusPlanned
}

func (s *Schedule) IsConfirmed() bool {
	return s.Status == StatusConfirmed
}

func (s *Schedule) IsCanceled() bool {
	return s.Status == StatusCanceled
}

func (s *Schedule) MarkPlanned() {
	s.Status = StatusPlanned
}

func (s *Schedule) Confirm() {
	s.Status = StatusConfirmed
}

func (s *Schedule) Cancel() {
	s.Status = StatusCanceled
}

// Statistics returns the statistics attached by the last capacity
// computation, if any.
func (s *Schedule) Statistics() (EventStatistics, bool) {
	if s.statistics == nil {
		return EventStatistics{}, false
	}
	return *s.statistics, true
}

func (s *Schedule) SetStatistics(stats EventStatistics) {
	s.statistics = &stats
}

// Topic is a reusable description and price list shared by several dates.
// It cannot be registered for.
type Topic struct {
	Record
	Details
}

func (t *Topic) Kind() Kind    { return KindTopic }
func (t *Topic) Info() Details { return t.Details }

// Base returns nil for a nil topic.
func (t *Topic) Base() *Record {
	if t == nil {
		return nil
	}
	return &t.Record
}

func (*Topic) sealed() {}

// SingleEvent is a self-contained bookable event.
type SingleEvent struct {
	Record
	Details
	Schedule
}

func (e *SingleEvent) Kind() Kind        { return KindSingleEvent }
func (e *SingleEvent) Info() Details     { return e.Details }
func (e *SingleEvent) Timing() *Schedule { return &e.Schedule }

func (*SingleEvent) sealed() {}

func (e *SingleEvent) Base() *Record {
	if e == nil {
		return nil
	}
	return &e.Record
}

// Date is one scheduled occurrence of a topic. Descriptive data always comes
// from Topic; a Date without a topic describes itself with zero values.
type Date struct {
	Record
	Schedule
	Topic *Topic
}

func (d *Date) Kind() Kind        { return KindDate }
func (d *Date) Timing() *Schedule { return &d.Schedule }

func (*Date) sealed() {}

func (d *Date) Base() *Record {
	if d == nil {
		return nil
	}
	return &d.Record
}

func (d *Date) Info() Details {
	if d == nil || d.Topic == nil {
		return Details{}
	}
	return d.Topic.Details
}

// TopicUID returns 0 when no topic is set.
func (d *Date) TopicUID() int64 {
	if d.Topic == nil {
		return 0
	}
	return d.Topic.UID
}

// IsNil reports whether e is nil or a typed nil pointer.
func IsNil(e Event) bool {
	return e == nil || e.Base() == nil
}

// AsBookable returns the event as Bookable when its kind can be registered
// for directly. Nil events are never bookable.
func AsBookable(e Event) (Bookable, bool) {
	if IsNil(e) {
		return nil, false
	}
	b, ok := e.(Bookable)
	return b, ok
}
