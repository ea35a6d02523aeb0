package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/seminar-registrations/internal/capacity"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/clock"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/model"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/repository"
)

// RegistrationService orchestrates bookings and registration status changes.
type RegistrationService struct {
	events        EventStore
	registrations RegistrationStore
	clock         clock.Clock
	logger        *slog.Logger
}

// RegistrationServiceOption configures a RegistrationService.
type RegistrationServiceOption func(*RegistrationService)

// WithRegistrationLogger sets the logger used for booking events.
func WithRegistrationLogger(logger *slog.Logger) RegistrationServiceOption {
	return func(s *RegistrationService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRegistrationService constructs a RegistrationService with its
// dependencies.
func NewRegistrationService(
	events EventStore,
	registrations RegistrationStore,
	clk clock.Clock,
	opts ...RegistrationServiceOption,
) *RegistrationService {
	s := &RegistrationService{
		events:        events,
		registrations: registrations,
		clock:         clk,
		logger:        discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries everything a user submits when booking an event.
type RegisterInput struct {
	EventUID             int64
	UserUID              int64
	Seats                int
	PriceCode            model.PriceCode
	AttendanceMode       model.AttendanceMode
	RegisteredThemselves bool
	AttendeesNames       string
	Billing              model.BillingAddress
	Interests            string
	Expectations         string
	Comments             string
	KnownFrom            string
	BackgroundKnowledge  string
	ConsentToTerms       bool
	ConsentToAdditional  bool
	ConsentToDataSharing bool
}

// Register books seats for a user inside one transaction. The event row is
// locked for the duration so concurrent bookings are serialised. Seats that
// no longer fit go to the waiting list when the event has one.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (*model.Registration, error) {
	if in.UserUID <= 0 {
		return nil, ErrInvalidUser
	}
	if in.Seats == 0 {
		in.Seats = 1
	}

	reg := model.NewRegistration()
	if err := reg.SetSeats(in.Seats); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err := s.events.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.events.LockBookable(txCtx, in.EventUID)
		if err != nil {
			return err
		}
		schedule := event.Timing()
		if !schedule.IsRegistrationPossible(now) {
			return ErrRegistrationClosed
		}
		info := event.Info()
		if info.HasAdditionalTermsAndConditions() && !in.ConsentToAdditional {
			return ErrTermsNotAccepted
		}

		exists, err := s.registrations.Exists(txCtx, in.EventUID, in.UserUID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyRegistered
		}

		user, err := s.registrations.GetUser(txCtx, in.UserUID)
		if err != nil {
			return err
		}

		counts, err := s.registrations.SumSeats(txCtx, in.EventUID)
		if err != nil {
			return err
		}
		stats := capacity.FromCounts(event, counts)
		switch {
		case stats.CanAccommodate(reg.Seats):
			reg.ConvertToRegularRegistration()
		case schedule.WaitingList:
			reg.MoveToWaitingList()
		default:
			return ErrEventFull
		}

		reg.Event = event
		reg.User = user
		reg.Title = registrationTitle(user, event)
		reg.AttendanceMode = in.AttendanceMode
		reg.RegisteredThemselves = in.RegisteredThemselves
		reg.AttendeesNames = strings.TrimSpace(in.AttendeesNames)
		reg.Billing = in.Billing
		reg.Interests = in.Interests
		reg.Expectations = in.Expectations
		reg.Comments = in.Comments
		reg.KnownFrom = in.KnownFrom
		reg.BackgroundKnowledge = in.BackgroundKnowledge
		reg.ConsentToTerms = in.ConsentToTerms
		reg.ConsentToAdditional = in.ConsentToAdditional
		reg.ConsentToDataSharing = in.ConsentToDataSharing
		applyPrice(reg, info, effectivePriceCode(in.PriceCode, info, schedule, now))
		reg.Created = now

		return s.registrations.Create(txCtx, reg)
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("register for event: %w", err)
	}

	s.logger.Info("registration created",
		"event_uid", in.EventUID,
		"reference", reg.Reference,
		"status", reg.Status.String(),
		"seats", reg.Seats,
	)
	return reg, nil
}

// ConvertToRegular moves a registration onto the regular list if its seats
// still fit. Already regular registrations are returned unchanged.
func (s *RegistrationService) ConvertToRegular(ctx context.Context, ref string) (*model.Registration, error) {
	var result *model.Registration
	err := s.events.WithTx(ctx, func(txCtx context.Context) error {
		reg, err := s.registrations.GetByReference(txCtx, ref)
		if err != nil {
			return err
		}
		if reg.IsRegularRegistration() {
			result = reg
			return nil
		}
		bookable, ok := model.AsBookable(reg.Event)
		if !ok {
			return ErrEventMissing
		}

		event, err := s.events.LockBookable(txCtx, bookable.Base().UID)
		if err != nil {
			return err
		}
		counts, err := s.registrations.SumSeats(txCtx, event.Base().UID)
		if err != nil {
			return err
		}
		if !capacity.FromCounts(event, counts).CanAccommodate(reg.Seats) {
			return ErrEventFull
		}

		reg.Event = event
		reg.ConvertToRegularRegistration()
		if err := s.registrations.UpdateStatus(txCtx, reg); err != nil {
			return err
		}
		result = reg
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("convert registration: %w", err)
	}

	s.logger.Info("registration converted to regular", "reference", ref)
	return result, nil
}

// MoveToWaitingList puts a registration on the waiting list regardless of
// its current status.
func (s *RegistrationService) MoveToWaitingList(ctx context.Context, ref string) (*model.Registration, error) {
	var result *model.Registration
	err := s.events.WithTx(ctx, func(txCtx context.Context) error {
		reg, err := s.registrations.GetByReference(txCtx, ref)
		if err != nil {
			return err
		}
		result = reg
		if reg.IsOnWaitingList() {
			return nil
		}
		reg.MoveToWaitingList()
		return s.registrations.UpdateStatus(txCtx, reg)
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("move registration to waiting list: %w", err)
	}

	s.logger.Info("registration moved to waiting list", "reference", ref)
	return result, nil
}

// Statistics loads a bookable event and attaches its current statistics.
func (s *RegistrationService) Statistics(ctx context.Context, eventUID int64) (model.Bookable, model.EventStatistics, error) {
	event, err := s.events.GetBookable(ctx, eventUID)
	if err != nil {
		return nil, model.EventStatistics{}, err
	}
	counts, err := s.registrations.SumSeats(ctx, eventUID)
	if err != nil {
		return nil, model.EventStatistics{}, fmt.Errorf("event statistics: %w", err)
	}
	stats := capacity.FromCounts(event, counts)
	event.Timing().SetStatistics(stats)
	return event, stats, nil
}

// ListRegistrations returns the active registrations of an event, newest
// first.
func (s *RegistrationService) ListRegistrations(ctx context.Context, eventUID int64) ([]*model.Registration, error) {
	event, err := s.events.GetBookable(ctx, eventUID)
	if err != nil {
		return nil, err
	}
	regs, err := s.registrations.ListByEvent(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// effectivePriceCode drops early-bird tiers once the early-bird deadline has
// passed, then steps down from tiers the event does not price:
// special early bird to special to standard, early bird to standard.
func effectivePriceCode(code model.PriceCode, info model.Details, schedule *model.Schedule, now time.Time) model.PriceCode {
	code = code.Normalize()
	if !schedule.IsEarlyBirdActive(now) {
		switch code {
		case model.PriceEarlyBird:
			code = model.PriceStandard
		case model.PriceSpecialEarlyBird:
			code = model.PriceSpecial
		}
	}
	if code == model.PriceSpecialEarlyBird && !info.HasSpecialEarlyBirdPrice() {
		code = model.PriceSpecial
	}
	if code == model.PriceSpecial && !info.HasSpecialPrice() {
		code = model.PriceStandard
	}
	if code == model.PriceEarlyBird && !info.HasEarlyBirdPrice() {
		code = model.PriceStandard
	}
	return code
}

func applyPrice(reg *model.Registration, info model.Details, code model.PriceCode) {
	reg.SetPriceCode(code)
	unit := info.PriceFor(reg.PriceCode())
	reg.TotalPrice = unit * float64(reg.Seats)
	reg.Price = fmt.Sprintf("%s: %.2f", reg.PriceCode().Label(), unit)
}

func registrationTitle(user *model.User, event model.Event) string {
	title := event.Info().DisplayTitle
	if title == "" {
		title = event.Base().Title
	}
	if user.Name == "" {
		return title
	}
	return user.Name + " / " + title
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrEventFull,
		ErrAlreadyRegistered,
		ErrRegistrationClosed,
		ErrTermsNotAccepted,
		ErrInvalidUser,
		ErrEventMissing,
		model.ErrInvalidSeats,
		model.ErrInvalidStatus,
		repository.ErrNotFound,
		repository.ErrNotBookable,
		repository.ErrInvalidReference,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
