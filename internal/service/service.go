// Package service implements the booking workflow and the automatic status
// change on top of the model and the repository layer.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Shivanand-hulikatti/seminar-registrations/internal/capacity"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/model"
)

var (
	// ErrEventFull is returned when the seats do not fit and the event has no
	// waiting list.
	ErrEventFull = errors.New("event is fully booked")
	// ErrAlreadyRegistered is returned when the user already holds an active
	// registration for the event.
	ErrAlreadyRegistered = errors.New("user already registered for this event")
	// ErrRegistrationClosed is returned when the event takes no registrations
	// (none required, canceled, or the deadline has passed).
	ErrRegistrationClosed = errors.New("registration is closed for this event")
	// ErrTermsNotAccepted is returned when the event has additional terms that
	// were not accepted.
	ErrTermsNotAccepted = errors.New("additional terms and conditions must be accepted")
	// ErrInvalidUser is returned for a non-positive user uid.
	ErrInvalidUser = errors.New("a valid user is required")
	// ErrEventMissing is returned when a registration has lost its event.
	ErrEventMissing = errors.New("registration has no bookable event")
)

// EventStore is the persistence the services need for events.
type EventStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetBookable(ctx context.Context, uid int64) (model.Bookable, error)
	LockBookable(ctx context.Context, uid int64) (model.Bookable, error)
	ListAutomaticStatusCandidates(ctx context.Context) ([]model.Bookable, error)
	UpdateStatus(ctx context.Context, event model.Bookable) error
}

// RegistrationStore is the persistence the services need for registrations.
type RegistrationStore interface {
	Create(ctx context.Context, reg *model.Registration) error
	GetByReference(ctx context.Context, ref string) (*model.Registration, error)
	ListByEvent(ctx context.Context, event model.Bookable) ([]*model.Registration, error)
	SumSeats(ctx context.Context, eventUID int64) (capacity.Counts, error)
	Exists(ctx context.Context, eventUID, userUID int64) (bool, error)
	UpdateStatus(ctx context.Context, reg *model.Registration) error
	GetUser(ctx context.Context, uid int64) (*model.User, error)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
