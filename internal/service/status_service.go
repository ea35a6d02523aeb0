package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/seminar-registrations/internal/capacity"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/model"
)

// CancellationPolicy decides when the automatic status change cancels an
// event that lacks registrations.
type CancellationPolicy int

const (
	// CancelAfterRegistrationDeadline cancels once the registration deadline
	// has passed without enough registrations.
	CancelAfterRegistrationDeadline CancellationPolicy = iota
	// CancelNever only ever confirms.
	CancelNever
)

// Notifier is told about every status change the service makes.
type Notifier interface {
	EventStatusChanged(ctx context.Context, event model.Bookable, stats model.EventStatistics) error
}

// StatusChangeResult summarises one run.
type StatusChangeResult struct {
	Checked   int
	Confirmed int
	Canceled  int
}

// StatusChangeService confirms or cancels planned events depending on their
// registrations.
type StatusChangeService struct {
	events        EventStore
	registrations RegistrationStore
	notifier      Notifier
	policy        CancellationPolicy
	logger        *slog.Logger
}

// StatusChangeOption configures a StatusChangeService.
type StatusChangeOption func(*StatusChangeService)

func WithCancellationPolicy(p CancellationPolicy) StatusChangeOption {
	return func(s *StatusChangeService) {
		s.policy = p
	}
}

func WithStatusLogger(logger *slog.Logger) StatusChangeOption {
	return func(s *StatusChangeService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStatusChangeService constructs a StatusChangeService. notifier may be
// nil.
func NewStatusChangeService(events EventStore, registrations RegistrationStore, notifier Notifier, opts ...StatusChangeOption) *StatusChangeService {
	s := &StatusChangeService{
		events:        events,
		registrations: registrations,
		notifier:      notifier,
		policy:        CancelAfterRegistrationDeadline,
		logger:        discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run checks every candidate event once at now. Each event is decided in its
// own transaction; a failing event is logged and does not stop the run.
func (s *StatusChangeService) Run(ctx context.Context, now time.Time) (StatusChangeResult, error) {
	var result StatusChangeResult

	candidates, err := s.events.ListAutomaticStatusCandidates(ctx)
	if err != nil {
		return result, fmt.Errorf("status change: %w", err)
	}

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Checked++

		event, stats, changed, err := s.decide(ctx, candidate.Base().UID, now)
		if err != nil {
			s.logger.Error("status change failed", "event_uid", candidate.Base().UID, "error", err)
			continue
		}
		if !changed {
			continue
		}

		switch event.Timing().Status {
		case model.StatusConfirmed:
			result.Confirmed++
		case model.StatusCanceled:
			result.Canceled++
		}
		s.logger.Info("event status changed",
			"event_uid", event.Base().UID,
			"status", event.Timing().Status,
			"regular_seats", stats.RegularSeatsCount(),
			"minimum", stats.MinimumSeats(),
		)

		if s.notifier != nil {
			if err := s.notifier.EventStatusChanged(ctx, event, stats); err != nil {
				s.logger.Error("status change notification failed", "event_uid", event.Base().UID, "error", err)
			}
		}
	}
	return result, nil
}

func (s *StatusChangeService) decide(ctx context.Context, uid int64, now time.Time) (model.Bookable, model.EventStatistics, bool, error) {
	var (
		event   model.Bookable
		stats   model.EventStatistics
		changed bool
	)
	err := s.events.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		event, err = s.events.LockBookable(txCtx, uid)
		if err != nil {
			return err
		}
		schedule := event.Timing()
		if !schedule.IsPlanned() || !schedule.AutomaticStatusChange {
			return nil
		}

		counts, err := s.registrations.SumSeats(txCtx, uid)
		if err != nil {
			return err
		}
		stats = capacity.FromCounts(event, counts)
		schedule.SetStatistics(stats)

		switch {
		case stats.HasEnoughRegistrations():
			schedule.Confirm()
		case s.policy == CancelAfterRegistrationDeadline && schedule.IsRegistrationDeadlineOver(now):
			schedule.Cancel()
		default:
			return nil
		}
		changed = true
		return s.events.UpdateStatus(txCtx, event)
	})
	return event, stats, changed, err
}
