package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/seminar-registrations/internal/clock"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/model"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/repository"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func bookableEvent(uid int64, max int, waitingList bool) *model.SingleEvent {
	return &model.SingleEvent{
		Record: model.Record{UID: uid, Title: "Go workshop"},
		Details: model.Details{
			DisplayTitle:   "Go for Gophers",
			StandardPrice:  100,
			EarlyBirdPrice: 80,
			SpecialPrice:   60,
		},
		Schedule: model.Schedule{
			Start:                testNow.Add(14 * 24 * time.Hour),
			RegistrationRequired: true,
			WaitingList:          waitingList,
			MaximumRegistrations: max,
			Status:               model.StatusPlanned,
		},
	}
}

func newRegistrationFixture(events ...model.Bookable) (*RegistrationService, *fakeEventStore, *fakeRegistrationStore) {
	eventStore := newFakeEventStore(events...)
	regStore := newFakeRegistrationStore(
		&model.User{UID: 1, Name: "Ada"},
		&model.User{UID: 2, Name: "Grace"},
		&model.User{UID: 3},
	)
	svc := NewRegistrationService(eventStore, regStore, clock.NewFixed(testNow))
	return svc, eventStore, regStore
}

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("fits as regular registration", func(t *testing.T) {
		svc, events, regs := newRegistrationFixture(bookableEvent(10, 5, false))

		reg, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1, Seats: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reg.IsRegularRegistration() {
			t.Fatalf("expected regular registration, got %s", reg.Status)
		}
		if reg.Reference == "" || reg.UID == 0 {
			t.Fatalf("expected persisted registration, got %+v", reg)
		}
		if reg.Title != "Ada / Go for Gophers" {
			t.Fatalf("unexpected title %q", reg.Title)
		}
		if reg.TotalPrice != 200 {
			t.Fatalf("expected total price 200, got %v", reg.TotalPrice)
		}
		if len(events.locked) != 1 || events.locked[0] != 10 {
			t.Fatalf("expected event 10 to be locked, got %v", events.locked)
		}
		if len(regs.regs) != 1 {
			t.Fatalf("expected one stored registration, got %d", len(regs.regs))
		}
	})

	t.Run("zero seats default to one", func(t *testing.T) {
		svc, _, _ := newRegistrationFixture(bookableEvent(10, 0, false))

		reg, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reg.Seats != 1 {
			t.Fatalf("expected 1 seat, got %d", reg.Seats)
		}
	})

	t.Run("negative seats are rejected", func(t *testing.T) {
		svc, _, _ := newRegistrationFixture(bookableEvent(10, 0, false))

		_, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1, Seats: -1})
		if !errors.Is(err, model.ErrInvalidSeats) {
			t.Fatalf("expected ErrInvalidSeats, got %v", err)
		}
	})

	t.Run("overflow goes to waiting list", func(t *testing.T) {
		event := bookableEvent(10, 3, true)
		svc, _, regs := newRegistrationFixture(event)
		regs.seed(event, 2, model.RegistrationRegular, 2)

		reg, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1, Seats: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reg.IsOnWaitingList() {
			t.Fatalf("expected waiting list, got %s", reg.Status)
		}
	})

	t.Run("full event without waiting list", func(t *testing.T) {
		event := bookableEvent(10, 2, false)
		svc, _, regs := newRegistrationFixture(event)
		regs.seed(event, 2, model.RegistrationRegular, 2)

		_, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1, Seats: 1})
		if !errors.Is(err, ErrEventFull) {
			t.Fatalf("expected ErrEventFull, got %v", err)
		}
		if len(regs.regs) != 1 {
			t.Fatalf("expected nothing stored, got %d registrations", len(regs.regs))
		}
	})

	t.Run("offline seats reduce vacancies", func(t *testing.T) {
		event := bookableEvent(10, 3, false)
		event.OfflineRegistrations = 2
		svc, _, _ := newRegistrationFixture(event)

		_, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1, Seats: 2})
		if !errors.Is(err, ErrEventFull) {
			t.Fatalf("expected ErrEventFull, got %v", err)
		}
	})

	t.Run("nonbinding reservations do not block seats", func(t *testing.T) {
		event := bookableEvent(10, 2, false)
		svc, _, regs := newRegistrationFixture(event)
		regs.seed(event, 2, model.RegistrationNonbinding, 2)

		if _, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1, Seats: 2}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("closed registration", func(t *testing.T) {
		cases := map[string]func(e *model.SingleEvent){
			"not required": func(e *model.SingleEvent) { e.RegistrationRequired = false },
			"canceled":     func(e *model.SingleEvent) { e.Cancel() },
			"deadline over": func(e *model.SingleEvent) {
				e.RegistrationDeadline = testNow.Add(-time.Hour)
			},
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				event := bookableEvent(10, 0, false)
				mutate(event)
				svc, _, _ := newRegistrationFixture(event)

				_, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1})
				if !errors.Is(err, ErrRegistrationClosed) {
					t.Fatalf("expected ErrRegistrationClosed, got %v", err)
				}
			})
		}
	})

	t.Run("duplicate registration", func(t *testing.T) {
		event := bookableEvent(10, 0, false)
		svc, _, regs := newRegistrationFixture(event)
		regs.seed(event, 1, model.RegistrationWaitingList, 1)

		_, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1})
		if !errors.Is(err, ErrAlreadyRegistered) {
			t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
		}
	})

	t.Run("deleted registration does not block a new one", func(t *testing.T) {
		event := bookableEvent(10, 0, false)
		svc, _, regs := newRegistrationFixture(event)
		regs.seed(event, 1, model.RegistrationRegular, 1).Deleted = true

		if _, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("additional terms must be accepted", func(t *testing.T) {
		event := bookableEvent(10, 0, false)
		event.AdditionalTerms = true
		svc, _, _ := newRegistrationFixture(event)

		_, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1})
		if !errors.Is(err, ErrTermsNotAccepted) {
			t.Fatalf("expected ErrTermsNotAccepted, got %v", err)
		}

		if _, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1, ConsentToAdditional: true}); err != nil {
			t.Fatalf("unexpected error with consent: %v", err)
		}
	})

	t.Run("invalid user", func(t *testing.T) {
		svc, _, _ := newRegistrationFixture(bookableEvent(10, 0, false))

		_, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 0})
		if !errors.Is(err, ErrInvalidUser) {
			t.Fatalf("expected ErrInvalidUser, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _ := newRegistrationFixture(bookableEvent(10, 0, false))

		_, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 99})
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		svc, _, _ := newRegistrationFixture()

		_, err := svc.Register(ctx, RegisterInput{EventUID: 42, UserUID: 1})
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("storage failures are wrapped", func(t *testing.T) {
		svc, events, _ := newRegistrationFixture(bookableEvent(10, 0, false))
		events.lockErr = errBoom

		_, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1})
		if !errors.Is(err, errBoom) {
			t.Fatalf("expected wrapped storage error, got %v", err)
		}
	})

	t.Run("user without name gets the event title", func(t *testing.T) {
		svc, _, _ := newRegistrationFixture(bookableEvent(10, 0, false))

		reg, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reg.Title != "Go for Gophers" {
			t.Fatalf("unexpected title %q", reg.Title)
		}
	})
}

func TestRegisterPricing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	active := testNow.Add(time.Hour)
	noSpecial := func(d *model.Details) { d.SpecialPrice = 0 }
	noEarlyBird := func(d *model.Details) { d.EarlyBirdPrice = 0 }
	specialEarly := func(d *model.Details) { d.SpecialEarlyBirdPrice = 50 }

	tests := []struct {
		name      string
		deadline  time.Time
		prices    func(d *model.Details)
		code      model.PriceCode
		seats     int
		wantCode  model.PriceCode
		wantPrice string
		wantTotal float64
	}{
		{"early bird while active", active, nil, model.PriceEarlyBird, 1, model.PriceEarlyBird, "Early bird: 80.00", 80},
		{"early bird after deadline", testNow.Add(-time.Hour), nil, model.PriceEarlyBird, 1, model.PriceStandard, "Standard: 100.00", 100},
		{"special early bird after deadline", testNow.Add(-time.Hour), specialEarly, model.PriceSpecialEarlyBird, 1, model.PriceSpecial, "Special: 60.00", 60},
		{"no early bird deadline", time.Time{}, nil, model.PriceEarlyBird, 1, model.PriceStandard, "Standard: 100.00", 100},
		{"unknown code", time.Time{}, nil, model.PriceCode("vip"), 1, model.PriceStandard, "Standard: 100.00", 100},
		{"special", time.Time{}, nil, model.PriceSpecial, 1, model.PriceSpecial, "Special: 60.00", 60},
		{"special early bird offered", active, specialEarly, model.PriceSpecialEarlyBird, 2, model.PriceSpecialEarlyBird, "Special early bird: 50.00", 100},
		{"special early bird not offered", active, nil, model.PriceSpecialEarlyBird, 3, model.PriceSpecial, "Special: 60.00", 180},
		{"special early bird without special prices", active, noSpecial, model.PriceSpecialEarlyBird, 1, model.PriceStandard, "Standard: 100.00", 100},
		{"special not offered", time.Time{}, noSpecial, model.PriceSpecial, 2, model.PriceStandard, "Standard: 100.00", 200},
		{"early bird not offered", active, noEarlyBird, model.PriceEarlyBird, 1, model.PriceStandard, "Standard: 100.00", 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := bookableEvent(10, 0, false)
			event.EarlyBirdDeadline = tt.deadline
			if tt.prices != nil {
				tt.prices(&event.Details)
			}
			svc, _, _ := newRegistrationFixture(event)

			reg, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1, PriceCode: tt.code, Seats: tt.seats})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reg.PriceCode() != tt.wantCode {
				t.Fatalf("expected code %s, got %s", tt.wantCode, reg.PriceCode())
			}
			if reg.Price != tt.wantPrice {
				t.Fatalf("expected price %q, got %q", tt.wantPrice, reg.Price)
			}
			if reg.TotalPrice != tt.wantTotal {
				t.Fatalf("expected total %v, got %v", tt.wantTotal, reg.TotalPrice)
			}
			if reg.TotalPrice == 0 {
				t.Fatal("a priced event must never book for free")
			}
		})
	}
}

func TestRegisterUsesClockForCreation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _, _ := newRegistrationFixture(bookableEvent(10, 0, false))
	first, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Created.Equal(testNow) {
		t.Fatalf("expected creation at %v, got %v", testNow, first.Created)
	}

	// Backdated: the higher uid must not win over the earlier creation time.
	svc.clock = clock.NewFixed(testNow.Add(-time.Minute))
	second, err := svc.Register(ctx, RegisterInput{EventUID: 10, UserUID: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, err := svc.ListRegistrations(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0] != first || list[1] != second {
		t.Fatalf("expected ordering by creation time, got %v", list)
	}
}

func TestConvertToRegular(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("converts when seats fit", func(t *testing.T) {
		event := bookableEvent(10, 3, true)
		svc, _, regs := newRegistrationFixture(event)
		regs.seed(event, 2, model.RegistrationRegular, 1)
		waiting := regs.seed(event, 1, model.RegistrationWaitingList, 2)

		reg, err := svc.ConvertToRegular(ctx, waiting.Reference)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reg.IsRegularRegistration() {
			t.Fatalf("expected regular registration, got %s", reg.Status)
		}
	})

	t.Run("refuses when seats do not fit", func(t *testing.T) {
		event := bookableEvent(10, 3, true)
		svc, _, regs := newRegistrationFixture(event)
		regs.seed(event, 2, model.RegistrationRegular, 2)
		waiting := regs.seed(event, 1, model.RegistrationWaitingList, 2)

		_, err := svc.ConvertToRegular(ctx, waiting.Reference)
		if !errors.Is(err, ErrEventFull) {
			t.Fatalf("expected ErrEventFull, got %v", err)
		}
		if !waiting.IsOnWaitingList() {
			t.Fatalf("expected registration to stay on the waiting list")
		}
	})

	t.Run("already regular is a no-op", func(t *testing.T) {
		event := bookableEvent(10, 1, false)
		svc, events, regs := newRegistrationFixture(event)
		regular := regs.seed(event, 1, model.RegistrationRegular, 1)

		if _, err := svc.ConvertToRegular(ctx, regular.Reference); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(events.locked) != 0 {
			t.Fatalf("expected no lock, got %v", events.locked)
		}
	})

	t.Run("registration without event", func(t *testing.T) {
		svc, _, regs := newRegistrationFixture()
		orphan := regs.seed(nil, 1, model.RegistrationWaitingList, 1)

		_, err := svc.ConvertToRegular(ctx, orphan.Reference)
		if !errors.Is(err, ErrEventMissing) {
			t.Fatalf("expected ErrEventMissing, got %v", err)
		}
	})

	t.Run("unknown reference", func(t *testing.T) {
		svc, _, _ := newRegistrationFixture()

		_, err := svc.ConvertToRegular(ctx, "missing")
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMoveToWaitingList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	event := bookableEvent(10, 0, true)
	svc, _, regs := newRegistrationFixture(event)
	regular := regs.seed(event, 1, model.RegistrationRegular, 1)
	nonbinding := regs.seed(event, 2, model.RegistrationNonbinding, 1)

	for _, reg := range []*model.Registration{regular, nonbinding} {
		got, err := svc.MoveToWaitingList(ctx, reg.Reference)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.IsOnWaitingList() {
			t.Fatalf("expected waiting list, got %s", got.Status)
		}
	}

	if _, err := svc.MoveToWaitingList(ctx, regular.Reference); err != nil {
		t.Fatalf("moving twice should be a no-op, got %v", err)
	}
}

func TestStatisticsAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	event := bookableEvent(10, 10, true)
	event.MinimumRegistrations = 3
	event.OfflineRegistrations = 1
	svc, _, regs := newRegistrationFixture(event)
	regs.seed(event, 1, model.RegistrationRegular, 2)
	regs.seed(event, 2, model.RegistrationWaitingList, 4)
	regs.seed(event, 3, model.RegistrationNonbinding, 5)

	got, stats, err := svc.Statistics(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.RegularSeatsCount() != 3 {
		t.Fatalf("expected 3 regular seats, got %d", stats.RegularSeatsCount())
	}
	if stats.WaitingListSeatsCount() != 4 {
		t.Fatalf("expected 4 waiting list seats, got %d", stats.WaitingListSeatsCount())
	}
	if v, ok := stats.Vacancies(); !ok || v != 7 {
		t.Fatalf("expected 7 vacancies, got %d (%v)", v, ok)
	}
	if !stats.HasEnoughRegistrations() {
		t.Fatal("expected enough registrations")
	}
	if _, ok := got.Timing().Statistics(); !ok {
		t.Fatal("expected statistics to be attached to the event")
	}

	list, err := svc.ListRegistrations(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 registrations, got %d", len(list))
	}

	if _, _, err := svc.Statistics(ctx, 99); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
