package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/seminar-registrations/internal/capacity"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/model"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/repository"
)

type fakeEventStore struct {
	events  map[int64]model.Bookable
	locked  []int64
	updated []int64
	txs     int
	lockErr error
}

func newFakeEventStore(events ...model.Bookable) *fakeEventStore {
	s := &fakeEventStore{events: make(map[int64]model.Bookable)}
	for _, e := range events {
		s.events[e.Base().UID] = e
	}
	return s
}

func (s *fakeEventStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txs++
	return fn(ctx)
}

func (s *fakeEventStore) GetBookable(_ context.Context, uid int64) (model.Bookable, error) {
	e, ok := s.events[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (s *fakeEventStore) LockBookable(ctx context.Context, uid int64) (model.Bookable, error) {
	if s.lockErr != nil {
		return nil, s.lockErr
	}
	s.locked = append(s.locked, uid)
	return s.GetBookable(ctx, uid)
}

func (s *fakeEventStore) ListAutomaticStatusCandidates(context.Context) ([]model.Bookable, error) {
	var out []model.Bookable
	for _, e := range s.events {
		if e.Timing().IsPlanned() && e.Timing().AutomaticStatusChange {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeEventStore) UpdateStatus(_ context.Context, event model.Bookable) error {
	s.updated = append(s.updated, event.Base().UID)
	return nil
}

type fakeRegistrationStore struct {
	regs    []*model.Registration
	users   map[int64]*model.User
	nextUID int64
	sumErr  error
}

func newFakeRegistrationStore(users ...*model.User) *fakeRegistrationStore {
	s := &fakeRegistrationStore{users: make(map[int64]*model.User)}
	for _, u := range users {
		s.users[u.UID] = u
	}
	return s
}

func (s *fakeRegistrationStore) Create(_ context.Context, reg *model.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	s.nextUID++
	reg.UID = s.nextUID
	reg.Reference = fmt.Sprintf("ref-%d", reg.UID)
	s.regs = append(s.regs, reg)
	return nil
}

func (s *fakeRegistrationStore) GetByReference(_ context.Context, ref string) (*model.Registration, error) {
	for _, r := range s.regs {
		if r.Reference == ref && r.IsActive() {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeRegistrationStore) ListByEvent(_ context.Context, event model.Bookable) ([]*model.Registration, error) {
	return capacity.ActiveForEvent(s.regs, event.Base().UID), nil
}

func (s *fakeRegistrationStore) SumSeats(_ context.Context, eventUID int64) (capacity.Counts, error) {
	if s.sumErr != nil {
		return capacity.Counts{}, s.sumErr
	}
	return capacity.Sum(capacity.ActiveForEvent(s.regs, eventUID)), nil
}

func (s *fakeRegistrationStore) Exists(_ context.Context, eventUID, userUID int64) (bool, error) {
	return capacity.Exists(s.regs, eventUID, userUID), nil
}

func (s *fakeRegistrationStore) UpdateStatus(_ context.Context, reg *model.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	return nil
}

func (s *fakeRegistrationStore) GetUser(_ context.Context, uid int64) (*model.User, error) {
	u, ok := s.users[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

// seed stores an existing registration for event.
func (s *fakeRegistrationStore) seed(event model.Event, userUID int64, status model.RegistrationStatus, seats int) *model.Registration {
	reg := model.NewRegistration()
	reg.Event = event
	reg.User = &model.User{UID: userUID}
	reg.Status = status
	reg.Seats = seats
	if err := s.Create(context.Background(), reg); err != nil {
		panic(err)
	}
	return reg
}

type fakeNotifier struct {
	events []int64
	err    error
}

func (n *fakeNotifier) EventStatusChanged(_ context.Context, event model.Bookable, _ model.EventStatistics) error {
	n.events = append(n.events, event.Base().UID)
	return n.err
}

var errBoom = errors.New("boom")
