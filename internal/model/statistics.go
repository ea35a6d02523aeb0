package model

// EventStatistics answers capacity questions for one event from its seat
// counters. It is a value type without I/O; every method is defined for all
// inputs.
type EventStatistics struct {
	regularSeats        int
	offlineRegularSeats int
	waitingListSeats    int
	minimumSeats        int
	seatsLimit          int
}

// NewEventStatistics builds statistics from raw counters. Negative counters
// are treated as 0.
func NewEventStatistics(regularSeats, offlineRegularSeats, waitingListSeats, minimumSeats, seatsLimit int) EventStatistics {
	return EventStatistics{
		regularSeats:        nonNegative(regularSeats),
		offlineRegularSeats: nonNegative(offlineRegularSeats),
		waitingListSeats:    nonNegative(waitingListSeats),
		minimumSeats:        nonNegative(minimumSeats),
		seatsLimit:          nonNegative(seatsLimit),
	}
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// RegularSeatsCount sums online and offline regular seats.
func (s EventStatistics) RegularSeatsCount() int {
	return s.regularSeats + s.offlineRegularSeats
}

func (s EventStatistics) OnlineRegularSeatsCount() int {
	return s.regularSeats
}

func (s EventStatistics) OfflineRegularSeatsCount() int {
	return s.offlineRegularSeats
}

func (s EventStatistics) WaitingListSeatsCount() int {
	return s.waitingListSeats
}

func (s EventStatistics) MinimumSeats() int {
	return s.minimumSeats
}

func (s EventStatistics) SeatsLimit() int {
	return s.seatsLimit
}

func (s EventStatistics) HasSeatsLimit() bool {
	return s.seatsLimit > 0
}

// Vacancies returns the seats still sellable. ok is false when the event has
// no seat limit, in which case n carries no meaning.
func (s EventStatistics) Vacancies() (n int, ok bool) {
	if !s.HasSeatsLimit() {
		return 0, false
	}
	return nonNegative(s.seatsLimit - s.RegularSeatsCount()), true
}

// IsFullyBooked is never true for events without a seat limit.
func (s EventStatistics) IsFullyBooked() bool {
	vacancies, ok := s.Vacancies()
	return ok && vacancies == 0
}

func (s EventStatistics) HasEnoughRegistrations() bool {
	return s.RegularSeatsCount() >= s.minimumSeats
}

// HasExportableRegularRegistrations ignores offline seats: only online
// registrations have rows that can be exported.
func (s EventStatistics) HasExportableRegularRegistrations() bool {
	return s.regularSeats > 0
}

// CanAccommodate reports whether seats more regular seats fit.
func (s EventStatistics) CanAccommodate(seats int) bool {
	vacancies, ok := s.Vacancies()
	if !ok {
		return true
	}
	return seats <= vacancies
}
