// Package capacity turns the registrations of one event into the seat
// counters that model.EventStatistics works on.
//
// The PostgreSQL repository applies the same rules in SQL; both paths must
// agree on what counts: active rows only, at least one seat, and only the
// regular and waiting-list statuses.
package capacity

import (
	"sort"

	"github.com/Shivanand-hulikatti/seminar-registrations/internal/model"
)

// Counts holds the seat totals of one event.
type Counts struct {
	Regular     int
	WaitingList int
}

// Sum adds up the seats per status. Hidden, deleted and seatless rows as well
// as nonbinding reservations do not count.
func Sum(regs []*model.Registration) Counts {
	var c Counts
	for _, r := range regs {
		if r == nil || !r.CountsSeats() {
			continue
		}
		switch r.Status {
		case model.RegistrationRegular:
			c.Regular += r.Seats
		case model.RegistrationWaitingList:
			c.WaitingList += r.Seats
		}
	}
	return c
}

// Statistics combines the online sums with the counters stored on the event.
func Statistics(event model.Bookable, regs []*model.Registration) model.EventStatistics {
	return FromCounts(event, Sum(regs))
}

// FromCounts builds statistics from precomputed seat totals, such as those a
// repository sums up in SQL.
func FromCounts(event model.Bookable, c Counts) model.EventStatistics {
	s := event.Timing()
	return model.NewEventStatistics(
		c.Regular,
		s.OfflineRegistrations,
		c.WaitingList,
		s.MinimumRegistrations,
		s.MaximumRegistrations,
	)
}

// Attach computes the statistics of event and stores them on its schedule.
func Attach(event model.Bookable, regs []*model.Registration) model.EventStatistics {
	stats := Statistics(event, regs)
	event.Timing().SetStatistics(stats)
	return stats
}

// SortNewestFirst orders by creation time descending, then uid descending.
func SortNewestFirst(regs []*model.Registration) {
	sort.SliceStable(regs, func(i, j int) bool {
		a, b := regs[i], regs[j]
		if !a.Created.Equal(b.Created) {
			return a.Created.After(b.Created)
		}
		return a.UID > b.UID
	})
}

// ActiveForEvent returns the active registrations of eventUID, newest first.
func ActiveForEvent(regs []*model.Registration, eventUID int64) []*model.Registration {
	out := make([]*model.Registration, 0, len(regs))
	for _, r := range regs {
		if r == nil || !r.IsActive() || r.EventUID() != eventUID {
			continue
		}
		out = append(out, r)
	}
	SortNewestFirst(out)
	return out
}

// Exists reports whether userUID already has an active registration for
// eventUID. Non-positive user uids never match.
func Exists(regs []*model.Registration, eventUID, userUID int64) bool {
	if userUID <= 0 {
		return false
	}
	for _, r := range regs {
		if r == nil || !r.IsActive() {
			continue
		}
		if r.EventUID() == eventUID && r.BelongsToUser(userUID) {
			return true
		}
	}
	return false
}
