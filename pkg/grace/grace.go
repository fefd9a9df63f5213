// Package grace holds the grace-window arithmetic shared by the membership
// and trainer lifecycles.
package grace

import (
	"math"
	"time"

	"gym-membership-be/pkg/clock"
)

type Policy struct {
	Name  string
	Days  int
	// Marks are the days-remaining values that trigger a reminder.
	Marks []int
}

var (
	MembershipPolicy = Policy{Name: "membership", Days: 7, Marks: []int{7, 2, 1}}
	TrainerPolicy    = Policy{Name: "trainer", Days: 3, Marks: []int{3, 1}}
)

// WithDays returns a copy of p using a different window length. Marks
// beyond the new window are dropped.
func (p Policy) WithDays(days int) Policy {
	if days <= 0 || days == p.Days {
		return p
	}
	out := Policy{Name: p.Name, Days: days}
	for _, m := range p.Marks {
		if m <= days {
			out.Marks = append(out.Marks, m)
		}
	}
	return out
}

// ComputeGraceEnd returns the end of the grace window that opens when periodEnd passes.
func (p Policy) ComputeGraceEnd(periodEnd time.Time) time.Time {
	return periodEnd.AddDate(0, 0, p.Days)
}

// Milestone reports whether daysRemaining is one of the policy milestones.
func (p Policy) Milestone(daysRemaining int) bool {
	for _, m := range p.Marks {
		if m == daysRemaining {
			return true
		}
	}
	return false
}

// DaysRemaining is ceil((graceEnd - start of today) / 24h), with today taken
// in the business timezone. Returns 0 once the window has closed.
func DaysRemaining(graceEnd, now time.Time, loc *time.Location) int {
	today := clock.DayStart(now, loc)
	diff := graceEnd.Sub(today)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}

type Milestone struct {
	DaysRemaining int
	ShouldNotify  bool
}

// Milestones evaluates the policy for a grace window. A nil graceEnd means
// no window is open and yields nothing.
func (p Policy) Milestones(graceEnd *time.Time, now time.Time, loc *time.Location) []Milestone {
	if graceEnd == nil {
		return nil
	}
	days := DaysRemaining(*graceEnd, now, loc)
	out := make([]Milestone, 0, len(p.Marks))
	for _, m := range p.Marks {
		out = append(out, Milestone{DaysRemaining: m, ShouldNotify: m == days})
	}
	return out
}

// Due returns the milestone that fires today, if any.
func (p Policy) Due(graceEnd *time.Time, now time.Time, loc *time.Location) (int, bool) {
	for _, m := range p.Milestones(graceEnd, now, loc) {
		if m.ShouldNotify {
			return m.DaysRemaining, true
		}
	}
	return 0, false
}
