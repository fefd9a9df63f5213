package clock

import (
	"time"
)

// DefaultZone is the IANA name of the business timezone.
const DefaultZone = "Asia/Kolkata"

// fixed fallback used when the tz database is not available in the container
var istFallback = time.FixedZone("IST", 5*60*60+30*60)

type Clock interface {
	Now() time.Time
	Location() *time.Location
	BusinessDayStart(t time.Time) time.Time
	BusinessDayEnd(t time.Time) time.Time
	Yesterday(t time.Time) time.Time
}

// LoadLocation resolves the business location, falling back to a fixed
// UTC+5:30 zone when name cannot be loaded.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return istFallback
	}
	return loc
}

type businessClock struct {
	loc *time.Location
}

func NewBusinessClock(loc *time.Location) Clock {
	if loc == nil {
		loc = istFallback
	}
	return &businessClock{loc: loc}
}

func (c *businessClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *businessClock) Location() *time.Location {
	return c.loc
}

func (c *businessClock) BusinessDayStart(t time.Time) time.Time {
	return DayStart(t, c.loc)
}

func (c *businessClock) BusinessDayEnd(t time.Time) time.Time {
	return DayEnd(t, c.loc)
}

func (c *businessClock) Yesterday(t time.Time) time.Time {
	return DayStart(t, c.loc).AddDate(0, 0, -1)
}

// FixedClock always reports the same instant. Used by tests and dry runs.
type FixedClock struct {
	At  time.Time
	Loc *time.Location
}

func (c FixedClock) Now() time.Time {
	return c.At.In(c.Location())
}

func (c FixedClock) Location() *time.Location {
	if c.Loc == nil {
		return istFallback
	}
	return c.Loc
}

func (c FixedClock) BusinessDayStart(t time.Time) time.Time {
	return DayStart(t, c.Location())
}

func (c FixedClock) BusinessDayEnd(t time.Time) time.Time {
	return DayEnd(t, c.Location())
}

func (c FixedClock) Yesterday(t time.Time) time.Time {
	return DayStart(t, c.Location()).AddDate(0, 0, -1)
}

// DayStart returns midnight of the business day containing t.
func DayStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DayEnd returns the first instant of the business day after t.
func DayEnd(t time.Time, loc *time.Location) time.Time {
	return DayStart(t, loc).AddDate(0, 0, 1)
}

// Today is the start of the current business day.
func Today(c Clock) time.Time {
	return c.BusinessDayStart(c.Now())
}

// DaysBetween counts whole business days from a to b. Negative when b is before a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	da := DayStart(a, loc)
	db := DayStart(b, loc)
	// calendar arithmetic through UTC avoids DST drift
	ua := time.Date(da.Year(), da.Month(), da.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(db.Year(), db.Month(), db.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
