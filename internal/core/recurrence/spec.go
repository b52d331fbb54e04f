// Package recurrence computes occurrence dates for repeating tasks.
//
// Everything here is pure calendar arithmetic on local wall-clock time. The
// engine is deliberately forgiving: malformed refinements (empty weekday
// sets, out-of-range month days) fall back to the coarser rule instead of
// failing, and only an unrecognized Type yields no occurrence.
package recurrence

import (
	"fmt"
	"slices"
	"time"

	"github.com/hay-kot/criterio"
)

// DefaultMaxCount bounds Generate and InRange when no explicit limit is given.
const DefaultMaxCount = 50

// Type is the recurrence period.
type Type string

const (
	Daily   Type = "daily"
	Weekly  Type = "weekly"
	Monthly Type = "monthly"
	Yearly  Type = "yearly"
)

// IsValid reports whether t is a known recurrence type.
func (t Type) IsValid() bool {
	switch t {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// WeekDay selects the nth weekday of a month, e.g. {Week: 2, Day: Friday}.
type WeekDay struct {
	Week int          `json:"week"`
	Day  time.Weekday `json:"day"`
}

func (w *WeekDay) valid() bool {
	return w != nil && w.Week >= 1 && w.Week <= 5 && w.Day >= time.Sunday && w.Day <= time.Saturday
}

// Spec describes how a task repeats.
type Spec struct {
	Type     Type `json:"type"`
	Interval int  `json:"interval,omitempty"`

	// DaysOfWeek restricts weekly recurrences (0 = Sunday).
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"`

	// ByMonthDay and ByWeekDay are the two monthly modes. At most one is set.
	ByMonthDay int      `json:"by_month_day,omitempty"`
	ByWeekDay  *WeekDay `json:"by_week_day,omitempty"`

	// ByMonth restricts yearly recurrences. Months are zero-based (0 = January).
	ByMonth []int `json:"by_month,omitempty"`

	// EndDate is an inclusive calendar-day bound; Count caps the number of
	// occurrences including the first.
	EndDate *time.Time `json:"end_date,omitempty"`
	Count   int        `json:"count,omitempty"`
}

func (s Spec) interval() int {
	if s.Interval < 1 {
		return 1
	}
	return s.Interval
}

// days returns the sorted, de-duplicated valid weekdays.
func (s Spec) days() []time.Weekday {
	out := make([]time.Weekday, 0, len(s.DaysOfWeek))
	for _, d := range s.DaysOfWeek {
		if d >= time.Sunday && d <= time.Saturday && !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return out
}

// months returns the sorted, de-duplicated valid zero-based months.
func (s Spec) months() []int {
	out := make([]int, 0, len(s.ByMonth))
	for _, m := range s.ByMonth {
		if m >= 0 && m <= 11 && !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	slices.Sort(out)
	return out
}

func (s Spec) hasMonthDay() bool {
	return s.ByMonthDay >= 1 && s.ByMonthDay <= 31
}

// pastEnd reports whether t falls on a calendar day after EndDate.
func (s Spec) pastEnd(t time.Time) bool {
	return s.EndDate != nil && dayKey(t) > dayKey(*s.EndDate)
}

// Continues reports whether an instance dated t, being the occurrence-th
// (1-based) of its series, is still within the EndDate and Count bounds.
func (s Spec) Continues(t time.Time, occurrence int) bool {
	if s.pastEnd(t) {
		return false
	}
	return s.Count <= 0 || occurrence <= s.Count
}

// Validate reports shape problems for user-supplied specs. The engine never
// requires a valid spec; this exists for input surfaces that want to reject
// nonsense early.
func (s Spec) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if !s.Type.IsValid() {
		errs = errs.Append("type", fmt.Errorf("unknown recurrence type %q", s.Type))
	}
	if s.Interval < 0 {
		errs = errs.Append("interval", fmt.Errorf("must be positive, got %d", s.Interval))
	}
	for i, d := range s.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			errs = errs.Append(fmt.Sprintf("days_of_week[%d]", i), fmt.Errorf("weekday %d out of range 0-6", d))
		}
	}
	if s.ByMonthDay != 0 && !s.hasMonthDay() {
		errs = errs.Append("by_month_day", fmt.Errorf("day %d out of range 1-31", s.ByMonthDay))
	}
	if s.ByWeekDay != nil && !s.ByWeekDay.valid() {
		errs = errs.Append("by_week_day", fmt.Errorf("week must be 1-5 and day 0-6, got %+v", *s.ByWeekDay))
	}
	if s.ByMonthDay != 0 && s.ByWeekDay != nil {
		errs = errs.Append("by_week_day", fmt.Errorf("cannot be combined with by_month_day"))
	}
	for i, m := range s.ByMonth {
		if m < 0 || m > 11 {
			errs = errs.Append(fmt.Sprintf("by_month[%d]", i), fmt.Errorf("month %d out of range 0-11", m))
		}
	}
	if s.Count < 0 {
		errs = errs.Append("count", fmt.Errorf("must not be negative, got %d", s.Count))
	}

	return errs.ToError()
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addMonths returns the year and month n months after t's month.
func addMonths(t time.Time, n int) (int, time.Month) {
	total := t.Year()*12 + int(t.Month()-1) + n
	return total / 12, time.Month(total%12 + 1)
}

// on returns the given calendar day at t's clock time and location. Days
// past the end of the month roll over, as time.Date does.
func on(t time.Time, year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func dayKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// dayDiff counts calendar days from a to b, ignoring clock time and DST.
func dayDiff(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func monthDiff(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()-a.Month())
}

// nthWeekday returns the day-of-month of the week-th given weekday. The
// result may exceed the month length.
func nthWeekday(year int, month time.Month, wd WeekDay) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
	offset := (int(wd.Day) - int(first) + 7) % 7
	return 1 + offset + (wd.Week-1)*7
}
