package recurrence

import (
	"slices"
	"time"
)

// Matches reports whether date is an occurrence of the series that starts
// at seriesStart, comparing calendar days only. It agrees with Generate for
// every type and refinement except that Count is not enforced.
func Matches(spec Spec, date, seriesStart time.Time) bool {
	if !spec.Type.IsValid() || spec.pastEnd(date) {
		return false
	}

	dd := dayDiff(seriesStart, date)
	if dd < 0 {
		return false
	}
	if dd == 0 {
		return true
	}

	n := spec.interval()

	switch spec.Type {
	case Daily:
		return dd%n == 0
	case Weekly:
		return matchesWeekly(spec, date, seriesStart, dd, n)
	case Monthly:
		if spec.ByWeekDay.valid() && !spec.hasMonthDay() {
			return matchesByWalking(spec, date, seriesStart)
		}
		return matchesMonthly(spec, date, seriesStart, n)
	case Yearly:
		return matchesYearly(spec, date, seriesStart, n)
	}
	return false
}

func matchesWeekly(spec Spec, date, start time.Time, dd, n int) bool {
	days := spec.days()
	if len(days) == 0 {
		return dd%(7*n) == 0
	}

	// Weeks are counted in Sunday-first blocks anchored at the start's week.
	block := (dd + int(start.Weekday())) / 7
	return block%n == 0 && slices.Contains(days, date.Weekday())
}

func matchesMonthly(spec Spec, date, start time.Time, n int) bool {
	md := monthDiff(start, date)
	if md <= 0 || md%n != 0 {
		return false
	}

	switch {
	case spec.hasMonthDay():
		return date.Day() == min(spec.ByMonthDay, daysIn(date.Year(), date.Month()))
	default:
		// The kept day shrinks permanently after passing a short month.
		day := start.Day()
		for k := n; k <= md; k += n {
			y, m := addMonths(start, k)
			day = min(day, daysIn(y, m))
		}
		return date.Day() == day
	}
}

// matchesByWalking steps through the series with Next until it reaches or
// passes date. A fifth weekday that rolls into the following month moves
// every later occurrence with it, so the phase cannot be computed from the
// start alone.
func matchesByWalking(spec Spec, date, start time.Time) bool {
	for cur := start; ; {
		next, ok := Next(spec, cur)
		if !ok {
			return false
		}
		switch dd := dayDiff(next, date); {
		case dd == 0:
			return true
		case dd < 0:
			return false
		}
		cur = next
	}
}

func matchesYearly(spec Spec, date, start time.Time, n int) bool {
	yd := date.Year() - start.Year()
	if yd < 0 || yd%n != 0 {
		return false
	}

	months := spec.months()
	if len(months) == 0 {
		if yd == 0 || date.Month() != start.Month() {
			return false
		}
		day := start.Day()
		for k := n; k <= yd; k += n {
			day = min(day, daysIn(start.Year()+k, start.Month()))
		}
		return date.Day() == day
	}

	// Walk the visited months in order, tracking the clamped day.
	day := start.Day()
	startMonth := int(start.Month()) - 1
	for y := start.Year(); y <= date.Year(); y += n {
		for _, m := range months {
			if y == start.Year() && m <= startMonth {
				continue
			}
			month := time.Month(m + 1)
			day = min(day, daysIn(y, month))
			if y == date.Year() && month == date.Month() {
				return date.Day() == day
			}
		}
	}
	return false
}
