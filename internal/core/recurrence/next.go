package recurrence

import (
	"iter"
	"time"
)

// Next returns the occurrence following from. The second result is false
// only when spec.Type is not recognized.
func Next(spec Spec, from time.Time) (time.Time, bool) {
	n := spec.interval()

	switch spec.Type {
	case Daily:
		return from.AddDate(0, 0, n), true
	case Weekly:
		return nextWeekly(spec, from, n), true
	case Monthly:
		return nextMonthly(spec, from, n), true
	case Yearly:
		return nextYearly(spec, from, n), true
	default:
		return time.Time{}, false
	}
}

func nextWeekly(spec Spec, from time.Time, n int) time.Time {
	days := spec.days()
	if len(days) == 0 {
		return from.AddDate(0, 0, 7*n)
	}

	cur := int(from.Weekday())
	for _, d := range days {
		if int(d) > cur {
			return from.AddDate(0, 0, int(d)-cur)
		}
	}
	return from.AddDate(0, 0, 7*n-cur+int(days[0]))
}

func nextMonthly(spec Spec, from time.Time, n int) time.Time {
	year, month := addMonths(from, n)

	switch {
	case spec.hasMonthDay():
		return on(from, year, month, min(spec.ByMonthDay, daysIn(year, month)))
	case spec.ByWeekDay.valid():
		// No clamping: a fifth weekday that does not exist rolls into the
		// following month.
		return on(from, year, month, nthWeekday(year, month, *spec.ByWeekDay))
	default:
		return on(from, year, month, min(from.Day(), daysIn(year, month)))
	}
}

func nextYearly(spec Spec, from time.Time, n int) time.Time {
	year, month := from.Year()+n, from.Month()

	if months := spec.months(); len(months) > 0 {
		cur := int(from.Month()) - 1
		month = time.Month(months[0] + 1)
		for _, m := range months {
			if m > cur {
				year, month = from.Year(), time.Month(m+1)
				break
			}
		}
	}

	return on(from, year, month, min(from.Day(), daysIn(year, month)))
}

// Occurrences yields start followed by every subsequent occurrence, honoring
// spec.EndDate and spec.Count. Without either bound the sequence is
// unbounded; callers must stop ranging. Each call restarts from start.
func Occurrences(spec Spec, start time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if !spec.Type.IsValid() {
			return
		}

		cur := start
		for i := 0; spec.Count <= 0 || i < spec.Count; i++ {
			if spec.pastEnd(cur) || !yield(cur) {
				return
			}

			next, ok := Next(spec, cur)
			if !ok {
				return
			}
			cur = next
		}
	}
}

// Generate returns up to maxCount occurrences starting with start itself.
// A maxCount of zero or less means DefaultMaxCount.
func Generate(spec Spec, start time.Time, maxCount int) []time.Time {
	return collect(Occurrences(spec, start), maxCount, nil)
}

// InRange is Generate that also stops at the first occurrence after rangeEnd.
func InRange(spec Spec, start, rangeEnd time.Time, maxCount int) []time.Time {
	return collect(Occurrences(spec, start), maxCount, func(t time.Time) bool {
		return t.After(rangeEnd)
	})
}

func collect(seq iter.Seq[time.Time], maxCount int, stop func(time.Time) bool) []time.Time {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}

	var out []time.Time
	for t := range seq {
		if stop != nil && stop(t) {
			break
		}
		out = append(out, t)
		if len(out) >= maxCount {
			break
		}
	}
	return out
}
