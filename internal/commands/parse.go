package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/colonyops/tally/internal/core/recurrence"
	"github.com/urfave/cli/v3"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTime accepts an absolute local time, a bare HH:MM for today, or a
// "+duration" offset from now.
func parseTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)

	if rest, ok := strings.CutPrefix(s, "+"); ok {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid offset %q: %w", s, err)
		}
		return now.Add(d), nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	if t, err := time.ParseInLocation("15:04", s, time.Local); err == nil {
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.Local), nil
	}

	return time.Time{}, fmt.Errorf("invalid time %q (use YYYY-MM-DD[ HH:MM], HH:MM, RFC3339 or +duration)", s)
}

// parseOptionalTime is parseTime for flags that may be unset.
func parseOptionalTime(s string, now time.Time) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s, now)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if d, ok := weekdayNames[s]; ok {
		return d, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 6 {
		return 0, fmt.Errorf("invalid weekday %q (use mon..sun or 0-6)", s)
	}
	return time.Weekday(n), nil
}

// parseWeekdays parses a comma-separated weekday list such as "mon,wed,fri".
func parseWeekdays(s string) ([]time.Weekday, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []time.Weekday
	for part := range strings.SplitSeq(s, ",") {
		d, err := parseWeekday(part)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// parseWeekDay parses "<week>:<day>", e.g. "2:tue" for the second Tuesday.
func parseWeekDay(s string) (*recurrence.WeekDay, error) {
	if s == "" {
		return nil, nil
	}
	weekStr, dayStr, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("invalid week day %q (use <week>:<day>, e.g. 2:tue)", s)
	}
	week, err := strconv.Atoi(strings.TrimSpace(weekStr))
	if err != nil {
		return nil, fmt.Errorf("invalid week in %q: %w", s, err)
	}
	day, err := parseWeekday(dayStr)
	if err != nil {
		return nil, err
	}
	return &recurrence.WeekDay{Week: week, Day: day}, nil
}

var monthNames = map[string]int{
	"jan": 0, "feb": 1, "mar": 2, "apr": 3, "may": 4, "jun": 5,
	"jul": 6, "aug": 7, "sep": 8, "oct": 9, "nov": 10, "dec": 11,
}

// parseMonths parses a comma-separated month list of names or 1-12 numbers
// into zero-based months.
func parseMonths(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for part := range strings.SplitSeq(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if m, ok := monthNames[part]; ok {
			out = append(out, m)
			continue
		}
		if len(part) > 3 {
			if m, ok := monthNames[part[:3]]; ok {
				out = append(out, m)
				continue
			}
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 12 {
			return nil, fmt.Errorf("invalid month %q (use jan..dec or 1-12)", part)
		}
		out = append(out, n-1)
	}
	return out, nil
}

// recurFlags binds the recurrence flags shared by task create and recur preview.
type recurFlags struct {
	kind     string
	interval int
	days     string
	monthDay int
	weekDay  string
	months   string
	until    string
	count    int
}

func (f *recurFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "recur",
			Usage:       "recurrence type (daily, weekly, monthly, yearly)",
			Destination: &f.kind,
		},
		&cli.IntFlag{
			Name:        "interval",
			Usage:       "repeat every N periods",
			Value:       1,
			Destination: &f.interval,
		},
		&cli.StringFlag{
			Name:        "days",
			Usage:       "weekly: comma-separated weekdays (mon,wed,fri)",
			Destination: &f.days,
		},
		&cli.IntFlag{
			Name:        "month-day",
			Usage:       "monthly: day of month (1-31, clamped to month length)",
			Destination: &f.monthDay,
		},
		&cli.StringFlag{
			Name:        "week-day",
			Usage:       "monthly: nth weekday as <week>:<day> (e.g. 2:tue)",
			Destination: &f.weekDay,
		},
		&cli.StringFlag{
			Name:        "months",
			Usage:       "yearly: comma-separated months (jan,jul or 1,7)",
			Destination: &f.months,
		},
		&cli.StringFlag{
			Name:        "until",
			Usage:       "last day of the series (inclusive)",
			Destination: &f.until,
		},
		&cli.IntFlag{
			Name:        "count",
			Usage:       "total number of occurrences",
			Destination: &f.count,
		},
	}
}

// spec builds the recurrence spec, or nil when --recur is unset. The result
// is validated so nonsense input is rejected before the forgiving engine
// sees it.
func (f *recurFlags) spec(now time.Time) (*recurrence.Spec, error) {
	if f.kind == "" {
		return nil, nil
	}

	days, err := parseWeekdays(f.days)
	if err != nil {
		return nil, err
	}
	weekDay, err := parseWeekDay(f.weekDay)
	if err != nil {
		return nil, err
	}
	months, err := parseMonths(f.months)
	if err != nil {
		return nil, err
	}
	until, err := parseOptionalTime(f.until, now)
	if err != nil {
		return nil, err
	}

	spec := &recurrence.Spec{
		Type:       recurrence.Type(strings.ToLower(f.kind)),
		Interval:   f.interval,
		DaysOfWeek: days,
		ByMonthDay: f.monthDay,
		ByWeekDay:  weekDay,
		ByMonth:    months,
		EndDate:    until,
		Count:      f.count,
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recurrence: %w", err)
	}
	return spec, nil
}
