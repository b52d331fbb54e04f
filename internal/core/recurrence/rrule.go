package recurrence

import (
	"fmt"
	"strconv"
	"strings"
)

var icsWeekdays = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// RRule renders spec as an iCalendar (RFC 5545) RRULE value, without the
// "RRULE:" prefix. Returns an empty string for unknown types.
func RRule(spec Spec) string {
	if !spec.Type.IsValid() {
		return ""
	}

	parts := []string{
		"FREQ=" + strings.ToUpper(string(spec.Type)),
		"INTERVAL=" + strconv.Itoa(spec.interval()),
	}

	switch spec.Type {
	case Weekly:
		if days := spec.days(); len(days) > 0 {
			codes := make([]string, len(days))
			for i, d := range days {
				codes[i] = icsWeekdays[d]
			}
			parts = append(parts, "BYDAY="+strings.Join(codes, ","))
		}
	case Monthly:
		switch {
		case spec.hasMonthDay():
			parts = append(parts, "BYMONTHDAY="+strconv.Itoa(spec.ByMonthDay))
		case spec.ByWeekDay.valid():
			parts = append(parts, fmt.Sprintf("BYDAY=%d%s", spec.ByWeekDay.Week, icsWeekdays[spec.ByWeekDay.Day]))
		}
	case Yearly:
		if months := spec.months(); len(months) > 0 {
			nums := make([]string, len(months))
			for i, m := range months {
				nums[i] = strconv.Itoa(m + 1)
			}
			parts = append(parts, "BYMONTH="+strings.Join(nums, ","))
		}
	}

	if spec.EndDate != nil {
		parts = append(parts, "UNTIL="+spec.EndDate.Format("20060102"))
	}
	if spec.Count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(spec.Count))
	}

	return strings.Join(parts, ";")
}
