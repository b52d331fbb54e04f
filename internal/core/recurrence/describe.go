package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Locale selects the phrase table used by Describe.
type Locale string

const (
	English Locale = "en"
	Spanish Locale = "es"
)

// IsValid reports whether l has a phrase table.
func (l Locale) IsValid() bool {
	_, ok := phrasebook[l]
	return ok
}

type phrases struct {
	every    map[Type][2]string // singular, plural with %d
	weekdays [7]string
	months   [12]string
	ordinals [5]string
	onDays   string
	onDay    string
	onNth    string
	inMonths string
	until    string
	dateFmt  string
	times    string
}

var phrasebook = map[Locale]phrases{
	English: {
		every: map[Type][2]string{
			Daily:   {"Every day", "Every %d days"},
			Weekly:  {"Every week", "Every %d weeks"},
			Monthly: {"Every month", "Every %d months"},
			Yearly:  {"Every year", "Every %d years"},
		},
		weekdays: [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		months:   [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		ordinals: [5]string{"first", "second", "third", "fourth", "fifth"},
		onDays:   " on %s",
		onDay:    " on day %d",
		onNth:    " on the %s %s",
		inMonths: " in %s",
		until:    ", until %s",
		dateFmt:  "Jan 2, 2006",
		times:    ", %d times",
	},
	Spanish: {
		every: map[Type][2]string{
			Daily:   {"Cada día", "Cada %d días"},
			Weekly:  {"Cada semana", "Cada %d semanas"},
			Monthly: {"Cada mes", "Cada %d meses"},
			Yearly:  {"Cada año", "Cada %d años"},
		},
		weekdays: [7]string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"},
		months:   [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"},
		ordinals: [5]string{"primer", "segundo", "tercer", "cuarto", "quinto"},
		onDays:   " los %s",
		onDay:    " el día %d",
		onNth:    " el %s %s",
		inMonths: " en %s",
		until:    ", hasta el %s",
		dateFmt:  "02/01/2006",
		times:    ", %d veces",
	},
}

// Describe renders spec as a short human-readable phrase. Unknown locales
// fall back to English; an unknown Type yields an empty string.
func Describe(spec Spec, locale Locale) string {
	p, ok := phrasebook[locale]
	if !ok {
		p = phrasebook[English]
	}

	forms, ok := p.every[spec.Type]
	if !ok {
		return ""
	}

	var b strings.Builder
	if n := spec.interval(); n == 1 {
		b.WriteString(forms[0])
	} else {
		fmt.Fprintf(&b, forms[1], n)
	}

	switch spec.Type {
	case Weekly:
		if days := spec.days(); len(days) > 0 {
			names := make([]string, len(days))
			for i, d := range days {
				names[i] = p.weekdays[d]
			}
			fmt.Fprintf(&b, p.onDays, strings.Join(names, ", "))
		}
	case Monthly:
		switch {
		case spec.hasMonthDay():
			fmt.Fprintf(&b, p.onDay, spec.ByMonthDay)
		case spec.ByWeekDay.valid():
			fmt.Fprintf(&b, p.onNth, p.ordinals[spec.ByWeekDay.Week-1], longWeekday(spec.ByWeekDay.Day, locale))
		}
	case Yearly:
		if months := spec.months(); len(months) > 0 {
			names := make([]string, len(months))
			for i, m := range months {
				names[i] = p.months[m]
			}
			fmt.Fprintf(&b, p.inMonths, strings.Join(names, ", "))
		}
	}

	if spec.EndDate != nil {
		fmt.Fprintf(&b, p.until, spec.EndDate.Format(p.dateFmt))
	}
	if spec.Count > 0 {
		fmt.Fprintf(&b, p.times, spec.Count)
	}

	return b.String()
}

var spanishWeekdays = [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

func longWeekday(d time.Weekday, locale Locale) string {
	if locale == Spanish {
		return spanishWeekdays[d]
	}
	return d.String()
}
