package store

import (
	"fmt"
	"strings"
	"time"
)

// Period is a named date range used to bound queries.
type Period int

const (
	PeriodToday Period = iota
	PeriodWeek
	PeriodMonth
	PeriodAll
)

var Periods = []Period{PeriodToday, PeriodWeek, PeriodMonth, PeriodAll}

func (p Period) String() string {
	switch p {
	case PeriodToday:
		return "today"
	case PeriodWeek:
		return "week"
	case PeriodMonth:
		return "month"
	case PeriodAll:
		return "all"
	}
	return fmt.Sprintf("period(%d)", int(p))
}

func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown period %q (want today, week, month or all)", s)
}

// Range resolves p to a half-open [from, to) range ending at now. Timestamps
// are stored in whole seconds, so to is the start of the second after now.
func (p Period) Range(now time.Time) (from, to time.Time) {
	to = now.Truncate(time.Second).Add(time.Second)
	switch p {
	case PeriodToday:
		from = StartOfDay(now)
	case PeriodWeek:
		from = now.AddDate(0, 0, -7)
	case PeriodMonth:
		from = monthBefore(now)
	default:
		from = time.Unix(0, 0)
	}
	return from, to
}

// monthBefore returns the same clock time one calendar month earlier. The day
// is clamped to the length of the previous month, so Mar 31 maps to Feb 29
// (or 28) rather than overflowing into March.
func monthBefore(t time.Time) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m-1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(d, last)-1)
}

// StartOfDay returns local midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
