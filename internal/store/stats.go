package store

import (
	"sort"
	"time"
)

// ChartLabelLayout formats ChartData.DayLabel.
const ChartLabelLayout = "Jan 02"

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

// CalculateSummary derives totals, rates and streaks from sessions without
// touching the database. Streak days are bucketed in now's location.
func CalculateSummary(sessions []Session, now time.Time) StatsSummary {
	var s StatsSummary
	s.TotalSessions = len(sessions)

	var focusSecs, allSecs int64
	for _, sess := range sessions {
		allSecs += sess.DurationSeconds
		if sess.Mode == ModeFocus {
			focusSecs += sess.DurationSeconds
		}
		if sess.Completed {
			s.CompletedSessions++
		}
	}

	s.TotalFocusTime = int(focusSecs / 60)
	if s.TotalSessions > 0 {
		s.CompletionRate = float64(s.CompletedSessions) / float64(s.TotalSessions) * 100
		s.AverageSessionLength = float64(allSecs) / float64(s.TotalSessions) / 60
	}

	days := ActiveDays(sessions, now.Location())
	s.CurrentStreak = CurrentStreak(days, now)
	s.BestStreak = BestStreak(days)
	return s
}

// ActiveDays returns the distinct calendar days (midnight in loc) on which a
// session started, oldest first.
func ActiveDays(sessions []Session, loc *time.Location) []time.Time {
	seen := make(map[dayKey]bool)
	var days []time.Time
	for _, s := range sessions {
		day := StartOfDay(s.StartedAt.In(loc))
		k := keyOf(day)
		if seen[k] {
			continue
		}
		seen[k] = true
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// CurrentStreak is 0 unless today is active; otherwise it is today plus the
// unbroken run of active days directly before it.
func CurrentStreak(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}
	active := make(map[dayKey]bool, len(days))
	for _, d := range days {
		active[keyOf(d.In(now.Location()))] = true
	}

	today := StartOfDay(now)
	if !active[keyOf(today)] {
		return 0
	}
	streak := 1
	for d := today.AddDate(0, 0, -1); active[keyOf(d)]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// BestStreak is the longest run of consecutive days in days, which must be
// sorted oldest first.
func BestStreak(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		// AddDate keeps DST days to one calendar step.
		if keyOf(days[i-1].AddDate(0, 0, 1)) == keyOf(days[i]) {
			run++
			continue
		}
		if run > best {
			best = run
		}
		run = 1
	}
	if run > best {
		best = run
	}
	return best
}

// GenerateChartData buckets sessions into one entry per day of period. For
// PeriodAll the range starts at the earliest session's day.
func GenerateChartData(sessions []Session, period Period, now time.Time) []ChartData {
	from, _ := period.Range(now)
	if period == PeriodAll {
		from = StartOfDay(now)
		for _, s := range sessions {
			if started := s.StartedAt.In(now.Location()); started.Before(from) {
				from = started
			}
		}
	}
	return ChartDataBetween(sessions, from, now)
}

// ChartDataBetween returns one zeroed bucket per calendar day from from's day
// through to's day, then accumulates focus minutes (focus sessions only) and
// session counts (every mode) into the day each session started.
func ChartDataBetween(sessions []Session, from, to time.Time) []ChartData {
	loc := to.Location()
	start := StartOfDay(from.In(loc))
	end := StartOfDay(to)

	var buckets []ChartData
	index := make(map[dayKey]int)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		index[keyOf(d)] = len(buckets)
		buckets = append(buckets, ChartData{
			DayLabel: d.Format(ChartLabelLayout),
			Date:     d,
		})
	}

	focusSecs := make([]int64, len(buckets))
	for _, s := range sessions {
		i, ok := index[keyOf(s.StartedAt.In(loc))]
		if !ok {
			continue
		}
		buckets[i].SessionCount++
		if s.Mode == ModeFocus {
			focusSecs[i] += s.DurationSeconds
		}
	}
	for i, secs := range focusSecs {
		buckets[i].FocusMinutes = int(secs / 60)
	}
	return buckets
}
