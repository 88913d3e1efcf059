// Package streak counts consecutive days on which both doses were taken.
package streak

import (
	"sort"
	"time"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/models"
)

func completeDays(records []models.DoseRecord, cal calendar.Calendar) map[string]bool {
	done := make(map[string]bool, len(records))
	for i := range records {
		if records[i].Complete() {
			done[cal.DayKey(records[i].Day)] = true
		}
	}
	return done
}

// Calculate returns the current streak as of today.
//
// Today counts only when complete; an incomplete today does not break a run
// that ends yesterday. Walking back from yesterday stops at the first day
// that is missing or partial.
func Calculate(records []models.DoseRecord, today time.Time, cal calendar.Calendar) int {
	if len(records) == 0 {
		return 0
	}
	done := completeDays(records, cal)

	count := 0
	if done[cal.DayKey(today)] {
		count = 1
	}
	for day := cal.AddDays(today, -1); done[cal.DayKey(day)]; day = cal.AddDays(day, -1) {
		count++
	}
	return count
}

// Longest returns the longest run of complete days anywhere in records.
func Longest(records []models.DoseRecord, cal calendar.Calendar) int {
	done := completeDays(records, cal)
	if len(done) == 0 {
		return 0
	}

	days := make([]time.Time, 0, len(done))
	for key := range done {
		day, err := cal.ParseDayKey(key)
		if err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if cal.SameDay(cal.AddDays(days[i-1], 1), days[i]) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
