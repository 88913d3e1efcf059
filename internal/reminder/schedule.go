// Package reminder decides which dose reminders should be pending, keeps the
// notification sink in step with that decision, and fires reminders when
// they come due.
package reminder

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/logger"
	"github.com/julianstephens/pills/internal/models"
)

// Config is the subset of settings that shapes the schedule.
type Config struct {
	Enabled       bool
	MorningHour   int
	MorningMinute int
	EveningHour   int
	EveningMinute int
}

// ConfigFromSettings extracts the schedule configuration from settings.
func ConfigFromSettings(s models.Settings) Config {
	return Config{
		Enabled:       s.NotificationsEnabled,
		MorningHour:   s.MorningHour,
		MorningMinute: s.MorningMinute,
		EveningHour:   s.EveningHour,
		EveningMinute: s.EveningMinute,
	}
}

func (c Config) timeFor(p models.Period) (int, int) {
	if p == models.PeriodMorning {
		return c.MorningHour, c.MorningMinute
	}
	return c.EveningHour, c.EveningMinute
}

// Body returns the fixed reminder text for a period.
func Body(p models.Period) string {
	if p == models.PeriodMorning {
		return constants.MorningReminderBody
	}
	return constants.EveningReminderBody
}

// BuildSchedule returns the reminders that should be pending at ref.
//
// The window is the seven calendar days starting with the day containing
// ref. A period is included when its dose is not taken and its fire time
// is strictly after ref. Nothing is returned when reminders are disabled.
func BuildSchedule(cfg Config, records []models.DoseRecord, ref time.Time, cal calendar.Calendar) []models.Reminder {
	if !cfg.Enabled {
		return nil
	}

	byDay := indexByDay(records, cal)
	var out []models.Reminder
	for _, day := range windowDays(ref, cal) {
		key := cal.DayKey(day)
		rec := byDay[key]
		for _, p := range models.Periods {
			if p.Taken(rec) {
				continue
			}
			hour, minute := cfg.timeFor(p)
			if !cal.At(day, hour, minute).After(ref) {
				continue
			}
			out = append(out, models.Reminder{
				Period: p,
				DayKey: key,
				Hour:   hour,
				Minute: minute,
				Body:   Body(p),
			})
		}
	}
	return out
}

// windowDays expands a daily recurrence over the reminder window, anchored
// at the start of ref's day.
func windowDays(ref time.Time, cal calendar.Calendar) []time.Time {
	start := cal.StartOfDay(ref)
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   constants.ReminderWindowDays,
		Dtstart: start,
	})
	if err != nil {
		logger.Warn("Failed to build reminder window recurrence, stepping days", "error", err)
		days := make([]time.Time, 0, constants.ReminderWindowDays)
		for i := 0; i < constants.ReminderWindowDays; i++ {
			days = append(days, cal.AddDays(start, i))
		}
		return days
	}

	occurrences := r.All()
	days := make([]time.Time, 0, len(occurrences))
	for _, occ := range occurrences {
		days = append(days, cal.StartOfDay(occ))
	}
	return days
}

func indexByDay(records []models.DoseRecord, cal calendar.Calendar) map[string]*models.DoseRecord {
	byDay := make(map[string]*models.DoseRecord, len(records))
	for i := range records {
		byDay[cal.DayKey(records[i].Day)] = &records[i]
	}
	return byDay
}

// NotificationIdentifier returns the identifier BuildSchedule gives the
// reminder for period on the day containing day.
func NotificationIdentifier(period models.Period, day time.Time, cal calendar.Calendar) string {
	return models.ReminderIdentifier(period, cal.DayKey(day))
}

// ShouldSuppressForegroundNotification reports whether a reminder that is
// firing at ref should be hidden because its dose is already taken.
// Identifiers starting with "morning-" are morning reminders; anything else
// is treated as evening.
func ShouldSuppressForegroundNotification(identifier string, records []models.DoseRecord, ref time.Time, cal calendar.Calendar) bool {
	period := models.PeriodEvening
	if strings.HasPrefix(identifier, string(models.PeriodMorning)+"-") {
		period = models.PeriodMorning
	}

	rec := indexByDay(records, cal)[cal.DayKey(ref)]
	return rec != nil && period.Taken(rec)
}

// ToPending attaches absolute fire instants to reminders.
func ToPending(reminders []models.Reminder, cal calendar.Calendar) []models.PendingReminder {
	out := make([]models.PendingReminder, 0, len(reminders))
	for _, r := range reminders {
		day, err := cal.ParseDayKey(r.DayKey)
		if err != nil {
			logger.Warn("Skipping reminder with bad day key", "identifier", r.Identifier(), "error", err)
			continue
		}
		out = append(out, models.PendingReminder{
			Identifier: r.Identifier(),
			Reminder:   r,
			FireAt:     cal.At(day, r.Hour, r.Minute),
		})
	}
	return out
}
