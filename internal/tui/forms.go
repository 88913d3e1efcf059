package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/models"
)

func (m *Model) newUnlockForm() *huh.Form {
	m.confirmed = new(bool)
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Unlock history").
				Description(constants.UnlockMessage).
				Affirmative("Unlock").
				Negative("Cancel").
				Value(m.confirmed),
		),
	)
}

func validateTime(s string) error {
	_, _, err := calendar.ParseTimeOfDay(strings.TrimSpace(s))
	return err
}

func validateTimezone(s string) error {
	if !calendar.ValidateTimezone(strings.TrimSpace(s)) {
		return fmt.Errorf("unknown timezone %q", s)
	}
	return nil
}

func (m *Model) newSettingsForm() *huh.Form {
	s := m.tracker.Settings()
	m.settingsForm = &SettingsFormModel{
		NotificationsEnabled: s.NotificationsEnabled,
		Morning:              calendar.FormatTimeOfDay(s.MorningHour, s.MorningMinute),
		Evening:              calendar.FormatTimeOfDay(s.EveningHour, s.EveningMinute),
		HistoryLocked:        s.HistoryLocked,
		Timezone:             s.Timezone,
		FirstWeekday:         s.FirstWeekday,
		NotifierBackend:      s.NotifierBackend,
		SNSTopicARN:          s.SNSTopicARN,
	}
	f := m.settingsForm

	weekdays := make([]huh.Option[int], 7)
	for i := range weekdays {
		weekdays[i] = huh.NewOption(time.Weekday(i).String(), i)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Reminders").
				Affirmative("On").
				Negative("Off").
				Value(&f.NotificationsEnabled),
			huh.NewInput().
				Title("Morning reminder (HH:MM)").
				Value(&f.Morning).
				Validate(validateTime),
			huh.NewInput().
				Title("Evening reminder (HH:MM)").
				Value(&f.Evening).
				Validate(validateTime),
			huh.NewSelect[string]().
				Title("Notifier").
				Options(
					huh.NewOption("Tray app", constants.NotifierTray),
					huh.NewOption("AWS SNS", constants.NotifierSNS),
				).
				Value(&f.NotifierBackend),
			huh.NewInput().
				Title("SNS topic ARN").
				Description("Only used by the SNS notifier").
				Value(&f.SNSTopicARN),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Lock past days").
				Affirmative("On").
				Negative("Off").
				Value(&f.HistoryLocked),
			huh.NewInput().
				Title("Timezone").
				Description("IANA name, or Local").
				Value(&f.Timezone).
				Validate(validateTimezone),
			huh.NewSelect[int]().
				Title("Week starts on").
				Options(weekdays...).
				Value(&f.FirstWeekday),
		),
	)
}

// toSettings applies the form on top of current.
func (f *SettingsFormModel) toSettings(current models.Settings) (models.Settings, error) {
	next := current
	next.NotificationsEnabled = f.NotificationsEnabled
	next.HistoryLocked = f.HistoryLocked
	next.Timezone = strings.TrimSpace(f.Timezone)
	next.FirstWeekday = f.FirstWeekday
	next.NotifierBackend = f.NotifierBackend
	next.SNSTopicARN = strings.TrimSpace(f.SNSTopicARN)

	mh, mm, err := calendar.ParseTimeOfDay(strings.TrimSpace(f.Morning))
	if err != nil {
		return current, fmt.Errorf("morning reminder: %w", err)
	}
	eh, em, err := calendar.ParseTimeOfDay(strings.TrimSpace(f.Evening))
	if err != nil {
		return current, fmt.Errorf("evening reminder: %w", err)
	}
	next.SetReminderTime(models.PeriodMorning, mh, mm)
	next.SetReminderTime(models.PeriodEvening, eh, em)

	if err := next.Validate(); err != nil {
		return current, err
	}
	return next, nil
}
