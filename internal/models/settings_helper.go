package models

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/constants"
)

// DefaultSettings returns the settings a fresh store is initialized with.
func DefaultSettings() Settings {
	return Settings{
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
		MorningHour:          constants.DefaultMorningHour,
		MorningMinute:        constants.DefaultMorningMinute,
		EveningHour:          constants.DefaultEveningHour,
		EveningMinute:        constants.DefaultEveningMinute,
		HistoryLocked:        constants.DefaultHistoryLocked,
		Timezone:             constants.DefaultTimezone,
		FirstWeekday:         constants.DefaultFirstWeekday,
		NotifierBackend:      constants.DefaultNotifierBackend,
	}
}

// MapToSettings converts a map of key-value pairs to a Settings struct.
// Keys missing from data keep their default values.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := DefaultSettings()

	parseInt := func(key, value string, dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	for key, value := range data {
		var err error
		switch key {
		case constants.SettingNotificationsEnabled:
			settings.NotificationsEnabled = value == "true"
		case constants.SettingMorningHour:
			err = parseInt(key, value, &settings.MorningHour)
		case constants.SettingMorningMinute:
			err = parseInt(key, value, &settings.MorningMinute)
		case constants.SettingEveningHour:
			err = parseInt(key, value, &settings.EveningHour)
		case constants.SettingEveningMinute:
			err = parseInt(key, value, &settings.EveningMinute)
		case constants.SettingHistoryLocked:
			settings.HistoryLocked = value == "true"
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingFirstWeekday:
			err = parseInt(key, value, &settings.FirstWeekday)
		case constants.SettingNotifierBackend:
			settings.NotifierBackend = value
		case constants.SettingSNSTopicARN:
			settings.SNSTopicARN = value
		}
		if err != nil {
			return Settings{}, err
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingNotificationsEnabled: strconv.FormatBool(settings.NotificationsEnabled),
		constants.SettingMorningHour:          strconv.Itoa(settings.MorningHour),
		constants.SettingMorningMinute:        strconv.Itoa(settings.MorningMinute),
		constants.SettingEveningHour:          strconv.Itoa(settings.EveningHour),
		constants.SettingEveningMinute:        strconv.Itoa(settings.EveningMinute),
		constants.SettingHistoryLocked:        strconv.FormatBool(settings.HistoryLocked),
		constants.SettingTimezone:             settings.Timezone,
		constants.SettingFirstWeekday:         strconv.Itoa(settings.FirstWeekday),
		constants.SettingNotifierBackend:      settings.NotifierBackend,
		constants.SettingSNSTopicARN:          settings.SNSTopicARN,
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.NotifierBackend == "" {
		settings.NotifierBackend = constants.DefaultNotifierBackend
	}
}

// Validate checks reminder times, timezone, weekday and backend.
func (s Settings) Validate() error {
	for _, p := range Periods {
		h, m := s.ReminderTime(p)
		if h < 0 || h > 23 {
			return fmt.Errorf("%s reminder hour %d out of range (0-23)", p, h)
		}
		if m < 0 || m > 59 {
			return fmt.Errorf("%s reminder minute %d out of range (0-59)", p, m)
		}
	}
	if !calendar.ValidateTimezone(s.Timezone) {
		return fmt.Errorf("invalid timezone %q", s.Timezone)
	}
	if s.FirstWeekday < 0 || s.FirstWeekday > 6 {
		return fmt.Errorf("first weekday %d out of range (0-6)", s.FirstWeekday)
	}
	switch s.NotifierBackend {
	case constants.NotifierTray:
	case constants.NotifierSNS:
		if s.SNSTopicARN == "" {
			return fmt.Errorf("sns notifier requires a topic ARN")
		}
	default:
		return fmt.Errorf("unknown notifier backend %q (must be tray or sns)", s.NotifierBackend)
	}
	return nil
}

// Calendar builds the calendar described by the timezone and first weekday
// settings, falling back to the system timezone when it cannot be loaded.
func (s Settings) Calendar() calendar.Calendar {
	loc, err := calendar.LoadLocation(s.Timezone)
	if err != nil {
		loc = nil
	}
	return calendar.New(loc, timeWeekday(s.FirstWeekday))
}
