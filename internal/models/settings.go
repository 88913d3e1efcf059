package models

// Settings represents application-wide settings
type Settings struct {
	NotificationsEnabled bool   `json:"notifications_enabled"` // whether reminders are scheduled
	MorningHour          int    `json:"morning_reminder_hour"`
	MorningMinute        int    `json:"morning_reminder_minute"`
	EveningHour          int    `json:"evening_reminder_hour"`
	EveningMinute        int    `json:"evening_reminder_minute"`
	HistoryLocked        bool   `json:"history_locked"`   // whether edits to past days need an unlock
	Timezone             string `json:"timezone"`         // IANA timezone name, or "Local" for system timezone
	FirstWeekday         int    `json:"first_weekday"`    // 0=Sunday ... 6=Saturday
	NotifierBackend      string `json:"notifier_backend"` // "tray" or "sns"
	SNSTopicARN          string `json:"sns_topic_arn,omitempty"`
}

// ReminderTime returns the configured hour and minute for a period.
func (s Settings) ReminderTime(p Period) (int, int) {
	if p == PeriodMorning {
		return s.MorningHour, s.MorningMinute
	}
	return s.EveningHour, s.EveningMinute
}

// SetReminderTime writes the configured hour and minute for a period.
func (s *Settings) SetReminderTime(p Period, hour, minute int) {
	if p == PeriodMorning {
		s.MorningHour, s.MorningMinute = hour, minute
	} else {
		s.EveningHour, s.EveningMinute = hour, minute
	}
}
