package constants

const (
	// Reminder Settings
	SettingNotificationsEnabled = "notifications_enabled"
	SettingMorningHour          = "morning_reminder_hour"
	SettingMorningMinute        = "morning_reminder_minute"
	SettingEveningHour          = "evening_reminder_hour"
	SettingEveningMinute        = "evening_reminder_minute"
	SettingNotifierBackend      = "notifier_backend"
	SettingSNSTopicARN          = "sns_topic_arn"

	// History Settings
	SettingHistoryLocked = "history_locked"

	// Calendar Settings
	SettingTimezone     = "timezone"
	SettingFirstWeekday = "first_weekday"

	// Default Settings Values
	DefaultNotificationsEnabled = false
	DefaultMorningHour          = 7
	DefaultMorningMinute        = 0
	DefaultEveningHour          = 21
	DefaultEveningMinute        = 0
	DefaultHistoryLocked        = true
	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultFirstWeekday         = 0       // Sunday
	DefaultNotifierBackend      = NotifierTray
)
