package constants

import "time"

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "pills"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/pills/pills.db"
	Version            = "v0.3.0"

	// DateFormat is the day key format used for records and reminder identifiers (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// MonthFormat is used by the calendar views (YYYY-MM)
	MonthFormat = "2006-01"

	// Reminder constants
	ReminderWindowDays  = 7
	ReminderTitle       = "Pills"
	MorningReminderBody = "Remember to take pills this morning"
	EveningReminderBody = "Remember to take pills this evening"

	// History lock
	RelockAfter   = 600 * time.Second
	UnlockMessage = "Unlock editing for past days? It will relock after 10 minutes."

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "pills-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "pills-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.pills"
	TrayExecutablePrefix   = "pills-tray"

	// Notifier backends
	NotifierTray = "tray"
	NotifierSNS  = "sns"

	// Watch loop
	DefaultWatchInterval = time.Minute

	// Environment variables
	EnvDBConnection   = "PILLS_DB_CONNECTION"
	EnvSNSTopicARN    = "PILLS_SNS_TOPIC_ARN"
	EnvBackupBucket   = "PILLS_BACKUP_BUCKET"
	EnvBackupRegion   = "PILLS_BACKUP_REGION"
	EnvBackupPrefix   = "PILLS_BACKUP_PREFIX"
	EnvBackupEndpoint = "PILLS_BACKUP_ENDPOINT"
	EnvAWSRegion      = "AWS_REGION"
	DefaultAWSRegion  = "us-east-1"
)

// Session States
const (
	StateCalendar SessionState = iota
	StateSettings
	StateConfirmUnlock
	StateEditSettings
)
