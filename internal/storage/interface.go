package storage

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/pills/internal/models"
)

// ErrNotInitialized is returned by Load when the database does not exist yet.
var ErrNotInitialized = errors.New("storage not initialized, run 'pills init' first")

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Dose records. Day is returned as midnight UTC of the stored calendar
	// date; callers re-base it onto their own calendar.
	InsertRecord(models.DoseRecord) error
	UpdateRecord(models.DoseRecord) error
	GetAllRecords() ([]models.DoseRecord, error)

	// History lock
	GetLockState() (models.LockState, error)
	SaveLockState(models.LockState) error

	// Pending reminders
	SchedulePending(ctx context.Context, reminders []models.PendingReminder) error
	CancelPending(ctx context.Context, identifiers []string) error
	RemoveAllPending(ctx context.Context) error
	RemoveScheduled(ctx context.Context, after time.Time) error
	GetPendingReminders(ctx context.Context) ([]models.PendingReminder, error)
	MarkReminderDelivered(ctx context.Context, identifier string, at time.Time) error

	// Utils
	GetConfigPath() string
}
