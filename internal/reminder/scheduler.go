package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/logger"
	"github.com/julianstephens/pills/internal/metrics"
	"github.com/julianstephens/pills/internal/models"
)

// Sink holds pending reminders until they fire.
type Sink interface {
	SchedulePending(ctx context.Context, reminders []models.PendingReminder) error
	CancelPending(ctx context.Context, identifiers []string) error
	RemoveAllPending(ctx context.Context) error
	// RemoveScheduled removes delivered reminders and those firing after
	// the given time, keeping undelivered ones that are already due.
	RemoveScheduled(ctx context.Context, after time.Time) error
}

// PermissionChecker reports and requests permission to show notifications.
type PermissionChecker interface {
	Permission(ctx context.Context) models.PermissionStatus
	// RequestPermission asks for permission and reports whether it was granted.
	RequestPermission(ctx context.Context) (bool, error)
}

// RecordSource reads every dose record.
type RecordSource interface {
	GetAllRecords() ([]models.DoseRecord, error)
}

// Scheduler keeps the sink's pending reminders equal to BuildSchedule's
// output for the current time. There is no diffing: each Reschedule clears
// the sink and writes the whole window again. Reminders that are due but
// not yet delivered survive a reschedule so the dispatcher still sends them.
type Scheduler struct {
	sink       Sink
	records    RecordSource
	permission PermissionChecker
	clock      calendar.Clock
	cal        calendar.Calendar
}

// NewScheduler creates a scheduler. permission may be nil, in which case
// delivery is assumed to be allowed.
func NewScheduler(sink Sink, records RecordSource, permission PermissionChecker, clock calendar.Clock, cal calendar.Calendar) *Scheduler {
	return &Scheduler{
		sink:       sink,
		records:    records,
		permission: permission,
		clock:      clock,
		cal:        cal,
	}
}

// Reschedule replaces the pending reminders with a freshly built schedule
// and returns how many were scheduled. With reminders disabled or
// permission missing every pending reminder is removed, due ones included.
//
// A failure to read records is logged and the schedule is built as if no
// dose had been taken.
func (s *Scheduler) Reschedule(ctx context.Context, cfg Config) (int, error) {
	metrics.Reschedules.Inc()

	if !s.allowed(ctx, cfg) {
		if err := s.sink.RemoveAllPending(ctx); err != nil {
			return 0, fmt.Errorf("failed to clear pending reminders: %w", err)
		}
		metrics.PendingReminders.Set(0)
		return 0, nil
	}

	now := s.clock.Now()
	if err := s.sink.RemoveScheduled(ctx, now); err != nil {
		return 0, fmt.Errorf("failed to clear pending reminders: %w", err)
	}
	metrics.PendingReminders.Set(0)

	records, err := s.records.GetAllRecords()
	if err != nil {
		logger.Warn("Failed to read dose records, scheduling all reminders", "error", err)
		records = nil
	}

	pending := ToPending(BuildSchedule(cfg, records, now, s.cal), s.cal)
	if len(pending) == 0 {
		return 0, nil
	}
	if err := s.sink.SchedulePending(ctx, pending); err != nil {
		return 0, fmt.Errorf("failed to schedule reminders: %w", err)
	}

	metrics.RemindersScheduled.Add(float64(len(pending)))
	metrics.PendingReminders.Set(float64(len(pending)))
	logger.Debug("Reminders rescheduled", "count", len(pending), "from", now)
	return len(pending), nil
}

func (s *Scheduler) allowed(ctx context.Context, cfg Config) bool {
	if !cfg.Enabled {
		logger.Debug("Reminders disabled, nothing scheduled")
		return false
	}
	if s.permission != nil {
		if status := s.permission.Permission(ctx); !status.Allowed() {
			logger.Info("Notification permission not granted, nothing scheduled", "status", status)
			return false
		}
	}
	return true
}

// CancelToday removes today's pending reminder for period.
func (s *Scheduler) CancelToday(ctx context.Context, period models.Period) error {
	id := NotificationIdentifier(period, s.clock.Now(), s.cal)
	if err := s.sink.CancelPending(ctx, []string{id}); err != nil {
		return fmt.Errorf("failed to cancel reminder %s: %w", id, err)
	}
	logger.Debug("Cancelled reminder", "identifier", id)
	return nil
}
