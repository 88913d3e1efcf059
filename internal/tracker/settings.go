package tracker

import (
	"context"
	"fmt"

	"github.com/julianstephens/pills/internal/logger"
	"github.com/julianstephens/pills/internal/models"
)

func (t *Tracker) saveSettings(next models.Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	if err := t.settingsStore.SaveSettings(next); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	t.settings = next
	return nil
}

// SetNotificationsEnabled turns reminders on or off.
//
// Turning them on checks notification permission first. An undetermined
// permission is requested. If permission is denied the setting is stored
// off and ErrPermissionDenied is returned. Any change reschedules.
func (t *Tracker) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	next := t.settings
	next.NotificationsEnabled = enabled

	if enabled && t.permission != nil {
		granted, err := t.ensurePermission(ctx)
		if err != nil {
			return err
		}
		if !granted {
			next.NotificationsEnabled = false
			if err := t.saveSettings(next); err != nil {
				return err
			}
			t.reschedule(ctx)
			return ErrPermissionDenied
		}
	}

	if err := t.saveSettings(next); err != nil {
		return err
	}
	logger.Info("Reminders setting changed", "enabled", next.NotificationsEnabled)
	t.reschedule(ctx)
	return nil
}

func (t *Tracker) ensurePermission(ctx context.Context) (bool, error) {
	switch status := t.permission.Permission(ctx); status {
	case models.PermissionNotDetermined:
		granted, err := t.permission.RequestPermission(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to request notification permission: %w", err)
		}
		return granted, nil
	case models.PermissionDenied:
		return false, nil
	default:
		return status.Allowed(), nil
	}
}

// SetReminderTime changes the fire time of a period and reschedules.
func (t *Tracker) SetReminderTime(ctx context.Context, period models.Period, hour, minute int) error {
	next := t.settings
	next.SetReminderTime(period, hour, minute)
	if err := t.saveSettings(next); err != nil {
		return err
	}
	logger.Info("Reminder time changed", "period", period, "hour", hour, "minute", minute)
	t.reschedule(ctx)
	return nil
}

// SetHistoryLocked turns the past-day lock on or off. Turning it on also
// relocks immediately.
func (t *Tracker) SetHistoryLocked(locked bool) error {
	next := t.settings
	next.HistoryLocked = locked
	if err := t.saveSettings(next); err != nil {
		return err
	}
	if locked {
		return t.lock.Relock()
	}
	return nil
}

// SetNotifier selects the delivery backend. Reminders keep their schedule.
func (t *Tracker) SetNotifier(backend, topicARN string) error {
	next := t.settings
	next.NotifierBackend = backend
	next.SNSTopicARN = topicARN
	return t.saveSettings(next)
}

// UpdateSettings validates and stores a full settings value, then
// reschedules. Calendar changes (timezone, first weekday) take effect for
// trackers created afterwards.
func (t *Tracker) UpdateSettings(ctx context.Context, next models.Settings) error {
	prev := t.settings
	enabling := next.NotificationsEnabled && !prev.NotificationsEnabled
	if enabling {
		// the permission flow decides whether this sticks
		next.NotificationsEnabled = false
	}

	if err := t.saveSettings(next); err != nil {
		return err
	}
	if next.HistoryLocked && !prev.HistoryLocked {
		if err := t.lock.Relock(); err != nil {
			return err
		}
	}

	if enabling {
		return t.SetNotificationsEnabled(ctx, true)
	}
	t.reschedule(ctx)
	return nil
}
