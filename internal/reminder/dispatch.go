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

// Presenter decides whether a reminder that is firing should be shown.
type Presenter struct {
	records RecordSource
	clock   calendar.Clock
	cal     calendar.Calendar
}

func NewPresenter(records RecordSource, clock calendar.Clock, cal calendar.Calendar) *Presenter {
	return &Presenter{records: records, clock: clock, cal: cal}
}

// ShouldPresent reports whether the reminder with identifier should be shown
// now. If records cannot be read the reminder is suppressed.
func (p *Presenter) ShouldPresent(_ context.Context, identifier string) bool {
	records, err := p.records.GetAllRecords()
	if err != nil {
		logger.Warn("Failed to read dose records, suppressing reminder", "identifier", identifier, "error", err)
		return false
	}
	return !ShouldSuppressForegroundNotification(identifier, records, p.clock.Now(), p.cal)
}

// Deliverer sends a reminder to the user.
type Deliverer interface {
	Name() string
	Deliver(ctx context.Context, r models.PendingReminder) error
}

// DueStore lists pending reminders and records their delivery.
type DueStore interface {
	GetPendingReminders(ctx context.Context) ([]models.PendingReminder, error)
	MarkReminderDelivered(ctx context.Context, identifier string, at time.Time) error
}

// Report summarizes one FireDue pass.
type Report struct {
	Delivered  []string
	Suppressed []string
	Expired    []string
	Failed     []string
}

// Dispatcher fires pending reminders whose time has come.
type Dispatcher struct {
	store     DueStore
	presenter *Presenter
	deliverer Deliverer
	clock     calendar.Clock
	cal       calendar.Calendar
	// DryRun reports what would happen without sending or marking anything.
	DryRun bool
}

func NewDispatcher(store DueStore, presenter *Presenter, deliverer Deliverer, clock calendar.Clock, cal calendar.Calendar) *Dispatcher {
	return &Dispatcher{
		store:     store,
		presenter: presenter,
		deliverer: deliverer,
		clock:     clock,
		cal:       cal,
	}
}

// FireDue handles every undelivered reminder whose fire time is at or
// before now. Reminders for earlier days are expired without being sent.
// Reminders whose dose is already taken are suppressed. Both are marked
// delivered so they are not considered again. A failed delivery stays
// pending and is retried on the next pass.
func (d *Dispatcher) FireDue(ctx context.Context) (Report, error) {
	var report Report

	pending, err := d.store.GetPendingReminders(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to read pending reminders: %w", err)
	}

	now := d.clock.Now()
	for _, pr := range pending {
		if pr.DeliveredAt != nil || pr.FireAt.After(now) {
			continue
		}

		switch {
		case pr.Reminder.DayKey != d.cal.DayKey(now):
			report.Expired = append(report.Expired, pr.Identifier)
			metrics.RemindersSkipped.WithLabelValues(metrics.ReasonExpired).Inc()
			d.markDelivered(ctx, pr.Identifier, now)

		case !d.presenter.ShouldPresent(ctx, pr.Identifier):
			report.Suppressed = append(report.Suppressed, pr.Identifier)
			metrics.RemindersSkipped.WithLabelValues(metrics.ReasonTaken).Inc()
			d.markDelivered(ctx, pr.Identifier, now)

		default:
			if d.DryRun {
				report.Delivered = append(report.Delivered, pr.Identifier)
				continue
			}
			if err := d.deliverer.Deliver(ctx, pr); err != nil {
				logger.Error("Failed to deliver reminder", "identifier", pr.Identifier, "backend", d.deliverer.Name(), "error", err)
				metrics.DeliveryFailures.WithLabelValues(d.deliverer.Name()).Inc()
				report.Failed = append(report.Failed, pr.Identifier)
				continue
			}
			metrics.RemindersDelivered.WithLabelValues(string(pr.Reminder.Period), d.deliverer.Name()).Inc()
			report.Delivered = append(report.Delivered, pr.Identifier)
			d.markDelivered(ctx, pr.Identifier, now)
		}
	}

	return report, nil
}

func (d *Dispatcher) markDelivered(ctx context.Context, identifier string, at time.Time) {
	if d.DryRun {
		return
	}
	if err := d.store.MarkReminderDelivered(ctx, identifier, at); err != nil {
		logger.Warn("Failed to mark reminder delivered", "identifier", identifier, "error", err)
	}
}
