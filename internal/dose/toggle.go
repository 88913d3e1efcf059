package dose

import (
	"context"
	"time"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/logger"
	"github.com/julianstephens/pills/internal/metrics"
	"github.com/julianstephens/pills/internal/models"
)

// Outcome reports whether a toggle was applied.
type Outcome int

const (
	Applied Outcome = iota
	// Refused means the day is in the past and history is locked. Nothing
	// was written; the caller should ask for an unlock and retry.
	Refused
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "refused"
}

// Result is the outcome of a toggle and, when applied, the record after it.
type Result struct {
	Outcome Outcome
	Record  models.DoseRecord
}

// ReminderCanceler drops today's pending reminder for a period.
type ReminderCanceler interface {
	CancelToday(ctx context.Context, period models.Period) error
}

// Toggler applies "mark taken/untaken" intents to a Store.
type Toggler struct {
	store    *Store
	clock    calendar.Clock
	canceler ReminderCanceler
}

// NewToggler creates a toggler. canceler may be nil.
func NewToggler(store *Store, clock calendar.Clock, canceler ReminderCanceler) *Toggler {
	return &Toggler{store: store, clock: clock, canceler: canceler}
}

// Toggle flips period on the calendar day containing day. Past days are
// refused while locked is true; today is always editable.
//
// A missing record is created with period taken and the other period not
// taken. When the toggle leaves today's period taken, today's reminder for
// it is cancelled. Toggling back to untaken does not re-arm the reminder;
// the next full reschedule does.
func (t *Toggler) Toggle(ctx context.Context, period models.Period, day time.Time, locked bool) (Result, error) {
	cal := t.store.Calendar()
	now := t.clock.Now()
	day = cal.StartOfDay(day)
	isToday := cal.IsToday(day, now)

	if !isToday && locked {
		logger.Debug("Toggle refused, history locked", "period", period, "day", cal.DayKey(day))
		metrics.DoseToggles.WithLabelValues(string(period), Refused.String()).Inc()
		return Result{Outcome: Refused}, nil
	}

	rec, exists, err := t.store.Get(day)
	if err != nil {
		return Result{}, err
	}

	if !exists {
		rec = models.NewDoseRecord(day, cal)
		rec.Set(period, true)
		if err := t.store.Insert(rec); err != nil {
			return Result{}, err
		}
	} else {
		rec.Set(period, !period.Taken(&rec))
		if err := t.store.Update(rec); err != nil {
			return Result{}, err
		}
	}

	// Read back so the caller sees the normalized, stored record.
	rec, _, _ = t.store.Get(day)
	metrics.DoseToggles.WithLabelValues(string(period), Applied.String()).Inc()
	logger.Info("Dose toggled", "period", period, "day", cal.DayKey(day), "taken", period.Taken(&rec))

	if isToday && period.Taken(&rec) && t.canceler != nil {
		if err := t.canceler.CancelToday(ctx, period); err != nil {
			logger.Warn("Failed to cancel today's reminder", "period", period, "error", err)
		}
	}

	return Result{Outcome: Applied, Record: rec}, nil
}
