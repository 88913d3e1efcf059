// Package tracker ties the dose store, history lock and reminder scheduler
// together and applies the refresh rules between them. Commands and the TUI
// talk to a Tracker rather than to the individual pieces.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/dose"
	"github.com/julianstephens/pills/internal/lock"
	"github.com/julianstephens/pills/internal/logger"
	"github.com/julianstephens/pills/internal/metrics"
	"github.com/julianstephens/pills/internal/models"
	"github.com/julianstephens/pills/internal/reminder"
	"github.com/julianstephens/pills/internal/streak"
)

var (
	// ErrPermissionDenied is returned when reminders are enabled without
	// notification permission. The setting is left off.
	ErrPermissionDenied = errors.New("notification permission denied")
	// ErrFutureDay is returned when toggling a day after today.
	ErrFutureDay = errors.New("cannot record doses for a future day")
)

// SettingsStore reads and writes user settings.
type SettingsStore interface {
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error
}

// Backend is everything the tracker persists through.
type Backend interface {
	SettingsStore
	dose.Persister
	reminder.Sink
	lock.StateStore
}

// PendingToggle is a toggle refused by the history lock and held until the
// user confirms or cancels the unlock.
type PendingToggle struct {
	Period models.Period
	Day    time.Time
}

// Tracker is the single entry point for dose and reminder state.
type Tracker struct {
	settingsStore SettingsStore
	settings      models.Settings
	clock         calendar.Clock
	cal           calendar.Calendar

	store      *dose.Store
	toggler    *dose.Toggler
	scheduler  *reminder.Scheduler
	lock       *lock.Lock
	permission reminder.PermissionChecker

	pending *PendingToggle
}

// New builds a tracker over backend. The calendar comes from the stored
// timezone and first-weekday settings.
func New(backend Backend, permission reminder.PermissionChecker, clock calendar.Clock, lockOpts ...lock.Option) (*Tracker, error) {
	settings, err := backend.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)
	cal := settings.Calendar()

	t := &Tracker{
		settingsStore: backend,
		settings:      settings,
		clock:         clock,
		cal:           cal,
		store:         dose.NewStore(backend, cal),
		permission:    permission,
	}
	t.scheduler = reminder.NewScheduler(backend, t.store, permission, clock, cal)
	t.toggler = dose.NewToggler(t.store, clock, t.scheduler)
	t.lock = lock.New(backend, clock, lockOpts...)
	return t, nil
}

func (t *Tracker) Settings() models.Settings { return t.settings }

func (t *Tracker) Calendar() calendar.Calendar { return t.cal }

func (t *Tracker) Now() time.Time { return t.clock.Now() }

// Store exposes the dose store so views can subscribe to changes.
func (t *Tracker) Store() *dose.Store { return t.store }

// Lock exposes the history lock.
func (t *Tracker) Lock() *lock.Lock { return t.lock }

// Records returns all dose records ordered by day.
func (t *Tracker) Records() ([]models.DoseRecord, error) {
	return t.store.GetAllRecords()
}

// Record returns the record for the day containing day, if any.
func (t *Tracker) Record(day time.Time) (models.DoseRecord, bool, error) {
	return t.store.Get(day)
}

// Streak returns the current completion streak.
func (t *Tracker) Streak() (int, error) {
	records, err := t.store.GetAllRecords()
	if err != nil {
		return 0, err
	}
	n := streak.Calculate(records, t.clock.Now(), t.cal)
	metrics.CurrentStreak.Set(float64(n))
	return n, nil
}

// LongestStreak returns the longest completion run on record.
func (t *Tracker) LongestStreak() (int, error) {
	records, err := t.store.GetAllRecords()
	if err != nil {
		return 0, err
	}
	return streak.Longest(records, t.cal), nil
}

// HistoryLocked reports whether toggles on past days are refused right now.
// Turning the "lock past days" setting off disables the lock entirely.
func (t *Tracker) HistoryLocked() bool {
	return t.settings.HistoryLocked && t.lock.Locked()
}

// Editable reports whether day can be toggled without an unlock.
func (t *Tracker) Editable(day time.Time) bool {
	now := t.clock.Now()
	if t.isFuture(day, now) {
		return false
	}
	return t.cal.IsToday(day, now) || !t.HistoryLocked()
}

func (t *Tracker) isFuture(day, now time.Time) bool {
	return t.cal.StartOfDay(day).After(t.cal.StartOfDay(now))
}

// Pending returns the toggle waiting on an unlock, if any.
func (t *Tracker) Pending() *PendingToggle {
	if t.pending == nil {
		return nil
	}
	p := *t.pending
	return &p
}

// RequestToggle toggles period on day. When the history lock refuses the
// toggle it is held as the pending toggle and the result is dose.Refused;
// the caller should prompt for an unlock and then call ConfirmUnlock or
// CancelUnlock.
func (t *Tracker) RequestToggle(ctx context.Context, period models.Period, day time.Time) (dose.Result, error) {
	now := t.clock.Now()
	if t.isFuture(day, now) {
		return dose.Result{}, ErrFutureDay
	}

	res, err := t.toggler.Toggle(ctx, period, day, t.HistoryLocked())
	if err != nil {
		return res, err
	}
	if res.Outcome == dose.Refused {
		t.pending = &PendingToggle{Period: period, Day: t.cal.StartOfDay(day)}
		return res, nil
	}

	if t.cal.IsToday(day, now) {
		t.reschedule(ctx)
	}
	return res, nil
}

// ConfirmUnlock unlocks history and retries the pending toggle once. The
// pending slot is cleared whether or not the retry succeeds. With nothing
// pending it only unlocks.
func (t *Tracker) ConfirmUnlock(ctx context.Context) (dose.Result, error) {
	pending := t.pending
	t.pending = nil

	if err := t.lock.Unlock(); err != nil {
		return dose.Result{}, err
	}
	if pending == nil {
		return dose.Result{}, nil
	}
	return t.toggler.Toggle(ctx, pending.Period, pending.Day, t.HistoryLocked())
}

// CancelUnlock discards the pending toggle.
func (t *Tracker) CancelUnlock() {
	t.pending = nil
}

// Unlock unlocks history without a pending toggle.
func (t *Tracker) Unlock() error {
	return t.lock.Unlock()
}

// Relock locks history immediately.
func (t *Tracker) Relock() error {
	return t.lock.Relock()
}

// ToggleLock relocks when unlocked and unlocks when locked. It reports the
// new locked state.
func (t *Tracker) ToggleLock() (bool, error) {
	if t.lock.Locked() {
		return false, t.lock.Unlock()
	}
	return true, t.lock.Relock()
}

// Activate runs the foregrounding rules: the lock catches up with elapsed
// time and the reminder schedule is rebuilt from the current time.
func (t *Tracker) Activate(ctx context.Context) error {
	if err := t.lock.Activate(); err != nil {
		return err
	}
	t.reschedule(ctx)
	return nil
}

// Reschedule rebuilds all pending reminders and returns how many are pending.
func (t *Tracker) Reschedule(ctx context.Context) (int, error) {
	return t.scheduler.Reschedule(ctx, reminder.ConfigFromSettings(t.settings))
}

func (t *Tracker) reschedule(ctx context.Context) {
	if _, err := t.Reschedule(ctx); err != nil {
		logger.Warn("Failed to reschedule reminders", "error", err)
	}
}

// Close stops background timers.
func (t *Tracker) Close() {
	t.lock.Close()
}
