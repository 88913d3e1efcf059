// Package lock implements the timed guard on edits to past days.
package lock

import (
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/logger"
	"github.com/julianstephens/pills/internal/metrics"
	"github.com/julianstephens/pills/internal/models"
)

// StateStore persists the lock state between runs.
type StateStore interface {
	GetLockState() (models.LockState, error)
	SaveLockState(models.LockState) error
}

// Timer is the cancelable handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc arms f to run after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

func systemAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Lock is the history lock. Unlocking arms a relock timer; at most one timer
// is armed at a time, and a timer left over from an earlier unlock never
// relocks a newer one.
type Lock struct {
	mu          sync.Mutex
	store       StateStore
	clock       calendar.Clock
	afterFunc   AfterFunc
	relockAfter time.Duration

	state      models.LockState
	timer      Timer
	generation uint64

	subscribers map[int]func(models.LockState)
	nextSubID   int
}

// Option configures a Lock.
type Option func(*Lock)

// WithAfterFunc replaces time.AfterFunc, for tests.
func WithAfterFunc(f AfterFunc) Option {
	return func(l *Lock) { l.afterFunc = f }
}

// WithRelockAfter overrides the relock window.
func WithRelockAfter(d time.Duration) Option {
	return func(l *Lock) { l.relockAfter = d }
}

// New loads the persisted state. An invalid or unreadable state falls back
// to locked.
func New(store StateStore, clock calendar.Clock, opts ...Option) *Lock {
	l := &Lock{
		store:       store,
		clock:       clock,
		afterFunc:   systemAfterFunc,
		relockAfter: constants.RelockAfter,
		state:       models.LockedState(),
		subscribers: make(map[int]func(models.LockState)),
	}
	for _, opt := range opts {
		opt(l)
	}

	state, err := store.GetLockState()
	switch {
	case err != nil:
		logger.Warn("Failed to read lock state, starting locked", "error", err)
	case state.Validate() != nil:
		logger.Warn("Invalid lock state, starting locked", "error", state.Validate())
	default:
		l.state = state
	}
	metrics.SetLocked(l.state.Locked)
	return l
}

// Locked reports whether edits to past days are currently refused.
func (l *Lock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Locked
}

// State returns a copy of the current state.
func (l *Lock) State() models.LockState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Remaining returns the time left before an automatic relock, or zero
// when locked.
func (l *Lock) Remaining() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.Locked || l.state.UnlockedAt == nil {
		return 0
	}
	left := l.relockAfter - l.clock.Now().Sub(*l.state.UnlockedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Unlock records the unlock time and arms the relock timer. Unlocking an
// already unlocked lock restarts the window.
func (l *Lock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	next := models.LockState{Locked: false, UnlockedAt: &now}
	if err := l.store.SaveLockState(next); err != nil {
		return fmt.Errorf("failed to save lock state: %w", err)
	}
	l.state = next
	l.armLocked(l.relockAfter)
	logger.Info("History unlocked", "relock_after", l.relockAfter)
	l.changedLocked()
	return nil
}

// Relock locks immediately and cancels any pending timer.
func (l *Lock) Relock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.relockLocked()
}

// Activate reconciles the lock with the wall clock, as after a process
// restart or a long suspension. An unlock older than the relock window is
// relocked now; a younger one gets a timer for the time that remains.
func (l *Lock) Activate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.Locked {
		l.cancelLocked()
		return nil
	}
	if l.state.UnlockedAt == nil {
		return l.relockLocked()
	}

	elapsed := l.clock.Now().Sub(*l.state.UnlockedAt)
	if elapsed >= l.relockAfter {
		logger.Debug("Relock window elapsed while inactive", "elapsed", elapsed)
		return l.relockLocked()
	}
	l.armLocked(l.relockAfter - elapsed)
	return nil
}

// Subscribe registers fn to be called after each lock or unlock, including
// a relock from the timer. fn runs with the lock held and must not call
// back into the Lock. The returned function removes the subscription.
func (l *Lock) Subscribe(fn func(models.LockState)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subscribers, id)
	}
}

// Close stops the relock timer without changing state.
func (l *Lock) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelLocked()
}

// relockLocked locks in memory even when the state cannot be saved, so a
// failed save never leaves history editable without a timer.
func (l *Lock) relockLocked() error {
	l.cancelLocked()
	next := models.LockedState()
	saveErr := l.store.SaveLockState(next)

	wasUnlocked := !l.state.Locked
	l.state = next
	if wasUnlocked {
		logger.Info("History relocked")
		l.changedLocked()
	}
	if saveErr != nil {
		return fmt.Errorf("failed to save lock state: %w", saveErr)
	}
	return nil
}

// armLocked replaces any pending timer with one firing after d.
func (l *Lock) armLocked(d time.Duration) {
	l.cancelLocked()
	gen := l.generation
	l.timer = l.afterFunc(d, func() { l.expire(gen) })
}

func (l *Lock) cancelLocked() {
	l.generation++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

func (l *Lock) expire(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return
	}
	l.timer = nil
	if err := l.relockLocked(); err != nil {
		logger.Error("Relock timer failed", "error", err)
	}
}

func (l *Lock) changedLocked() {
	metrics.SetLocked(l.state.Locked)
	for _, fn := range l.subscribers {
		fn(l.state)
	}
}
