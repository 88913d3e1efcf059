package lock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/models"
)

type memStateStore struct {
	state   models.LockState
	readErr error
	saveErr error
	saves   int
}

func (m *memStateStore) GetLockState() (models.LockState, error) {
	if m.readErr != nil {
		return models.LockState{}, m.readErr
	}
	return m.state, nil
}

func (m *memStateStore) SaveLockState(s models.LockState) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = s
	return nil
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// manualTimers records armed timers so tests fire them explicitly.
type manualTimers struct {
	armed []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) Timer {
	t := &manualTimer{d: d, f: f}
	m.armed = append(m.armed, t)
	return t
}

func (m *manualTimers) last() *manualTimer {
	if len(m.armed) == 0 {
		return nil
	}
	return m.armed[len(m.armed)-1]
}

var _ calendar.Clock = (*fakeClock)(nil)

func newTestLock(t *testing.T, initial models.LockState) (*Lock, *memStateStore, *fakeClock, *manualTimers) {
	t.Helper()
	store := &memStateStore{state: initial}
	clock := &fakeClock{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	timers := &manualTimers{}
	l := New(store, clock, WithAfterFunc(timers.AfterFunc))
	return l, store, clock, timers
}

func TestNewDefaultsToLocked(t *testing.T) {
	l, _, _, _ := newTestLock(t, models.LockedState())
	assert.True(t, l.Locked())
	assert.Zero(t, l.Remaining())
}

func TestNewFallsBackToLockedOnBadState(t *testing.T) {
	l, _, _, _ := newTestLock(t, models.LockState{Locked: false})
	assert.True(t, l.Locked())

	store := &memStateStore{readErr: errors.New("no table")}
	l = New(store, &fakeClock{now: time.Now()})
	assert.True(t, l.Locked())
}

func TestUnlockArmsRelockTimer(t *testing.T) {
	l, store, clock, timers := newTestLock(t, models.LockedState())

	require.NoError(t, l.Unlock())
	assert.False(t, l.Locked())
	require.NotNil(t, store.state.UnlockedAt)
	assert.Equal(t, clock.Now(), *store.state.UnlockedAt)
	require.Len(t, timers.armed, 1)
	assert.Equal(t, constants.RelockAfter, timers.last().d)
	assert.Equal(t, constants.RelockAfter, l.Remaining())
}

func TestActivateBeforeWindowStaysUnlocked(t *testing.T) {
	l, _, clock, timers := newTestLock(t, models.LockedState())
	require.NoError(t, l.Unlock())

	clock.Advance(599 * time.Second)
	require.NoError(t, l.Activate())

	assert.False(t, l.Locked())
	require.Len(t, timers.armed, 2)
	assert.True(t, timers.armed[0].stopped, "previous timer cancelled before re-arming")
	assert.Equal(t, time.Second, timers.last().d)
}

func TestActivateAtWindowRelocks(t *testing.T) {
	l, store, clock, _ := newTestLock(t, models.LockedState())
	require.NoError(t, l.Unlock())

	clock.Advance(600 * time.Second)
	require.NoError(t, l.Activate())

	assert.True(t, l.Locked())
	assert.Nil(t, store.state.UnlockedAt)
}

func TestTimerExpiryRelocks(t *testing.T) {
	l, store, _, timers := newTestLock(t, models.LockedState())
	require.NoError(t, l.Unlock())

	timers.last().f()

	assert.True(t, l.Locked())
	assert.Nil(t, store.state.UnlockedAt)
}

func TestExplicitRelockCancelsTimer(t *testing.T) {
	l, _, _, timers := newTestLock(t, models.LockedState())
	require.NoError(t, l.Unlock())
	timer := timers.last()

	require.NoError(t, l.Relock())
	assert.True(t, l.Locked())
	assert.True(t, timer.stopped)
}

func TestStaleTimerDoesNotRelockNewerUnlock(t *testing.T) {
	l, _, clock, timers := newTestLock(t, models.LockedState())
	require.NoError(t, l.Unlock())
	first := timers.last()

	clock.Advance(5 * time.Minute)
	require.NoError(t, l.Unlock())
	require.Len(t, timers.armed, 2)
	assert.True(t, first.stopped)

	// the old callback may still run if it raced with Stop
	first.f()
	assert.False(t, l.Locked())

	timers.last().f()
	assert.True(t, l.Locked())
}

func TestActivateRestoresPersistedUnlock(t *testing.T) {
	unlockedAt := time.Date(2026, 6, 1, 8, 55, 0, 0, time.UTC)
	l, _, _, timers := newTestLock(t, models.LockState{Locked: false, UnlockedAt: &unlockedAt})
	assert.False(t, l.Locked())

	require.NoError(t, l.Activate())
	assert.False(t, l.Locked())
	require.Len(t, timers.armed, 1)
	assert.Equal(t, 5*time.Minute, timers.last().d)
}

func TestActivateRelocksStalePersistedUnlock(t *testing.T) {
	unlockedAt := time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)
	l, _, _, timers := newTestLock(t, models.LockState{Locked: false, UnlockedAt: &unlockedAt})

	require.NoError(t, l.Activate())
	assert.True(t, l.Locked())
	assert.Empty(t, timers.armed)
}

func TestSubscribe(t *testing.T) {
	l, _, _, timers := newTestLock(t, models.LockedState())

	var seen []bool
	unsubscribe := l.Subscribe(func(s models.LockState) {
		seen = append(seen, s.Locked)
	})

	require.NoError(t, l.Unlock())
	require.NoError(t, l.Relock())
	require.NoError(t, l.Relock())
	require.NoError(t, l.Unlock())
	timers.last().f()
	assert.Equal(t, []bool{false, true, false, true}, seen)

	unsubscribe()
	require.NoError(t, l.Unlock())
	assert.Len(t, seen, 4)
}

func TestTimerExpiryLocksWhenSaveFails(t *testing.T) {
	l, store, _, timers := newTestLock(t, models.LockedState())
	require.NoError(t, l.Unlock())

	store.saveErr = errors.New("disk full")
	timers.last().f()

	assert.True(t, l.Locked())
	assert.Zero(t, l.Remaining())
}

func TestRelockReportsSaveFailure(t *testing.T) {
	l, store, _, _ := newTestLock(t, models.LockedState())
	require.NoError(t, l.Unlock())

	store.saveErr = errors.New("disk full")
	assert.Error(t, l.Relock())
	assert.True(t, l.Locked())
}

func TestRealTimerRelocks(t *testing.T) {
	store := &memStateStore{state: models.LockedState()}
	l := New(store, calendar.SystemClock{}, WithRelockAfter(20*time.Millisecond))
	defer l.Close()

	require.NoError(t, l.Unlock())
	assert.Eventually(t, l.Locked, time.Second, 5*time.Millisecond)
}
