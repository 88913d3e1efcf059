package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/models"
	"github.com/julianstephens/pills/internal/storage"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "nested", "pills.db"))
	require.NoError(t, s.Init())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadBeforeInit(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorIs(t, s.Load(), storage.ErrNotInitialized)
}

func TestInitWritesDefaultSettings(t *testing.T) {
	s := setupStore(t)

	got, err := s.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)
}

func TestInitIsIdempotentAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pills.db")
	s := NewStore(path)
	require.NoError(t, s.Init())

	settings := models.DefaultSettings()
	settings.NotificationsEnabled = true
	settings.SetReminderTime(models.PeriodMorning, 6, 30)
	require.NoError(t, s.SaveSettings(settings))
	require.NoError(t, s.Close())

	s2 := NewStore(path)
	require.NoError(t, s2.Init())
	defer s2.Close()
	got, err := s2.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, settings, got, "re-running init keeps saved settings")

	s3 := NewStore(path)
	require.NoError(t, s3.Load())
	defer s3.Close()
	st, err := s3.MigrationStatus()
	require.NoError(t, err)
	assert.True(t, st.UpToDate())
}

func TestRecordsRoundTrip(t *testing.T) {
	s := setupStore(t)
	cal := calendar.New(time.UTC, time.Sunday)

	rec := models.NewDoseRecord(time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), cal)
	rec.MorningTaken = true
	require.NoError(t, s.InsertRecord(rec))

	rec.EveningTaken = true
	require.NoError(t, s.UpdateRecord(rec))

	got, err := s.GetAllRecords()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), got[0].Day)
	assert.True(t, got[0].MorningTaken)
	assert.True(t, got[0].EveningTaken)
}

func TestRecordDayIsUnique(t *testing.T) {
	s := setupStore(t)
	cal := calendar.New(time.UTC, time.Sunday)
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertRecord(models.NewDoseRecord(day, cal)))
	assert.Error(t, s.InsertRecord(models.NewDoseRecord(day.Add(5*time.Hour), cal)))
}

func TestUpdateMissingRecord(t *testing.T) {
	s := setupStore(t)
	rec := models.DoseRecord{ID: "x", Day: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)}
	assert.Error(t, s.UpdateRecord(rec))
}

func TestRecordsKeepLocalCalendarDate(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	s := setupStore(t)
	cal := calendar.New(tokyo, time.Sunday)

	// 00:30 in Tokyo is the previous day in UTC
	require.NoError(t, s.InsertRecord(models.NewDoseRecord(time.Date(2026, 1, 1, 0, 30, 0, 0, tokyo), cal)))

	got, err := s.GetAllRecords()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2026-01-01", got[0].Day.Format("2006-01-02"))
}

func TestLockState(t *testing.T) {
	s := setupStore(t)

	state, err := s.GetLockState()
	require.NoError(t, err)
	assert.True(t, state.Locked)
	assert.Nil(t, state.UnlockedAt)

	at := time.Unix(1_780_000_000, 0)
	require.NoError(t, s.SaveLockState(models.LockState{Locked: false, UnlockedAt: &at}))
	state, err = s.GetLockState()
	require.NoError(t, err)
	assert.False(t, state.Locked)
	require.NotNil(t, state.UnlockedAt)
	assert.True(t, at.Equal(*state.UnlockedAt))

	require.NoError(t, s.SaveLockState(models.LockedState()))
	state, err = s.GetLockState()
	require.NoError(t, err)
	assert.True(t, state.Locked)
	assert.Nil(t, state.UnlockedAt, "relocking clears the unlock time")

	assert.Error(t, s.SaveLockState(models.LockState{Locked: false}))
}

func pending(id string, p models.Period, day string, fireAt time.Time) models.PendingReminder {
	return models.PendingReminder{
		Identifier: id,
		Reminder:   models.Reminder{Period: p, DayKey: day, Hour: fireAt.Hour(), Minute: fireAt.Minute(), Body: "body"},
		FireAt:     fireAt,
	}
}

func TestPendingReminders(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	morning := time.Date(2026, 3, 3, 7, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 3, 21, 0, 0, 0, time.UTC)

	require.NoError(t, s.SchedulePending(ctx, []models.PendingReminder{
		pending("evening-2026-03-03", models.PeriodEvening, "2026-03-03", evening),
		pending("morning-2026-03-03", models.PeriodMorning, "2026-03-03", morning),
	}))

	got, err := s.GetPendingReminders(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "morning-2026-03-03", got[0].Identifier, "ordered by fire time")
	assert.True(t, morning.Equal(got[0].FireAt))
	assert.Equal(t, models.PeriodMorning, got[0].Reminder.Period)
	assert.Nil(t, got[0].DeliveredAt)

	deliveredAt := morning.Add(time.Minute)
	require.NoError(t, s.MarkReminderDelivered(ctx, "morning-2026-03-03", deliveredAt))
	assert.Error(t, s.MarkReminderDelivered(ctx, "nope", deliveredAt))

	got, err = s.GetPendingReminders(ctx)
	require.NoError(t, err)
	require.NotNil(t, got[0].DeliveredAt)
	assert.True(t, deliveredAt.Equal(*got[0].DeliveredAt))

	require.NoError(t, s.CancelPending(ctx, []string{"evening-2026-03-03", "unknown"}))
	got, err = s.GetPendingReminders(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, s.CancelPending(ctx, nil))
	require.NoError(t, s.RemoveAllPending(ctx))
	got, err = s.GetPendingReminders(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRemoveScheduledKeepsDueUndelivered(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	morning := time.Date(2026, 3, 3, 7, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 3, 21, 0, 0, 0, time.UTC)
	yesterday := morning.AddDate(0, 0, -1)

	require.NoError(t, s.SchedulePending(ctx, []models.PendingReminder{
		pending("morning-2026-03-02", models.PeriodMorning, "2026-03-02", yesterday),
		pending("morning-2026-03-03", models.PeriodMorning, "2026-03-03", morning),
		pending("evening-2026-03-03", models.PeriodEvening, "2026-03-03", evening),
	}))
	require.NoError(t, s.MarkReminderDelivered(ctx, "morning-2026-03-02", yesterday))

	require.NoError(t, s.RemoveScheduled(ctx, morning.Add(30*time.Second)))

	got, err := s.GetPendingReminders(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "morning-2026-03-03", got[0].Identifier)
}
