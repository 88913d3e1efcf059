package system

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/pills/internal/cli"
	"github.com/julianstephens/pills/internal/cli/clitest"
	"github.com/julianstephens/pills/internal/cli/doses"
	"github.com/julianstephens/pills/internal/models"
	"github.com/julianstephens/pills/internal/storage/sqlite"
)

func newContext(t *testing.T, path string) (*cli.Context, *bytes.Buffer, *sqlite.Store) {
	t.Helper()
	store := sqlite.NewStore(path)
	t.Cleanup(func() { store.Close() })
	out := &bytes.Buffer{}
	return &cli.Context{Ctx: context.Background(), Store: store, Out: out}, out, store
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pills.db")
	ctx, out, store := newContext(t, path)

	require.NoError(t, (&InitCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "Initialized pills storage at: "+path)

	settings, err := store.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings().MorningHour, settings.MorningHour)
}

func TestInitCmd_Force(t *testing.T) {
	env := clitest.New(t, nil)
	require.NoError(t, (&doses.TakeCmd{Period: "morning"}).Run(env.Ctx))
	env.Ctx.Close()

	require.NoError(t, (&InitCmd{Force: true}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Deleted existing database at:")

	records, err := env.Store.GetAllRecords()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInitCmd_ForceRejectsSameSource(t *testing.T) {
	env := clitest.New(t, nil)

	err := (&InitCmd{Force: true, Source: env.Store.GetConfigPath()}).Run(env.Ctx)
	assert.ErrorContains(t, err, "source and destination are the same")
}

func TestInitCmd_CopyFromSource(t *testing.T) {
	src := clitest.New(t, func(s *models.Settings) { s.MorningHour = 6 })
	require.NoError(t, (&doses.TakeCmd{Period: "morning"}).Run(src.Ctx))
	require.NoError(t, (&doses.TakeCmd{Period: "evening", Date: "yesterday", Yes: true}).Run(src.Ctx))
	src.Ctx.Close()
	require.NoError(t, src.Store.Close())

	ctx, out, store := newContext(t, filepath.Join(t.TempDir(), "copy.db"))
	require.NoError(t, (&InitCmd{Source: src.Store.GetConfigPath()}).Run(ctx))
	assert.Contains(t, out.String(), "Copied 2 dose records")

	records, err := store.GetAllRecords()
	require.NoError(t, err)
	assert.Len(t, records, 2)

	settings, err := store.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, 6, settings.MorningHour)

	state, err := store.GetLockState()
	require.NoError(t, err)
	assert.False(t, state.Locked)
}

func TestMigrateCmd_UpToDate(t *testing.T) {
	env := clitest.New(t, nil)

	require.NoError(t, (&MigrateCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "No migrations to apply. Database is up to date.")
}

func TestMigrateCmd_AppliesPending(t *testing.T) {
	env := clitest.New(t, nil)
	_, err := env.Store.GetDB().Exec("UPDATE schema_version SET version = 1")
	require.NoError(t, err)
	_, err = env.Store.GetDB().Exec("DROP TABLE pending_reminders")
	require.NoError(t, err)

	require.NoError(t, (&MigrateCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Successfully applied 1 migration(s).")

	_, err = env.Store.GetPendingReminders(context.Background())
	assert.NoError(t, err)
}

func TestDoctorCmd_HealthyDB(t *testing.T) {
	env := clitest.New(t, nil)

	require.NoError(t, (&DoctorCmd{}).Run(env.Ctx))
	out := env.Out.String()
	assert.Contains(t, out, "✓ Database reachable: OK")
	assert.Contains(t, out, "✓ Schema version: OK")
	assert.Contains(t, out, "✓ Migrations complete: OK")
	assert.Contains(t, out, "✓ Settings valid: OK")
	assert.Contains(t, out, "✓ Lock state: OK")
	assert.Contains(t, out, "✓ Dose records: OK")
	// missing backups is a warning, not a failure
	assert.Contains(t, out, "⚠ Backups present: WARNING")
	assert.Contains(t, out, "All diagnostics passed!")
}

func TestDoctorCmd_PendingMigrations(t *testing.T) {
	env := clitest.New(t, nil)
	_, err := env.Store.GetDB().Exec("DELETE FROM schema_version")
	require.NoError(t, err)

	err = (&DoctorCmd{}).Run(env.Ctx)
	assert.Error(t, err)
	assert.Contains(t, env.Out.String(), "❌ Migrations complete: FAIL")
}

func TestDoctorCmd_NewerSchema(t *testing.T) {
	env := clitest.New(t, nil)
	_, err := env.Store.GetDB().Exec("UPDATE schema_version SET version = 999")
	require.NoError(t, err)

	assert.Error(t, (&DoctorCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "FAIL")
}

func TestDoctorCmd_NotifierDenied(t *testing.T) {
	env := clitest.New(t, func(s *models.Settings) { s.NotificationsEnabled = true })
	env.Backend.Status = models.PermissionDenied

	require.NoError(t, (&DoctorCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "⚠ Notifier: WARNING")
}

func TestDoctorCmd_Uninitialized(t *testing.T) {
	ctx, out, _ := newContext(t, filepath.Join(t.TempDir(), "missing.db"))

	assert.Error(t, (&DoctorCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "❌ Database reachable: FAIL")
	assert.Contains(t, out.String(), "⊘ Schema version: SKIPPED")
}

func TestNotifyCmd_SendsReminderDueBeforeOtherCommand(t *testing.T) {
	env := clitest.New(t, func(s *models.Settings) { s.NotificationsEnabled = true })
	dayStart := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	env.Clock.Set(dayStart.Add(6 * time.Hour))
	require.NoError(t, (&doses.StatusCmd{}).Run(env.Ctx))
	env.Ctx.Close()

	// another command starts after the morning reminder came due
	env.Clock.Set(dayStart.Add(7*time.Hour + 30*time.Second))
	require.NoError(t, (&doses.StatusCmd{}).Run(env.Ctx))
	env.Ctx.Close()

	require.NoError(t, (&NotifyCmd{}).Run(env.Ctx))
	assert.Equal(t, []string{"morning-2026-09-14"}, env.Backend.Sent())
	assert.Contains(t, env.Out.String(), "Sent 1 reminder(s)")

	// delivered reminders are dropped by the next reschedule
	pending, err := env.Store.GetPendingReminders(context.Background())
	require.NoError(t, err)
	for _, pr := range pending {
		assert.NotEqual(t, "morning-2026-09-14", pr.Identifier)
	}
}

func TestTuiCmd_NonInteractivePrintsStatus(t *testing.T) {
	env := clitest.New(t, nil)

	require.NoError(t, (&TuiCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Streak: 0 day(s)")
}

func TestWatchCmd_RejectsBadInterval(t *testing.T) {
	env := clitest.New(t, nil)

	assert.Error(t, (&WatchCmd{}).Run(env.Ctx))
}

func TestWatchCmd_StopsWhenCancelled(t *testing.T) {
	env := clitest.New(t, func(s *models.Settings) { s.NotificationsEnabled = true })

	// schedule from 10:00, then run a pass after the evening reminder is due
	_, err := env.Ctx.Tracker()
	require.NoError(t, err)
	env.Ctx.Close()
	env.Clock.Set(clitest.Now.Add(11*time.Hour + 30*time.Second))

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.Ctx.Ctx = runCtx

	done := make(chan error, 1)
	go func() {
		done <- (&WatchCmd{Interval: 10 * time.Millisecond, MetricsAddr: "127.0.0.1:0"}).Run(env.Ctx)
	}()

	require.Eventually(t, func() bool { return len(env.Backend.Sent()) > 0 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Equal(t, []string{"evening-2026-09-14"}, env.Backend.Sent())
}
