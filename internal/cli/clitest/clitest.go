// Package clitest builds command contexts over a throwaway SQLite store.
package clitest

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/cli"
	"github.com/julianstephens/pills/internal/lock"
	"github.com/julianstephens/pills/internal/models"
	"github.com/julianstephens/pills/internal/storage/sqlite"
)

// Now is the fixed time every context built here sees: a Monday morning.
var Now = time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

// Backend is a notifier that records deliveries.
type Backend struct {
	mu        sync.Mutex
	Status    models.PermissionStatus
	Delivered []string
	Err       error
}

func (b *Backend) Name() string { return "fake" }

func (b *Backend) Deliver(_ context.Context, r models.PendingReminder) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	b.Delivered = append(b.Delivered, r.Identifier)
	return nil
}

// Sent returns a copy of the delivered identifiers.
func (b *Backend) Sent() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.Delivered...)
}

func (b *Backend) Permission(context.Context) models.PermissionStatus {
	if b.Status == "" {
		return models.PermissionAuthorized
	}
	return b.Status
}

func (b *Backend) RequestPermission(ctx context.Context) (bool, error) {
	return b.Permission(ctx).Allowed(), nil
}

type stubTimer struct{}

func (stubTimer) Stop() bool { return true }

// Clock lets a test move time forward.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Env is a command context plus handles on its fakes.
type Env struct {
	Ctx     *cli.Context
	Store   *sqlite.Store
	Out     *bytes.Buffer
	Backend *Backend
	Clock   *Clock
}

// New initializes a store in a temp dir with UTC settings, passing them
// through edit first when it is non-nil.
func New(t *testing.T, edit func(*models.Settings)) *Env {
	t.Helper()

	store := sqlite.NewStore(filepath.Join(t.TempDir(), "pills.db"))
	require.NoError(t, store.Init())

	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	if edit != nil {
		edit(&settings)
	}
	require.NoError(t, store.SaveSettings(settings))

	env := &Env{
		Store:   store,
		Out:     &bytes.Buffer{},
		Backend: &Backend{},
		Clock:   &Clock{now: Now},
	}
	env.Ctx = &cli.Context{
		Ctx:     context.Background(),
		Store:   store,
		Clock:   env.Clock,
		Out:     env.Out,
		Backend: env.Backend,
		LockOptions: []lock.Option{
			lock.WithAfterFunc(func(time.Duration, func()) lock.Timer { return stubTimer{} }),
		},
	}

	t.Cleanup(func() {
		env.Ctx.Close()
		store.Close()
	})
	return env
}

var _ calendar.Clock = (*Clock)(nil)
