package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/pills/internal/backup"
	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/dose"
	"github.com/julianstephens/pills/internal/lock"
	"github.com/julianstephens/pills/internal/logger"
	"github.com/julianstephens/pills/internal/models"
	"github.com/julianstephens/pills/internal/notifier"
	"github.com/julianstephens/pills/internal/reminder"
	"github.com/julianstephens/pills/internal/storage"
	"github.com/julianstephens/pills/internal/tracker"
)

// Context is shared by every command.
type Context struct {
	Ctx   context.Context
	Store storage.Provider
	Clock calendar.Clock

	// Timezone overrides the stored timezone for this invocation (--tz).
	Timezone    string
	TopicARN    string
	AWSRegion   string
	Backup      backup.S3Config
	Interactive bool

	Out io.Writer
	// In, when set, answers Confirm prompts instead of a terminal.
	In io.Reader

	// Backend overrides the notifier built from settings.
	Backend        notifier.Backend
	cachedNotifier notifier.Backend
	// LockOptions are passed to the history lock.
	LockOptions []lock.Option

	tracker *tracker.Tracker
}

func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Stdout(), format, args...)
}

func (c *Context) Print(args ...any) {
	fmt.Fprint(c.Stdout(), args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Stdout(), args...)
}

func (c *Context) clock() calendar.Clock {
	if c.Clock == nil {
		return calendar.SystemClock{}
	}
	return c.Clock
}

// settingsStore applies the --tz override on read so the tracker builds its
// calendar in that zone. Writes keep the stored timezone unless the caller
// changed it.
type settingsStore struct {
	storage.Provider
	timezone string
}

func (s settingsStore) GetSettings() (models.Settings, error) {
	settings, err := s.Provider.GetSettings()
	if err != nil {
		return settings, err
	}
	settings.Timezone = s.timezone
	return settings, nil
}

func (s settingsStore) SaveSettings(next models.Settings) error {
	if next.Timezone == s.timezone {
		current, err := s.Provider.GetSettings()
		if err != nil {
			return err
		}
		next.Timezone = current.Timezone
	}
	return s.Provider.SaveSettings(next)
}

func (c *Context) backend() tracker.Backend {
	if c.Timezone == "" {
		return c.Store
	}
	return settingsStore{Provider: c.Store, timezone: c.Timezone}
}

// Notifier returns the delivery backend selected in settings.
func (c *Context) Notifier() (notifier.Backend, error) {
	if c.Backend != nil {
		return c.Backend, nil
	}
	if c.cachedNotifier != nil {
		return c.cachedNotifier, nil
	}
	settings, err := c.Store.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	b, err := notifier.FromSettings(c.Context(), settings, c.TopicARN, c.AWSRegion)
	if err != nil {
		return nil, err
	}
	c.cachedNotifier = b
	return b, nil
}

// Tracker builds the tracker once per invocation and runs the
// foregrounding rules on it.
func (c *Context) Tracker() (*tracker.Tracker, error) {
	if c.tracker != nil {
		return c.tracker, nil
	}
	if c.Timezone != "" && !calendar.ValidateTimezone(c.Timezone) {
		return nil, fmt.Errorf("invalid timezone: %s", c.Timezone)
	}
	n, err := c.Notifier()
	if err != nil {
		return nil, err
	}
	t, err := tracker.New(c.backend(), n, c.clock(), c.LockOptions...)
	if err != nil {
		return nil, err
	}
	if err := t.Activate(c.Context()); err != nil {
		logger.Warn("Failed to activate tracker", "error", err)
	}
	c.tracker = t
	return t, nil
}

// Reset drops the cached tracker and notifier so the next call rebuilds
// them from the stored settings.
func (c *Context) Reset() {
	c.Close()
	c.cachedNotifier = nil
}

// Dispatcher builds a reminder dispatcher from the stored settings. It does
// not reschedule, so reminders that are already due stay pending until
// FireDue handles them.
func (c *Context) Dispatcher() (*reminder.Dispatcher, error) {
	settings, err := c.backend().GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)
	cal := settings.Calendar()

	n, err := c.Notifier()
	if err != nil {
		return nil, err
	}
	clock := c.clock()
	records := dose.NewStore(c.Store, cal)
	return reminder.NewDispatcher(c.Store, reminder.NewPresenter(records, clock, cal), n, clock, cal), nil
}

// Close stops the tracker's timers. The store is closed by the caller.
func (c *Context) Close() {
	if c.tracker != nil {
		c.tracker.Close()
		c.tracker = nil
	}
}

// BackupManager returns a manager for file-backed stores.
func (c *Context) BackupManager() (*backup.Manager, error) {
	path := c.Store.GetConfigPath()
	if path == "postgresql" {
		return nil, fmt.Errorf("backups are only supported for SQLite databases; use pg_dump for PostgreSQL")
	}
	return backup.NewManager(path), nil
}

// PerformAutomaticBackup creates a backup and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	mgr, err := c.BackupManager()
	if err != nil {
		return
	}
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ParseDay resolves "today", "yesterday", "-N" (days ago) or YYYY-MM-DD
// to midnight in cal's timezone. Empty means today.
func ParseDay(s string, cal calendar.Calendar, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "today":
		return cal.StartOfDay(now), nil
	case "yesterday":
		return cal.AddDays(now, -1), nil
	}
	if strings.HasPrefix(s, "-") {
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("invalid day offset: %s", s)
		}
		return cal.AddDays(now, -n), nil
	}
	day, err := cal.ParseDayKey(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected %s, today, yesterday or -N)", s, constants.DateFormat)
	}
	return day, nil
}

// FormatDay renders a day with its weekday, e.g. "Mon 2026-09-14".
func FormatDay(day time.Time) string {
	return day.Format("Mon " + constants.DateFormat)
}

// Confirm asks a yes/no question. On a terminal it uses a huh prompt; with
// In set it reads a y/N line from it. Otherwise the answer is no.
func (c *Context) Confirm(prompt string) (bool, error) {
	if c.In != nil {
		c.Printf("%s [y/N]: ", prompt)
		response, err := bufio.NewReader(c.In).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		response = strings.TrimSpace(strings.ToLower(response))
		return response == "y" || response == "yes", nil
	}
	if !c.Interactive {
		return false, nil
	}

	var confirmed bool
	err := huh.NewConfirm().
		Title(prompt).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return confirmed, err
}
