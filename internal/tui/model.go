package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/dose"
	"github.com/julianstephens/pills/internal/logger"
	"github.com/julianstephens/pills/internal/models"
	"github.com/julianstephens/pills/internal/tracker"
	calendarview "github.com/julianstephens/pills/internal/tui/components/calendar"
	settingsview "github.com/julianstephens/pills/internal/tui/components/settings"
)

const tickInterval = time.Second

type tickMsg time.Time

// changedMsg reports a write to the dose store or a lock transition.
type changedMsg struct{}

type SettingsFormModel struct {
	NotificationsEnabled bool
	Morning              string
	Evening              string
	HistoryLocked        bool
	Timezone             string
	FirstWeekday         int
	NotifierBackend      string
	SNSTopicARN          string
}

type Model struct {
	ctx           context.Context
	tracker       *tracker.Tracker
	state         constants.SessionState
	previousState constants.SessionState
	keys          KeyMap
	help          help.Model
	calendarModel calendarview.Model
	settingsModel settingsview.Model
	form          *huh.Form
	settingsForm  *SettingsFormModel
	confirmed     *bool
	streak        int
	today         models.DoseRecord
	status        string
	formError     string
	quitting      bool
	width         int
	height        int

	changes     chan struct{}
	unsubscribe []func()
}

func NewModel(ctx context.Context, t *tracker.Tracker) Model {
	changes := make(chan struct{}, 1)
	m := Model{
		ctx:           ctx,
		tracker:       t,
		state:         constants.StateCalendar,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		calendarModel: calendarview.New(t.Calendar(), t.Now(), 0, 0),
		settingsModel: settingsview.New(t.Settings(), 0, 0),
		changes:       changes,
	}

	// subscribers run on the writer's goroutine (the relock timer included),
	// so they only signal and the model reloads in Update
	signal := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}
	m.unsubscribe = []func(){
		t.Store().Subscribe(func(dose.Change) { signal() }),
		t.Lock().Subscribe(func(models.LockState) { signal() }),
	}

	m.refresh()
	return m
}

// waitForChange blocks until the store or lock changes, or the context ends.
func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return changedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
	m.unsubscribe = nil
}

// refresh reloads records, streak and settings from the tracker.
func (m *Model) refresh() {
	records, err := m.tracker.Records()
	if err != nil {
		logger.Error("Failed to load dose records", "error", err)
		m.formError = "Failed to load records: " + err.Error()
		return
	}
	m.calendarModel.SetRecords(records)
	m.today = models.DoseRecord{}
	if rec, ok, err := m.tracker.Record(m.tracker.Now()); err == nil && ok {
		m.today = rec
	}
	if n, err := m.tracker.Streak(); err == nil {
		m.streak = n
	}
	m.settingsModel.SetSettings(m.tracker.Settings())
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case constants.StateCalendar:
		keys = append(keys, m.keys.Morning, m.keys.Evening, m.keys.Lock)
	case constants.StateSettings:
		keys = append(keys, m.keys.Edit)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case constants.StateCalendar:
		return [][]key.Binding{
			global,
			{m.keys.Up, m.keys.Down, m.keys.Left, m.keys.Right},
			{m.keys.PrevMonth, m.keys.NextMonth, m.keys.Today},
			{m.keys.Morning, m.keys.Evening, m.keys.Lock},
		}
	case constants.StateSettings:
		return [][]key.Binding{global, {m.keys.Edit}}
	}
	return [][]key.Binding{global}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitForChange())
}
