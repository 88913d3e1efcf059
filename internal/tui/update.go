package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/dose"
	"github.com/julianstephens/pills/internal/logger"
	"github.com/julianstephens/pills/internal/models"
	"github.com/julianstephens/pills/internal/tracker"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.calendarModel.SetSize(msg.Width, msg.Height-4)
		m.settingsModel.SetSize(msg.Width, msg.Height-4)
		return m, nil
	case tickMsg:
		m.calendarModel.SetToday(m.tracker.Now())
		return m, tick()
	case changedMsg:
		m.refresh()
		return m, m.waitForChange()
	}

	switch m.state {
	case constants.StateConfirmUnlock:
		return m.updateConfirmUnlock(msg)
	case constants.StateEditSettings:
		return m.updateEditSettings(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		m.close()
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(keyMsg, m.keys.Tab), key.Matches(keyMsg, m.keys.ShiftTab):
		if m.state == constants.StateCalendar {
			m.state = constants.StateSettings
		} else {
			m.state = constants.StateCalendar
		}
		return m, nil
	}

	if m.state == constants.StateSettings {
		if key.Matches(keyMsg, m.keys.Edit) {
			return m.openForm(constants.StateEditSettings, m.newSettingsForm())
		}
		return m, nil
	}
	return m.updateCalendar(keyMsg)
}

func (m Model) updateCalendar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		m.calendarModel.MoveDays(-1)
	case key.Matches(msg, m.keys.Right):
		m.calendarModel.MoveDays(1)
	case key.Matches(msg, m.keys.Up):
		m.calendarModel.MoveDays(-7)
	case key.Matches(msg, m.keys.Down):
		m.calendarModel.MoveDays(7)
	case key.Matches(msg, m.keys.PrevMonth):
		m.calendarModel.MoveMonths(-1)
	case key.Matches(msg, m.keys.NextMonth):
		m.calendarModel.MoveMonths(1)
	case key.Matches(msg, m.keys.Today):
		m.calendarModel.GoToday()
	case key.Matches(msg, m.keys.Morning):
		return m.toggle(models.PeriodMorning)
	case key.Matches(msg, m.keys.Evening):
		return m.toggle(models.PeriodEvening)
	case key.Matches(msg, m.keys.Lock):
		return m.toggleLock()
	}
	return m, nil
}

func (m Model) toggle(period models.Period) (tea.Model, tea.Cmd) {
	m.formError = ""
	day := m.calendarModel.Cursor()

	res, err := m.tracker.RequestToggle(m.ctx, period, day)
	switch {
	case errors.Is(err, tracker.ErrFutureDay):
		m.status = "Future days can't be recorded"
		return m, nil
	case err != nil:
		logger.Error("Toggle failed", "period", period, "day", day, "error", err)
		m.formError = fmt.Sprintf("Failed to save: %v", err)
		return m, nil
	case res.Outcome == dose.Refused:
		return m.openForm(constants.StateConfirmUnlock, m.newUnlockForm())
	}

	m.status = fmt.Sprintf("%s %s: %s", day.Format(constants.DateFormat), period, takenLabel(period.Taken(&res.Record)))
	m.refresh()
	return m, nil
}

func (m Model) toggleLock() (tea.Model, tea.Cmd) {
	m.formError = ""
	switch {
	case !m.tracker.Settings().HistoryLocked:
		m.status = "Lock past days is off in settings"
	case m.tracker.HistoryLocked():
		return m.openForm(constants.StateConfirmUnlock, m.newUnlockForm())
	default:
		if err := m.tracker.Relock(); err != nil {
			m.formError = fmt.Sprintf("Failed to lock history: %v", err)
			return m, nil
		}
		m.status = "History locked"
	}
	return m, nil
}

func (m Model) openForm(state constants.SessionState, form *huh.Form) (tea.Model, tea.Cmd) {
	m.previousState = m.state
	m.state = state
	m.form = form
	return m, m.form.Init()
}

func (m *Model) closeForm() {
	m.form = nil
	m.state = m.previousState
}

func (m *Model) stepForm(msg tea.Msg) tea.Cmd {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	return cmd
}

func (m Model) updateConfirmUnlock(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
		m.tracker.CancelUnlock()
		m.closeForm()
		return m, nil
	}

	cmd := m.stepForm(msg)
	switch m.form.State {
	case huh.StateCompleted:
		if m.confirmed != nil && *m.confirmed {
			res, err := m.tracker.ConfirmUnlock(m.ctx)
			if err != nil {
				m.formError = fmt.Sprintf("Failed to unlock: %v", err)
			} else if res.Record.ID != "" {
				m.status = fmt.Sprintf("%s updated, history unlocked", res.Record.Day.Format(constants.DateFormat))
			} else {
				m.status = "History unlocked"
			}
			m.refresh()
		} else {
			m.tracker.CancelUnlock()
		}
		m.closeForm()
		return m, nil
	case huh.StateAborted:
		m.tracker.CancelUnlock()
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m Model) updateEditSettings(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
		m.formError = ""
		m.closeForm()
		return m, nil
	}

	cmd := m.stepForm(msg)
	switch m.form.State {
	case huh.StateCompleted:
		m.saveSettingsForm()
		m.closeForm()
		return m, nil
	case huh.StateAborted:
		m.formError = ""
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m *Model) saveSettingsForm() {
	current := m.tracker.Settings()
	next, err := m.settingsForm.toSettings(current)
	if err != nil {
		m.formError = err.Error()
		return
	}

	err = m.tracker.UpdateSettings(m.ctx, next)
	switch {
	case errors.Is(err, tracker.ErrPermissionDenied):
		m.formError = "Notification permission denied; reminders left off"
	case err != nil:
		m.formError = fmt.Sprintf("Failed to save settings: %v", err)
	default:
		m.formError = ""
		m.status = "Settings saved"
		if next.Timezone != current.Timezone || next.FirstWeekday != current.FirstWeekday {
			m.status = "Settings saved; calendar changes apply on next launch"
		}
	}
	m.refresh()
}

func takenLabel(taken bool) string {
	if taken {
		return "taken"
	}
	return "not taken"
}
