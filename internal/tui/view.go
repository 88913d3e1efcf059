package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/pills/internal/constants"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateCalendar:
		content = frameStyle.Render(m.calendarModel.View())
	case constants.StateSettings:
		content = frameStyle.Render(m.settingsModel.View())
	case constants.StateConfirmUnlock, constants.StateEditSettings:
		content = frameStyle.Render(m.form.View())
	}

	var footer string
	switch {
	case m.formError != "":
		footer = errorLineStyle.Render(m.formError)
	case m.status != "":
		footer = statusLineStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		content,
		footer,
		m.help.View(m),
	)
}

func (m Model) viewHeader() string {
	tabs := []struct {
		title string
		state constants.SessionState
	}{
		{"Calendar", constants.StateCalendar},
		{"Settings", constants.StateSettings},
	}

	active := m.state
	if active == constants.StateConfirmUnlock || active == constants.StateEditSettings {
		active = m.previousState
	}

	var parts []string
	for _, tab := range tabs {
		if tab.state == active {
			parts = append(parts, currentTabStyle.Render(tab.title))
		} else {
			parts = append(parts, viewTabStyle.Render(tab.title))
		}
	}
	parts = append(parts, " ", m.viewToday())
	if m.streak > 0 {
		parts = append(parts, streakStyle.Render(streakLabel(m.streak)))
	}
	parts = append(parts, m.viewLock())
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// viewToday shows whether today's morning and evening doses are taken.
func (m Model) viewToday() string {
	return morningStyle.Render("☀ "+doseMark(m.today.MorningTaken)) +
		eveningStyle.Render("☾ "+doseMark(m.today.EveningTaken))
}

func doseMark(taken bool) string {
	if taken {
		return takenMarkStyle.Render("✓")
	}
	return missedMarkStyle.Render("·")
}

func streakLabel(n int) string {
	if n == 1 {
		return "1 day streak"
	}
	return fmt.Sprintf("%d day streak", n)
}

func (m Model) viewLock() string {
	if !m.tracker.Settings().HistoryLocked {
		return historyLockedStyle.Render("history editable")
	}
	if m.tracker.HistoryLocked() {
		return historyLockedStyle.Render("🔒 locked")
	}
	remaining := m.tracker.Lock().Remaining().Round(time.Second)
	return historyUnlockedStyle.Render(fmt.Sprintf("🔓 relocks in %s", remaining))
}
