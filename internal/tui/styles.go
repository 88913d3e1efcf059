package tui

import "github.com/charmbracelet/lipgloss"

// Taken and pending share the calendar's complete and partial cell colors.
const (
	takenColor   = lipgloss.Color("42")
	pendingColor = lipgloss.Color("214")
	mutedColor   = lipgloss.Color("240")
	morningColor = lipgloss.Color("221")
	eveningColor = lipgloss.Color("111")
	errorColor   = lipgloss.Color("196")
)

var (
	viewTabStyle    = lipgloss.NewStyle().Foreground(mutedColor).Padding(0, 1)
	currentTabStyle = viewTabStyle.Foreground(eveningColor).Background(lipgloss.Color("236")).Bold(true)

	// today's doses in the header
	morningStyle    = lipgloss.NewStyle().Foreground(morningColor).Padding(0, 1)
	eveningStyle    = lipgloss.NewStyle().Foreground(eveningColor).Padding(0, 1)
	takenMarkStyle  = lipgloss.NewStyle().Foreground(takenColor).Bold(true)
	missedMarkStyle = lipgloss.NewStyle().Foreground(mutedColor)

	streakStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(takenColor).
			Padding(0, 1).
			Bold(true)

	historyLockedStyle   = lipgloss.NewStyle().Foreground(mutedColor).Padding(0, 1)
	historyUnlockedStyle = historyLockedStyle.Foreground(pendingColor).Bold(true)

	errorLineStyle  = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	statusLineStyle = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)

	frameStyle = lipgloss.NewStyle().Padding(1, 2)
)
