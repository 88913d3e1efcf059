package settings

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/models"
)

type Model struct {
	settings models.Settings
	width    int
	height   int
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(22)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			MarginTop(1).
			MarginBottom(1)
)

func New(settings models.Settings, width, height int) Model {
	return Model{settings: settings, width: width, height: height}
}

func (m *Model) SetSettings(settings models.Settings) {
	m.settings = settings
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func row(label, value string) string {
	return fmt.Sprintf("%s %s", labelStyle.Render(label), valueStyle.Render(value))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m Model) View() string {
	s := m.settings
	var sections []string

	reminders := []string{
		row("Reminders:", onOff(s.NotificationsEnabled)),
		row("Morning:", calendar.FormatTimeOfDay(s.MorningHour, s.MorningMinute)),
		row("Evening:", calendar.FormatTimeOfDay(s.EveningHour, s.EveningMinute)),
		row("Notifier:", s.NotifierBackend),
	}
	if s.NotifierBackend == constants.NotifierSNS {
		reminders = append(reminders, row("SNS topic:", s.SNSTopicARN))
	}
	sections = append(sections, sectionStyle.Render(titleStyle.Render("Reminders")+"\n"+
		lipgloss.JoinVertical(lipgloss.Left, reminders...)))

	sections = append(sections, sectionStyle.Render(titleStyle.Render("History")+"\n"+
		row("Lock past days:", onOff(s.HistoryLocked))))

	sections = append(sections, sectionStyle.Render(titleStyle.Render("Calendar")+"\n"+
		lipgloss.JoinVertical(lipgloss.Left,
			row("Timezone:", s.Timezone),
			row("Week starts:", time.Weekday(s.FirstWeekday).String()),
		)))

	helpText := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true).
		MarginTop(1).
		Render("Press 'e' to edit settings")
	sections = append(sections, helpText)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
