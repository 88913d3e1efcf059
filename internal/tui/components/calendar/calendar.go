// Package calendar renders a month of dose records as a navigable grid.
package calendar

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	cal "github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/models"
)

const cellWidth = 7

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(cellWidth).
			Align(lipgloss.Center)

	cellStyle = lipgloss.NewStyle().
			Width(cellWidth).
			Align(lipgloss.Center)

	completeStyle = cellStyle.Foreground(lipgloss.Color("42")).Bold(true)
	partialStyle  = cellStyle.Foreground(lipgloss.Color("214"))
	futureStyle   = cellStyle.Foreground(lipgloss.Color("238"))
	todayStyle    = lipgloss.NewStyle().Underline(true)
	cursorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("236")).Reverse(true)
)

// Model is a month grid with a day cursor. The cursor never moves past
// today and the month never moves past the current one.
type Model struct {
	cal     cal.Calendar
	today   time.Time
	month   time.Time
	cursor  time.Time
	records map[string]models.DoseRecord
	width   int
	height  int
}

func New(c cal.Calendar, now time.Time, width, height int) Model {
	today := c.StartOfDay(now)
	return Model{
		cal:     c,
		today:   today,
		month:   c.StartOfMonth(today),
		cursor:  today,
		records: map[string]models.DoseRecord{},
		width:   width,
		height:  height,
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetRecords replaces the records shown in the grid.
func (m *Model) SetRecords(records []models.DoseRecord) {
	m.records = make(map[string]models.DoseRecord, len(records))
	for _, r := range records {
		m.records[m.cal.DayKey(r.Day)] = r
	}
}

// SetToday moves "today" forward, e.g. after midnight. A cursor that was on
// the old today follows it.
func (m *Model) SetToday(now time.Time) {
	today := m.cal.StartOfDay(now)
	if m.cal.SameDay(today, m.today) {
		return
	}
	followed := m.cal.SameDay(m.cursor, m.today)
	m.today = today
	if followed {
		m.GoToday()
	}
}

func (m Model) Cursor() time.Time { return m.cursor }

func (m Model) Month() time.Time { return m.month }

// MoveDays shifts the cursor, clamping at today. Crossing a month boundary
// moves the visible month with it.
func (m *Model) MoveDays(n int) {
	next := m.cal.AddDays(m.cursor, n)
	if next.After(m.today) {
		next = m.today
	}
	m.cursor = next
	m.month = m.cal.StartOfMonth(next)
}

// MoveMonths shows another month, keeping the cursor's day of month where
// possible. Months after the current one are not reachable.
func (m *Model) MoveMonths(n int) {
	target := m.cal.AddMonths(m.month, n)
	if target.After(m.cal.StartOfMonth(m.today)) {
		return
	}
	day := m.cursor.Day()
	next := m.cal.AddMonths(target, 1)
	cursor := m.cal.AddDays(target, day-1)
	if !cursor.Before(next) {
		cursor = m.cal.AddDays(next, -1)
	}
	if cursor.After(m.today) {
		cursor = m.today
	}
	m.month = target
	m.cursor = cursor
}

func (m *Model) GoToday() {
	m.cursor = m.today
	m.month = m.cal.StartOfMonth(m.today)
}

// Marks renders the morning and evening marks for a day.
func Marks(rec models.DoseRecord, ok bool) string {
	var b strings.Builder
	for _, p := range models.Periods {
		if ok && p.Taken(&rec) {
			b.WriteString("●")
		} else {
			b.WriteString("○")
		}
	}
	return b.String()
}

func (m Model) cell(day time.Time) string {
	if day.IsZero() {
		return cellStyle.Render("")
	}
	rec, ok := m.records[m.cal.DayKey(day)]

	style := cellStyle
	switch {
	case day.After(m.today):
		style = futureStyle
	case ok && rec.Complete():
		style = completeStyle
	case ok && (rec.MorningTaken || rec.EveningTaken):
		style = partialStyle
	}

	label := day.Format("2")
	if m.cal.SameDay(day, m.today) {
		label = todayStyle.Render(label)
	}
	text := label + " " + Marks(rec, ok)
	if m.cal.SameDay(day, m.cursor) {
		text = cursorStyle.Render(text)
	}
	return style.Render(text)
}

func (m Model) View() string {
	var rows []string
	rows = append(rows, titleStyle.Render(m.month.Format("January 2006")))

	var header []string
	for _, label := range m.cal.WeekdayLabels() {
		header = append(header, headerStyle.Render(label))
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, header...))

	for _, week := range m.cal.MonthGrid(m.month) {
		cells := make([]string, 0, 7)
		for _, day := range week {
			cells = append(cells, m.cell(day))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	rec, ok := m.records[m.cal.DayKey(m.cursor)]
	rows = append(rows, "", m.detail(rec, ok))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) detail(rec models.DoseRecord, ok bool) string {
	status := func(p models.Period) string {
		if ok && p.Taken(&rec) {
			return "taken"
		}
		return "not taken"
	}
	return m.cursor.Format(constants.DateFormat) +
		"  morning: " + status(models.PeriodMorning) +
		"  evening: " + status(models.PeriodEvening)
}
