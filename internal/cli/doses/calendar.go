package doses

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/cli"
	"github.com/julianstephens/pills/internal/models"
)

const monthFormat = "2006-01"

// CalendarCmd prints a month grid of doses.
type CalendarCmd struct {
	Month string `help:"Month to show (YYYY-MM). Defaults to the current month."`
}

func (c *CalendarCmd) Run(ctx *cli.Context) error {
	t, err := ctx.Tracker()
	if err != nil {
		return err
	}
	cal := t.Calendar()
	now := t.Now()

	month, err := parseMonth(c.Month, cal, now)
	if err != nil {
		return err
	}

	records, err := t.Records()
	if err != nil {
		return err
	}
	byDay := make(map[string]models.DoseRecord, len(records))
	for _, r := range records {
		byDay[cal.DayKey(r.Day)] = r
	}

	ctx.Print(RenderMonth(cal, month, now, byDay))
	return nil
}

// parseMonth returns the first day of the month named by s, or of the
// current month when s is empty. Months after the current one are refused.
func parseMonth(s string, cal calendar.Calendar, now time.Time) (time.Time, error) {
	current := cal.StartOfMonth(now)
	if s == "" {
		return current, nil
	}
	parsed, err := time.Parse(monthFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q (expected YYYY-MM)", s)
	}
	diff := (parsed.Year()-current.Year())*12 + int(parsed.Month()-current.Month())
	if diff > 0 {
		return time.Time{}, fmt.Errorf("cannot show a future month: %s", s)
	}
	return cal.AddMonths(current, diff), nil
}

// RenderMonth draws the month containing month as a six-row grid. Each day
// shows a filled dot per taken dose; future days have no marks.
func RenderMonth(cal calendar.Calendar, month, now time.Time, byDay map[string]models.DoseRecord) string {
	var b strings.Builder
	b.WriteString(month.Format("January 2006"))
	b.WriteString("\n")

	for _, label := range cal.WeekdayLabels() {
		fmt.Fprintf(&b, " %-4s", label)
	}
	b.WriteString("\n")

	today := cal.StartOfDay(now)
	for _, week := range cal.MonthGrid(month) {
		for _, day := range week {
			if day.IsZero() {
				b.WriteString("     ")
				continue
			}
			marks := "  "
			if !day.After(today) {
				rec, ok := byDay[cal.DayKey(day)]
				marks = dots(rec, ok)
			}
			fmt.Fprintf(&b, " %2d%s", day.Day(), marks)
		}
		b.WriteString("\n")
	}
	b.WriteString("● taken  ○ not taken (morning, evening)\n")
	return b.String()
}

func dots(rec models.DoseRecord, ok bool) string {
	if !ok {
		return "○○"
	}
	out := ""
	for _, p := range models.Periods {
		if p.Taken(&rec) {
			out += "●"
		} else {
			out += "○"
		}
	}
	return out
}
