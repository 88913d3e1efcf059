// Package calendar provides the clock and local-calendar arithmetic used to
// key dose records by day and to place reminders at a wall-clock time.
package calendar

import (
	"fmt"
	"time"

	"github.com/julianstephens/pills/internal/constants"
)

// Clock supplies the current wall-clock time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the real time, optionally converted into a location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// Calendar normalizes instants to local calendar days.
// The zero value uses the system local timezone and Sunday as first weekday.
type Calendar struct {
	Location     *time.Location
	FirstWeekday time.Weekday
}

func New(loc *time.Location, firstWeekday time.Weekday) Calendar {
	return Calendar{Location: loc, FirstWeekday: firstWeekday}
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// StartOfDay returns midnight of the calendar day containing t.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	loc := c.location()
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// AddDays moves n calendar days from the day containing t and returns the
// start of the resulting day. DST changes never shift the result off midnight.
func (c Calendar) AddDays(t time.Time, n int) time.Time {
	loc := c.location()
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day()+n, 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same local calendar day.
func (c Calendar) SameDay(a, b time.Time) bool {
	return c.DayKey(a) == c.DayKey(b)
}

// IsToday reports whether t is on the same calendar day as now.
func (c Calendar) IsToday(t, now time.Time) bool {
	return c.SameDay(t, now)
}

// DayKey formats the calendar day of t as YYYY-MM-DD.
func (c Calendar) DayKey(t time.Time) string {
	return t.In(c.location()).Format(constants.DateFormat)
}

// ParseDayKey parses a YYYY-MM-DD string as midnight in the calendar location.
func (c Calendar) ParseDayKey(s string) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DateFormat, s, c.location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// At combines the calendar day of day with an hour and minute.
func (c Calendar) At(day time.Time, hour, minute int) time.Time {
	loc := c.location()
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc)
}

// WeekdayIndex numbers the weekday of t from 1, counting from FirstWeekday.
func (c Calendar) WeekdayIndex(t time.Time) int {
	wd := int(t.In(c.location()).Weekday())
	return (wd-int(c.FirstWeekday)+7)%7 + 1
}

// StartOfMonth returns midnight on the first day of the month containing t.
func (c Calendar) StartOfMonth(t time.Time) time.Time {
	loc := c.location()
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// AddMonths moves n months from the month containing t, returning the first
// day of the resulting month.
func (c Calendar) AddMonths(t time.Time, n int) time.Time {
	loc := c.location()
	t = t.In(loc)
	return time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, loc)
}

// SameMonth reports whether a and b fall in the same calendar month.
func (c Calendar) SameMonth(a, b time.Time) bool {
	a, b = a.In(c.location()), b.In(c.location())
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// GridRows is the fixed number of week rows in a month grid, so every month
// renders at the same height.
const GridRows = 6

// MonthGrid lays out the days of the month containing t as week rows of seven
// columns starting at FirstWeekday. Cells outside the month are zero times.
func (c Calendar) MonthGrid(t time.Time) [][7]time.Time {
	first := c.StartOfMonth(t)
	next := c.AddMonths(first, 1)

	grid := make([][7]time.Time, 0, GridRows)
	var week [7]time.Time
	col := c.WeekdayIndex(first) - 1
	for day := first; day.Before(next); day = c.AddDays(day, 1) {
		week[col] = day
		col++
		if col == 7 {
			grid = append(grid, week)
			week = [7]time.Time{}
			col = 0
		}
	}
	if col > 0 {
		grid = append(grid, week)
	}
	for len(grid) < GridRows {
		grid = append(grid, [7]time.Time{})
	}
	return grid
}

// WeekdayLabels returns short weekday names ordered from FirstWeekday.
func (c Calendar) WeekdayLabels() []string {
	labels := make([]string, 7)
	for i := range labels {
		labels[i] = time.Weekday((int(c.FirstWeekday) + i) % 7).String()[:3]
	}
	return labels
}
