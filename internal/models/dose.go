package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/pills/internal/calendar"
)

// Period is one of the two daily dose slots.
type Period string

const (
	PeriodMorning Period = "morning"
	PeriodEvening Period = "evening"
)

// Periods lists both dose slots in display order.
var Periods = []Period{PeriodMorning, PeriodEvening}

// ParsePeriod accepts "morning"/"evening" and their one-letter forms.
func ParsePeriod(s string) (Period, bool) {
	switch s {
	case "morning", "m", "am":
		return PeriodMorning, true
	case "evening", "e", "pm":
		return PeriodEvening, true
	}
	return "", false
}

// Other returns the opposite period.
func (p Period) Other() Period {
	if p == PeriodMorning {
		return PeriodEvening
	}
	return PeriodMorning
}

// Taken reads this period's flag from rec. A nil record counts as not taken.
func (p Period) Taken(rec *DoseRecord) bool {
	if rec == nil {
		return false
	}
	if p == PeriodMorning {
		return rec.MorningTaken
	}
	return rec.EveningTaken
}

// DoseRecord holds the doses taken on one calendar day. Day is always the
// start of that day in the local calendar and is the record's unique key.
type DoseRecord struct {
	ID           string    `json:"id"`
	Day          time.Time `json:"day"`
	MorningTaken bool      `json:"morning_taken"`
	EveningTaken bool      `json:"evening_taken"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewDoseRecord creates a record for the calendar day containing day with
// both doses untaken.
func NewDoseRecord(day time.Time, cal calendar.Calendar) DoseRecord {
	now := time.Now()
	return DoseRecord{
		ID:        uuid.New().String(),
		Day:       cal.StartOfDay(day),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Set writes the flag for period.
func (r *DoseRecord) Set(p Period, taken bool) {
	if p == PeriodMorning {
		r.MorningTaken = taken
	} else {
		r.EveningTaken = taken
	}
}

// Complete reports whether both doses were taken.
func (r *DoseRecord) Complete() bool {
	return r != nil && r.MorningTaken && r.EveningTaken
}
