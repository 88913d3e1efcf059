package models

import (
	"fmt"
	"time"
)

// Reminder is a computed notification for one period on one day. Its
// identifier is the only key shared by scheduling, cancellation and
// foreground suppression.
type Reminder struct {
	Period Period `json:"period"`
	DayKey string `json:"day_key"` // YYYY-MM-DD
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Body   string `json:"body"`
}

// Identifier returns "{period}-{dayKey}".
func (r Reminder) Identifier() string {
	return ReminderIdentifier(r.Period, r.DayKey)
}

// ReminderIdentifier builds the identifier for a period and day key.
func ReminderIdentifier(p Period, dayKey string) string {
	return fmt.Sprintf("%s-%s", p, dayKey)
}

// PendingReminder is a reminder held by the notification sink until it
// fires. DeliveredAt is set once the reminder has been sent or suppressed.
type PendingReminder struct {
	Identifier  string     `json:"identifier"`
	Reminder    Reminder   `json:"reminder"`
	FireAt      time.Time  `json:"fire_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// PermissionStatus mirrors the states an OS notification permission can be in.
type PermissionStatus string

const (
	PermissionNotDetermined PermissionStatus = "not-determined"
	PermissionDenied        PermissionStatus = "denied"
	PermissionAuthorized    PermissionStatus = "authorized"
	PermissionProvisional   PermissionStatus = "provisional"
	PermissionEphemeral     PermissionStatus = "ephemeral"
)

// Allowed reports whether reminders may be delivered under this status.
func (s PermissionStatus) Allowed() bool {
	switch s {
	case PermissionAuthorized, PermissionProvisional, PermissionEphemeral:
		return true
	}
	return false
}
