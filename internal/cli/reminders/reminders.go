package reminders

import (
	"fmt"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/cli"
	"github.com/julianstephens/pills/internal/constants"
)

// RemindersCmd lists the pending reminders for the next seven days.
type RemindersCmd struct {
	Reschedule bool `help:"Rebuild the schedule before listing (always done when the tracker starts)."`
}

func (c *RemindersCmd) Run(ctx *cli.Context) error {
	t, err := ctx.Tracker()
	if err != nil {
		return err
	}
	if c.Reschedule {
		n, err := t.Reschedule(ctx.Context())
		if err != nil {
			return err
		}
		ctx.Printf("Rescheduled %d reminder(s)\n", n)
	}

	settings := t.Settings()
	if !settings.NotificationsEnabled {
		ctx.Println("Reminders are off. Enable them with 'pills settings --notifications'.")
		return nil
	}

	pending, err := ctx.Store.GetPendingReminders(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to get pending reminders: %w", err)
	}
	if len(pending) == 0 {
		ctx.Println("No pending reminders.")
		return nil
	}

	loc := t.Calendar().StartOfDay(t.Now()).Location()
	ctx.Printf("Pending reminders (%s):\n", settings.NotifierBackend)
	for _, pr := range pending {
		fireAt := pr.FireAt.In(loc)
		line := fmt.Sprintf("  %-20s %s %s", pr.Identifier, fireAt.Format("Mon "+constants.DateFormat), calendar.FormatTimeOfDay(fireAt.Hour(), fireAt.Minute()))
		if pr.DeliveredAt != nil {
			line += "  (delivered " + pr.DeliveredAt.In(loc).Format(constants.TimeFormat) + ")"
		}
		ctx.Println(line)
	}
	return nil
}
