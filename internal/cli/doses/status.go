package doses

import (
	"time"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/cli"
	"github.com/julianstephens/pills/internal/models"
	"github.com/julianstephens/pills/internal/tracker"
)

// StatusCmd prints today's doses, the streak and the lock state.
type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	t, err := ctx.Tracker()
	if err != nil {
		return err
	}

	now := t.Now()
	rec, _, err := t.Record(now)
	if err != nil {
		return err
	}
	settings := t.Settings()

	ctx.Printf("%s\n", cli.FormatDay(t.Calendar().StartOfDay(now)))
	for _, p := range models.Periods {
		line := "  " + mark(p.Taken(&rec)) + " " + title(p)
		if settings.NotificationsEnabled {
			hour, minute := settings.ReminderTime(p)
			line += "  (reminder " + calendar.FormatTimeOfDay(hour, minute) + ")"
		}
		ctx.Println(line)
	}

	current, err := t.Streak()
	if err != nil {
		return err
	}
	longest, err := t.LongestStreak()
	if err != nil {
		return err
	}
	ctx.Printf("Streak: %d day(s) (longest %d)\n", current, longest)
	ctx.Printf("History: %s\n", LockStatus(t))
	if !settings.NotificationsEnabled {
		ctx.Println("Reminders: off")
	}
	return nil
}

// LockStatus describes whether past days can be edited right now.
func LockStatus(t *tracker.Tracker) string {
	if !t.Settings().HistoryLocked {
		return "editable (lock past days is off)"
	}
	if t.HistoryLocked() {
		return "locked"
	}
	return "unlocked, relocks in " + t.Lock().Remaining().Round(time.Second).String()
}
