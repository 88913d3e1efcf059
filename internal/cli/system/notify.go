package system

import (
	"github.com/julianstephens/pills/internal/cli"
	"github.com/julianstephens/pills/internal/reminder"
)

// NotifyCmd fires reminders that are due. It is meant to be run from cron
// or by the tray app.
type NotifyCmd struct {
	DryRun bool `help:"Print which reminders would be sent without sending them."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	if !settings.NotificationsEnabled {
		if c.DryRun {
			ctx.Println("Notifications are disabled in settings.")
		}
		return nil
	}

	report, err := fireDue(ctx, c.DryRun)
	if err != nil {
		return err
	}
	if c.DryRun {
		printReport(ctx, report)
		return nil
	}

	if n := len(report.Delivered); n > 0 {
		ctx.Printf("Sent %d reminder(s)\n", n)
	}

	// rebuild the window now that due reminders are handled
	_, err = ctx.Tracker()
	return err
}

func fireDue(ctx *cli.Context, dryRun bool) (reminder.Report, error) {
	d, err := ctx.Dispatcher()
	if err != nil {
		return reminder.Report{}, err
	}
	d.DryRun = dryRun
	return d.FireDue(ctx.Context())
}

func printReport(ctx *cli.Context, r reminder.Report) {
	if len(r.Delivered)+len(r.Suppressed)+len(r.Expired)+len(r.Failed) == 0 {
		ctx.Println("No reminders due.")
		return
	}
	for _, id := range r.Delivered {
		ctx.Printf("[DryRun] would send %s\n", id)
	}
	for _, id := range r.Suppressed {
		ctx.Printf("[DryRun] skip %s (already taken)\n", id)
	}
	for _, id := range r.Expired {
		ctx.Printf("[DryRun] skip %s (expired)\n", id)
	}
	for _, id := range r.Failed {
		ctx.Printf("[DryRun] failed %s\n", id)
	}
}
