package settings

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/cli"
	"github.com/julianstephens/pills/internal/constants"
	pillserrors "github.com/julianstephens/pills/internal/errors"
	"github.com/julianstephens/pills/internal/models"
	"github.com/julianstephens/pills/internal/tracker"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Notifications *bool   `help:"Enable or disable dose reminders."`
	Morning       *string `help:"Morning reminder time (HH:MM)."`
	Evening       *string `help:"Evening reminder time (HH:MM)."`
	HistoryLocked *bool   `help:"Require an unlock before editing past days."`
	Timezone      *string `help:"IANA timezone for day boundaries, or Local."`
	FirstWeekday  *int    `help:"First day of the week (0=Sunday ... 6=Saturday)."`
	Backend       *string `help:"Notifier backend: tray or sns."`
	SNSTopic      *string `name:"sns-topic" help:"SNS topic ARN for the sns backend."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		printSettings(ctx, settings)
		return nil
	}

	next, updated, err := c.apply(settings)
	if err != nil {
		return err
	}
	if !updated {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}
	if next.NotifierBackend == constants.NotifierSNS && next.SNSTopicARN == "" {
		next.SNSTopicARN = ctx.TopicARN
	}
	if err := next.Validate(); err != nil {
		return err
	}

	if next.NotifierBackend != settings.NotifierBackend || next.SNSTopicARN != settings.SNSTopicARN {
		// switch backends first so the permission check below uses the new one
		t, err := ctx.Tracker()
		if err != nil {
			return err
		}
		if err := t.SetNotifier(next.NotifierBackend, next.SNSTopicARN); err != nil {
			return err
		}
		ctx.Reset()
	}

	t, err := ctx.Tracker()
	if err != nil {
		return err
	}
	if err := t.UpdateSettings(ctx.Context(), next); err != nil {
		if errors.Is(err, tracker.ErrPermissionDenied) {
			return pillserrors.WithHint(err, "reminders were left off; allow notifications for the pills tray app or switch with --backend sns")
		}
		return err
	}

	ctx.Println("Settings updated successfully.")
	return nil
}

func (c *SettingsCmd) apply(s models.Settings) (models.Settings, bool, error) {
	updated := false

	if c.Notifications != nil {
		s.NotificationsEnabled = *c.Notifications
		updated = true
	}
	if c.Morning != nil {
		hour, minute, err := calendar.ParseTimeOfDay(*c.Morning)
		if err != nil {
			return s, false, err
		}
		s.SetReminderTime(models.PeriodMorning, hour, minute)
		updated = true
	}
	if c.Evening != nil {
		hour, minute, err := calendar.ParseTimeOfDay(*c.Evening)
		if err != nil {
			return s, false, err
		}
		s.SetReminderTime(models.PeriodEvening, hour, minute)
		updated = true
	}
	if c.HistoryLocked != nil {
		s.HistoryLocked = *c.HistoryLocked
		updated = true
	}
	if c.Timezone != nil {
		s.Timezone = *c.Timezone
		updated = true
	}
	if c.FirstWeekday != nil {
		s.FirstWeekday = *c.FirstWeekday
		updated = true
	}
	if c.Backend != nil {
		s.NotifierBackend = *c.Backend
		updated = true
	}
	if c.SNSTopic != nil {
		s.SNSTopicARN = *c.SNSTopic
		updated = true
	}

	return s, updated, nil
}

func printSettings(ctx *cli.Context, s models.Settings) {
	ctx.Println("Reminder Settings:")
	ctx.Printf("  Reminders Enabled:     %v\n", s.NotificationsEnabled)
	for _, p := range models.Periods {
		hour, minute := s.ReminderTime(p)
		ctx.Printf("  %-22s %s\n", fmt.Sprintf("%s Reminder:", label(p)), calendar.FormatTimeOfDay(hour, minute))
	}
	backend := s.NotifierBackend
	if backend == "" {
		backend = constants.DefaultNotifierBackend
	}
	ctx.Printf("  Notifier Backend:      %s\n", backend)
	if s.SNSTopicARN != "" {
		ctx.Printf("  SNS Topic:             %s\n", s.SNSTopicARN)
	}

	ctx.Println("\nHistory Settings:")
	ctx.Printf("  Lock Past Days:        %v\n", s.HistoryLocked)

	ctx.Println("\nCalendar Settings:")
	ctx.Printf("  Timezone:              %s\n", s.Timezone)
	ctx.Printf("  Week Starts On:        %s\n", time.Weekday(s.FirstWeekday))
}

func label(p models.Period) string {
	if p == models.PeriodMorning {
		return "Morning"
	}
	return "Evening"
}
