package doses

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/pills/internal/cli"
	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/dose"
	pillserrors "github.com/julianstephens/pills/internal/errors"
	"github.com/julianstephens/pills/internal/models"
	"github.com/julianstephens/pills/internal/tracker"
)

// ErrLocked is returned when a past day is locked and the unlock was not
// confirmed.
var ErrLocked = errors.New("past days are locked")

// TakeCmd toggles a dose between taken and not taken.
type TakeCmd struct {
	Period string `arg:"" enum:"morning,evening" help:"Dose to toggle: morning or evening."`
	Date   string `help:"Day to toggle: YYYY-MM-DD, today, yesterday or -N." default:"today"`
	Yes    bool   `short:"y" help:"Unlock past days without asking."`
}

func (c *TakeCmd) Run(ctx *cli.Context) error {
	period, ok := models.ParsePeriod(c.Period)
	if !ok {
		return fmt.Errorf("invalid period %q (expected morning or evening)", c.Period)
	}

	t, err := ctx.Tracker()
	if err != nil {
		return err
	}
	day, err := cli.ParseDay(c.Date, t.Calendar(), t.Now())
	if err != nil {
		return err
	}

	res, err := t.RequestToggle(ctx.Context(), period, day)
	if err != nil {
		if errors.Is(err, tracker.ErrFutureDay) {
			return pillserrors.WithHint(err, fmt.Sprintf("%s is after today", cli.FormatDay(day)))
		}
		return err
	}

	if res.Outcome == dose.Refused {
		confirmed := c.Yes
		if !confirmed {
			if confirmed, err = ctx.Confirm(constants.UnlockMessage); err != nil {
				t.CancelUnlock()
				return err
			}
		}
		if !confirmed {
			t.CancelUnlock()
			return pillserrors.WithHint(ErrLocked, "run 'pills unlock' or pass --yes")
		}
		if res, err = t.ConfirmUnlock(ctx.Context()); err != nil {
			return err
		}
	}

	state := "not taken"
	if period.Taken(&res.Record) {
		state = "taken"
	}
	ctx.Printf("✓ %s %s: %s\n", cli.FormatDay(day), period, state)

	if n, err := t.Streak(); err == nil && n > 0 {
		ctx.Printf("  %d day streak\n", n)
	}
	return nil
}

func mark(taken bool) string {
	if taken {
		return "✓"
	}
	return "✗"
}

func title(p models.Period) string {
	s := string(p)
	return strings.ToUpper(s[:1]) + s[1:]
}
