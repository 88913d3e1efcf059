package doses

import (
	"github.com/julianstephens/pills/internal/cli"
	"github.com/julianstephens/pills/internal/constants"
)

// LockCmd relocks past days immediately.
type LockCmd struct{}

func (c *LockCmd) Run(ctx *cli.Context) error {
	t, err := ctx.Tracker()
	if err != nil {
		return err
	}
	if !t.Settings().HistoryLocked {
		ctx.Println("Lock past days is off; enable it with 'pills settings --history-locked'.")
		return nil
	}
	if err := t.Relock(); err != nil {
		return err
	}
	ctx.Println("🔒 History locked")
	return nil
}

// UnlockCmd allows edits to past days until the lock expires.
type UnlockCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation."`
}

func (c *UnlockCmd) Run(ctx *cli.Context) error {
	t, err := ctx.Tracker()
	if err != nil {
		return err
	}
	if !t.Settings().HistoryLocked {
		ctx.Println("Lock past days is off; history is already editable.")
		return nil
	}

	if !c.Yes {
		ok, err := ctx.Confirm(constants.UnlockMessage)
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Cancelled.")
			return nil
		}
	}

	if err := t.Unlock(); err != nil {
		return err
	}
	ctx.Printf("🔓 History %s\n", LockStatus(t))
	return nil
}
