package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/pills/internal/cli"
	"github.com/julianstephens/pills/internal/cli/doses"
	"github.com/julianstephens/pills/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	if !ctx.Interactive {
		// not a terminal; print today's status instead
		return (&doses.StatusCmd{}).Run(ctx)
	}

	ctx.PerformAutomaticBackup()

	t, err := ctx.Tracker()
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewModel(ctx.Context(), t), tea.WithAltScreen(), tea.WithContext(ctx.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	return nil
}
