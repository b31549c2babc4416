package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Batdan007/MaiAI-Birth/internal/store"
	"github.com/Batdan007/MaiAI-Birth/internal/tui"
)

// RevealUnit stretches or shrinks the birth reveal. Hidden flag, mostly
// for demos.
var RevealUnit time.Duration

// TUICmd launches the dashboard; running maiai without a subcommand does the same
var TUICmd = &cobra.Command{
	Use:    "tui",
	Short:  "Launch the interactive dashboard",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunDashboard(cmd)
	},
}

// RunDashboard opens the dashboard TUI
func RunDashboard(cmd *cobra.Command) error {
	return runTUI(cmd, tui.ScreenDashboard, "")
}

func runTUI(cmd *cobra.Command, screen tui.Screen, agentID string) error {
	e, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer e.Close()

	// refuse early instead of flashing an empty screen
	if _, err := e.requireSession(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	err = tui.Run(ctx, tui.Deps{
		Sessions:   e.sessions,
		Agents:     e.agents,
		API:        e.client,
		Logger:     e.logger,
		RevealUnit: RevealUnit,
		ShowAll:    ShowAll,
		Watch:      e.watch,
	}, screen, agentID)

	if errors.Is(err, store.ErrNoSession) {
		return notLoggedIn()
	}
	return err
}
