package cli

import (
	"context"
	"fmt"
	"time"

	"interval_reminder_bot/internal/app"
	"interval_reminder_bot/internal/domain/session"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// StatusCmd returns the status command
func StatusCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the persisted cycle",
		Long: `Read the session anchor and derive the remaining time at the current instant.
The bot advances expired phases on its next tick; this command never writes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			deps, err := open(ctx)
			if err != nil {
				return err
			}
			defer deps.Close()

			out := cmd.OutOrStdout()
			rec, ok, err := app.NewPersistentAnchor(deps.State).Read(ctx)
			if err != nil {
				return fmt.Errorf("failed to read session anchor: %w", err)
			}
			fmt.Fprintf(out, "Store: %s\n", deps.Store)
			if !ok {
				fmt.Fprintf(out, "Phase: %s\n", phaseColor(session.PhaseIdle).Sprint("idle"))
				return nil
			}
			if err := rec.Validate(); err != nil {
				fmt.Fprintf(out, "Phase: %s (%v)\n", color.New(color.FgRed).Sprint("INVALID"), err)
				return nil
			}

			now := deps.Clock.Now()
			remaining := rec.State().Remaining(now)
			fmt.Fprintf(out, "Phase: %s\n", phaseColor(rec.Phase).Sprint(string(rec.Phase)))
			fmt.Fprintf(out, "Ends:  %s\n", rec.EndInstant.Local().Format(time.RFC3339))
			if remaining == 0 {
				fmt.Fprintf(out, "Left:  %s\n", color.New(color.FgYellow).Sprint("expired"))
			} else {
				fmt.Fprintf(out, "Left:  %s\n", remaining.Round(time.Second))
			}
			fmt.Fprintf(out, "Cycle: %d min work / %d min break\n", rec.Config.WorkMinutes, rec.Config.BreakMinutes)
			return nil
		},
	}
}

func phaseColor(p session.Phase) *color.Color {
	switch p {
	case session.PhaseWork:
		return color.New(color.FgRed, color.Bold)
	case session.PhaseBreak:
		return color.New(color.FgGreen, color.Bold)
	default:
		return color.New(color.FgHiBlack)
	}
}
