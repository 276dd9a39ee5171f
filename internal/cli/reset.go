package cli

import (
	"context"
	"fmt"

	"interval_reminder_bot/internal/app"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ResetCmd returns the reset command
func ResetCmd(open Opener) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the session anchor and every reminder",
		Long: `Return the persisted timer to Idle. Run it while the bot is stopped;
a running bot keeps its in-memory cycle and writes the anchor again on the next phase change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to reset without --yes")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			deps, err := open(ctx)
			if err != nil {
				return err
			}
			defer deps.Close()

			if err := app.NewPersistentAnchor(deps.State).Clear(ctx); err != nil {
				return fmt.Errorf("failed to clear session anchor: %w", err)
			}
			if err := deps.Reminders.CancelAll(ctx); err != nil {
				return fmt.Errorf("failed to cancel reminders: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s session anchor and reminders cleared\n", color.New(color.FgGreen).Sprint("✓"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm the reset")
	return cmd
}
