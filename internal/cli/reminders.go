package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// RemindersCmd returns the reminders command
func RemindersCmd(open Opener) *cobra.Command {
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "List stored reminders",
		Args:  cobra.NoArgs,
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

			all, err := deps.Reminders.ListAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to list reminders: %w", err)
			}

			out := cmd.OutOrStdout()
			shown := 0
			for _, r := range all {
				if pendingOnly && r.DeliveredAt != nil {
					continue
				}
				state := color.New(color.FgYellow).Sprint("pending  ")
				if r.DeliveredAt != nil {
					state = color.New(color.FgGreen).Sprint("delivered")
				}
				silent := ""
				if r.Silent {
					silent = color.New(color.FgHiBlack).Sprint(" (silent)")
				}
				fmt.Fprintf(out, "%s  %-12s %s  %s%s\n", state, r.ID, r.FireAt.Local().Format(time.RFC3339), r.Body, silent)
				shown++
			}
			if shown == 0 {
				fmt.Fprintln(out, "No reminders.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Show only undelivered reminders")
	return cmd
}
