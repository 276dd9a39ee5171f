package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"interval_reminder_bot/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pomoctl",
		Short: "Inspect and reset the interval reminder bot's persisted state",
		Long: `pomoctl reads the same STORE_DRIVER settings as the bot and works directly
on its session anchor and reminder table.`,
	}

	rootCmd.AddCommand(cli.StatusCmd(cli.OpenFromEnv))
	rootCmd.AddCommand(cli.RemindersCmd(cli.OpenFromEnv))
	rootCmd.AddCommand(cli.ResetCmd(cli.OpenFromEnv))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
