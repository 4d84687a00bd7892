package main

import (
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Move past-due pending and partial invoices to overdue",
	Long: `Re-evaluates every invoice whose due date has passed and whose status is
still pending or partial, and moves it to overdue. Safe to run repeatedly:
a second consecutive run changes nothing.

Intended to run daily from cron.`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	changed, err := a.invoices.SweepOverdue(ctx)
	if err != nil {
		return err
	}

	a.log.Infow("sweep finished", "invoices_changed", changed)
	return nil
}
