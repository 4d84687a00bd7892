package main

import (
	"github.com/spf13/cobra"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts-scan",
	Short: "Create due-soon and overdue alerts for unpaid invoices",
	Long: `Walks unpaid invoices around their due date and raises the missing
collections alerts: due-soon warnings inside the warning window and overdue
alerts for invoices already past due. Invoices that already carry an open
alert of the same kind are skipped.

Intended to run daily from cron, after the sweep.`,
	RunE: runAlertScan,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}

func runAlertScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	created, err := a.alerts.Scan(ctx)
	if err != nil {
		return err
	}

	a.log.Infow("alert scan finished", "alerts_created", created)
	return nil
}
