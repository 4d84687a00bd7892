package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Bulk import invoices from a CSV file",
	Long: `Imports invoices from a CSV file with the header

  number,client_code,issue_date,due_date,gross_total,notes

Existing invoice numbers are updated, new ones created. A bad row is
reported and skipped; it never aborts the run.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.importer.Run(ctx, f)
	if err != nil {
		return err
	}

	a.log.Infow("import finished",
		"created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	for _, rowErr := range res.Errors {
		a.log.Warnw("row rejected",
			"line", rowErr.Line, "number", rowErr.Number, "reason", rowErr.Message)
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("%d row(s) rejected", len(res.Errors))
	}
	return nil
}
