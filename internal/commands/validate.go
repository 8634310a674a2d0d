package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/oaif-format/oaif/internal/engine"
)

func newValidateCommand() *cobra.Command {
	var workers int
	var tolerance string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Run the full-file integrity check",
		Long: `Validate opens a ledger file read-only and checks every posted
transaction plus the file-wide invariants: zero-sum lines, resolvable
references, party rules, trial balance and balance-cache drift.

The exit status is non-zero when any error-severity issue is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.Options{ReadOnly: true, ValidationWorkers: workers}
			if tolerance != "" {
				tol, err := decimal.NewFromString(tolerance)
				if err != nil {
					return fmt.Errorf("invalid tolerance %q: %w", tolerance, err)
				}
				opts.BalanceTolerance = tol
			}

			h, err := engine.Open(cmd.Context(), cliLogger(), args[0], opts)
			if err != nil {
				return err
			}
			defer h.Close()

			report, err := h.Validator.ValidateFile(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "Checked %d transactions in %s (trial balance %s)\n",
					report.HeadersChecked, report.Duration.Round(time.Millisecond), report.TrialBalance.String())
				for _, issue := range report.Issues {
					if issue.HeaderID != 0 {
						fmt.Fprintf(out, "%-7s %-22s header %d", issue.Severity, issue.Code, issue.HeaderID)
						if issue.LineNumber != 0 {
							fmt.Fprintf(out, " line %d", issue.LineNumber)
						}
						fmt.Fprintf(out, ": %s\n", issue.Message)
					} else {
						fmt.Fprintf(out, "%-7s %-22s %s\n", issue.Severity, issue.Code, issue.Message)
					}
				}
			}

			if !report.Valid() {
				return fmt.Errorf("validation found errors")
			}
			fmt.Fprintln(out, "File is valid")
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent validation workers")
	cmd.Flags().StringVar(&tolerance, "tolerance", "", "balance tolerance override, e.g. 0.01")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")

	return cmd
}
