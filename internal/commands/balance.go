package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oaif-format/oaif/internal/engine"
)

func newTrialBalanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "trial-balance <file>",
		Short: "Print per-account debit and credit totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := engine.Open(cmd.Context(), cliLogger(), args[0], engine.Options{ReadOnly: true})
			if err != nil {
				return err
			}
			defer h.Close()

			accounts, total, err := h.Ledger.TrialBalance(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-6s %-32s %14s %14s %14s\n", "ID", "ACCOUNT", "DEBITS", "CREDITS", "BALANCE")
			for _, a := range accounts {
				fmt.Fprintf(out, "%-6d %-32s %14s %14s %14s\n",
					a.AccountID, a.AccountName, a.Debits.String(), a.Credits.String(), a.Balance.String())
			}
			fmt.Fprintf(out, "%-39s %45s\n", "TOTAL", total.String())
			return nil
		},
	}
}
