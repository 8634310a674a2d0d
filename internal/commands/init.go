package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oaif-format/oaif/internal/engine"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

func newInitCommand() *cobra.Command {
	var company string
	var currency string
	var createdBy string

	cmd := &cobra.Command{
		Use:   "init <file>",
		Short: "Create a new empty ledger file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}

			h, err := engine.Create(cmd.Context(), cliLogger(), path, persistence.CreateMeta{
				CreatedBy:    createdBy,
				SourceSystem: "oaif-cli",
				CompanyName:  company,
				BaseCurrency: currency,
			}, engine.Options{})
			if err != nil {
				return fmt.Errorf("creating ledger file: %w", err)
			}
			defer h.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (company %q, base currency %s)\n", path, company, currency)
			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "company name (required)")
	_ = cmd.MarkFlagRequired("company")
	cmd.Flags().StringVar(&currency, "currency", "USD", "base currency code")
	cmd.Flags().StringVar(&createdBy, "created-by", "oaif-cli", "writer identity stamped into the file")

	return cmd
}
