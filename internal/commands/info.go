package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/oaif-format/oaif/internal/engine"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print the metadata of a ledger file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := engine.Open(cmd.Context(), cliLogger(), args[0], engine.Options{ReadOnly: true})
			if err != nil {
				return err
			}
			defer h.Close()

			metadata, err := h.Metadata(cmd.Context())
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(metadata))
			for k := range metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", k, metadata[k])
			}
			return nil
		},
	}
}
