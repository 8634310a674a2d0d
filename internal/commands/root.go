// Package commands implements the oaif command-line tool for creating,
// inspecting and validating ledger files without a running server.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "oaif",
		Short: "Create, inspect and validate OAIF ledger files",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newInitCommand(),
		newInfoCommand(),
		newValidateCommand(),
		newTrialBalanceCommand(),
	)

	return rootCmd
}

// cliLogger keeps tool output readable: structured records go to stderr and
// only warnings and up are shown.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
