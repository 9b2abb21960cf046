package main

import (
	"github.com/spf13/cobra"
)

var (
	// check flags
	configPath string
	noColor    bool

	rootCmd = &cobra.Command{
		Use:   "pyrechk",
		Short: "A static type checker for Python-shaped source",
		Long: `pyrechk type-checks a project against its declared annotations,
reporting every mismatch spec section 7 defines without ever
raising on a malformed program.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	checkCmd = &cobra.Command{
		Use:   "check [path]",
		Short: "Type-check a file or project and print diagnostics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCheck,
	}

	lspCmd = &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server over stdio",
		RunE:  runLSP,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to pyrechk.yaml (default: searched upward from the target)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colorized diagnostic output")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(lspCmd)
}
