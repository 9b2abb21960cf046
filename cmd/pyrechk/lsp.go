package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oxhq/pyrechk/internal/lspserver"
)

func runLSP(cmd *cobra.Command, args []string) error {
	return lspserver.Serve(os.Stdin, os.Stdout)
}
