// Command pyrechk is the CLI front door: a thin cobra wrapper around
// pkg/checker's Check entry point, plus an lsp subcommand that hands off
// to the stdio language server in internal/lspserver.
//
// Grounded on the teacher's cmd/funxy/main.go (the panic-recovery wrapper
// around the real work) and the cobra command tree shape of
// cmd/aleutian/main.go and commands.go from the example pack.
package main

import (
	"fmt"
	"os"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("PYRECHK_DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "pyrechk: internal error: %v\n", r)
			os.Exit(2)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
