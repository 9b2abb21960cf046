// Command lsp is the standalone stdio language server binary, for
// editors that spawn it directly rather than through pyrechk lsp.
package main

import (
	"log"
	"os"

	"github.com/oxhq/pyrechk/internal/config"
	"github.com/oxhq/pyrechk/internal/lspserver"
)

func main() {
	config.IsLSPMode = true

	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	if err := lspserver.Serve(os.Stdin, os.Stdout); err != nil {
		log.Fatalf("lsp: %v", err)
	}
}
