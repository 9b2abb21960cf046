package main

import (
	"os"

	"github.com/mattn/go-isatty"
)

// colorEnabled mirrors the teacher's detectColorLevel: NO_COLOR wins over
// everything, then a real terminal (including Windows' Cygwin pty) is
// required, then TERM=dumb disables it one more time.
func colorEnabled() bool {
	if noColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return true
}

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
	ansiReset  = "\x1b[0m"
)

func colorize(code, s string) string {
	if !colorEnabled() {
		return s
	}
	return code + s + ansiReset
}
