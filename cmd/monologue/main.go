package main

import (
	"os"

	"github.com/Iron-Ham/monologue/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ReportError(os.Stderr, err))
	}
}
