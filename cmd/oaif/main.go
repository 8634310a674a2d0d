package main

import (
	"os"

	"github.com/oaif-format/oaif/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
