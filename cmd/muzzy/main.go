package main

import (
	"os"

	"github.com/muzzy-dev/muzzy/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
