package main

import (
	"os"

	"github.com/TRIADBLUE/consoleblue/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
