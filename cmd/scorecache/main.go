package main

import (
	"fmt"
	"os"

	"github.com/ktevet1983-hub/scorecache/cmd/scorecache/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
