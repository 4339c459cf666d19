package main

import (
	"os"

	"github.com/gridscope/gridscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
