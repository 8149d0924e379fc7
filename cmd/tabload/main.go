package main

import (
	"os"

	"go.nownabe.dev/tabload/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
