package main

import (
	"os"

	"github.com/aviarylab/roost/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
