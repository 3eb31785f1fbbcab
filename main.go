package main

import (
	"os"

	"github.com/vigil-monitoring/vigil/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
