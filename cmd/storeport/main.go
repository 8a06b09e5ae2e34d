package main

import (
	"os"

	"github.com/storeport/storeport/cmd/storeport/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
