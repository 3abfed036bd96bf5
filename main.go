package main

import (
	"os"

	"github.com/atlasgrid/geochange/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
