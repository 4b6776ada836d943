package main

import (
	"os"

	"rhystmorgan/giftterm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
