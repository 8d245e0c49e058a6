package main

import (
	"os"

	"github.com/tradecore/client/cmd/tradectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
