// Package main provides the CLI for the BridgeQL dialect bridge.
package main

import (
	"os"

	"github.com/bridgeql/bridgeql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
