package main

import (
	"os"

	"pnl_prover/cmd/pnlproof/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
