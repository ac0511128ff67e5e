package main

import (
	"os"

	"QuantLab/cmd/quantlab/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
