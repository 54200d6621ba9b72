package main

import (
	"os"

	"github.com/joseph-ayodele/invoice-extractor/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
