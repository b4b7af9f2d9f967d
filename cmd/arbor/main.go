package main

import (
	"os"

	"github.com/bnema/arbor-gateway/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
