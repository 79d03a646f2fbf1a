package main

import (
	"fmt"
	"os"

	"github.com/factdrill/factdrill/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
