package main

import (
	"fmt"
	"os"

	"sales_records/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("salesctl: %v", err))
		os.Exit(1)
	}
}
