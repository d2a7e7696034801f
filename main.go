package main

import (
	"fmt"
	"os"

	"p9e.in/fcrm/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
