package main

import (
	"fmt"
	"os"

	"github.com/bryanwahyu/pureplate/internal/cli"
)

var (
	version = "v0.1.0" // Overwritten at build time
)

func main() {
	rootCmd := cli.NewRootCmd(cli.NewApp(version))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
