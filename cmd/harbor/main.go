package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	rootCmd = &cobra.Command{
		Use:     "harbor",
		Short:   "CLI for the harbor wallet",
		Version: formatVersion(),
	}
)

func main() {
	rootCmd.AddCommand(walletCmd, accountCmd, txCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
