package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/gatehouse/cmd/cli/phrasebank"
	"github.com/myrjola/gatehouse/cmd/cli/practice"
	"github.com/spf13/cobra"
)

func init() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(practice.Group)
	rootCmd.AddCommand(practice.Run)
	rootCmd.AddGroup(phrasebank.Group)
	rootCmd.AddCommand(phrasebank.Lint)
}

var rootCmd = &cobra.Command{
	Use:  "gatehouse-cli",
	Long: `Command line utilities for the Gatehouse checkpoint interview trainer`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
