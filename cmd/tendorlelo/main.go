// Command tendorlelo serves and runs the tender-company matching engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dev7-web/tendorlelo/internal/config"
	"github.com/Dev7-web/tendorlelo/internal/version"
)

var envName string

var rootCmd = &cobra.Command{
	Use:           "tendorlelo",
	Short:         "Tender and company matching engine",
	Long:          "tendorlelo ranks government tenders for company profiles and companies for tenders, over HTTP or from the command line.",
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(),
		"Environment name; selects config/<env>.yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
