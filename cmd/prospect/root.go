// prospect qualifies sales leads and drafts reviewed outreach emails.
//
// Usage:
//
//	prospect run    --config campaign.yaml [--leads leads.csv] -o results.csv
//	prospect ingest --config campaign.yaml [--seed seed.yaml]
//	prospect serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "prospect",
	Short: "Lead qualification and outreach drafting",
	Long: "Prospect researches each lead's company, decides whether it is worth\n" +
		"pursuing, and drafts a reviewed cold email grounded in case studies.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version

	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
