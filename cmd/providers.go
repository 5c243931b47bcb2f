package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/lintcompose/internal/output"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered rule providers",
	Long: `The providers command lists every provider available to composition: the
built-in set plus anything found under --provider-dir.

Each line shows the namespace, tier, rule count and declared dependencies.
Tiers decide collision precedence: core < framework < formatter < plugin.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runProviders(); err != nil {
			reportError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders() error {
	s, err := newSession()
	if err != nil {
		return err
	}
	report := &output.Report{Version: version, Providers: output.ProvidersFrom(s.engine.Registry())}
	if err := s.outputter.Format(report, ""); err != nil {
		return fmt.Errorf("error formatting output: %w", err)
	}
	return nil
}
