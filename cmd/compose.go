package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/lintcompose/internal/lockfile"
	"github.com/dotcommander/lintcompose/internal/output"
)

var (
	lockPath      string
	checkLockPath string
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose, validate and print the rule configuration",
	Long: `The compose command builds the segmented configuration: the global segment,
one segment per override block, and an ignored segment when ignores are set.

Use --lock to record the configuration fingerprint, and --check-lock in CI to
fail when provider upgrades or document edits change the effective rules.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCompose(lockPath, checkLockPath); err != nil {
			reportError(err)
		}
	},
}

func init() {
	composeCmd.Flags().StringVar(&lockPath, "lock", "", "Write the configuration fingerprint to this lockfile")
	composeCmd.Flags().StringVar(&checkLockPath, "check-lock", "", "Fail if the configuration differs from this lockfile")
	rootCmd.AddCommand(composeCmd)
}

func runCompose(lockOut, lockIn string) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	cfg, err := s.compose()
	if err != nil {
		return err
	}
	fp, err := cfg.Fingerprint()
	if err != nil {
		return err
	}

	if lockIn != "" {
		lock, err := lockfile.Load(lockIn)
		if err != nil {
			return err
		}
		if err := lock.Check(cfg); err != nil {
			return err
		}
		s.logger.Info("lockfile matches", "path", lockIn)
	}

	report := &output.Report{Version: version, Fingerprint: fp, Config: cfg}
	if err := s.outputter.Format(report, ""); err != nil {
		return fmt.Errorf("error formatting output: %w", err)
	}

	if lockOut != "" {
		lock, err := lockfile.Create(cfg)
		if err != nil {
			return err
		}
		if err := lock.Save(lockOut); err != nil {
			return err
		}
		if !s.cfg.Quiet {
			fmt.Fprintf(stderr, "Lockfile written: %s (%d segments)\n", lockOut, len(lock.Segments))
		}
	}

	return nil
}
