package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/lintcompose/internal/git"
	"github.com/dotcommander/lintcompose/internal/output"
)

var (
	forPathStaged  bool
	forPathChanged bool
)

var forPathCmd = &cobra.Command{
	Use:   "for-path PATH...",
	Short: "Show the effective rules for specific paths",
	Long: `The for-path command resolves which segments apply to each path and prints the
merged rule table. Ignored paths, including paths under an ignored directory,
get no rules at all, even when an override matches them.

With --staged or --changed the paths come from git instead of the arguments.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if forPathStaged || forPathChanged {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		paths, err := forPathTargets(cmd, args)
		if err == nil {
			err = runForPath(paths)
		}
		if err != nil {
			reportError(err)
		}
	},
}

func init() {
	forPathCmd.Flags().BoolVar(&forPathStaged, "staged", false, "Resolve files in the git staging area")
	forPathCmd.Flags().BoolVar(&forPathChanged, "changed", false, "Resolve all uncommitted files (staged and unstaged)")
	forPathCmd.MarkFlagsMutuallyExclusive("staged", "changed")
	rootCmd.AddCommand(forPathCmd)
}

func forPathTargets(cmd *cobra.Command, args []string) ([]string, error) {
	var (
		files []string
		err   error
	)
	switch {
	case forPathStaged:
		files, err = git.StagedFiles(cmd.Context(), ".")
	case forPathChanged:
		files, err = git.ChangedFiles(cmd.Context(), ".")
	default:
		return args, nil
	}
	if err != nil {
		return nil, err
	}
	return append(files, args...), nil
}

func runForPath(paths []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	cfg, err := s.compose()
	if err != nil {
		return err
	}

	report := &output.Report{Version: version}
	for _, p := range paths {
		eff, err := cfg.Resolve(p)
		if err != nil {
			return err
		}
		report.Paths = append(report.Paths, eff)
	}
	if err := s.outputter.Format(report, ""); err != nil {
		return fmt.Errorf("error formatting output: %w", err)
	}
	return nil
}
