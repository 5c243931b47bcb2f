// Package git lists paths touched in a working tree so their effective rules
// can be inspected.
package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// StagedFiles returns paths, relative to rootPath, of files in the staging area.
// Returns an empty slice outside a git repository.
func StagedFiles(ctx context.Context, rootPath string) ([]string, error) {
	if !IsGitRepo(ctx, rootPath) {
		return []string{}, nil
	}

	out, err := gitOutput(ctx, rootPath, "diff", "--name-only", "--relative", "--staged")
	if err != nil {
		return nil, err
	}
	return existingPaths(out, rootPath), nil
}

// ChangedFiles returns paths, relative to rootPath, of all uncommitted changes,
// staged and unstaged. Before the first commit every tracked file counts as
// changed. Returns an empty slice outside a git repository.
func ChangedFiles(ctx context.Context, rootPath string) ([]string, error) {
	if !IsGitRepo(ctx, rootPath) {
		return []string{}, nil
	}

	if _, err := gitOutput(ctx, rootPath, "rev-parse", "HEAD"); err != nil {
		out, err := gitOutput(ctx, rootPath, "ls-files")
		if err != nil {
			return nil, err
		}
		return existingPaths(out, rootPath), nil
	}

	out, err := gitOutput(ctx, rootPath, "diff", "--name-only", "--relative", "HEAD")
	if err != nil {
		return nil, err
	}
	return existingPaths(out, rootPath), nil
}

// IsGitRepo reports whether rootPath is inside a git work tree.
func IsGitRepo(ctx context.Context, rootPath string) bool {
	out, err := gitOutput(ctx, rootPath, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", errors.Wrapf(err, "git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// existingPaths parses git's name-only output into sorted slash paths,
// dropping deletions.
func existingPaths(gitOutput, rootPath string) []string {
	files := []string{}
	for _, line := range strings.Split(gitOutput, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(rootPath, line)); os.IsNotExist(err) {
			continue
		}
		files = append(files, filepath.ToSlash(line))
	}
	sort.Strings(files)
	return files
}
