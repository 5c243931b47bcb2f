package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/lintcompose/internal/output"
)

const testDocument = `
react: true
rules:
  no-console: off
ignores: ["dist/**"]
overrides:
  - name: tests
    files: "**/*.test.js"
    rules:
      no-unused: error
`

type result struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI in dir with fresh flag and viper state.
func run(t *testing.T, dir string, args ...string) result {
	t.Helper()

	viper.Reset()
	resetFlags(rootCmd)
	bindFlags()
	t.Cleanup(viper.Reset)

	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	var out, errOut bytes.Buffer
	origStdout, origStderr, origExit := stdout, stderr, exitFunc
	stdout, stderr = &out, &errOut
	res := result{}
	exitFunc = func(code int) { res.exitCode = code }
	defer func() { stdout, stderr, exitFunc = origStdout, origStderr, origExit }()

	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	res.err = rootCmd.Execute()

	res.stdout, res.stderr = out.String(), errOut.String()
	return res
}

func projectDir(t *testing.T, doc string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lint.config.yaml"), []byte(doc), 0o644))
	return dir
}

func TestCommandsConfigured(t *testing.T) {
	for _, c := range []*cobra.Command{rootCmd, composeCmd, forPathCmd, providersCmd} {
		assert.NotEmpty(t, c.Use)
		assert.NotEmpty(t, c.Short)
		assert.NotEmpty(t, c.Long)
		assert.NotNil(t, c.Run)
	}
	assert.Equal(t, "for-path PATH...", forPathCmd.Use)
}

func TestRootComposesJSON(t *testing.T) {
	res := run(t, projectDir(t, testDocument), "--format", "json")
	require.NoError(t, res.err)
	assert.Equal(t, 0, res.exitCode, res.stderr)

	var doc output.Document
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &doc))
	assert.Len(t, doc.Header.Fingerprint, 64)
	require.Len(t, doc.Segments, 3)
	assert.Equal(t, "off", doc.Segments[0].Rules["no-console"])
	assert.Equal(t, "error", doc.Segments[0].Rules["react/jsx-key"])
	assert.Equal(t, []string{"javascript", "react-hooks", "react"}, doc.Segments[0].Plugins)
}

func TestRootFindsDocumentInParent(t *testing.T) {
	dir := projectDir(t, "react: true\n")
	sub := filepath.Join(dir, "src", "components")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	res := run(t, sub, "--format", "yaml")
	require.NoError(t, res.err)
	assert.Equal(t, 0, res.exitCode, res.stderr)
	assert.Contains(t, res.stdout, "react/jsx-key: error")
}

func TestComposeErrorsReportHints(t *testing.T) {
	res := run(t, projectDir(t, "svelte: true\n"), "compose")
	assert.Equal(t, 1, res.exitCode)
	assert.Contains(t, res.stderr, `option "svelte"`)
	assert.Contains(t, res.stderr, "hint: recognized options:")
	assert.Empty(t, res.stdout)
}

func TestComposeMissingDocument(t *testing.T) {
	res := run(t, t.TempDir(), "compose")
	assert.Equal(t, 1, res.exitCode)
	assert.Contains(t, res.stderr, "no composition document found")
}

func TestComposeStrictFlag(t *testing.T) {
	dir := projectDir(t, "react: true\nrules: {react/made-up: warn}\n")

	res := run(t, dir, "compose", "-f", "json")
	assert.Equal(t, 0, res.exitCode, res.stderr)

	res = run(t, dir, "compose", "--strict")
	assert.Equal(t, 1, res.exitCode)
	assert.Contains(t, res.stderr, "not declared by provider")
}

func TestComposeLockRoundTrip(t *testing.T) {
	dir := projectDir(t, testDocument)
	lock := filepath.Join(dir, "lint.lock.json")

	res := run(t, dir, "compose", "--lock", lock, "-f", "json")
	require.Equal(t, 0, res.exitCode, res.stderr)
	assert.Contains(t, res.stderr, "Lockfile written")
	assert.FileExists(t, lock)

	res = run(t, dir, "compose", "--check-lock", lock, "-q")
	assert.Equal(t, 0, res.exitCode, res.stderr)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "lint.config.yaml"), []byte("vue: true\n"), 0o644))
	res = run(t, dir, "compose", "--check-lock", lock)
	assert.Equal(t, 1, res.exitCode)
	assert.Contains(t, res.stderr, "does not match lockfile")
	assert.Contains(t, res.stderr, "hint: changed segments")
}

func TestForPath(t *testing.T) {
	res := run(t, projectDir(t, testDocument), "for-path", "src/a.test.js", "dist/special.test.js")
	require.NoError(t, res.err)
	assert.Equal(t, 0, res.exitCode, res.stderr)

	assert.Contains(t, res.stdout, "● src/a.test.js")
	assert.Contains(t, res.stdout, "segments: global > tests")
	assert.Contains(t, res.stdout, "error no-unused")
	assert.Contains(t, res.stdout, "○ dist/special.test.js\n  ignored")
}

func TestForPathRequiresArgs(t *testing.T) {
	res := run(t, projectDir(t, testDocument), "for-path")
	assert.Error(t, res.err)
}

func TestForPathChanged(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := projectDir(t, testDocument)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "a.test.js"), []byte("x"), 0o644))
	for _, args := range [][]string{{"init", "-q"}, {"add", "src"}} {
		c := exec.Command("git", args...)
		c.Dir = dir
		out, err := c.CombinedOutput()
		require.NoError(t, err, "%s", out)
	}

	res := run(t, dir, "for-path", "--changed")
	require.NoError(t, res.err)
	assert.Equal(t, 0, res.exitCode, res.stderr)
	assert.Contains(t, res.stdout, "● src/a.test.js")
	assert.NotContains(t, res.stdout, "lint.config.yaml")
}

func TestForPathStagedAndChangedExclusive(t *testing.T) {
	res := run(t, projectDir(t, testDocument), "for-path", "--staged", "--changed")
	assert.Error(t, res.err)
}

func TestProviders(t *testing.T) {
	res := run(t, t.TempDir(), "providers", "--format", "markdown")
	require.NoError(t, res.err)
	assert.Equal(t, 0, res.exitCode, res.stderr)
	assert.Contains(t, res.stdout, "| `react` | framework | `react-hooks` |")
	assert.Contains(t, res.stdout, "| `@tanstack/query` | plugin |")
}

func TestProvidersWithProviderDir(t *testing.T) {
	dir := t.TempDir()
	extra := filepath.Join(dir, "providers")
	require.NoError(t, os.MkdirAll(extra, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(extra, "svelte.provider.yaml"),
		[]byte("namespace: svelte\ntier: framework\nrules: {svelte/valid-compile: error}\n"), 0o644))

	res := run(t, dir, "providers", "--provider-dir", extra)
	assert.Equal(t, 0, res.exitCode, res.stderr)
	assert.Contains(t, res.stdout, "svelte")
}

func TestRCFileSettings(t *testing.T) {
	dir := projectDir(t, "react: true\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".lintcomposerc.yaml"), []byte("format: json\n"), 0o644))

	res := run(t, dir)
	assert.Equal(t, 0, res.exitCode, res.stderr)
	assert.True(t, json.Valid([]byte(res.stdout)), res.stdout)
}

func TestInvalidFormat(t *testing.T) {
	res := run(t, projectDir(t, "react: true\n"), "-f", "xml")
	assert.Equal(t, 1, res.exitCode)
	assert.Contains(t, res.stderr, "invalid format")
}

func TestVerboseLogsStages(t *testing.T) {
	res := run(t, projectDir(t, "react: true\n"), "-v", "-f", "json")
	assert.Equal(t, 0, res.exitCode, res.stderr)
	assert.Contains(t, res.stderr, "folded provider")
}
