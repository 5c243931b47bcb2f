package presets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/dotcommander/lintcompose/internal/errors"
	"github.com/dotcommander/lintcompose/internal/options"
	"github.com/dotcommander/lintcompose/internal/types"
)

func newLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := NewLoader(nil)
	require.NoError(t, err)
	return l
}

func TestBuiltinProviders(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"@tanstack/query", "format", "javascript", "react", "react-hooks", "style", "ts", "vue",
	}, reg.Namespaces())

	core, ok := reg.Core()
	require.True(t, ok)
	assert.Equal(t, CoreNamespace, core.Namespace)
	assert.True(t, reg.Defines(CoreNamespace, "no-unused"))

	// every built-in flag has a provider
	for _, f := range options.Flags {
		assert.True(t, reg.Has(f.Namespace), f.Name)
	}

	deps, err := reg.ResolveDependencies("react")
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, "react-hooks", deps[0].Namespace)

	query, err := reg.Lookup("@tanstack/query")
	require.NoError(t, err)
	assert.Equal(t, types.TierPlugin, query.Tier)
}

func TestBuiltinDependenciesResolve(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	for _, ns := range reg.Namespaces() {
		t.Run(ns, func(t *testing.T) {
			deps, err := reg.ResolveDependencies(ns)
			require.NoError(t, err)
			require.NotEmpty(t, deps)
			assert.Equal(t, ns, deps[len(deps)-1].Namespace)
		})
	}

	deps, err := reg.ResolveDependencies("format")
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, "style", deps[0].Namespace)
}

func TestBuiltinRulesDeclaredByOwner(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	for _, ns := range reg.Namespaces() {
		p, err := reg.Lookup(ns)
		require.NoError(t, err)
		for _, e := range p.Rules {
			owner := e.ID.Namespace()
			if owner == "" {
				owner = CoreNamespace
			}
			assert.True(t, reg.Defines(owner, e.ID), "%s sets %s, which %s does not declare", ns, e.ID, owner)
		}
	}
}

func TestParseKeepsRuleOrder(t *testing.T) {
	p, err := newLoader(t).Parse([]byte(`
namespace: demo
tier: plugin
dependsOn: [javascript]
settings: {level: 2}
rules:
  demo/zeta: error
  demo/alpha: [warn, {max: 3}]
  demo/mid: 0
`))
	require.NoError(t, err)

	assert.Equal(t, "demo", p.Namespace)
	assert.Equal(t, types.TierPlugin, p.Tier)
	assert.Equal(t, []string{"javascript"}, p.DependsOn)
	assert.Equal(t, map[string]any{"level": 2}, p.Settings)
	assert.Equal(t, []types.RuleEntry{
		{ID: "demo/zeta", Severity: types.SeverityError},
		{ID: "demo/alpha", Severity: types.SeverityWarn, Options: []any{map[string]any{"max": 3}}},
		{ID: "demo/mid", Severity: types.SeverityOff},
	}, p.Rules)
}

func TestParseDefaultsToCoreTier(t *testing.T) {
	p, err := newLoader(t).Parse([]byte(`{"namespace": "json-demo", "rules": {"a": "warn"}}`))
	require.NoError(t, err)
	assert.Equal(t, types.TierCore, p.Tier)
	assert.Len(t, p.Rules, 1)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not a mapping", data: "- a\n- b\n"},
		{name: "empty", data: ""},
		{name: "missing namespace", data: "rules: {a: warn}\n"},
		{name: "bad tier", data: "namespace: x\ntier: extra\n"},
		{name: "unknown key", data: "namespace: x\nextends: y\n"},
		{name: "bad severity", data: "namespace: x\nrules: {x/a: fatal}\n"},
		{name: "malformed", data: "namespace: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newLoader(t).Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errUtils.ErrInvalidProvider), "got %v", err)
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.provider.yaml"), "namespace: b\ntier: plugin\n")
	writeFile(t, filepath.Join(dir, "nested", "a.provider.json"), `{"namespace": "a", "tier": "plugin"}`)
	writeFile(t, filepath.Join(dir, "ignored.yaml"), "namespace: nope\n")

	providers, err := newLoader(t).LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "b", providers[0].Namespace)
	assert.Equal(t, "a", providers[1].Namespace)
}

func TestLoadDirMissing(t *testing.T) {
	_, err := newLoader(t).LoadDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestNewRegistryWithProviderDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "svelte.provider.yaml"), "namespace: svelte\ntier: framework\nrules: {svelte/valid-compile: error}\n")

	reg, err := newLoader(t).NewRegistry(dir)
	require.NoError(t, err)
	assert.True(t, reg.Has("svelte"))
	assert.True(t, reg.Has("react"))

	writeFile(t, filepath.Join(dir, "react.provider.yaml"), "namespace: react\n")
	_, err = newLoader(t).NewRegistry(dir)
	assert.True(t, errors.Is(err, errUtils.ErrDuplicateProvider), "got %v", err)
}
