package scope

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/lintcompose/internal/config"
	errUtils "github.com/dotcommander/lintcompose/internal/errors"
	"github.com/dotcommander/lintcompose/internal/types"
)

func entry(id string, sev types.Severity) types.RuleEntry {
	return types.RuleEntry{ID: types.RuleID(id), Severity: sev}
}

func globalRules() Global {
	return Global{
		Rules: types.RuleTable{
			"no-unused":     entry("no-unused", types.SeverityWarn),
			"react/jsx-key": entry("react/jsx-key", types.SeverityError),
		},
		Parser:   "espree",
		Plugins:  []string{"javascript", "react"},
		Settings: map[string]any{"react": map[string]any{"version": "detect"}},
	}
}

func TestResolveScopesSegmentOrder(t *testing.T) {
	cfg, err := ResolveScopes(globalRules(), []string{"dist/**"}, []config.Override{
		{Name: "tests", Files: []string{"**/*.test.js"}},
		{Files: []string{"scripts/**"}},
	})
	require.NoError(t, err)

	require.Len(t, cfg.Segments, 4)
	assert.Equal(t, KindGlobal, cfg.Segments[0].Kind)
	assert.Equal(t, "tests", cfg.Segments[1].Label())
	assert.Equal(t, KindOverride, cfg.Segments[2].Kind)
	assert.Equal(t, "override", cfg.Segments[2].Label())
	assert.Equal(t, KindIgnored, cfg.Segments[3].Kind)
	assert.Empty(t, cfg.Segments[3].Rules)
}

func TestResolveScopesNoIgnores(t *testing.T) {
	cfg, err := ResolveScopes(globalRules(), nil, nil)
	require.NoError(t, err)
	require.Len(t, cfg.Segments, 1)
	assert.Equal(t, globalRules().Rules, cfg.Global().Rules)
}

func TestIgnoreWinsOverOverride(t *testing.T) {
	cfg, err := ResolveScopes(globalRules(), []string{"dist/**"}, []config.Override{
		{Files: []string{"dist/special.js"}, Rules: []types.RuleEntry{entry("no-unused", types.SeverityError)}},
	})
	require.NoError(t, err)

	assert.Empty(t, cfg.ForPath("dist/special.js"))
	eff, err := cfg.Resolve("dist/special.js")
	require.NoError(t, err)
	assert.True(t, eff.Ignored)
	assert.Len(t, cfg.ForPath("src/app.js"), 2)
}

func TestIgnoreMatchesParentDirectories(t *testing.T) {
	cfg, err := ResolveScopes(globalRules(), []string{"node_modules", "build/*"}, nil)
	require.NoError(t, err)

	tests := []struct {
		path    string
		ignored bool
	}{
		{"node_modules/react/index.js", true},
		{"node_modules", true},
		{"build/out/main.js", true},
		{"./build/a.js", true},
		{"src/node_modules.js", false},
		{"src/build/a.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.ignored, cfg.Ignored(tt.path))
		})
	}
}

func TestOverridePrecedence(t *testing.T) {
	cfg, err := ResolveScopes(globalRules(), nil, []config.Override{
		{Files: []string{"**/*.test.js"}, Rules: []types.RuleEntry{entry("no-unused", types.SeverityOff)}},
		{
			Files:    []string{"src/legacy/**", "**/*.test.js"},
			Rules:    []types.RuleEntry{entry("no-unused", types.SeverityError), entry("no-var", types.SeverityOff)},
			Parser:   "babel",
			Settings: map[string]any{"react": map[string]any{"pragma": "h"}},
		},
	})
	require.NoError(t, err)

	plain, err := cfg.Resolve("src/app.js")
	require.NoError(t, err)
	assert.Equal(t, types.SeverityWarn, plain.Rules["no-unused"].Severity)
	assert.Equal(t, "espree", plain.Parser)
	assert.Equal(t, []string{"global"}, plain.Segments)

	test, err := cfg.Resolve("src/app.test.js")
	require.NoError(t, err)
	assert.Equal(t, types.SeverityError, test.Rules["no-unused"].Severity)
	assert.Equal(t, types.SeverityOff, test.Rules["no-var"].Severity)
	assert.Equal(t, types.SeverityError, test.Rules["react/jsx-key"].Severity)
	assert.Equal(t, "babel", test.Parser)
	assert.Equal(t, map[string]any{"react": map[string]any{"version": "detect", "pragma": "h"}}, test.Settings)
	assert.Equal(t, []string{"global", "override", "override"}, test.Segments)

	// global settings unchanged by the merge
	assert.Equal(t, map[string]any{"react": map[string]any{"version": "detect"}}, cfg.Global().Settings)
}

func TestResolveScopesDoesNotAliasInput(t *testing.T) {
	g := globalRules()
	cfg, err := ResolveScopes(g, nil, nil)
	require.NoError(t, err)

	cfg.Segments[0].Rules.Set(entry("no-unused", types.SeverityOff))
	assert.Equal(t, types.SeverityWarn, g.Rules["no-unused"].Severity)
}

func TestResolveScopesInvalidPattern(t *testing.T) {
	tests := []struct {
		name      string
		ignores   []string
		overrides []config.Override
	}{
		{name: "bad ignore", ignores: []string{"dist/[a"}},
		{name: "empty ignore", ignores: []string{""}},
		{name: "bad override", overrides: []config.Override{{Files: []string{"src/{a,b"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveScopes(globalRules(), tt.ignores, tt.overrides)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errUtils.ErrInvalidPattern), "got %v", err)
		})
	}

	_, err := ResolveScopes(globalRules(), nil, []config.Override{{Name: "empty"}})
	assert.Error(t, err)
}

func TestCustomMatcher(t *testing.T) {
	var calls []string
	m := MatcherFunc(func(path, pattern string) bool {
		calls = append(calls, path+"|"+pattern)
		return path == pattern
	})

	cfg, err := ResolveScopes(globalRules(), nil, []config.Override{
		{Files: []string{"exact.js"}, Rules: []types.RuleEntry{entry("no-unused", types.SeverityOff)}},
	}, WithMatcher(m))
	require.NoError(t, err)

	assert.Equal(t, types.SeverityOff, cfg.ForPath("exact.js")["no-unused"].Severity)
	assert.Equal(t, types.SeverityWarn, cfg.ForPath("other.js")["no-unused"].Severity)
	assert.Equal(t, []string{"exact.js|exact.js", "other.js|exact.js"}, calls)
}

func TestMatcherReceivesNormalizedPaths(t *testing.T) {
	var seen []string
	m := MatcherFunc(func(path, pattern string) bool {
		seen = append(seen, path)
		return path == pattern
	})

	cfg, err := ResolveScopes(globalRules(), []string{"dist"}, []config.Override{
		{Files: []string{"src/a.js"}, Rules: []types.RuleEntry{entry("no-unused", types.SeverityOff)}},
	}, WithMatcher(m))
	require.NoError(t, err)

	eff, err := cfg.Resolve(`./src\a.js`)
	require.NoError(t, err)
	assert.Equal(t, types.SeverityOff, eff.Rules["no-unused"].Severity)
	assert.Equal(t, []string{"global", "override"}, eff.Segments)
	assert.Equal(t, `./src\a.js`, eff.Path)
	assert.Equal(t, []string{"src/a.js", "src", "src/a.js"}, seen)

	seen = nil
	assert.Equal(t, types.SeverityOff, cfg.ForPath("./src/a.js")["no-unused"].Severity)
	assert.Equal(t, []string{"src/a.js", "src", "src/a.js"}, seen)

	seen = nil
	assert.True(t, cfg.Ignored(`dist\x.js`))
	assert.Equal(t, []string{"dist/x.js", "dist"}, seen)
}

func TestResolveDoesNotShareSettings(t *testing.T) {
	g := globalRules()
	cfg, err := ResolveScopes(g, nil, []config.Override{
		{Files: []string{"**"}, Settings: map[string]any{"react": map[string]any{"pragma": "h"}}},
	})
	require.NoError(t, err)

	eff, err := cfg.Resolve("a.js")
	require.NoError(t, err)
	eff.Settings["react"].(map[string]any)["pragma"] = "x"

	again, err := cfg.Resolve("a.js")
	require.NoError(t, err)
	assert.Equal(t, "h", again.Settings["react"].(map[string]any)["pragma"])
	assert.Equal(t, map[string]any{"version": "detect"}, g.Settings["react"])
}

func TestFingerprintDeterministic(t *testing.T) {
	build := func() *Configuration {
		cfg, err := ResolveScopes(globalRules(), []string{"dist/**"}, []config.Override{
			{Files: []string{"**/*.ts"}, Rules: []types.RuleEntry{
				{ID: "no-console", Severity: types.SeverityWarn, Options: []any{map[string]any{"allow": []any{"warn", "error"}}}},
			}},
		})
		require.NoError(t, err)
		return cfg
	}

	a, err := build().MarshalCanonical()
	require.NoError(t, err)
	b, err := build().MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	fa, err := build().Fingerprint()
	require.NoError(t, err)
	assert.Len(t, fa, 64)

	other, err := ResolveScopes(globalRules(), nil, nil)
	require.NoError(t, err)
	fo, err := other.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fa, fo)
}

func TestGlobMatcher(t *testing.T) {
	tests := []struct {
		path, pattern string
		want          bool
	}{
		{"src/a/b.js", "src/**/*.js", true},
		{"src/a.ts", "**/*.{js,ts}", true},
		{"src\\win\\a.js", "src/**", true},
		{"a.css", "**/*.js", false},
		{"a.js", "[", false},
	}
	for _, tt := range tests {
		t.Run(tt.path+"~"+tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, GlobMatcher{}.Match(tt.path, tt.pattern))
		})
	}
}
