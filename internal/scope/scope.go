// Package scope splits a composed rule table into path-scoped segments and
// resolves the effective table for a single path.
//
// Segments are ordered: the global segment first, then one segment per
// override block in declared order, then an ignored sentinel when ignore
// patterns exist. Ignores take absolute precedence: an ignored path gets an
// empty table no matter which overrides match it.
package scope

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/dotcommander/lintcompose/internal/compose"
	"github.com/dotcommander/lintcompose/internal/config"
	"github.com/dotcommander/lintcompose/internal/types"
)

// Kind identifies what a segment applies to.
type Kind string

// Segment kinds.
const (
	KindGlobal   Kind = "global"
	KindOverride Kind = "override"
	KindIgnored  Kind = "ignored"
)

// Segment is a path-scoped slice of the composed configuration.
type Segment struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Files are the patterns the segment applies to. Empty for global.
	Files    []string        `json:"files,omitempty" yaml:"files,omitempty"`
	Rules    types.RuleTable `json:"rules" yaml:"rules"`
	Parser   string          `json:"parser,omitempty" yaml:"parser,omitempty"`
	Plugins  []string        `json:"plugins,omitempty" yaml:"plugins,omitempty"`
	Settings map[string]any  `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Label is a human-readable segment name used in diagnostics.
func (s Segment) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.Kind)
}

// Global is the unscoped result of composition and overrides.
type Global struct {
	Rules    types.RuleTable
	Parser   string
	Plugins  []string
	Settings map[string]any
}

// Configuration is the ordered list of segments.
type Configuration struct {
	Segments []Segment `json:"segments" yaml:"segments"`

	matcher Matcher
}

// Option configures ResolveScopes.
type Option func(*Configuration)

// WithMatcher replaces the default doublestar matcher.
func WithMatcher(m Matcher) Option {
	return func(c *Configuration) {
		if m != nil {
			c.matcher = m
		}
	}
}

// ResolveScopes builds the segmented configuration. Every pattern is checked
// up front; a malformed one fails with ErrInvalidPattern.
func ResolveScopes(global Global, ignores []string, overrides []config.Override, opts ...Option) (*Configuration, error) {
	cfg := &Configuration{matcher: GlobMatcher{}}
	for _, opt := range opts {
		opt(cfg)
	}

	rules := global.Rules.Clone()
	cfg.Segments = append(cfg.Segments, Segment{
		Kind:     KindGlobal,
		Rules:    rules,
		Parser:   global.Parser,
		Plugins:  append([]string(nil), global.Plugins...),
		Settings: cloneSettings(global.Settings),
	})

	for i, o := range overrides {
		if len(o.Files) == 0 {
			return nil, errors.Newf("override %d has no file patterns", i)
		}
		for _, p := range o.Files {
			if err := ValidatePattern(p); err != nil {
				return nil, errors.Wrapf(err, "override %d", i)
			}
		}
		table := make(types.RuleTable, len(o.Rules))
		for _, e := range o.Rules {
			table.Set(e)
		}
		cfg.Segments = append(cfg.Segments, Segment{
			Kind:     KindOverride,
			Name:     o.Name,
			Files:    append([]string(nil), o.Files...),
			Rules:    table,
			Parser:   o.Parser,
			Settings: cloneSettings(o.Settings),
		})
	}

	if len(ignores) > 0 {
		for _, p := range ignores {
			if err := ValidatePattern(p); err != nil {
				return nil, errors.Wrap(err, "ignores")
			}
		}
		cfg.Segments = append(cfg.Segments, Segment{
			Kind:  KindIgnored,
			Files: append([]string(nil), ignores...),
			Rules: types.RuleTable{},
		})
	}

	return cfg, nil
}

// Effective is the resolved view of the configuration for one path.
type Effective struct {
	Path     string          `json:"path" yaml:"path"`
	Ignored  bool            `json:"ignored" yaml:"ignored"`
	Rules    types.RuleTable `json:"rules" yaml:"rules"`
	Parser   string          `json:"parser,omitempty" yaml:"parser,omitempty"`
	Settings map[string]any  `json:"settings,omitempty" yaml:"settings,omitempty"`
	// Segments lists the labels of the segments that applied, in order.
	Segments []string `json:"segments,omitempty" yaml:"segments,omitempty"`
}

// ForPath returns the effective rule table for path. Ignored paths get an
// empty table.
func (c *Configuration) ForPath(path string) types.RuleTable {
	rules := types.RuleTable{}
	p := normalizePath(path)
	if c.ignored(p) {
		return rules
	}
	for _, seg := range c.applicable(p) {
		for _, e := range seg.Rules {
			rules.Set(e)
		}
	}
	return rules
}

// Resolve returns the effective rules, parser and settings for path. Matching
// override segments are merged over global in order, so later ones win.
func (c *Configuration) Resolve(path string) (Effective, error) {
	p := normalizePath(path)
	eff := Effective{Path: path, Rules: types.RuleTable{}}
	if c.ignored(p) {
		eff.Ignored = true
		return eff, nil
	}

	for _, seg := range c.applicable(p) {
		for _, e := range seg.Rules {
			eff.Rules.Set(e)
		}
		if seg.Parser != "" {
			eff.Parser = seg.Parser
		}
		if len(seg.Settings) > 0 {
			merged, err := compose.MergeSettings(eff.Settings, seg.Settings)
			if err != nil {
				return Effective{}, errors.Wrapf(err, "merging %s settings for %s", seg.Label(), path)
			}
			eff.Settings = merged
		}
		eff.Segments = append(eff.Segments, seg.Label())
	}
	return eff, nil
}

// applicable returns the global and override segments that apply to the
// normalized path p, in order. Callers check ignores first.
func (c *Configuration) applicable(p string) []Segment {
	var out []Segment
	for _, seg := range c.Segments {
		switch seg.Kind {
		case KindGlobal:
		case KindOverride:
			if !c.matchAny(p, seg.Files) {
				continue
			}
		default:
			continue
		}
		out = append(out, seg)
	}
	return out
}

// Ignored reports whether path, or any of its parent directories, matches an
// ignore pattern.
func (c *Configuration) Ignored(path string) bool {
	return c.ignored(normalizePath(path))
}

func (c *Configuration) ignored(p string) bool {
	for _, seg := range c.Segments {
		if seg.Kind != KindIgnored {
			continue
		}
		for _, a := range ancestors(p) {
			if c.matchAny(a, seg.Files) {
				return true
			}
		}
	}
	return false
}

// Global returns the global segment.
func (c *Configuration) Global() Segment {
	for _, seg := range c.Segments {
		if seg.Kind == KindGlobal {
			return seg
		}
	}
	return Segment{Kind: KindGlobal, Rules: types.RuleTable{}}
}

// MarshalCanonical encodes the configuration as JSON. Map keys are sorted by
// encoding/json, so equal configurations encode to identical bytes.
func (c *Configuration) MarshalCanonical() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encoding configuration")
	}
	return data, nil
}

// Fingerprint returns the hex sha256 of the canonical encoding.
func (c *Configuration) Fingerprint() (string, error) {
	data, err := c.MarshalCanonical()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (c *Configuration) matchAny(path string, patterns []string) bool {
	m := c.matcher
	if m == nil {
		m = GlobMatcher{}
	}
	for _, p := range patterns {
		if m.Match(path, p) {
			return true
		}
	}
	return false
}

func cloneSettings(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return compose.CloneSettings(m)
}
