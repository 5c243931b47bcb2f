// Package types provides shared types used across the lintcompose codebase.
// This package is at the bottom of the dependency graph and should not import
// any other internal packages to avoid circular dependencies.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Severity is a rule severity as written in configuration.
// Unrecognized values are preserved verbatim so validation can report them.
type Severity string

// Severity level constants.
const (
	SeverityOff   Severity = "off"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Valid reports whether s is one of off, warn or error.
func (s Severity) Valid() bool {
	switch s {
	case SeverityOff, SeverityWarn, SeverityError:
		return true
	}
	return false
}

// ParseSeverity normalizes a raw severity value. Numeric levels 0, 1 and 2 map
// to off, warn and error. Anything else is returned as its string form.
func ParseSeverity(v any) Severity {
	switch s := v.(type) {
	case Severity:
		return s
	case string:
		switch strings.TrimSpace(s) {
		case "0":
			return SeverityOff
		case "1":
			return SeverityWarn
		case "2":
			return SeverityError
		}
		return Severity(s)
	case int:
		return severityFromLevel(int64(s))
	case int64:
		return severityFromLevel(s)
	case uint64:
		return severityFromLevel(int64(s))
	case float64:
		if s == float64(int64(s)) {
			return severityFromLevel(int64(s))
		}
	}
	return Severity(fmt.Sprint(v))
}

func severityFromLevel(n int64) Severity {
	switch n {
	case 0:
		return SeverityOff
	case 1:
		return SeverityWarn
	case 2:
		return SeverityError
	}
	return Severity(fmt.Sprint(n))
}

// RuleID identifies a rule, either bare ("no-unused") or namespaced
// ("react/jsx-key", "@tanstack/query/exhaustive-deps").
type RuleID string

// Namespace returns everything before the last slash, or "" for bare IDs.
func (id RuleID) Namespace() string {
	i := strings.LastIndex(string(id), "/")
	if i < 0 {
		return ""
	}
	return string(id[:i])
}

// Name returns the rule name without its namespace.
func (id RuleID) Name() string {
	i := strings.LastIndex(string(id), "/")
	return string(id[i+1:])
}

// RuleEntry is a rule with its severity and opaque options payload.
type RuleEntry struct {
	ID       RuleID   `json:"id" yaml:"id"`
	Severity Severity `json:"severity" yaml:"severity"`
	Options  []any    `json:"options,omitempty" yaml:"options,omitempty"`
}

// ParseRuleEntry builds an entry from the config forms `sev` or `[sev, opts...]`.
func ParseRuleEntry(id RuleID, v any) RuleEntry {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return RuleEntry{ID: id}
		}
		entry := RuleEntry{ID: id, Severity: ParseSeverity(list[0])}
		if len(list) > 1 {
			entry.Options = append([]any(nil), list[1:]...)
		}
		return entry
	}
	return RuleEntry{ID: id, Severity: ParseSeverity(v)}
}

// RuleTable maps rule identifiers to their entries.
type RuleTable map[RuleID]RuleEntry

// Clone returns a shallow copy of the table.
func (t RuleTable) Clone() RuleTable {
	out := make(RuleTable, len(t))
	for id, e := range t {
		out[id] = e
	}
	return out
}

// Set replaces or inserts an entry.
func (t RuleTable) Set(e RuleEntry) {
	t[e.ID] = e
}

// IDs returns the rule identifiers in sorted order.
func (t RuleTable) IDs() []RuleID {
	ids := make([]RuleID, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Tier orders providers for collision resolution. Higher tiers win.
type Tier int

// Provider tiers, lowest precedence first.
const (
	TierCore Tier = iota
	TierFramework
	TierFormatter
	TierPlugin
)

var tierNames = map[Tier]string{
	TierCore:      "core",
	TierFramework: "framework",
	TierFormatter: "formatter",
	TierPlugin:    "plugin",
}

// String returns the tier name.
func (t Tier) String() string {
	if n, ok := tierNames[t]; ok {
		return n
	}
	return "unknown"
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

// ParseTier converts a tier name. An empty name means core.
func ParseTier(s string) (Tier, bool) {
	if s == "" {
		return TierCore, true
	}
	for t, n := range tierNames {
		if n == s {
			return t, true
		}
	}
	return 0, false
}

// Output format constants.
const (
	FormatConsole  = "console"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)
