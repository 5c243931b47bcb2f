// Package options turns the top-level keys of a composition document into
// provider activation directives.
//
// Every recognized key is listed in a flag table. Keys outside the table are
// rejected rather than ignored, so a misspelled flag fails loudly instead of
// silently composing without the provider the user asked for.
package options

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/dotcommander/lintcompose/internal/config"
	errUtils "github.com/dotcommander/lintcompose/internal/errors"
	"github.com/dotcommander/lintcompose/internal/types"
)

// Flag describes one recognized provider flag.
type Flag struct {
	// Name is the top-level document key.
	Name string
	// Namespace is the provider the flag activates.
	Namespace string
	Tier      types.Tier
	// Default enables the provider when the document does not mention the flag.
	Default bool
	// Doc is shown by `lintcompose providers`.
	Doc string
}

// Built-in provider namespaces.
const (
	NamespaceJavaScript = "javascript"
	NamespaceTypeScript = "ts"
	NamespaceStylistic  = "style"
	NamespaceReact      = "react"
	NamespaceVue        = "vue"
	NamespaceFormatters = "format"
)

// Flags is the built-in flag table.
var Flags = []Flag{
	{
		Name: "javascript", Namespace: NamespaceJavaScript, Tier: types.TierCore, Default: true,
		Doc: "Core language rules. Bare rule ids belong to this provider.",
	},
	{
		Name: "typescript", Namespace: NamespaceTypeScript, Tier: types.TierCore,
		Doc: "TypeScript rules (ts/*) and the TypeScript parser.",
	},
	{
		Name: "stylistic", Namespace: NamespaceStylistic, Tier: types.TierCore,
		Doc: "Code style rules (style/*).",
	},
	{
		Name: "react", Namespace: NamespaceReact, Tier: types.TierFramework,
		Doc: "React rules (react/*), pulls in react-hooks.",
	},
	{
		Name: "vue", Namespace: NamespaceVue, Tier: types.TierFramework,
		Doc: "Vue single-file component rules (vue/*) and the Vue parser.",
	},
	{
		Name: "formatters", Namespace: NamespaceFormatters, Tier: types.TierFormatter,
		Doc: "External formatter integration. Disables style rules it supersedes.",
	},
}

// Directive activates or deactivates one provider.
type Directive struct {
	Namespace string
	Enabled   bool
	// Options are flag sub-options, passed through unchanged.
	Options map[string]any
	Tier    types.Tier
	// Order is the directive's position; it breaks ties within a tier.
	Order int
	// Source is the document key that produced the directive.
	Source string
}

// Resolver maps document keys to directives using a flag table.
type Resolver struct {
	flags []Flag
	index map[string]Flag
}

// NewResolver creates a Resolver for the given flag table.
func NewResolver(flags []Flag) *Resolver {
	r := &Resolver{
		flags: append([]Flag(nil), flags...),
		index: make(map[string]Flag, len(flags)),
	}
	for _, f := range flags {
		r.index[f.Name] = f
	}
	return r
}

// Resolve produces directives for doc in a stable order: default-on flags the
// document does not mention, then document flags as declared, then plugins
// as declared.
func Resolve(doc *config.Document) ([]Directive, error) {
	return NewResolver(Flags).Resolve(doc)
}

// Resolve produces directives for doc. See the package-level Resolve.
func (r *Resolver) Resolve(doc *config.Document) ([]Directive, error) {
	mentioned := make(map[string]bool, len(doc.Flags))
	for _, e := range doc.Flags {
		mentioned[e.Name] = true
	}

	var out []Directive
	add := func(d Directive) {
		d.Order = len(out)
		out = append(out, d)
	}

	for _, f := range r.flags {
		if f.Default && !mentioned[f.Name] {
			add(Directive{Namespace: f.Namespace, Enabled: true, Tier: f.Tier, Source: f.Name})
		}
	}

	for _, e := range doc.Flags {
		f, ok := r.index[e.Name]
		if !ok {
			return nil, errUtils.NewUnknownOption(e.Name, "", r.names())
		}
		enabled, opts, err := toggle(e.Value, f.Default)
		if err != nil {
			return nil, errUtils.NewUnknownOption(e.Name, err.Error(), r.names())
		}
		add(Directive{Namespace: f.Namespace, Enabled: enabled, Options: opts, Tier: f.Tier, Source: f.Name})
	}

	seen := make(map[string]bool, len(doc.Plugins))
	for _, e := range doc.Plugins {
		if seen[e.Name] {
			return nil, errors.Mark(errors.Newf("plugin %q is listed twice", e.Name), errUtils.ErrInvalidConfig)
		}
		seen[e.Name] = true

		enabled, opts, err := toggle(e.Value, true)
		if err != nil {
			return nil, errUtils.NewUnknownOption(config.KeyPlugins+"."+e.Name, err.Error(), nil)
		}
		add(Directive{Namespace: e.Name, Enabled: enabled, Options: opts, Tier: types.TierPlugin, Source: config.KeyPlugins})
	}

	return out, nil
}

// Lookup returns the flag registered under name.
func (r *Resolver) Lookup(name string) (Flag, bool) {
	f, ok := r.index[name]
	return f, ok
}

func (r *Resolver) names() []string {
	names := make([]string, 0, len(r.flags)+4)
	for _, f := range r.flags {
		names = append(names, f.Name)
	}
	return append(names, config.KeyRules, config.KeyIgnores, config.KeyOverrides, config.KeyPlugins, config.KeySettings)
}

// toggle interprets a flag value: a bool, an object of sub-options (enabled),
// or null (the flag default).
func toggle(v any, def bool) (bool, map[string]any, error) {
	switch val := v.(type) {
	case nil:
		return def, nil, nil
	case bool:
		return val, nil, nil
	case map[string]any:
		return true, val, nil
	}
	return false, nil, fmt.Errorf("invalid value %v: expected a boolean or an object", v)
}
