// Package registry holds the named rule providers available to composition.
//
// Providers are registered once at process start and are read-only afterwards,
// so a populated Registry may be shared by concurrent compositions without
// locking. Register must not be called once compositions are running.
package registry

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"

	errUtils "github.com/dotcommander/lintcompose/internal/errors"
	"github.com/dotcommander/lintcompose/internal/types"
)

// Provider is a named bundle of default rule entries.
type Provider struct {
	Namespace   string            `json:"namespace" yaml:"namespace"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Tier        types.Tier        `json:"tier" yaml:"-"`
	Rules       []types.RuleEntry `json:"rules" yaml:"-"`
	DependsOn   []string          `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	// Parser selects the parser the linting engine should use when this
	// provider is active. Empty means no preference.
	Parser string `json:"parser,omitempty" yaml:"parser,omitempty"`
	// Settings are provider defaults, emitted under the provider namespace.
	Settings map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
}

func (p Provider) clone() Provider {
	out := p
	out.Rules = append([]types.RuleEntry(nil), p.Rules...)
	out.DependsOn = append([]string(nil), p.DependsOn...)
	return out
}

// Registry stores providers keyed by namespace.
type Registry struct {
	providers map[string]Provider
	rules     map[string]map[types.RuleID]struct{}
	core      string
}

// Option configures a Registry.
type Option func(*Registry)

// WithCore designates the provider that owns bare rule identifiers.
func WithCore(namespace string) Option {
	return func(r *Registry) {
		r.core = namespace
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		rules:     make(map[string]map[types.RuleID]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a provider. It fails with DuplicateProviderError if the
// namespace is taken.
func (r *Registry) Register(p Provider) error {
	if p.Namespace == "" {
		return errors.Wrap(errUtils.ErrInvalidProvider, "provider namespace is empty")
	}
	if !p.Tier.Valid() {
		return errors.Wrapf(errUtils.ErrInvalidProvider, "provider %q has unknown tier %d", p.Namespace, int(p.Tier))
	}
	if _, exists := r.providers[p.Namespace]; exists {
		return &errUtils.DuplicateProviderError{Namespace: p.Namespace}
	}

	index := make(map[types.RuleID]struct{}, len(p.Rules))
	for _, e := range p.Rules {
		if e.ID == "" {
			return errors.Wrapf(errUtils.ErrInvalidProvider, "provider %q has a rule with an empty identifier", p.Namespace)
		}
		if _, dup := index[e.ID]; dup {
			return errors.Wrapf(errUtils.ErrInvalidProvider, "provider %q declares rule %q twice", p.Namespace, e.ID)
		}
		index[e.ID] = struct{}{}
	}
	for _, dep := range p.DependsOn {
		if dep == p.Namespace {
			return errUtils.NewCyclicDependency([]string{dep, dep})
		}
	}

	r.providers[p.Namespace] = p.clone()
	r.rules[p.Namespace] = index
	return nil
}

// MustRegister is Register for static provider tables; it panics on error.
func (r *Registry) MustRegister(providers ...Provider) {
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			panic(fmt.Sprintf("registry: %v", err))
		}
	}
}

// Lookup returns the provider registered under namespace.
func (r *Registry) Lookup(namespace string) (Provider, error) {
	p, ok := r.providers[namespace]
	if !ok {
		return Provider{}, &errUtils.UnknownProviderError{Namespace: namespace}
	}
	return p.clone(), nil
}

// Has reports whether namespace is registered.
func (r *Registry) Has(namespace string) bool {
	_, ok := r.providers[namespace]
	return ok
}

// Defines reports whether the provider registered under namespace declares id.
func (r *Registry) Defines(namespace string, id types.RuleID) bool {
	_, ok := r.rules[namespace][id]
	return ok
}

// Core returns the designated core provider, if one is registered.
func (r *Registry) Core() (Provider, bool) {
	if r.core == "" {
		return Provider{}, false
	}
	p, ok := r.providers[r.core]
	if !ok {
		return Provider{}, false
	}
	return p.clone(), true
}

// CoreNamespace returns the namespace designated as core.
func (r *Registry) CoreNamespace() string {
	return r.core
}

// Namespaces returns all registered namespaces in sorted order.
func (r *Registry) Namespaces() []string {
	names := make([]string, 0, len(r.providers))
	for ns := range r.providers {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.providers)
}
