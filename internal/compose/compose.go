// Package compose merges the rule contributions of activated providers into a
// single rule table.
//
// Fold order is a total order that never depends on registration order:
// dependencies are always folded before their dependents; otherwise lower
// tiers fold first (core, framework, formatter, plugin); within a tier the
// earlier directive folds first; within a directive the dependency-sorted
// position decides. The last write wins, so later providers override earlier
// ones. A provider reachable from several directives is folded once, at its
// earliest position.
package compose

import (
	"io"

	"dario.cat/mergo"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	errUtils "github.com/dotcommander/lintcompose/internal/errors"
	"github.com/dotcommander/lintcompose/internal/options"
	"github.com/dotcommander/lintcompose/internal/registry"
	"github.com/dotcommander/lintcompose/internal/types"
)

// SubOptionOverrides is the directive sub-option holding rule overrides that
// apply right after the directive's provider is folded.
const SubOptionOverrides = "overrides"

// Result is the merged output of a composition.
type Result struct {
	Rules types.RuleTable
	// Plugins lists activated provider namespaces in fold order.
	Plugins []string
	// Parser is the parser declared by the last folded provider declaring one.
	Parser string
	// Settings holds provider settings keyed by namespace.
	Settings map[string]any
}

// Composer folds providers from a registry.
type Composer struct {
	reg    *registry.Registry
	logger *log.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger used for fold tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Composer over reg.
func New(reg *registry.Registry, opts ...Option) *Composer {
	c := &Composer{reg: reg, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// foldKey positions a provider in the fold order.
type foldKey struct {
	tier  types.Tier
	order int
	pos   int
}

func (k foldKey) less(o foldKey) bool {
	if k.tier != o.tier {
		return k.tier < o.tier
	}
	if k.order != o.order {
		return k.order < o.order
	}
	return k.pos < o.pos
}

type activation struct {
	provider registry.Provider
	key      foldKey
	subOpts  []map[string]any
}

// Compose folds every provider activated by directives into one rule table.
func (c *Composer) Compose(directives []options.Directive) (*Result, error) {
	active, err := c.activate(directives)
	if err != nil {
		return nil, err
	}

	order := foldOrder(active)

	res := &Result{
		Rules:    make(types.RuleTable),
		Settings: make(map[string]any),
	}
	for _, ns := range order {
		a := active[ns]
		for _, e := range a.provider.Rules {
			res.Rules.Set(e)
		}
		if a.provider.Parser != "" {
			res.Parser = a.provider.Parser
		}
		res.Plugins = append(res.Plugins, ns)

		settings, err := applySubOptions(res.Rules, a)
		if err != nil {
			return nil, err
		}
		if len(settings) > 0 {
			res.Settings[ns] = settings
		}

		c.logger.Debug("folded provider", "namespace", ns, "tier", a.key.tier, "rules", len(a.provider.Rules))
	}

	return res, nil
}

// activate resolves each enabled directive's dependencies and records the
// earliest fold key for every reachable provider.
func (c *Composer) activate(directives []options.Directive) (map[string]*activation, error) {
	active := make(map[string]*activation)

	for _, d := range directives {
		if !d.Enabled {
			c.logger.Debug("skipping disabled provider", "namespace", d.Namespace, "source", d.Source)
			continue
		}

		deps, err := c.reg.ResolveDependencies(d.Namespace)
		if err != nil {
			return nil, errors.Wrapf(err, "activating %s", d.Source)
		}

		for pos, p := range deps {
			tier := p.Tier
			if p.Namespace == d.Namespace {
				// The directive decides the tier of the provider it names.
				tier = d.Tier
			}
			key := foldKey{tier: tier, order: d.Order, pos: pos}

			a, ok := active[p.Namespace]
			if !ok {
				a = &activation{provider: p, key: key}
				active[p.Namespace] = a
			} else if key.less(a.key) {
				a.key = key
			}
		}

		if d.Options != nil {
			root := active[d.Namespace]
			root.subOpts = append(root.subOpts, d.Options)
		}
	}

	return active, nil
}

// foldOrder is a topological sort over the activated providers that always
// picks the ready provider with the smallest fold key.
func foldOrder(active map[string]*activation) []string {
	pending := make(map[string]int, len(active))
	dependents := make(map[string][]string, len(active))
	for ns, a := range active {
		pending[ns] = len(a.provider.DependsOn)
		for _, dep := range a.provider.DependsOn {
			dependents[dep] = append(dependents[dep], ns)
		}
	}

	ready := make([]string, 0, len(active))
	for ns, n := range pending {
		if n == 0 {
			ready = append(ready, ns)
		}
	}

	order := make([]string, 0, len(active))
	for len(ready) > 0 {
		best := 0
		for i := 1; i < len(ready); i++ {
			if before(active[ready[i]], active[ready[best]]) {
				best = i
			}
		}
		ns := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		order = append(order, ns)

		for _, dep := range dependents[ns] {
			pending[dep]--
			if pending[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	return order
}

func before(a, b *activation) bool {
	if a.key != b.key {
		return a.key.less(b.key)
	}
	return a.provider.Namespace < b.provider.Namespace
}

// applySubOptions applies `overrides` sub-options to rules and returns the
// provider settings merged with the remaining sub-options.
func applySubOptions(rules types.RuleTable, a *activation) (map[string]any, error) {
	settings := cloneMap(a.provider.Settings)

	for _, opts := range a.subOpts {
		rest := make(map[string]any, len(opts))
		for k, v := range opts {
			if k != SubOptionOverrides {
				rest[k] = cloneValue(v)
				continue
			}
			overrides, ok := v.(map[string]any)
			if !ok {
				return nil, errors.Mark(
					errors.Newf("%s: sub-option %q must be a mapping of rule id to severity", a.provider.Namespace, SubOptionOverrides),
					errUtils.ErrInvalidConfig,
				)
			}
			for id, sev := range overrides {
				rules.Set(types.ParseRuleEntry(types.RuleID(id), sev))
			}
		}

		if len(rest) == 0 {
			continue
		}
		if settings == nil {
			settings = make(map[string]any, len(rest))
		}
		if err := mergo.Merge(&settings, rest, mergo.WithOverride); err != nil {
			return nil, errors.Wrapf(err, "merging %s settings", a.provider.Namespace)
		}
	}

	return settings, nil
}
