// Package validate checks a segmented configuration against the provider
// registry before it is emitted.
package validate

import (
	"github.com/cockroachdb/errors"

	errUtils "github.com/dotcommander/lintcompose/internal/errors"
	"github.com/dotcommander/lintcompose/internal/registry"
	"github.com/dotcommander/lintcompose/internal/scope"
	"github.com/dotcommander/lintcompose/internal/types"
)

// Option configures Validate.
type Option func(*validator)

// WithStrict also requires namespaced rules to be declared by their provider.
func WithStrict(strict bool) Option {
	return func(v *validator) {
		v.strict = strict
	}
}

type validator struct {
	reg    *registry.Registry
	strict bool
}

// Validate walks every segment in order, and every rule in sorted ID order,
// and returns the first problem found. The configuration is returned unchanged
// on success; there is no partial result on failure.
func Validate(cfg *scope.Configuration, reg *registry.Registry, opts ...Option) (*scope.Configuration, error) {
	v := &validator{reg: reg}
	for _, opt := range opts {
		opt(v)
	}

	for _, seg := range cfg.Segments {
		for _, id := range seg.Rules.IDs() {
			if err := v.check(seg, seg.Rules[id]); err != nil {
				return nil, err
			}
		}
	}
	return cfg, nil
}

func (v *validator) check(seg scope.Segment, e types.RuleEntry) error {
	ns := e.ID.Namespace()
	switch {
	case ns == "":
		core := v.reg.CoreNamespace()
		if core == "" || !v.reg.Defines(core, e.ID) {
			return errors.WithHint(
				&errUtils.UnknownRuleError{RuleID: string(e.ID), Segment: seg.Label()},
				"bare rule ids must be defined by the core provider; prefix plugin rules with their namespace",
			)
		}
	case !v.reg.Has(ns):
		return errors.WithHintf(
			&errUtils.UnknownRuleError{RuleID: string(e.ID), Namespace: ns, Segment: seg.Label()},
			"enable the provider for %q or list it under plugins", ns,
		)
	case v.strict && !v.reg.Defines(ns, e.ID):
		return &errUtils.UnknownRuleError{RuleID: string(e.ID), Namespace: ns, Segment: seg.Label(), Undeclared: true}
	}

	if !e.Severity.Valid() {
		return errors.WithHint(
			&errUtils.InvalidSeverityError{RuleID: string(e.ID), Severity: string(e.Severity), Segment: seg.Label()},
			"use off, warn or error (or 0, 1, 2)",
		)
	}
	return nil
}
