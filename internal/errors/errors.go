// Package errors defines the composition error taxonomy.
//
// Every error is structural: it is detected synchronously, carries the
// offending identifier, and is never retried. Typed errors match their
// sentinel with errors.Is and can be unpacked with errors.As.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinels for errors.Is checks.
var (
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrDuplicateProvider = errors.New("duplicate provider")
	ErrCyclicDependency  = errors.New("cyclic provider dependency")
	ErrUnknownOption     = errors.New("unknown option")
	ErrUnknownRule       = errors.New("unknown rule")
	ErrInvalidSeverity   = errors.New("invalid severity")

	ErrInvalidProvider = errors.New("invalid provider")
	ErrInvalidPattern  = errors.New("invalid glob pattern")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrLockMismatch    = errors.New("composed configuration does not match lockfile")
)

// UnknownProviderError reports a namespace that is not registered.
type UnknownProviderError struct {
	Namespace string
	// RequiredBy is set when the lookup came from a dependency declaration.
	RequiredBy string
}

func (e *UnknownProviderError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("unknown provider %q (required by %q)", e.Namespace, e.RequiredBy)
	}
	return fmt.Sprintf("unknown provider %q", e.Namespace)
}

// Is matches ErrUnknownProvider.
func (e *UnknownProviderError) Is(target error) bool { return target == ErrUnknownProvider }

// DuplicateProviderError reports a second registration of a namespace.
type DuplicateProviderError struct {
	Namespace string
}

func (e *DuplicateProviderError) Error() string {
	return fmt.Sprintf("provider %q is already registered", e.Namespace)
}

// Is matches ErrDuplicateProvider.
func (e *DuplicateProviderError) Is(target error) bool { return target == ErrDuplicateProvider }

// CyclicDependencyError reports a dependency cycle. Path starts and ends
// with the same namespace.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic provider dependency: " + strings.Join(e.Path, " -> ")
}

// Is matches ErrCyclicDependency.
func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclicDependency }

// UnknownOptionError reports a top-level key that is not a recognized flag,
// or a flag with a value of the wrong shape.
type UnknownOptionError struct {
	Name   string
	Reason string
	Known  []string
}

func (e *UnknownOptionError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "not a recognized option"
	}
	return fmt.Sprintf("option %q: %s", e.Name, reason)
}

// Is matches ErrUnknownOption.
func (e *UnknownOptionError) Is(target error) bool { return target == ErrUnknownOption }

// UnknownRuleError reports a rule whose namespace (or core rule name) is not
// provided by any registered provider.
type UnknownRuleError struct {
	RuleID    string
	Namespace string
	Segment   string
	// Undeclared is set when the provider exists but does not declare the rule.
	Undeclared bool
}

func (e *UnknownRuleError) Error() string {
	if e.Undeclared {
		return fmt.Sprintf("unknown rule %q in %s segment: not declared by provider %q", e.RuleID, e.Segment, e.Namespace)
	}
	if e.Namespace == "" {
		return fmt.Sprintf("unknown rule %q in %s segment: not defined by the core provider", e.RuleID, e.Segment)
	}
	return fmt.Sprintf("unknown rule %q in %s segment: no provider for namespace %q", e.RuleID, e.Segment, e.Namespace)
}

// Is matches ErrUnknownRule.
func (e *UnknownRuleError) Is(target error) bool { return target == ErrUnknownRule }

// InvalidSeverityError reports a severity outside off, warn and error.
type InvalidSeverityError struct {
	RuleID   string
	Severity string
	Segment  string
}

func (e *InvalidSeverityError) Error() string {
	return fmt.Sprintf("rule %q in %s segment has invalid severity %q", e.RuleID, e.Segment, e.Severity)
}

// Is matches ErrInvalidSeverity.
func (e *InvalidSeverityError) Is(target error) bool { return target == ErrInvalidSeverity }

// NewUnknownOption builds an UnknownOptionError with a hint listing the
// recognized flags.
func NewUnknownOption(name, reason string, known []string) error {
	sorted := append([]string(nil), known...)
	sort.Strings(sorted)
	err := error(&UnknownOptionError{Name: name, Reason: reason, Known: sorted})
	if len(sorted) > 0 {
		err = errors.WithHintf(err, "recognized options: %s", strings.Join(sorted, ", "))
	}
	return err
}

// NewCyclicDependency builds a CyclicDependencyError with a hint.
func NewCyclicDependency(path []string) error {
	return errors.WithHint(
		&CyclicDependencyError{Path: append([]string(nil), path...)},
		"remove one of the dependency declarations along the cycle",
	)
}

// Hints returns all user-facing hints attached to err.
func Hints(err error) []string {
	return errors.GetAllHints(err)
}
