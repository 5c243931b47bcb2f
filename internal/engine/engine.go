// Package engine runs the full composition pipeline over a parsed document:
// shape check, option resolution, provider folding, user overrides, path
// scoping and validation.
//
// An Engine holds only read-only state and may be shared by concurrent
// callers. Every Compose call derives its own Configuration.
package engine

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/dotcommander/lintcompose/internal/compose"
	"github.com/dotcommander/lintcompose/internal/config"
	"github.com/dotcommander/lintcompose/internal/cue"
	"github.com/dotcommander/lintcompose/internal/options"
	"github.com/dotcommander/lintcompose/internal/registry"
	"github.com/dotcommander/lintcompose/internal/scope"
	"github.com/dotcommander/lintcompose/internal/validate"
)

// Engine composes configurations against one registry.
type Engine struct {
	reg       *registry.Registry
	resolver  *options.Resolver
	composer  *compose.Composer
	schema    *cue.Validator
	matcher   scope.Matcher
	logger    *log.Logger
	strict    bool
	flags     []options.Flag
	skipShape bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for stage tracing.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMatcher replaces the default doublestar path matcher.
func WithMatcher(m scope.Matcher) Option {
	return func(e *Engine) {
		e.matcher = m
	}
}

// WithStrict requires namespaced rules to be declared by their provider.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithFlags replaces the built-in provider flag table.
func WithFlags(flags []options.Flag) Option {
	return func(e *Engine) {
		e.flags = flags
	}
}

// WithoutShapeCheck skips the CUE document schema.
func WithoutShapeCheck() Option {
	return func(e *Engine) {
		e.skipShape = true
	}
}

// New creates an Engine over a populated registry.
func New(reg *registry.Registry, opts ...Option) (*Engine, error) {
	e := &Engine{
		reg:    reg,
		logger: log.New(io.Discard),
		flags:  options.Flags,
	}
	for _, opt := range opts {
		opt(e)
	}

	if !e.skipShape {
		e.schema = cue.NewValidator()
		if err := e.schema.LoadSchemas(); err != nil {
			return nil, errors.Wrap(err, "loading document schema")
		}
	}
	e.resolver = options.NewResolver(e.flags)
	e.composer = compose.New(reg, compose.WithLogger(e.logger))
	return e, nil
}

// Registry returns the registry the engine composes against.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Compose runs the pipeline over doc. On any failure no configuration is
// returned.
func (e *Engine) Compose(doc *config.Document) (*scope.Configuration, error) {
	if e.schema != nil {
		if err := e.schema.ValidateConfig(doc.Raw); err != nil {
			return nil, err
		}
	}

	directives, err := e.resolver.Resolve(doc)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("resolved options", "directives", len(directives))

	res, err := e.composer.Compose(directives)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("composed providers", "plugins", res.Plugins, "rules", len(res.Rules))

	rules := compose.ApplyOverrides(res.Rules, doc.Rules)
	e.logger.Debug("applied overrides", "entries", len(doc.Rules))

	settings, err := compose.MergeSettings(res.Settings, doc.Settings)
	if err != nil {
		return nil, errors.Wrap(err, "merging document settings")
	}

	var scopeOpts []scope.Option
	if e.matcher != nil {
		scopeOpts = append(scopeOpts, scope.WithMatcher(e.matcher))
	}
	cfg, err := scope.ResolveScopes(scope.Global{
		Rules:    rules,
		Parser:   res.Parser,
		Plugins:  res.Plugins,
		Settings: settings,
	}, doc.Ignores, doc.Overrides, scopeOpts...)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("resolved scopes", "segments", len(cfg.Segments))

	cfg, err = validate.Validate(cfg, e.reg, validate.WithStrict(e.strict))
	if err != nil {
		return nil, err
	}
	e.logger.Debug("validated configuration", "strict", e.strict)

	return cfg, nil
}

// ComposeFile loads the document at path and composes it.
func (e *Engine) ComposeFile(path string) (*scope.Configuration, error) {
	doc, err := config.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("loaded document", "path", path)
	return e.Compose(doc)
}
