// Package presets loads provider definitions: the built-in set embedded in the
// binary and any extra definitions found in a provider directory.
//
// A definition file is YAML or JSON:
//
//	namespace: react
//	tier: framework
//	dependsOn: [react-hooks]
//	rules:
//	  react/jsx-key: error
//	  react/no-danger: [warn, {allow: []}]
//
// Rule order is kept as written.
package presets

import (
	"embed"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/lintcompose/internal/cue"
	errUtils "github.com/dotcommander/lintcompose/internal/errors"
	"github.com/dotcommander/lintcompose/internal/registry"
	"github.com/dotcommander/lintcompose/internal/types"
)

//go:embed providers/*.yaml
var builtinFS embed.FS

// CoreNamespace owns bare rule identifiers.
const CoreNamespace = "javascript"

// DefinitionPattern selects provider definition files inside a provider directory.
const DefinitionPattern = "**/*.provider.{yaml,yml,json}"

// Loader parses provider definitions and checks them against the provider schema.
type Loader struct {
	validator *cue.Validator
	logger    *log.Logger
}

// NewLoader creates a Loader with the embedded schemas loaded.
func NewLoader(logger *log.Logger) (*Loader, error) {
	v := cue.NewValidator()
	if err := v.LoadSchemas(); err != nil {
		return nil, errors.Wrap(err, "loading provider schema")
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loader{validator: v, logger: logger}, nil
}

// Builtin returns the embedded providers sorted by namespace.
func (l *Loader) Builtin() ([]registry.Provider, error) {
	return l.loadFS(builtinFS, "providers/*.yaml")
}

// LoadDir returns the providers defined under dir, in sorted path order.
func (l *Loader) LoadDir(dir string) ([]registry.Provider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "provider directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf("provider directory %s is not a directory", dir)
	}
	return l.loadFS(os.DirFS(dir), DefinitionPattern)
}

func (l *Loader) loadFS(fsys fs.FS, pattern string) ([]registry.Provider, error) {
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Wrapf(err, "globbing %s", pattern)
	}
	sort.Strings(matches)

	providers := make([]registry.Provider, 0, len(matches))
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", name)
		}
		p, err := l.Parse(data)
		if err != nil {
			return nil, errors.Wrapf(err, "provider %s", path.Base(name))
		}
		l.logger.Debug("loaded provider", "namespace", p.Namespace, "file", name, "rules", len(p.Rules))
		providers = append(providers, p)
	}
	return providers, nil
}

// Parse decodes one provider definition.
func (l *Loader) Parse(data []byte) (registry.Provider, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return registry.Provider{}, errors.Mark(errors.Wrap(err, "malformed provider definition"), errUtils.ErrInvalidProvider)
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return registry.Provider{}, errors.Wrap(errUtils.ErrInvalidProvider, "provider definition must be a mapping")
	}
	top := root.Content[0]

	raw := map[string]any{}
	if err := top.Decode(&raw); err != nil {
		return registry.Provider{}, errors.Mark(errors.Wrap(err, "malformed provider definition"), errUtils.ErrInvalidProvider)
	}
	if err := l.validator.ValidateProvider(raw); err != nil {
		return registry.Provider{}, err
	}

	var def struct {
		Namespace   string         `yaml:"namespace"`
		Description string         `yaml:"description"`
		Tier        string         `yaml:"tier"`
		DependsOn   []string       `yaml:"dependsOn"`
		Parser      string         `yaml:"parser"`
		Settings    map[string]any `yaml:"settings"`
	}
	if err := top.Decode(&def); err != nil {
		return registry.Provider{}, errors.Mark(err, errUtils.ErrInvalidProvider)
	}
	tier, ok := types.ParseTier(def.Tier)
	if !ok {
		return registry.Provider{}, errors.Wrapf(errUtils.ErrInvalidProvider, "unknown tier %q", def.Tier)
	}

	p := registry.Provider{
		Namespace:   def.Namespace,
		Description: def.Description,
		Tier:        tier,
		DependsOn:   def.DependsOn,
		Parser:      def.Parser,
		Settings:    def.Settings,
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value != "rules" {
			continue
		}
		rules := top.Content[i+1]
		for j := 0; j+1 < len(rules.Content); j += 2 {
			var v any
			if err := rules.Content[j+1].Decode(&v); err != nil {
				return registry.Provider{}, errors.Mark(err, errUtils.ErrInvalidProvider)
			}
			p.Rules = append(p.Rules, types.ParseRuleEntry(types.RuleID(rules.Content[j].Value), v))
		}
	}

	for _, e := range p.Rules {
		if !e.Severity.Valid() {
			return registry.Provider{}, errors.WithHint(
				errors.Wrapf(errUtils.ErrInvalidProvider, "rule %q has invalid severity %q", e.ID, e.Severity),
				"use off, warn or error (or 0, 1, 2)",
			)
		}
	}

	return p, nil
}

// NewRegistry builds a registry from the built-in providers plus any found
// in providerDir. An empty providerDir loads only the built-ins. A directory
// provider reusing a built-in namespace fails with DuplicateProviderError.
func (l *Loader) NewRegistry(providerDir string) (*registry.Registry, error) {
	providers, err := l.Builtin()
	if err != nil {
		return nil, err
	}
	if providerDir != "" {
		extra, err := l.LoadDir(providerDir)
		if err != nil {
			return nil, err
		}
		providers = append(providers, extra...)
	}

	reg := registry.New(registry.WithCore(CoreNamespace))
	for _, p := range providers {
		if err := reg.Register(p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Default returns a registry holding only the built-in providers.
func Default() (*registry.Registry, error) {
	l, err := NewLoader(nil)
	if err != nil {
		return nil, err
	}
	return l.NewRegistry("")
}
