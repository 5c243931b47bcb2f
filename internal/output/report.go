package output

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/dotcommander/lintcompose/internal/registry"
	"github.com/dotcommander/lintcompose/internal/scope"
	"github.com/dotcommander/lintcompose/internal/types"
)

// Tool is the name written into report headers.
const Tool = "lintcompose"

// Report is what a formatter renders. Exactly one of Config, Paths or
// Providers is normally set, depending on the command.
type Report struct {
	Version     string
	Fingerprint string
	Config      *scope.Configuration
	Paths       []scope.Effective
	Providers   []ProviderInfo
}

// ProviderInfo summarizes a registered provider for listings.
type ProviderInfo struct {
	Namespace   string   `json:"namespace" yaml:"namespace"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tier        string   `json:"tier" yaml:"tier"`
	DependsOn   []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Parser      string   `json:"parser,omitempty" yaml:"parser,omitempty"`
	Rules       int      `json:"rules" yaml:"rules"`
}

// ProvidersFrom lists the providers of reg in namespace order.
func ProvidersFrom(reg *registry.Registry) []ProviderInfo {
	out := make([]ProviderInfo, 0, reg.Len())
	for _, ns := range reg.Namespaces() {
		p, err := reg.Lookup(ns)
		if err != nil {
			continue
		}
		out = append(out, ProviderInfo{
			Namespace:   p.Namespace,
			Description: p.Description,
			Tier:        p.Tier.String(),
			DependsOn:   p.DependsOn,
			Parser:      p.Parser,
			Rules:       len(p.Rules),
		})
	}
	return out
}

// RuleValue renders an entry in the form linting engines read:
// a bare severity, or [severity, options...] when options are present.
func RuleValue(e types.RuleEntry) any {
	if len(e.Options) == 0 {
		return string(e.Severity)
	}
	out := make([]any, 0, len(e.Options)+1)
	out = append(out, string(e.Severity))
	return append(out, e.Options...)
}

// RuleValues renders a whole table with RuleValue.
func RuleValues(t types.RuleTable) map[string]any {
	out := make(map[string]any, len(t))
	for id, e := range t {
		out[string(id)] = RuleValue(e)
	}
	return out
}

// writeOut writes content to outputFile, or to w when no file is set.
func writeOut(w io.Writer, outputFile string, content []byte) error {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, content, 0644); err != nil {
			return errors.Wrapf(err, "error writing to file %s", outputFile)
		}
		return nil
	}
	if w == nil {
		w = os.Stdout
	}
	_, err := w.Write(content)
	return err
}
