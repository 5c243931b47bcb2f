// Package config loads lintcompose tool settings and composition documents.
//
// Tool settings (output format, strictness, provider directory) come from
// viper. The composition document is parsed with the yaml.v3 node API because
// the order of provider flags, rules and overrides is significant and a plain
// map would lose it. JSON documents parse through the same path.
package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	errUtils "github.com/dotcommander/lintcompose/internal/errors"
	"github.com/dotcommander/lintcompose/internal/types"
)

// Reserved top-level keys. Every other key is a provider flag.
const (
	KeyRules     = "rules"
	KeyIgnores   = "ignores"
	KeyOverrides = "overrides"
	KeyPlugins   = "plugins"
	KeySettings  = "settings"
)

// DefaultDocumentNames are searched, in order, when no document is given.
var DefaultDocumentNames = []string{"lint.config.yaml", "lint.config.yml", "lint.config.json"}

// Entry is one ordered key/value pair from the document.
type Entry struct {
	Name  string
	Value any
}

// Override is a per-path block: its rules apply to files matching Files.
type Override struct {
	Name     string            `json:"name,omitempty"`
	Files    []string          `json:"files"`
	Rules    []types.RuleEntry `json:"rules,omitempty"`
	Parser   string            `json:"parser,omitempty"`
	Settings map[string]any    `json:"settings,omitempty"`
}

// Document is a parsed composition document with declaration order kept.
type Document struct {
	// Flags are the non-reserved top-level keys, in declared order.
	Flags []Entry
	// Plugins are explicitly listed plugin providers, in declared order.
	Plugins   []Entry
	Rules     []types.RuleEntry
	Ignores   []string
	Overrides []Override
	Settings  map[string]any
	// Raw is the whole document as generic data, for schema validation.
	Raw map[string]any
}

// LoadDocument reads and parses the composition document at path.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return doc, nil
}

// ParseDocument parses a YAML or JSON composition document.
func ParseDocument(data []byte) (*Document, error) {
	doc := &Document{Raw: map[string]any{}}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "malformed document"), errUtils.ErrInvalidConfig)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return doc, nil
	}

	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, invalid(top, "document must be a mapping")
	}
	if err := top.Decode(&doc.Raw); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "malformed document"), errUtils.ErrInvalidConfig)
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i].Value, top.Content[i+1]

		var err error
		switch key {
		case KeyRules:
			doc.Rules, err = parseRules(value)
		case KeyIgnores:
			doc.Ignores, err = parsePatterns(value)
		case KeyOverrides:
			doc.Overrides, err = parseOverrides(value)
		case KeyPlugins:
			doc.Plugins, err = parsePlugins(value)
		case KeySettings:
			doc.Settings, err = parseMap(value)
		default:
			var v any
			err = value.Decode(&v)
			doc.Flags = append(doc.Flags, Entry{Name: key, Value: v})
		}
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", key)
		}
	}

	return doc, nil
}

// FindDocument climbs from start towards the filesystem root and returns the
// first default document found.
func FindDocument(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		for _, name := range DefaultDocumentNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.WithHintf(
		errors.Newf("no composition document found from %s", start),
		"create one of %v or pass --config", DefaultDocumentNames,
	)
}

func invalid(n *yaml.Node, msg string) error {
	return errors.Mark(errors.Newf("line %d: %s", n.Line, msg), errUtils.ErrInvalidConfig)
}

func parseRules(n *yaml.Node) ([]types.RuleEntry, error) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, invalid(n, "rules must be a mapping of rule id to severity")
	}

	entries := make([]types.RuleEntry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		id := types.RuleID(n.Content[i].Value)
		var v any
		if err := n.Content[i+1].Decode(&v); err != nil {
			return nil, err
		}
		entries = append(entries, types.ParseRuleEntry(id, v))
	}
	return entries, nil
}

func parsePatterns(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, invalid(item, "pattern must be a string")
			}
			out = append(out, item.Value)
		}
		return out, nil
	}
	return nil, invalid(n, "expected a pattern or a list of patterns")
}

func parseMap(n *yaml.Node) (map[string]any, error) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, invalid(n, "expected a mapping")
	}
	out := map[string]any{}
	if err := n.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// parsePlugins accepts a list of namespaces or a mapping of namespace to
// bool or sub-options.
func parsePlugins(n *yaml.Node) ([]Entry, error) {
	switch n.Kind {
	case yaml.SequenceNode:
		out := make([]Entry, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, invalid(item, "plugin must be a namespace string")
			}
			out = append(out, Entry{Name: item.Value, Value: true})
		}
		return out, nil
	case yaml.MappingNode:
		out := make([]Entry, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			var v any
			if err := n.Content[i+1].Decode(&v); err != nil {
				return nil, err
			}
			out = append(out, Entry{Name: n.Content[i].Value, Value: v})
		}
		return out, nil
	}
	return nil, invalid(n, "plugins must be a list or a mapping")
}

func parseOverrides(n *yaml.Node) ([]Override, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, invalid(n, "overrides must be a list")
	}

	out := make([]Override, 0, len(n.Content))
	for _, block := range n.Content {
		if block.Kind != yaml.MappingNode {
			return nil, invalid(block, "override must be a mapping")
		}

		var o Override
		for i := 0; i+1 < len(block.Content); i += 2 {
			key, value := block.Content[i].Value, block.Content[i+1]
			var err error
			switch key {
			case "name":
				o.Name = value.Value
			case "files":
				o.Files, err = parsePatterns(value)
			case "rules":
				o.Rules, err = parseRules(value)
			case "parser":
				o.Parser = value.Value
			case "settings":
				o.Settings, err = parseMap(value)
			default:
				err = invalid(block.Content[i], "unknown override key "+key)
			}
			if err != nil {
				return nil, err
			}
		}
		if len(o.Files) == 0 {
			return nil, invalid(block, "override requires files")
		}
		out = append(out, o)
	}
	return out, nil
}
