package output

import "github.com/dotcommander/lintcompose/internal/scope"

// Document is the serialized form shared by the json and yaml formatters.
type Document struct {
	Header    Header            `json:"header" yaml:"header"`
	Segments  []SegmentDocument `json:"segments,omitempty" yaml:"segments,omitempty"`
	Paths     []PathDocument    `json:"paths,omitempty" yaml:"paths,omitempty"`
	Providers []ProviderInfo    `json:"providers,omitempty" yaml:"providers,omitempty"`
}

// Header contains report metadata.
type Header struct {
	Tool        string `json:"tool" yaml:"tool"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
}

// SegmentDocument is one configuration segment.
type SegmentDocument struct {
	Kind     string         `json:"kind" yaml:"kind"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Files    []string       `json:"files,omitempty" yaml:"files,omitempty"`
	Parser   string         `json:"parser,omitempty" yaml:"parser,omitempty"`
	Plugins  []string       `json:"plugins,omitempty" yaml:"plugins,omitempty"`
	Settings map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
	Rules    map[string]any `json:"rules" yaml:"rules"`
}

// PathDocument is the effective configuration for one path.
type PathDocument struct {
	Path     string         `json:"path" yaml:"path"`
	Ignored  bool           `json:"ignored" yaml:"ignored"`
	Parser   string         `json:"parser,omitempty" yaml:"parser,omitempty"`
	Segments []string       `json:"segments,omitempty" yaml:"segments,omitempty"`
	Settings map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
	Rules    map[string]any `json:"rules" yaml:"rules"`
}

func toDocument(r *Report) Document {
	doc := Document{
		Header:    Header{Tool: Tool, Version: r.Version, Fingerprint: r.Fingerprint},
		Providers: r.Providers,
	}
	if r.Config != nil {
		for _, seg := range r.Config.Segments {
			doc.Segments = append(doc.Segments, SegmentDocument{
				Kind:     string(seg.Kind),
				Name:     seg.Name,
				Files:    seg.Files,
				Parser:   seg.Parser,
				Plugins:  seg.Plugins,
				Settings: seg.Settings,
				Rules:    RuleValues(seg.Rules),
			})
		}
	}
	for _, eff := range r.Paths {
		doc.Paths = append(doc.Paths, pathDocument(eff))
	}
	return doc
}

func pathDocument(eff scope.Effective) PathDocument {
	return PathDocument{
		Path:     eff.Path,
		Ignored:  eff.Ignored,
		Parser:   eff.Parser,
		Segments: eff.Segments,
		Settings: eff.Settings,
		Rules:    RuleValues(eff.Rules),
	}
}
