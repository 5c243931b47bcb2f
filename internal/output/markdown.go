package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dotcommander/lintcompose/internal/scope"
	"github.com/dotcommander/lintcompose/internal/types"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct {
	verbose    bool
	outputFile string
	w          io.Writer
}

// NewMarkdownFormatter creates a new MarkdownFormatter
func NewMarkdownFormatter(verbose bool, outputFile string, w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{
		verbose:    verbose,
		outputFile: outputFile,
		w:          w,
	}
}

// Format writes the report as Markdown
func (f *MarkdownFormatter) Format(report *Report) error {
	var builder strings.Builder

	builder.WriteString("# Lint Configuration\n\n")
	if report.Fingerprint != "" {
		builder.WriteString(fmt.Sprintf("**Fingerprint:** `%s`\n\n", report.Fingerprint))
	}

	if report.Config != nil {
		// Table of contents for multiple segments
		if len(report.Config.Segments) > 1 {
			for _, seg := range report.Config.Segments {
				builder.WriteString(fmt.Sprintf("- [%s](#%s)\n", segmentTitle(seg), createAnchor(segmentTitle(seg))))
			}
			builder.WriteString("\n")
		}
		for _, seg := range report.Config.Segments {
			builder.WriteString(fmt.Sprintf("## %s\n\n", segmentTitle(seg)))
			if len(seg.Files) > 0 {
				builder.WriteString(fmt.Sprintf("Files: %s\n\n", codeList(seg.Files)))
			}
			if seg.Kind == scope.KindIgnored {
				builder.WriteString("*No rules apply to these paths.*\n\n")
				continue
			}
			if seg.Parser != "" {
				builder.WriteString(fmt.Sprintf("Parser: `%s`\n\n", seg.Parser))
			}
			if len(seg.Plugins) > 0 {
				builder.WriteString(fmt.Sprintf("Plugins: %s\n\n", codeList(seg.Plugins)))
			}
			f.writeRules(&builder, seg.Rules)
		}
	}

	for _, eff := range report.Paths {
		builder.WriteString(fmt.Sprintf("## %s\n\n", eff.Path))
		if eff.Ignored {
			builder.WriteString("*Ignored.*\n\n")
			continue
		}
		if len(eff.Segments) > 0 {
			builder.WriteString(fmt.Sprintf("Segments: %s\n\n", strings.Join(eff.Segments, " → ")))
		}
		f.writeRules(&builder, eff.Rules)
	}

	if len(report.Providers) > 0 {
		builder.WriteString("## Providers\n\n")
		builder.WriteString("| Namespace | Tier | Depends On | Rules |\n")
		builder.WriteString("|-----------|------|------------|-------|\n")
		for _, p := range report.Providers {
			builder.WriteString(fmt.Sprintf("| `%s` | %s | %s | %d |\n", p.Namespace, p.Tier, codeList(p.DependsOn), p.Rules))
		}
		builder.WriteString("\n")
	}

	return writeOut(f.w, f.outputFile, []byte(builder.String()))
}

func (f *MarkdownFormatter) writeRules(builder *strings.Builder, rules types.RuleTable) {
	if len(rules) == 0 {
		builder.WriteString("*No rules.*\n\n")
		return
	}
	builder.WriteString("| Rule | Severity | Options |\n")
	builder.WriteString("|------|----------|---------|\n")
	for _, id := range rules.IDs() {
		e := rules[id]
		if e.Severity == types.SeverityOff && !f.verbose {
			continue
		}
		opts := ""
		if len(e.Options) > 0 {
			opts = fmt.Sprintf("`%v`", e.Options)
		}
		builder.WriteString(fmt.Sprintf("| `%s` | %s | %s |\n", id, e.Severity, opts))
	}
	builder.WriteString("\n")
}

func segmentTitle(seg scope.Segment) string {
	switch seg.Kind {
	case scope.KindGlobal:
		return "Global"
	case scope.KindIgnored:
		return "Ignored"
	}
	if seg.Name != "" {
		return "Override: " + seg.Name
	}
	return "Override: " + strings.Join(seg.Files, ", ")
}

func codeList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}

// createAnchor creates a markdown-safe anchor
func createAnchor(text string) string {
	anchor := strings.ToLower(text)
	anchor = strings.ReplaceAll(anchor, " ", "-")
	anchor = strings.ReplaceAll(anchor, ".", "")
	anchor = strings.ReplaceAll(anchor, "/", "")
	anchor = strings.ReplaceAll(anchor, ":", "")
	anchor = strings.ReplaceAll(anchor, "*", "")
	anchor = strings.ReplaceAll(anchor, ",", "")
	return anchor
}
