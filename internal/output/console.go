package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dotcommander/lintcompose/internal/scope"
	"github.com/dotcommander/lintcompose/internal/types"
)

// ConsoleFormatter formats output for console display
type ConsoleFormatter struct {
	quiet    bool
	verbose  bool
	colorize bool
	w        io.Writer
}

// NewConsoleFormatter creates a new ConsoleFormatter
func NewConsoleFormatter(quiet, verbose, colorize bool, w io.Writer) *ConsoleFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleFormatter{
		quiet:    quiet,
		verbose:  verbose,
		colorize: colorize,
		w:        w,
	}
}

// Format prints the report for a terminal
func (f *ConsoleFormatter) Format(report *Report) error {
	if f.quiet {
		return nil
	}

	if report.Config != nil {
		for i, seg := range report.Config.Segments {
			if i > 0 {
				fmt.Fprintln(f.w)
			}
			f.printSegment(seg)
		}
	}
	for i, eff := range report.Paths {
		if i > 0 || report.Config != nil {
			fmt.Fprintln(f.w)
		}
		f.printPath(eff)
	}
	if len(report.Providers) > 0 {
		f.printProviders(report.Providers)
	}

	if report.Fingerprint != "" && f.verbose {
		fmt.Fprintf(f.w, "\n%s %s\n", f.style("7").Render("fingerprint"), report.Fingerprint)
	}
	return nil
}

func (f *ConsoleFormatter) printSegment(seg scope.Segment) {
	title := seg.Label()
	if len(seg.Files) > 0 {
		title += " " + strings.Join(seg.Files, ", ")
	}
	fmt.Fprintln(f.w, f.style("12").Bold(true).Render(title))

	if seg.Kind == scope.KindIgnored {
		fmt.Fprintf(f.w, "  %s\n", f.style("7").Render("no rules apply"))
		return
	}
	if seg.Parser != "" {
		fmt.Fprintf(f.w, "  parser: %s\n", seg.Parser)
	}
	if len(seg.Plugins) > 0 {
		fmt.Fprintf(f.w, "  plugins: %s\n", strings.Join(seg.Plugins, ", "))
	}
	if f.verbose && len(seg.Settings) > 0 {
		fmt.Fprintf(f.w, "  settings: %s\n", strings.Join(sortedKeys(seg.Settings), ", "))
	}
	f.printRules(seg.Rules)
}

func (f *ConsoleFormatter) printPath(eff scope.Effective) {
	if eff.Ignored {
		fmt.Fprintf(f.w, "%s %s\n", f.style("7").Render("○"), eff.Path)
		fmt.Fprintf(f.w, "  %s\n", f.style("7").Render("ignored"))
		return
	}

	fmt.Fprintf(f.w, "%s %s\n", f.style("10").Render("●"), eff.Path)
	if len(eff.Segments) > 0 {
		fmt.Fprintf(f.w, "  segments: %s\n", strings.Join(eff.Segments, " > "))
	}
	if eff.Parser != "" {
		fmt.Fprintf(f.w, "  parser: %s\n", eff.Parser)
	}
	f.printRules(eff.Rules)
}

// printRules lists rules in ID order. Rules that are off are only shown in
// verbose mode.
func (f *ConsoleFormatter) printRules(rules types.RuleTable) {
	hidden := 0
	for _, id := range rules.IDs() {
		e := rules[id]
		if e.Severity == types.SeverityOff && !f.verbose {
			hidden++
			continue
		}
		sev := f.severityStyle(e.Severity).Render(fmt.Sprintf("%-5s", e.Severity))
		line := fmt.Sprintf("  %s %s", sev, id)
		if len(e.Options) > 0 {
			line += f.style("7").Render(fmt.Sprintf(" %v", e.Options))
		}
		fmt.Fprintln(f.w, line)
	}
	if hidden > 0 {
		fmt.Fprintf(f.w, "  %s\n", f.style("7").Render(fmt.Sprintf("(%d rules off)", hidden)))
	}
}

func (f *ConsoleFormatter) printProviders(providers []ProviderInfo) {
	width := 0
	for _, p := range providers {
		if len(p.Namespace) > width {
			width = len(p.Namespace)
		}
	}

	for _, p := range providers {
		line := fmt.Sprintf("%-*s  %-9s  %3d rules", width, p.Namespace, p.Tier, p.Rules)
		if len(p.DependsOn) > 0 {
			line += "  needs " + strings.Join(p.DependsOn, ", ")
		}
		fmt.Fprintln(f.w, f.style("12").Render(line))
		if f.verbose && p.Description != "" {
			fmt.Fprintf(f.w, "  %s\n", f.style("7").Render(p.Description))
		}
	}
}

func (f *ConsoleFormatter) severityStyle(sev types.Severity) lipgloss.Style {
	switch sev {
	case types.SeverityError:
		return f.style("9") // red
	case types.SeverityWarn:
		return f.style("3") // yellow
	default:
		return f.style("7") // gray
	}
}

func (f *ConsoleFormatter) style(color string) lipgloss.Style {
	if !f.colorize {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
