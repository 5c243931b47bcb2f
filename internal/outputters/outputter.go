package outputters

import (
	"fmt"
	"io"
	"os"

	"github.com/dotcommander/lintcompose/internal/config"
	"github.com/dotcommander/lintcompose/internal/output"
	"github.com/dotcommander/lintcompose/internal/types"
)

// Formatter renders a report.
type Formatter interface {
	Format(report *output.Report) error
}

// FormatterFactory creates a Formatter for a format name.
type FormatterFactory interface {
	CreateFormatter(format string) (Formatter, error)
}

// DefaultFormatterFactory builds the built-in formatters from tool settings.
type DefaultFormatterFactory struct {
	config *config.Config
	w      io.Writer
}

// NewDefaultFormatterFactory creates a factory writing to w.
func NewDefaultFormatterFactory(cfg *config.Config, w io.Writer) *DefaultFormatterFactory {
	return &DefaultFormatterFactory{config: cfg, w: w}
}

// CreateFormatter returns the formatter for format.
func (f *DefaultFormatterFactory) CreateFormatter(format string) (Formatter, error) {
	switch format {
	case types.FormatConsole:
		// Colors only when writing to a terminal-bound stdout.
		colorize := f.w == os.Stdout && f.config.Output == ""
		return output.NewConsoleFormatter(f.config.Quiet, f.config.Verbose, colorize, f.w), nil
	case types.FormatJSON:
		return output.NewJSONFormatter(true, f.config.Output, f.w), nil
	case types.FormatYAML:
		return output.NewYAMLFormatter(f.config.Output, f.w), nil
	case types.FormatMarkdown:
		return output.NewMarkdownFormatter(f.config.Verbose, f.config.Output, f.w), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Outputter handles output formatting
type Outputter struct {
	config  *config.Config
	factory FormatterFactory
}

// NewOutputter creates a new Outputter writing to stdout
func NewOutputter(cfg *config.Config) *Outputter {
	return NewOutputterWithFactory(cfg, NewDefaultFormatterFactory(cfg, os.Stdout))
}

// NewOutputterWithFactory creates an Outputter with a custom factory
func NewOutputterWithFactory(cfg *config.Config, factory FormatterFactory) *Outputter {
	return &Outputter{
		config:  cfg,
		factory: factory,
	}
}

// Format renders the report using the given format, or the configured one
// when format is empty.
func (o *Outputter) Format(report *output.Report, format string) error {
	if format == "" {
		format = o.config.Format
	}
	formatter, err := o.factory.CreateFormatter(format)
	if err != nil {
		return err
	}
	return formatter.Format(report)
}
