package output

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	outputFile string
	w          io.Writer
}

// NewYAMLFormatter creates a new YAMLFormatter
func NewYAMLFormatter(outputFile string, w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{outputFile: outputFile, w: w}
}

// Format writes the report as YAML
func (f *YAMLFormatter) Format(report *Report) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toDocument(report)); err != nil {
		return fmt.Errorf("error marshaling YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("error marshaling YAML: %w", err)
	}
	return writeOut(f.w, f.outputFile, buf.Bytes())
}
