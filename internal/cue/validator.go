// Package cue validates the shape of composition documents and provider
// definitions against embedded CUE schemas.
package cue

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/cockroachdb/errors"

	errUtils "github.com/dotcommander/lintcompose/internal/errors"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

// Schema definition names.
const (
	DefConfig   = "Config"
	DefProvider = "Provider"
)

// Validator handles CUE validation. A cue.Context is not safe for concurrent
// use, so validations are serialized.
type Validator struct {
	mu      sync.Mutex
	ctx     *cue.Context
	schemas map[string]cue.Value
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}
}

// LoadSchemas loads all CUE schema files from the embedded filesystem
func (v *Validator) LoadSchemas() error {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return fmt.Errorf("could not read embedded schemas: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".cue" {
			continue
		}
		content, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return fmt.Errorf("reading schema %s: %w", entry.Name(), err)
		}

		inst := v.ctx.CompileBytes(content, cue.Filename(entry.Name()))
		if instErr := inst.Err(); instErr != nil {
			return fmt.Errorf("compiling schema %s: %w", entry.Name(), instErr)
		}

		// config.cue -> config
		v.schemas[strings.TrimSuffix(entry.Name(), ".cue")] = inst.Value()
	}

	if len(v.schemas) == 0 {
		return fmt.Errorf("no CUE schemas loaded")
	}

	return nil
}

// ValidateConfig checks a composition document against #Config.
func (v *Validator) ValidateConfig(data map[string]any) error {
	return v.validate(DefConfig, data, errUtils.ErrInvalidConfig)
}

// ValidateProvider checks a provider definition against #Provider.
func (v *Validator) ValidateProvider(data map[string]any) error {
	return v.validate(DefProvider, data, errUtils.ErrInvalidProvider)
}

// definition finds #name in any loaded schema.
func (v *Validator) definition(name string) (cue.Value, bool) {
	defPath := cue.ParsePath("#" + name)
	for _, schema := range v.schemas {
		def := schema.LookupPath(defPath)
		if def.Exists() {
			return def, true
		}
	}
	return cue.Value{}, false
}

func (v *Validator) validate(name string, data map[string]any, mark error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	def, ok := v.definition(name)
	if !ok {
		return fmt.Errorf("schema definition #%s not loaded", name)
	}

	dataValue := v.ctx.Encode(data)
	if encErr := dataValue.Err(); encErr != nil {
		return errors.Mark(errors.Wrap(encErr, "encoding data"), mark)
	}

	unified := def.Unify(dataValue)
	if err := unified.Err(); err != nil {
		return schemaError(err, name, mark)
	}

	// Concreteness ensures required fields are present.
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return schemaError(err, name, mark)
	}

	return nil
}

func schemaError(err error, name string, mark error) error {
	return errors.WithHint(
		errors.Mark(errors.Wrapf(err, "schema validation failed (#%s)", name), mark),
		"check the document structure against the documented keys",
	)
}
