// Package validate checks configuration documents against per-type JSON
// Schemas stored in the same repository.
package validate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	confgiterrors "confgit.dev/confgit/internal/errors"
	"confgit.dev/confgit/internal/store"
)

// Validator compiles schemas lazily and caches them until Reload. A type
// without a schema is accepted unchecked, matching a repository that
// introduces schemas one type at a time.
type Validator struct {
	schemas *store.SchemaStore
	logger  *zap.Logger

	mu    sync.RWMutex
	cache map[string]*gojsonschema.Schema
}

// New creates a Validator backed by the given schema store.
func New(schemas *store.SchemaStore, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		schemas: schemas,
		logger:  logger,
		cache:   map[string]*gojsonschema.Schema{},
	}
}

// Validate checks a JSON document against the schema for its type and
// returns the violation messages, empty when the document conforms or no
// schema exists for the type.
func (v *Validator) Validate(docType string, jsonBytes []byte) ([]string, error) {
	schema, err := v.schemaFor(docType)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		v.logger.Debug("no schema for type, skipping validation", zap.String("type", docType))
		return nil, nil
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(jsonBytes))
	if err != nil {
		return nil, fmt.Errorf("could not validate document of type %s: %w", docType, err)
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		violations = append(violations, resultErr.String())
	}
	return violations, nil
}

// Reload drops all compiled schemas so the next validation reads them
// from the working tree again. Called after a repository sync.
func (v *Validator) Reload() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cache = map[string]*gojsonschema.Schema{}
}

func (v *Validator) schemaFor(docType string) (*gojsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.cache[docType]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}

	raw, err := v.schemas.Load(docType)
	if err != nil {
		if errors.Is(err, confgiterrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	schema, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("could not compile schema for type %s: %w", docType, err)
	}

	v.mu.Lock()
	v.cache[docType] = schema
	v.mu.Unlock()
	return schema, nil
}
