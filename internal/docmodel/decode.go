package docmodel

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed doc.schema.json
var schemaJSON []byte

const schemaURL = "doc.schema.json"

// ErrSchema wraps every structural validation failure.
var ErrSchema = errors.New("doc model schema validation failed")

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// LoadFile reads a YAML or JSON model file, checks its shape and decodes it.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Decode parses a model document. The document is either a bare model or
// a wrapper of the form {id, doc}. An empty document is an empty model.
func Decode(data []byte) (*File, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if raw == nil {
		return &File{}, nil
	}
	if err := Validate(raw); err != nil {
		return nil, err
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var err error
	if isWrapped(raw) {
		err = dec.Decode(&f)
	} else {
		err = dec.Decode(&f.Doc)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return &f, nil
}

// Validate checks a decoded YAML/JSON value against the model schema.
// Only field types are checked, not how fields relate to each other.
func Validate(raw any) error {
	schema, err := loadCompiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile doc model schema: %w", err)
	}

	// Round-trip through encoding/json so the validator only sees JSON types.
	var v any
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to normalize model for schema validation: %w", err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("failed to normalize model for schema validation: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	return nil
}

func isWrapped(raw any) bool {
	m, ok := raw.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m["doc"]
	return ok
}

// Hash returns a stable content hash of the model. Absent and empty
// sections hash differently.
func Hash(doc *Doc) string {
	if doc == nil {
		doc = &Doc{}
	}
	b, _ := json.Marshal(doc)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
