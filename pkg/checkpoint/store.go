package checkpoint

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/crqscan/pkg/persist"
)

// DefaultRelativePath is the checkpoint location relative to the repository root.
const DefaultRelativePath = "cache/scan_checkpoint.json"

// Sentinel errors for checkpoint storage.
var (
	ErrCorrupt = errors.New("corrupt checkpoint")
	ErrWrite   = errors.New("write checkpoint")
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	errSchema  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, errSchema = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})

	return schema, errSchema
}

// PathFor resolves the checkpoint path for a repository. Absolute paths are returned
// unchanged; relative ones are joined to repoRoot. An empty path selects DefaultRelativePath.
func PathFor(repoRoot, path string) string {
	if path == "" {
		path = DefaultRelativePath
	}

	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(repoRoot, path)
}

// Store loads and saves a checkpoint file.
type Store struct {
	path  string
	codec *persist.JSONCodec
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	codec := persist.NewJSONCodec()
	codec.Strict = true

	return &Store{path: path, codec: codec}
}

// Path returns the checkpoint file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the checkpoint. A missing file yields an empty checkpoint; any file that
// cannot be read or does not match the checkpoint format yields an error wrapping ErrCorrupt.
func (s *Store) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCorrupt, s.path, err)
	}

	err = validate(data)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCorrupt, s.path, err)
	}

	var doc document

	err = s.codec.Decode(bytes.NewReader(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCorrupt, s.path, err)
	}

	cp, err := doc.toCheckpoint()
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCorrupt, s.path, err)
	}

	return cp, nil
}

// Save replaces the checkpoint file with cp, creating parent directories as needed.
func (s *Store) Save(cp *Checkpoint) error {
	err := persist.WriteFile(s.path, s.codec, cp.toDocument())
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrWrite, s.path, err)
	}

	return nil
}

// errSchemaViolation reports the schema violations found in a checkpoint document.
var errSchemaViolation = errors.New("schema violation")

func validate(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	result, err := sch.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}

	return fmt.Errorf("%w: %s", errSchemaViolation, strings.Join(msgs, "; "))
}
