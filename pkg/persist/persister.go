package persist

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// Persister stores values of one type as individual files in a directory, one file per key.
type Persister[T any] struct {
	dir   string
	codec Codec
}

// NewPersister creates a persister rooted at dir using the given codec.
func NewPersister[T any](dir string, codec Codec) *Persister[T] {
	return &Persister[T]{
		dir:   dir,
		codec: codec,
	}
}

// Path returns the file path used for key. Keys must already be safe file names.
func (p *Persister[T]) Path(key string) string {
	return filepath.Join(p.dir, key+p.codec.Extension())
}

// Save writes the value for key, replacing any previous one.
func (p *Persister[T]) Save(key string, value *T) error {
	return WriteFile(p.Path(key), p.codec, value)
}

// Load reads the value for key. It returns (nil, nil) when no value is stored.
func (p *Persister[T]) Load(key string) (*T, error) {
	var value T

	err := ReadFile(p.Path(key), p.codec, &value)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &value, nil
}
