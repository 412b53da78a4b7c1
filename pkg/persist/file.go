package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File permissions for persisted state.
const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// ErrTrailingData is returned by strict decoding when the input holds more than one value.
var ErrTrailingData = errors.New("unexpected data after value")

// WriteFile encodes state and replaces path with the result.
//
// The data is written to a temporary file in the same directory, synced and renamed over
// path, so readers observe either the previous content or the new content in full.
// Concurrent writers are not coordinated: the last rename wins.
func WriteFile(path string, codec Codec, state any) error {
	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, dirPerm)
	if err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmp.Name()

	committed := false

	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	err = codec.Encode(tmp, state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	err = tmp.Chmod(filePerm)
	if err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	err = tmp.Sync()
	if err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	err = os.Rename(tmpPath, path)
	if err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	committed = true

	return nil
}

// ReadFile decodes the file at path into state, which must be a pointer.
// A missing file yields an error matching fs.ErrNotExist.
func ReadFile(path string, codec Codec, state any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, state)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}
