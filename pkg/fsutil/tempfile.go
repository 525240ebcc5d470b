// Package fsutil provides filesystem helpers for the conversion pipeline:
// scoped temporary files and an output-target abstraction that accepts either
// a destination path or an already-open writer.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// TempFile is a scoped temporary file. Acquire one with NewTempFile and
// release it with Remove; the file is guaranteed gone after Remove returns,
// on success and failure paths alike.
type TempFile struct {
	path string
}

// NewTempFile creates an empty temporary file with a unique name. The name
// embeds a UUID, so concurrent callers never collide without coordinating.
// If dir is empty the system temp directory is used. A non-empty suffix is
// appended verbatim (e.g. ".svg").
func NewTempFile(dir, suffix string) (*TempFile, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "vegasave-"+uuid.NewString()+suffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close temp file: %w", err)
	}
	return &TempFile{path: path}, nil
}

// Path returns the location of the temporary file.
func (t *TempFile) Path() string {
	return t.path
}

// Read returns the current contents of the temporary file.
func (t *TempFile) Read() ([]byte, error) {
	return os.ReadFile(t.path)
}

// Write replaces the contents of the temporary file.
func (t *TempFile) Write(data []byte) error {
	return os.WriteFile(t.path, data, 0o600)
}

// Remove deletes the temporary file. It is safe to call more than once and
// safe to defer: a file that is already gone is not an error. Remove is
// typically deferred immediately after NewTempFile so cleanup runs on every
// exit path.
func (t *TempFile) Remove() error {
	err := os.Remove(t.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
