package fsutil

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/vegakit/vegasave/pkg/errors"
)

// Mode declares whether an output carries text or binary data.
type Mode int

const (
	// ModeText accepts text payloads (JSON, SVG, HTML).
	ModeText Mode = iota
	// ModeBinary accepts binary payloads (PNG, PDF).
	ModeBinary
)

func (m Mode) String() string {
	if m == ModeBinary {
		return "binary"
	}
	return "text"
}

// Output is a write target for a rendered artifact: either a destination
// path, opened lazily with the mode matching the payload, or an already-open
// writer whose declared mode must match the payload. A mode mismatch is
// rejected before any bytes are written, so a text stream never receives
// corrupted binary output.
type Output struct {
	path   string
	writer io.Writer
	mode   Mode
}

// NewPathOutput returns an output that writes to the file at path. The file
// is created (or truncated) when WritePayload runs; path outputs accept any
// payload mode.
func NewPathOutput(path string) *Output {
	return &Output{path: path}
}

// NewWriterOutput returns an output that writes to w. The declared mode is
// checked against each payload before writing.
func NewWriterOutput(w io.Writer, mode Mode) *Output {
	return &Output{writer: w, mode: mode}
}

// Name returns the best available name for this output: the destination path,
// or the name of the underlying file if the writer exposes one. An anonymous
// writer has no name, and the empty result makes format inference fail with
// CANNOT_INFER_FORMAT downstream.
func (o *Output) Name() string {
	if o.path != "" {
		return o.path
	}
	if n, ok := o.writer.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}

// WritePayload writes data to the output. For writer outputs the payload mode
// must match the declared mode; for path outputs the destination file is
// created fresh.
func (o *Output) WritePayload(data []byte, mode Mode) error {
	if o.path != "" {
		if err := os.WriteFile(o.path, data, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidOutput, err, "write %s", o.path)
		}
		return nil
	}
	if o.writer == nil {
		return errors.New(errors.ErrCodeInvalidOutput, "output has neither path nor writer")
	}
	if o.mode != mode {
		return errors.New(errors.ErrCodeInvalidOutput,
			"stream opened in %s mode cannot accept %s output", o.mode, mode)
	}
	if _, err := o.writer.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOutput, err, "write output stream")
	}
	return nil
}

// WriteFileAtomic writes data to path via a uniquely named sibling file and
// rename, so readers never observe a half-written artifact and concurrent
// writers to the same path never clobber each other's intermediate file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
