// Package saver turns a chart specification into a mimebundle for a
// requested output format.
//
// Two saver variants share one contract:
//
//   - [Basic] performs the identity conversion only: a spec can be saved as
//     its own dialect's JSON, nothing else. It never spawns a process.
//   - [Node] reaches all six formats by driving the external renderer
//     toolchain through [convert.Converter].
//
// A saver's dialect (mode) is fixed at construction, inferred from the spec
// when not supplied. Each Mimebundle call produces exactly one entry;
// requesting several formats means several calls.
package saver

import (
	"context"

	"github.com/vegakit/vegasave/pkg/chart"
)

// Mimebundle is the unit of output from a conversion request: one payload
// labeled with its MIME type.
type Mimebundle struct {
	Mimetype string
	Data     []byte
}

// Binary reports whether the payload is binary rather than text.
func (m Mimebundle) Binary() bool {
	format, err := chart.MimetypeToFormat(m.Mimetype)
	if err != nil {
		return false
	}
	return chart.BinaryFormat(format)
}

// Saver produces mimebundles from a chart specification.
type Saver interface {
	// Mimebundle converts the saver's spec to the given format.
	Mimebundle(ctx context.Context, format string) (Mimebundle, error)

	// Mode returns the dialect of the saver's spec.
	Mode() string
}

// Option configures a saver.
type Option func(*config)

type config struct {
	mode      string
	vlVersion string
	vgVersion string
}

// WithMode fixes the spec's dialect instead of inferring it. The mode must
// match the spec's actual content or downstream conversion will reject it.
func WithMode(mode string) Option {
	return func(c *config) { c.mode = mode }
}

// WithVersions overrides the dialect schema versions used in MIME types.
func WithVersions(vlVersion, vgVersion string) Option {
	return func(c *config) {
		c.vlVersion = vlVersion
		c.vgVersion = vgVersion
	}
}

func newConfig(spec chart.Spec, opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	if c.mode == "" {
		c.mode = chart.InferDialect(spec)
	}
	return c
}
