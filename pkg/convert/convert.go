// Package convert drives chart conversions through a chain of external
// renderer processes.
//
// # Stage Chains
//
// Conversions follow fixed, enumerated chains; there is no dynamic graph
// search:
//
//	vega-lite -> vega        vl2vg
//	{vl,vega} -> svg         via lowered vega, then vg2svg
//	svg       -> png         rsvg-convert -f png
//	svg       -> pdf         rsvg-convert -f pdf
//	{vl,vega} -> html        local templating, no process
//
// Same-dialect conversions are the identity and spawn nothing. Raising a
// vega spec back to vega-lite is impossible and always an error.
//
// # Diagnostics
//
// Each stage's stderr is drained while the process runs and relayed to the
// converter's diagnostic writer whether the stage succeeds or fails, so
// renderer warnings are never dropped. A non-zero exit becomes a
// CONVERSION_FAILED error carrying the command, exit code, and captured
// stderr.
//
// # Toolchain
//
// The vl2vg and vg2svg binaries come from the vega-lite and vega-cli npm
// packages; rsvg-convert comes from librsvg. Binaries are resolved from an
// explicit directory, the PATH, or a local npm installation, in that order.
package convert

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/vegakit/vegasave/pkg/chart"
	"github.com/vegakit/vegasave/pkg/errors"
)

// External renderer binaries.
const (
	toolVL2VG  = "vl2vg"
	toolVG2SVG = "vg2svg"
	toolRSVG   = "rsvg-convert"
)

// DefaultScale is the raster scale factor for PNG output (2x resolution).
const DefaultScale = 2.0

// Option configures a Converter.
type Option func(*Converter)

// WithBinDir resolves renderer binaries from dir instead of the PATH.
func WithBinDir(dir string) Option {
	return func(c *Converter) {
		if dir != "" {
			c.binDir = dir
		}
	}
}

// WithTempDir places intermediate files in dir instead of the system temp
// directory.
func WithTempDir(dir string) Option {
	return func(c *Converter) { c.tempDir = dir }
}

// WithDiagnostics relays renderer stderr to w. The default is os.Stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(c *Converter) { c.diag = w }
}

// WithScale sets the PNG scale factor.
func WithScale(scale float64) Option {
	return func(c *Converter) {
		if scale > 0 {
			c.scale = scale
		}
	}
}

// WithLogger sets the logger for stage-level debug output.
func WithLogger(logger *log.Logger) Option {
	return func(c *Converter) { c.logger = logger }
}

// Converter executes conversion chains. It holds no per-conversion state, so
// a single Converter is safe for concurrent use; parallel conversions are
// isolated by unique temp file names.
type Converter struct {
	binDir  string
	tempDir string
	diag    io.Writer
	scale   float64
	logger  *log.Logger
}

// New creates a Converter with the given options.
func New(opts ...Option) *Converter {
	c := &Converter{
		diag:  os.Stderr,
		scale: DefaultScale,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return c
}

// Enabled reports whether the full external toolchain is available.
func (c *Converter) Enabled() bool {
	for _, tool := range []string{toolVL2VG, toolVG2SVG, toolRSVG} {
		if _, err := c.resolve(tool); err != nil {
			return false
		}
	}
	return true
}

// Convert transforms a serialized spec in the given dialect into the target
// format, returning the produced bytes. The spec bytes are never modified;
// each stage consumes the previous stage's output.
func (c *Converter) Convert(ctx context.Context, spec []byte, mode, format string) ([]byte, error) {
	if err := chart.ValidateFormat(format); err != nil {
		return nil, err
	}
	if err := chart.ValidateMode(mode); err != nil {
		return nil, err
	}

	// Dialect raising is never supported: a lowered vega spec cannot be
	// reconstructed into vega-lite.
	if mode == chart.DialectVega && format == chart.FormatVegaLite {
		return nil, errors.New(errors.ErrCodeUnsupportedFormat,
			"cannot convert a vega spec to vega-lite")
	}

	switch format {
	case chart.FormatVegaLite, chart.FormatVega:
		if format == mode {
			return spec, nil
		}
		return c.lower(ctx, spec)
	case chart.FormatSVG:
		return c.toSVG(ctx, spec, mode)
	case chart.FormatPNG:
		svg, err := c.toSVG(ctx, spec, mode)
		if err != nil {
			return nil, err
		}
		return c.rasterize(ctx, svg, "png")
	case chart.FormatPDF:
		svg, err := c.toSVG(ctx, spec, mode)
		if err != nil {
			return nil, err
		}
		return c.rasterize(ctx, svg, "pdf")
	case chart.FormatHTML:
		return c.toHTML(spec, mode)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unrecognized format %q", format)
	}
}

// lower compiles a vega-lite spec down to vega.
func (c *Converter) lower(ctx context.Context, spec []byte) ([]byte, error) {
	c.logger.Debug("lowering vega-lite to vega", "tool", toolVL2VG)
	return c.run(ctx, toolVL2VG, nil, spec)
}

// toSVG renders a spec to SVG markup, lowering vega-lite first.
func (c *Converter) toSVG(ctx context.Context, spec []byte, mode string) ([]byte, error) {
	vg := spec
	if mode == chart.DialectVegaLite {
		lowered, err := c.lower(ctx, spec)
		if err != nil {
			return nil, err
		}
		vg = lowered
	}
	c.logger.Debug("rendering svg", "tool", toolVG2SVG)
	return c.run(ctx, toolVG2SVG, nil, vg)
}
