package saver

import (
	"context"

	"github.com/vegakit/vegasave/pkg/chart"
	"github.com/vegakit/vegasave/pkg/convert"
	"github.com/vegakit/vegasave/pkg/errors"
)

// Node is the pipeline saver: it reaches every recognized format by driving
// the node-based renderer toolchain (vl2vg, vg2svg) and librsvg through the
// conversion pipeline. The one hard limit is dialect raising: a vega spec
// can never be saved as vega-lite.
type Node struct {
	spec chart.Spec
	cfg  config
	conv *convert.Converter
}

// NewNode creates a pipeline saver for spec using conv for external stages.
// A nil conv gets a default converter (PATH-resolved binaries, stderr
// diagnostics).
func NewNode(spec chart.Spec, conv *convert.Converter, opts ...Option) *Node {
	if conv == nil {
		conv = convert.New()
	}
	return &Node{spec: spec, cfg: newConfig(spec, opts), conv: conv}
}

// Mode returns the spec's dialect.
func (n *Node) Mode() string {
	return n.cfg.mode
}

// Enabled reports whether the external toolchain is installed.
func (n *Node) Enabled() bool {
	return n.conv.Enabled()
}

// Mimebundle converts the spec to the requested format via the pipeline
// driver and wraps the result with its MIME type.
func (n *Node) Mimebundle(ctx context.Context, format string) (Mimebundle, error) {
	if err := chart.ValidateFormat(format); err != nil {
		return Mimebundle{}, err
	}
	if n.cfg.mode == chart.DialectVega && format == chart.FormatVegaLite {
		return Mimebundle{}, errors.New(errors.ErrCodeUnsupportedFormat,
			"node saver cannot save vega spec as %q: dialect raising is not supported", format)
	}

	data, err := n.spec.Marshal()
	if err != nil {
		return Mimebundle{}, errors.Wrap(errors.ErrCodeInternal, err, "serialize spec")
	}

	out, err := n.conv.Convert(ctx, data, n.cfg.mode, format)
	if err != nil {
		return Mimebundle{}, err
	}

	mimetype, err := chart.FormatToMimetype(format, n.cfg.vlVersion, n.cfg.vgVersion)
	if err != nil {
		return Mimebundle{}, err
	}
	return Mimebundle{Mimetype: mimetype, Data: out}, nil
}

var _ Saver = (*Node)(nil)
