package saver

import (
	"context"

	"github.com/vegakit/vegasave/pkg/chart"
	"github.com/vegakit/vegasave/pkg/errors"
)

// Basic is the direct saver: it emits the spec unchanged as its own
// dialect's JSON and supports no other format. No process is ever spawned
// and no best-effort conversion is attempted.
type Basic struct {
	spec chart.Spec
	cfg  config
}

// NewBasic creates a direct saver for spec. The dialect is inferred unless
// fixed with WithMode.
func NewBasic(spec chart.Spec, opts ...Option) *Basic {
	return &Basic{spec: spec, cfg: newConfig(spec, opts)}
}

// Mode returns the spec's dialect.
func (b *Basic) Mode() string {
	return b.cfg.mode
}

// Mimebundle returns the spec itself, keyed by its dialect MIME type. Any
// format other than the spec's own dialect fails with UNSUPPORTED_FORMAT.
func (b *Basic) Mimebundle(ctx context.Context, format string) (Mimebundle, error) {
	if err := chart.ValidateFormat(format); err != nil {
		return Mimebundle{}, err
	}
	if format != b.cfg.mode {
		return Mimebundle{}, errors.New(errors.ErrCodeUnsupportedFormat,
			"basic saver cannot save %s spec as %q", b.cfg.mode, format)
	}

	mimetype, err := chart.FormatToMimetype(format, b.cfg.vlVersion, b.cfg.vgVersion)
	if err != nil {
		return Mimebundle{}, err
	}
	data, err := b.spec.Marshal()
	if err != nil {
		return Mimebundle{}, errors.Wrap(errors.ErrCodeInternal, err, "serialize spec")
	}
	return Mimebundle{Mimetype: mimetype, Data: data}, nil
}

var _ Saver = (*Basic)(nil)
