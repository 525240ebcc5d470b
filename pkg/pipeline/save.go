package pipeline

import (
	"context"

	"github.com/vegakit/vegasave/pkg/chart"
	"github.com/vegakit/vegasave/pkg/fsutil"
)

// Save converts the spec and writes the result to out. When format is empty
// it is inferred from the output's name: ".vg.json" means vega JSON, ".json"
// means vega-lite JSON, and any other extension names the format directly.
// An anonymous output with no name cannot be inferred from and is an error.
func (r *Runner) Save(ctx context.Context, opts Options, out *fsutil.Output, format string) error {
	if format == "" {
		inferred, err := chart.ExtractFormat(out.Name())
		if err != nil {
			return err
		}
		format = inferred
	}
	if err := chart.ValidateFormat(format); err != nil {
		return err
	}

	bundle, err := r.Mimebundle(ctx, opts, format)
	if err != nil {
		return err
	}

	mode := fsutil.ModeText
	if bundle.Binary() {
		mode = fsutil.ModeBinary
	}
	return out.WritePayload(bundle.Data, mode)
}
