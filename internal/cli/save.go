package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vegakit/vegasave/pkg/chart"
	"github.com/vegakit/vegasave/pkg/errors"
	"github.com/vegakit/vegasave/pkg/fsutil"
	"github.com/vegakit/vegasave/pkg/pipeline"
)

// saveOpts holds the command-line flags for the save command.
type saveOpts struct {
	output  string   // output file path, "-" for stdout, empty to derive from input
	formats []string // requested output formats
	mode    string   // dialect override; inferred from the spec when empty
	scale   float64  // raster scale factor for PNG
	refresh bool     // bypass the artifact cache
	noCache bool     // disable the artifact cache entirely
}

// saveCommand creates the save command for converting chart specs.
func (c *CLI) saveCommand() *cobra.Command {
	var formatsStr string
	opts := saveOpts{}

	cmd := &cobra.Command{
		Use:   "save [file]",
		Short: "Convert a vega or vega-lite spec to one or more formats",
		Long: `Save reads a vega or vega-lite JSON specification and converts it to the
requested output formats. Use "-" to read the spec from stdin or write the
result to stdout.

When no format is given it is inferred from the output file name: ".vg.json"
means lowered vega JSON, ".json" means vega-lite JSON, and any other extension
names the format directly (svg, png, pdf, html).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			return c.runSave(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, '-' for stdout (default: derived from input)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): vega-lite, vega, svg, png, pdf, html (comma-separated)")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "spec dialect: vega or vega-lite (default: inferred)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "raster scale factor for PNG output")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when a cached artifact exists")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

// runSave loads the spec, resolves output paths and formats, and runs the
// conversion pipeline for every requested format.
func (c *CLI) runSave(ctx context.Context, input string, opts *saveOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	data, err := readSpec(input)
	if err != nil {
		return err
	}
	spec, err := chart.ParseSpec(data)
	if err != nil {
		return err
	}

	pipeOpts := c.baseOptions()
	pipeOpts.Logger = logger
	pipeOpts.Spec = spec
	pipeOpts.Mode = opts.mode
	pipeOpts.Refresh = opts.refresh
	if opts.scale != 0 {
		pipeOpts.Scale = opts.scale
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	if opts.output == "-" {
		return saveToStdout(ctx, runner, pipeOpts, opts.formats)
	}

	formats, paths, err := resolveOutputs(input, opts.output, opts.formats)
	if err != nil {
		return err
	}

	pipeOpts.Formats = formats
	result, err := runner.Execute(ctx, pipeOpts)
	if err != nil {
		return err
	}

	for _, format := range formats {
		payload := result.Artifacts[format]
		mode := fsutil.ModeText
		if chart.BinaryFormat(format) {
			mode = fsutil.ModeBinary
		}
		if err := fsutil.NewPathOutput(paths[format]).WritePayload(payload, mode); err != nil {
			return err
		}
		printFile(paths[format], result.CacheInfo.Hits[format])
	}

	if len(formats) == 1 {
		prog.done(fmt.Sprintf("Saved %s chart as %s", result.Mode, formats[0]))
	} else {
		prog.done(fmt.Sprintf("Saved %s chart in %d formats", result.Mode, len(formats)))
	}
	return nil
}

// saveToStdout converts to a single format and writes the payload to stdout.
// Stdout cannot name a format, so multiple formats are rejected.
func saveToStdout(ctx context.Context, runner *pipeline.Runner, pipeOpts pipeline.Options, formats []string) error {
	if len(formats) > 1 {
		return errors.New(errors.ErrCodeInvalidOutput, "stdout accepts a single format, got %d", len(formats))
	}
	format := pipeline.DefaultFormat
	if len(formats) == 1 {
		format = formats[0]
	}

	mode := fsutil.ModeText
	if chart.BinaryFormat(format) {
		mode = fsutil.ModeBinary
	}
	out := fsutil.NewWriterOutput(os.Stdout, mode)
	return runner.Save(ctx, pipeOpts, out, format)
}

// readSpec reads the spec from a file, or stdin when input is "-".
func readSpec(input string) ([]byte, error) {
	if input == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSpec, err, "read spec %s", input)
	}
	return data, nil
}

// resolveOutputs determines the formats to produce and the output path for
// each. Precedence: an explicit single output with no formats infers the
// format from its name; otherwise paths derive from the base name.
func resolveOutputs(input, output string, formats []string) ([]string, map[string]string, error) {
	if output != "" && len(formats) <= 1 {
		format := ""
		if len(formats) == 1 {
			format = formats[0]
		} else {
			inferred, err := chart.ExtractFormat(output)
			if err != nil {
				return nil, nil, err
			}
			format = inferred
		}
		if err := chart.ValidateFormat(format); err != nil {
			return nil, nil, err
		}
		return []string{format}, map[string]string{format: output}, nil
	}

	if len(formats) == 0 {
		formats = []string{pipeline.DefaultFormat}
	}
	if err := chart.ValidateFormats(formats); err != nil {
		return nil, nil, err
	}

	base := basePath(output, input)
	paths := make(map[string]string, len(formats))
	for _, format := range formats {
		paths[format] = base + "." + formatExt(format)
	}
	return formats, paths, nil
}

// basePath derives the base output path. If output is empty, the input name
// is used with its spec extension stripped.
func basePath(output, input string) string {
	if output == "" {
		return trimSpecExt(input)
	}
	return trimSpecExt(output)
}

// trimSpecExt strips a trailing chart extension from name, handling the
// compound ".vl.json" and ".vg.json" forms before plain extensions.
func trimSpecExt(name string) string {
	for _, ext := range []string{".vl.json", ".vg.json", ".json", ".svg", ".png", ".pdf", ".html"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// formatExt returns the file extension for a format. The JSON dialects use
// their conventional compound extensions so the format stays inferable.
func formatExt(format string) string {
	switch format {
	case chart.FormatVegaLite:
		return "json"
	case chart.FormatVega:
		return "vg.json"
	default:
		return format
	}
}
