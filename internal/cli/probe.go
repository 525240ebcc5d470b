package cli

import (
	"github.com/spf13/cobra"

	"github.com/vegakit/vegasave/pkg/convert"
	"github.com/vegakit/vegasave/pkg/httputil"
)

// probeCommand creates the probe command for checking the environment.
// It reports whether the renderer toolchain is installed and whether the
// CDN serving the HTML template's scripts resolves.
func (c *CLI) probeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe [host]",
		Short: "Check renderer toolchain and CDN availability",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host := ""
			if len(args) == 1 {
				host = args[0]
			}

			var convOpts []convert.Option
			if c.Config.BinDir != "" {
				convOpts = append(convOpts, convert.WithBinDir(c.Config.BinDir))
			}
			if convert.New(convOpts...).Enabled() {
				printSuccess("Renderer toolchain found (vl2vg, vg2svg, rsvg-convert)")
			} else {
				printError("Renderer toolchain incomplete")
				printDetail("Install the vega CLI tools (npm install -g vega-cli) and rsvg-convert")
			}

			probed := host
			if probed == "" {
				probed = httputil.DefaultProbeHost
			}
			if httputil.Reachable(cmd.Context(), host) {
				printSuccess("CDN reachable: %s", probed)
			} else {
				printWarning("CDN unreachable: %s (html output will not load scripts offline)", probed)
			}
			return nil
		},
	}
}
