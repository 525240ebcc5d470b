package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vegakit/vegasave/pkg/chart"
)

// formatsCommand creates the formats command listing supported outputs.
func (c *CLI) formatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported output formats and their MIME types",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(StyleTitle.Render("Supported formats"))
			fmt.Println(renderFormatTable(c.Config.VlVersion, c.Config.VgVersion))
			return nil
		},
	}
}

// renderFormatTable builds the aligned format/MIME type listing.
func renderFormatTable(vlVersion, vgVersion string) string {
	nameStyle := lipgloss.NewStyle().Foreground(colorCyan).Width(12)

	var out string
	for _, format := range chart.Formats {
		mimetype, err := chart.FormatToMimetype(format, vlVersion, vgVersion)
		if err != nil {
			continue
		}
		kind := "text"
		if chart.BinaryFormat(format) {
			kind = "binary"
		}
		out += fmt.Sprintf("  %s %s %s\n",
			nameStyle.Render(format),
			StyleValue.Render(mimetype),
			StyleDim.Render(kind))
	}
	return out
}
