package convert

import (
	"bytes"
	"encoding/json"
	"text/template"

	"github.com/vegakit/vegasave/pkg/chart"
	"github.com/vegakit/vegasave/pkg/errors"
)

// htmlTemplate is a self-contained HTML document that loads the vega runtime
// from the jsdelivr CDN and embeds the spec JSON inline. Rendering happens in
// the viewer's browser; no external process is involved in producing HTML.
var htmlTemplate = template.Must(template.New("html").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Vega chart</title>
  <meta charset="UTF-8">
  <script src="https://cdn.jsdelivr.net/npm/vega@{{.VegaVersion}}"></script>
  <script src="https://cdn.jsdelivr.net/npm/vega-lite@{{.VegaLiteVersion}}"></script>
  <script src="https://cdn.jsdelivr.net/npm/vega-embed@{{.VegaEmbedVersion}}"></script>
</head>
<body>
  <div id="vis"></div>
  <script type="text/javascript">
    const spec = {{.Spec}};
    const embedOpt = {"mode": {{.Mode}}};
    vegaEmbed("#vis", spec, embedOpt).catch(console.error);
  </script>
</body>
</html>
`))

// DefaultVegaEmbedVersion pins the vega-embed release referenced by HTML
// output.
const DefaultVegaEmbedVersion = "6.26.0"

type htmlData struct {
	Spec             string
	Mode             string
	VegaVersion      string
	VegaLiteVersion  string
	VegaEmbedVersion string
}

// toHTML wraps a spec in a static HTML document. This is the one conversion
// stage that runs locally.
func (c *Converter) toHTML(spec []byte, mode string) ([]byte, error) {
	// Compact the spec so the embedded JSON is valid regardless of input
	// formatting, and quote the mode as a JSON string literal.
	var compact bytes.Buffer
	if err := json.Compact(&compact, spec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "embed spec in html")
	}
	modeJSON, err := json.Marshal(mode)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "embed mode in html")
	}

	var out bytes.Buffer
	data := htmlData{
		Spec:             compact.String(),
		Mode:             string(modeJSON),
		VegaVersion:      chart.DefaultVegaVersion,
		VegaLiteVersion:  chart.DefaultVegaLiteVersion,
		VegaEmbedVersion: DefaultVegaEmbedVersion,
	}
	if err := htmlTemplate.Execute(&out, data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render html template")
	}
	return out.Bytes(), nil
}
