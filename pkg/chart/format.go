package chart

import (
	"fmt"
	"strings"

	"github.com/vegakit/vegasave/pkg/errors"
)

// MIME type strings for the non-dialect formats.
const (
	MimetypePDF  = "application/pdf"
	MimetypeHTML = "text/html"
	MimetypePNG  = "image/png"
	MimetypeSVG  = "image/svg+xml"
)

// MIME type prefixes for the dialect JSON formats. Matching by prefix means
// any minor or patch version of the schema matches.
const (
	mimetypePrefixVegaLite = "application/vnd.vegalite"
	mimetypePrefixVega     = "application/vnd.vega"
)

// ValidateFormat checks that a format is one of the six recognized formats.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"unrecognized format %q (must be one of: vega-lite, vega, svg, png, pdf, html)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// FormatToMimetype returns the MIME type for a format. Dialect JSON formats
// embed the major component of the schema version, so "5.17.0" produces
// "application/vnd.vegalite.v5+json". Empty version strings fall back to the
// package defaults.
func FormatToMimetype(format, vlVersion, vgVersion string) (string, error) {
	if vlVersion == "" {
		vlVersion = DefaultVegaLiteVersion
	}
	if vgVersion == "" {
		vgVersion = DefaultVegaVersion
	}

	switch format {
	case FormatVegaLite:
		return fmt.Sprintf("%s.v%s+json", mimetypePrefixVegaLite, majorVersion(vlVersion)), nil
	case FormatVega:
		return fmt.Sprintf("%s.v%s+json", mimetypePrefixVega, majorVersion(vgVersion)), nil
	case FormatPDF:
		return MimetypePDF, nil
	case FormatHTML:
		return MimetypeHTML, nil
	case FormatPNG:
		return MimetypePNG, nil
	case FormatSVG:
		return MimetypeSVG, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unrecognized format %q", format)
	}
}

// MimetypeToFormat is the inverse of FormatToMimetype. Dialect MIME types are
// matched by prefix so any schema version maps back to its format; the four
// fixed MIME types are matched exactly.
//
// The vegalite prefix must be checked before the vega prefix: every vegalite
// MIME type also has the vega prefix.
func MimetypeToFormat(mimetype string) (string, error) {
	switch {
	case strings.HasPrefix(mimetype, mimetypePrefixVegaLite):
		return FormatVegaLite, nil
	case strings.HasPrefix(mimetype, mimetypePrefixVega):
		return FormatVega, nil
	case mimetype == MimetypePDF:
		return FormatPDF, nil
	case mimetype == MimetypeHTML:
		return FormatHTML, nil
	case mimetype == MimetypePNG:
		return FormatPNG, nil
	case mimetype == MimetypeSVG:
		return FormatSVG, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidMimetype, "unrecognized mimetype %q", mimetype)
	}
}

// majorVersion extracts the leading component of a dotted version string.
// A leading "v" is tolerated so both "5.17.0" and "v5.17.0" yield "5".
func majorVersion(version string) string {
	version = strings.TrimPrefix(version, "v")
	if i := strings.IndexByte(version, '.'); i >= 0 {
		return version[:i]
	}
	return version
}
