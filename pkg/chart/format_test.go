package chart

import (
	"strings"
	"testing"

	"github.com/vegakit/vegasave/pkg/errors"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"vega-lite", false},
		{"vega", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"html", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v, want INVALID_FORMAT", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestFormatToMimetype(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"vega-lite", "application/vnd.vegalite.v5+json"},
		{"vega", "application/vnd.vega.v5+json"},
		{"pdf", "application/pdf"},
		{"html", "text/html"},
		{"png", "image/png"},
		{"svg", "image/svg+xml"},
	}

	for _, tt := range tests {
		got, err := FormatToMimetype(tt.format, "5.17.0", "5.30.0")
		if err != nil {
			t.Errorf("FormatToMimetype(%q) error = %v", tt.format, err)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatToMimetype(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestFormatToMimetypeUnrecognized(t *testing.T) {
	_, err := FormatToMimetype("gif", "", "")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("expected INVALID_FORMAT, got %v", err)
	}
}

func TestFormatToMimetypeMajorVersionOnly(t *testing.T) {
	// Only the major component of a version string appears in the mimetype.
	versions := []string{"4.0.2", "4.17", "4", "v4.1.0"}
	for _, v := range versions {
		got, err := FormatToMimetype("vega-lite", v, "")
		if err != nil {
			t.Fatalf("FormatToMimetype error = %v", err)
		}
		if got != "application/vnd.vegalite.v4+json" {
			t.Errorf("version %q produced %q, want v4 mimetype", v, got)
		}
		if strings.Contains(got, "4.") {
			t.Errorf("minor version leaked into mimetype: %q", got)
		}
	}
}

func TestMimetypeToFormat(t *testing.T) {
	tests := []struct {
		mimetype string
		want     string
		wantErr  bool
	}{
		{"application/vnd.vegalite.v5+json", "vega-lite", false},
		{"application/vnd.vegalite.v3+json", "vega-lite", false},
		{"application/vnd.vega.v5+json", "vega", false},
		{"application/pdf", "pdf", false},
		{"text/html", "html", false},
		{"image/png", "png", false},
		{"image/svg+xml", "svg", false},
		{"image/jpeg", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := MimetypeToFormat(tt.mimetype)
		if (err != nil) != tt.wantErr {
			t.Errorf("MimetypeToFormat(%q) error = %v, wantErr %v", tt.mimetype, err, tt.wantErr)
			continue
		}
		if err != nil {
			if !errors.Is(err, errors.ErrCodeInvalidMimetype) {
				t.Errorf("MimetypeToFormat(%q) code = %v, want INVALID_MIMETYPE", tt.mimetype, errors.GetCode(err))
			}
			continue
		}
		if got != tt.want {
			t.Errorf("MimetypeToFormat(%q) = %q, want %q", tt.mimetype, got, tt.want)
		}
	}
}

func TestFormatMimetypeRoundTrip(t *testing.T) {
	for _, format := range Formats {
		mimetype, err := FormatToMimetype(format, "5.17.0", "5.30.0")
		if err != nil {
			t.Fatalf("FormatToMimetype(%q) error = %v", format, err)
		}
		back, err := MimetypeToFormat(mimetype)
		if err != nil {
			t.Fatalf("MimetypeToFormat(%q) error = %v", mimetype, err)
		}
		if back != format {
			t.Errorf("round trip %q -> %q -> %q", format, mimetype, back)
		}
	}
}

func TestBinaryFormat(t *testing.T) {
	for format, binary := range map[string]bool{
		"png": true, "pdf": true, "svg": false, "html": false, "vega": false, "vega-lite": false,
	} {
		if got := BinaryFormat(format); got != binary {
			t.Errorf("BinaryFormat(%q) = %v, want %v", format, got, binary)
		}
	}
}
