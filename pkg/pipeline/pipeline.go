// Package pipeline provides the core conversion pipeline for vegasave.
//
// This package implements the complete infer → convert → bundle pipeline
// that is shared by the CLI and the HTTP API. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Infer: Determine the spec's dialect (vega or vega-lite)
//  2. Convert: Produce each requested format via the saver layer
//  3. Write: Hand the labeled artifacts back to the caller
//
// Conversion results are cached by spec content hash, so repeated requests
// for the same chart skip the external renderer entirely.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Spec:    spec,
//	    Formats: []string{"svg", "png"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vegakit/vegasave/pkg/cache"
	"github.com/vegakit/vegasave/pkg/chart"
	"github.com/vegakit/vegasave/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultFormat is the output format used when none is requested and
	// none can be inferred from an output name.
	DefaultFormat = chart.FormatSVG

	// DefaultScale is the raster scale factor for PNG output.
	DefaultScale = 2.0
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a conversion run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Input options
	Spec chart.Spec `json:"spec"`
	Mode string     `json:"mode,omitempty"` // dialect; inferred when empty

	// Conversion options
	Formats   []string `json:"formats,omitempty"`
	Scale     float64  `json:"scale,omitempty"`
	VlVersion string   `json:"vl_version,omitempty"`
	VgVersion string   `json:"vg_version,omitempty"`
	Refresh   bool     `json:"refresh,omitempty"` // bypass the artifact cache

	// Runtime options (not serialized)
	Logger      *log.Logger `json:"-"`
	BinDir      string      `json:"-"` // renderer binary directory override
	TempDir     string      `json:"-"` // intermediate file directory override
	Diagnostics io.Writer   `json:"-"` // renderer stderr relay target

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Mode is the spec's dialect, inferred when not supplied.
	Mode string

	// SpecHash is the content hash of the input spec.
	SpecHash string

	// Artifacts contains converted outputs keyed by format.
	Artifacts map[string][]byte

	// Mimetypes maps each produced format to its MIME type.
	Mimetypes map[string]string

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which formats came from the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ConvertTime time.Duration
	Formats     int
}

// CacheInfo tracks cache hits per requested format.
type CacheInfo struct {
	Hits map[string]bool
}

// AllHit reports whether every requested format came from the cache.
func (c CacheInfo) AllHit() bool {
	if len(c.Hits) == 0 {
		return false
	}
	for _, hit := range c.Hits {
		if !hit {
			return false
		}
	}
	return true
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Spec == nil {
		return errors.New(errors.ErrCodeInvalidSpec, "spec is required")
	}
	if o.Mode == "" {
		o.Mode = chart.InferDialect(o.Spec)
	} else if err := chart.ValidateMode(o.Mode); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if err := chart.ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns cache key options for a format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		Mode:      o.Mode,
		Scale:     o.Scale,
		VlVersion: o.VlVersion,
		VgVersion: o.VgVersion,
	}
}
