package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vegakit/vegasave/pkg/cache"
	"github.com/vegakit/vegasave/pkg/chart"
	"github.com/vegakit/vegasave/pkg/convert"
	"github.com/vegakit/vegasave/pkg/saver"
)

// Runner encapsulates pipeline execution with artifact caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store conversion results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute converts the spec to every requested format.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	specData, err := opts.Spec.Marshal()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Mode:      opts.Mode,
		SpecHash:  cache.Hash(specData),
		Artifacts: make(map[string][]byte, len(opts.Formats)),
		Mimetypes: make(map[string]string, len(opts.Formats)),
		CacheInfo: CacheInfo{Hits: make(map[string]bool, len(opts.Formats))},
	}

	opts.Logger.Debug("resolved dialect", "mode", opts.Mode, "spec_hash", result.SpecHash[:12])

	start := time.Now()
	for _, format := range opts.Formats {
		data, hit, err := r.convertWithCache(ctx, result.SpecHash, specData, format, opts)
		if err != nil {
			return nil, err
		}
		mimetype, err := chart.FormatToMimetype(format, opts.VlVersion, opts.VgVersion)
		if err != nil {
			return nil, err
		}
		result.Artifacts[format] = data
		result.Mimetypes[format] = mimetype
		result.CacheInfo.Hits[format] = hit
	}
	result.Stats.ConvertTime = time.Since(start)
	result.Stats.Formats = len(opts.Formats)

	opts.Logger.Info("converted chart",
		"mode", opts.Mode,
		"formats", opts.Formats,
		"duration", result.Stats.ConvertTime)

	return result, nil
}

// Mimebundle converts the spec to a single format and returns the labeled
// payload. This is the one-format convenience entry point used by the API.
func (r *Runner) Mimebundle(ctx context.Context, opts Options, format string) (saver.Mimebundle, error) {
	opts.Formats = []string{format}
	result, err := r.Execute(ctx, opts)
	if err != nil {
		return saver.Mimebundle{}, err
	}
	return saver.Mimebundle{
		Mimetype: result.Mimetypes[format],
		Data:     result.Artifacts[format],
	}, nil
}

// convertWithCache produces one format, consulting the artifact cache first.
func (r *Runner) convertWithCache(ctx context.Context, specHash string, specData []byte, format string, opts Options) ([]byte, bool, error) {
	cacheKey := r.Keyer.ArtifactKey(specHash, opts.ArtifactKeyOpts(format))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			opts.Logger.Debug("artifact cache hit", "format", format)
			return data, true, nil
		}
	}

	bundle, err := r.saverFor(opts, format).Mimebundle(ctx, format)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, cacheKey, bundle.Data, cache.TTLArtifact); err != nil {
		// A broken cache never fails a conversion.
		opts.Logger.Warn("artifact cache write failed", "format", format, "err", err)
	}

	return bundle.Data, false, nil
}

// saverFor picks the saver variant for a request: the direct saver when the
// requested format is the spec's own dialect, the pipeline saver otherwise.
func (r *Runner) saverFor(opts Options, format string) saver.Saver {
	saverOpts := []saver.Option{
		saver.WithMode(opts.Mode),
		saver.WithVersions(opts.VlVersion, opts.VgVersion),
	}
	if format == opts.Mode {
		return saver.NewBasic(opts.Spec, saverOpts...)
	}

	convOpts := []convert.Option{convert.WithScale(opts.Scale), convert.WithLogger(opts.Logger)}
	if opts.BinDir != "" {
		convOpts = append(convOpts, convert.WithBinDir(opts.BinDir))
	}
	if opts.TempDir != "" {
		convOpts = append(convOpts, convert.WithTempDir(opts.TempDir))
	}
	if opts.Diagnostics != nil {
		convOpts = append(convOpts, convert.WithDiagnostics(opts.Diagnostics))
	}
	return saver.NewNode(opts.Spec, convert.New(convOpts...), saverOpts...)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
