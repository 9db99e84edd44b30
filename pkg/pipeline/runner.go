package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/engrave/pkg/cache"
	"github.com/matzehuels/engrave/pkg/observability"
	"github.com/matzehuels/engrave/pkg/score"
)

// Runner executes the pipeline against an artifact cache.
//
// A Runner holds no per-run state, so one Runner may serve concurrent
// Execute calls with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// uses the default keyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs parse, layout and render, serving artifacts from the cache
// when every requested format is already stored.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	src, err := readSource(opts)
	if err != nil {
		return nil, err
	}
	result := &Result{ScoreHash: cache.Hash(src.data)}

	if !opts.Refresh {
		if artifacts, ok := r.cached(ctx, result.ScoreHash, opts); ok {
			r.Logger.Info("served from cache", "source", src.name, "formats", opts.Formats)
			result.Artifacts = artifacts
			result.CacheInfo.RenderHit = true
			return result, nil
		}
	}

	hooks := observability.Pipeline()

	start := time.Now()
	hooks.OnParseStart(ctx, src.name)
	doc, err := parseSource(src, opts)
	result.Stats.ParseTime = time.Since(start)
	hooks.OnParseComplete(ctx, src.name, measureCount(doc), result.Stats.ParseTime, err)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("parsed score", "source", src.name, "measures", len(doc.Measures))

	start = time.Now()
	hooks.OnLayoutStart(ctx, len(doc.Measures))
	s, err := Layout(doc, opts)
	result.Stats.LayoutTime = time.Since(start)
	if err == nil {
		result.Score = s
		result.Stats.Measures = len(s.Measures)
		result.Stats.Iterations = NewReport(s).Iterations()
	}
	hooks.OnLayoutComplete(ctx, len(doc.Measures), result.Stats.Iterations, result.Stats.LayoutTime, err)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("formatted score",
		"measures", result.Stats.Measures,
		"iterations", result.Stats.Iterations,
		"duration", result.Stats.LayoutTime)

	start = time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	artifacts, err := Render(ctx, s, opts)
	result.Stats.RenderTime = time.Since(start)
	hooks.OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	r.Logger.Info("rendered outputs", "formats", opts.Formats, "duration", result.Stats.RenderTime)

	r.store(ctx, result.ScoreHash, artifacts, opts)
	return result, nil
}

// cached returns every requested artifact, or false if any is missing.
func (r *Runner) cached(ctx context.Context, scoreHash string, opts Options) (map[string][]byte, bool) {
	hooks := observability.Cache()
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(scoreHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.Logger.Warn("cache read failed", "format", format, "err", err)
		}
		if err != nil || !hit {
			hooks.OnCacheMiss(ctx, format)
			return nil, false
		}
		hooks.OnCacheHit(ctx, format)
		artifacts[format] = data
	}
	return artifacts, true
}

// store writes artifacts to the cache. Failures are logged, not returned.
func (r *Runner) store(ctx context.Context, scoreHash string, artifacts map[string][]byte, opts Options) {
	hooks := observability.Cache()
	for format, data := range artifacts {
		key := r.Keyer.ArtifactKey(scoreHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, TTLArtifact); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
			continue
		}
		hooks.OnCacheSet(ctx, format, len(data))
	}
}

// Close releases the cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

func measureCount(doc *score.Document) int {
	if doc == nil {
		return 0
	}
	return len(doc.Measures)
}
