// Package pipeline runs the complete engraving pipeline.
//
// The CLI and any service built on this module share one path from score
// source to rendered artifact:
//
//  1. Parse: read a TOML score document, or wrap an inline note string
//  2. Layout: build staves and voices, then format every measure
//  3. Render: draw to SVG and convert to PNG or PDF
//
// Rendered artifacts are cached by the content hash of the score source,
// the engraving profile and the output options. A full cache hit skips
// layout entirely.
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Notes:   "C#5/q, B4, A4, G#4",
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/engrave/pkg/cache"
	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/render"
	"github.com/matzehuels/engrave/pkg/score"
	"github.com/matzehuels/engrave/pkg/tables"
	"github.com/matzehuels/engrave/pkg/text"
)

const (
	// DefaultClef applies to inline notes without a clef.
	DefaultClef = "treble"

	// DefaultScale is the PNG pixel density.
	DefaultScale = 2.0

	// TTLArtifact is how long rendered outputs stay cached.
	TTLArtifact = 30 * 24 * time.Hour
)

// Output formats. FormatJSON is the per-measure layout report.
const (
	FormatSVG  = render.FormatSVG
	FormatPNG  = render.FormatPNG
	FormatPDF  = render.FormatPDF
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// Options configures one pipeline run. Exactly one of Source, ScorePath and
// Notes names the music.
type Options struct {
	// Source is the raw TOML of a score document.
	Source []byte `json:"source,omitempty"`
	// ScorePath is a TOML score file on disk.
	ScorePath string `json:"score_path,omitempty"`
	// Notes is an inline note string set as a single measure.
	Notes string `json:"notes,omitempty"`
	Clef  string `json:"clef,omitempty"`
	Time  string `json:"time,omitempty"`

	// Width overrides the document's page width.
	Width   float64  `json:"width,omitempty"`
	Formats []string `json:"formats,omitempty"`
	Scale   float64  `json:"scale,omitempty"`
	Refresh bool     `json:"refresh,omitempty"`

	// ProfilePath is a TOML engraving profile; empty uses the default.
	ProfilePath string `json:"profile_path,omitempty"`

	Profile  *tables.Profile `json:"-"`
	Measurer text.Measurer   `json:"-"`
	Logger   *log.Logger     `json:"-"`

	validated bool
}

// Result is the outcome of a pipeline run.
type Result struct {
	// Score is nil when every artifact came from the cache.
	Score     *score.Score
	ScoreHash string
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats reports sizes and stage timings.
type Stats struct {
	Measures   int
	Iterations int
	ParseTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo reports cache use.
type CacheInfo struct {
	RenderHit bool // every artifact came from the cache
}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks every entry of formats.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks the source selection, loads the profile and
// fills defaults. Calling it twice is harmless.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	n := 0
	for _, set := range []bool{len(o.Source) > 0, o.ScorePath != "", strings.TrimSpace(o.Notes) != ""} {
		if set {
			n++
		}
	}
	if n != 1 {
		return errors.New(errors.ErrCodeBadArguments, "exactly one of source, score path or notes is required")
	}
	if o.Width < 0 {
		return errors.New(errors.ErrCodeBadArguments, "width must not be negative")
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeBadArguments, "scale must be positive")
	}
	if o.Notes != "" && o.Clef == "" {
		o.Clef = DefaultClef
	}

	if o.Profile == nil {
		p := tables.DefaultProfile()
		if o.ProfilePath != "" {
			var err error
			if p, err = tables.LoadProfile(o.ProfilePath); err != nil {
				return err
			}
		}
		o.Profile = &p
	}
	if o.Measurer == nil {
		o.Measurer = text.Default()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns the cache key options for format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Profile: cache.Hash(o.Profile.Fingerprint()),
		Format:  format,
		Width:   o.Width,
	}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	return opts
}
