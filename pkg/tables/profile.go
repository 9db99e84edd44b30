package tables

import (
	"bytes"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/engrave/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultStaveSpace is the distance between stave lines in pixels.
	DefaultStaveSpace = 10.0

	// DefaultFontScale is the notation font size in points. One staff space
	// is a quarter of the font size.
	DefaultFontScale = 39.0

	// DefaultStemHeight is the natural stem length in pixels.
	DefaultStemHeight = 35.0

	// DefaultSoftmaxFactor controls how strongly justification tracks
	// duration. Larger values give long notes more of the slack.
	DefaultSoftmaxFactor = 10.0

	// DefaultMaxIterations bounds the formatter convergence pass.
	DefaultMaxIterations = 5
)

// BeamProfile holds the beam slope search constants.
type BeamProfile struct {
	Width             float64 `toml:"width"`
	MinSlope          float64 `toml:"min_slope"`
	MaxSlope          float64 `toml:"max_slope"`
	SlopeIterations   int     `toml:"slope_iterations"`
	SlopeCost         float64 `toml:"slope_cost"`
	PartialBeamLength float64 `toml:"partial_beam_length"`
	MinFlatBeamOffset float64 `toml:"min_flat_beam_offset"`
	FlatBeams         bool    `toml:"flat_beams"`
	ShowStemlets      bool    `toml:"show_stemlets"`
	StemletExtension  float64 `toml:"stemlet_extension"`
}

// Profile is the engraving profile: every tunable constant of layout in one
// immutable value passed to the formatter and note constructors.
type Profile struct {
	StaveSpace       float64 `toml:"stave_space"`
	SpaceAboveLines  float64 `toml:"space_above_lines"`
	SpaceBelowLines  float64 `toml:"space_below_lines"`
	NotationFont     string  `toml:"notation_font"`
	FontScale        float64 `toml:"font_scale"`
	StemHeight       float64 `toml:"stem_height"`
	StemWidth        float64 `toml:"stem_width"`
	LedgerLineExtend float64 `toml:"ledger_line_extend"`
	SoftmaxFactor    float64 `toml:"softmax_factor"`
	Unison           bool    `toml:"unison"`
	MaxIterations    int     `toml:"max_iterations"`
	DotSpacing       float64 `toml:"dot_spacing"`
	AccidentalSpace  float64 `toml:"accidental_spacing"`
	ModifierPadding  float64 `toml:"modifier_padding"`
	TextLineHeight   float64 `toml:"text_line_height"`

	// Padding is the minimum gap after a tick slot, keyed by duration code.
	Padding map[string]float64 `toml:"padding"`

	Beam  BeamProfile         `toml:"beam"`
	Fonts map[string]FontInfo `toml:"fonts"`
}

// DefaultProfile returns the built-in engraving profile.
func DefaultProfile() Profile {
	fonts := make(map[string]FontInfo, len(fontInfo))
	for k, v := range fontInfo {
		fonts[k] = v
	}
	return Profile{
		StaveSpace:       DefaultStaveSpace,
		SpaceAboveLines:  4,
		SpaceBelowLines:  4,
		NotationFont:     "Bravura",
		FontScale:        DefaultFontScale,
		StemHeight:       DefaultStemHeight,
		StemWidth:        1.5,
		LedgerLineExtend: 3,
		SoftmaxFactor:    DefaultSoftmaxFactor,
		Unison:           true,
		MaxIterations:    DefaultMaxIterations,
		DotSpacing:       1,
		AccidentalSpace:  3,
		ModifierPadding:  2,
		TextLineHeight:   10,
		Padding: map[string]float64{
			"1/2": 16, "1": 14, "2": 12, "4": 10, "8": 8, "16": 6,
			"32": 5, "64": 4, "128": 3, "256": 3, "512": 2, "1024": 2,
		},
		Beam: BeamProfile{
			Width:             5,
			MinSlope:          -0.25,
			MaxSlope:          0.25,
			SlopeIterations:   20,
			SlopeCost:         100,
			PartialBeamLength: 10,
			MinFlatBeamOffset: 15,
			StemletExtension:  7,
		},
		Fonts: fonts,
	}
}

// Px converts staff spaces to pixels at the profile's font scale.
func (p Profile) Px(staffSpaces float64) float64 {
	return staffSpaces * p.FontScale / 4
}

// GlyphWidth returns the pixel width of g.
func (p Profile) GlyphWidth(g Glyph) float64 { return p.Px(g.Width) }

// PaddingFor returns the minimum gap after a slot of duration d.
func (p Profile) PaddingFor(d string) float64 {
	if v, ok := p.Padding[d]; ok {
		return v
	}
	return p.Padding["4"]
}

// FontFor returns the text font for category, preferring profile overrides.
func (p Profile) FontFor(category string) (FontInfo, error) {
	if f, ok := p.Fonts[category]; ok {
		return f, nil
	}
	return FontInfoFor(category)
}

// Validate checks that the profile can drive a layout.
func (p Profile) Validate() error {
	switch {
	case p.StaveSpace <= 0:
		return errors.New(errors.ErrCodeInvalidConfiguration, "stave_space must be positive, got %v", p.StaveSpace)
	case p.FontScale <= 0:
		return errors.New(errors.ErrCodeInvalidConfiguration, "font_scale must be positive, got %v", p.FontScale)
	case p.SoftmaxFactor <= 0:
		return errors.New(errors.ErrCodeInvalidConfiguration, "softmax_factor must be positive, got %v", p.SoftmaxFactor)
	case p.MaxIterations < 0:
		return errors.New(errors.ErrCodeInvalidConfiguration, "max_iterations must not be negative, got %d", p.MaxIterations)
	case p.Beam.SlopeIterations <= 0:
		return errors.New(errors.ErrCodeInvalidConfiguration, "beam.slope_iterations must be positive, got %d", p.Beam.SlopeIterations)
	case p.Beam.MinSlope > p.Beam.MaxSlope:
		return errors.New(errors.ErrCodeInvalidConfiguration, "beam.min_slope %v exceeds beam.max_slope %v", p.Beam.MinSlope, p.Beam.MaxSlope)
	}
	for d := range p.Padding {
		if _, err := SanitizeDuration(d); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfiguration, err, "padding table")
		}
	}
	return nil
}

// ParseProfile decodes TOML over the default profile, so missing keys keep
// their defaults.
func ParseProfile(data []byte) (Profile, error) {
	p := DefaultProfile()
	if err := toml.Unmarshal(data, &p); err != nil {
		return Profile{}, errors.Wrap(errors.ErrCodeParse, err, "decode profile")
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// LoadProfile reads a TOML profile file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.Wrap(errors.ErrCodeBadArguments, err, "read profile %s", path)
	}
	return ParseProfile(data)
}

// Encode writes p as TOML.
func (p Profile) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(p); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode profile")
	}
	return nil
}

// Fingerprint returns the TOML encoding of p, used in cache keys so a
// profile change invalidates rendered artifacts.
func (p Profile) Fingerprint() []byte {
	var buf bytes.Buffer
	_ = p.Encode(&buf)
	return buf.Bytes()
}
