// Package text measures text for layout.
//
// Annotations, chord symbols, fingerings and tab frets claim horizontal space
// during formatting, so the layout pass needs text widths before anything is
// drawn. [FontMeasurer] measures with real font outlines (the Go fonts,
// embedded by golang.org/x/image) and is the default. [EstimateMeasurer] uses
// a fixed character-width ratio and is useful where exact metrics do not
// matter.
package text

import (
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/tables"
)

// Metrics is the bounding box of a measured string in pixels.
type Metrics struct {
	Width  float64
	Height float64
}

// Measurer measures a string set in a given font.
type Measurer interface {
	Measure(s string, f tables.FontInfo) Metrics
}

// faceKey identifies a cached face.
type faceKey struct {
	bold, italic bool
	size         float64
}

// FontMeasurer measures text with the embedded Go fonts. Faces are parsed
// once and cached per size and variant. It is safe for concurrent use.
type FontMeasurer struct {
	mu    sync.Mutex
	fonts map[[2]bool]*opentype.Font
	faces map[faceKey]font.Face
}

// NewFontMeasurer parses the embedded fonts.
func NewFontMeasurer() (*FontMeasurer, error) {
	sources := map[[2]bool][]byte{
		{false, false}: goregular.TTF,
		{true, false}:  gobold.TTF,
		{false, true}:  goitalic.TTF,
		{true, true}:   gobolditalic.TTF,
	}
	m := &FontMeasurer{
		fonts: make(map[[2]bool]*opentype.Font, len(sources)),
		faces: make(map[faceKey]font.Face),
	}
	for variant, data := range sources {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse embedded font")
		}
		m.fonts[variant] = f
	}
	return m, nil
}

var (
	defaultOnce     sync.Once
	defaultMeasurer Measurer
)

// Default returns a shared FontMeasurer, falling back to EstimateMeasurer if
// the embedded fonts cannot be parsed.
func Default() Measurer {
	defaultOnce.Do(func() {
		m, err := NewFontMeasurer()
		if err != nil {
			defaultMeasurer = EstimateMeasurer{}
			return
		}
		defaultMeasurer = m
	})
	return defaultMeasurer
}

func (m *FontMeasurer) face(f tables.FontInfo) (font.Face, error) {
	key := faceKey{bold: f.Bold(), italic: f.Italic(), size: f.Size}
	m.mu.Lock()
	defer m.mu.Unlock()
	if face, ok := m.faces[key]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(m.fonts[[2]bool{key.bold, key.italic}], &opentype.FaceOptions{
		Size:    key.size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[key] = face
	return face, nil
}

// Measure returns the advance width and line height of s.
func (m *FontMeasurer) Measure(s string, f tables.FontInfo) Metrics {
	if f.Size <= 0 {
		f.Size = 10
	}
	face, err := m.face(f)
	if err != nil {
		return EstimateMeasurer{}.Measure(s, f)
	}
	m.mu.Lock()
	adv := font.MeasureString(face, s)
	fm := face.Metrics()
	m.mu.Unlock()
	return Metrics{
		Width:  float64(adv) / 64,
		Height: float64(fm.Ascent+fm.Descent) / 64,
	}
}

// EstimateMeasurer approximates text width as a fixed fraction of the font
// size per character.
type EstimateMeasurer struct{}

const charWidthRatio = 0.55

// Measure returns an estimated bounding box.
func (EstimateMeasurer) Measure(s string, f tables.FontInfo) Metrics {
	size := f.Size
	if size <= 0 {
		size = 10
	}
	ratio := charWidthRatio
	if f.Bold() {
		ratio += 0.05
	}
	n := 0
	for range s {
		n++
	}
	return Metrics{
		Width:  math.Round(float64(n)*size*ratio*100) / 100,
		Height: size * 1.2,
	}
}
