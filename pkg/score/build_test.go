package score

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/render"
	"github.com/matzehuels/engrave/pkg/text"
)

const study = `
title = "Study"

[[measure]]
clef = "treble"
time = "4/4"
show_time = true
barline = "end"

[[measure.voice]]
notes = "C5/8, D5, E5, F5/q, (C4 E4 G4)/h"
beams = [[0, 1, 2]]

[[measure.voice.tuplet]]
start = 0
count = 3

[[measure.voice.modifier]]
note = 3
kind = "articulation"
value = "a."
position = "above"

[[measure.voice.modifier]]
note = 4
key = 1
kind = "accidental"
value = "(#)"

[[measure.voice.modifier]]
note = 4
kind = "annotation"
value = "dolce"
position = "below"

[[measure.voice.grace]]
note = 3
notes = "E5/16, F5"
slash = true

[[measure.text]]
content = "la"
duration = "h"

[[measure.text]]
content = "lu"
duration = "h"
`

func build(t *testing.T, doc *Document) *Score {
	t.Helper()
	s, err := Build(doc, WithMeasurer(text.EstimateMeasurer{}))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return s
}

func TestParseDocument(t *testing.T) {
	doc, err := Parse([]byte(study))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Title != "Study" || len(doc.Measures) != 1 {
		t.Fatalf("Parse() = %q with %d measures", doc.Title, len(doc.Measures))
	}
	m := doc.Measures[0]
	if len(m.Voices) != 1 || len(m.Text) != 2 {
		t.Fatalf("measure has %d voices and %d text entries", len(m.Voices), len(m.Text))
	}
	v := m.Voices[0]
	if len(v.Modifiers) != 3 || len(v.Tuplets) != 1 || len(v.Graces) != 1 || len(v.Beams) != 1 {
		t.Errorf("voice = %+v", v)
	}

	tests := []struct {
		name string
		src  string
	}{
		{"unknown key", "[[measure]]\nclef = \"treble\"\ncolour = \"red\"\n"},
		{"no measures", "title = \"x\"\n"},
		{"bad toml", "[[measure]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.src)); !errors.Is(err, errors.ErrCodeParse) {
				t.Errorf("Parse() error = %v, want PARSE_ERROR", err)
			}
		})
	}
}

func TestBuildStudy(t *testing.T) {
	doc, err := Parse([]byte(study))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s := build(t, doc)
	m := s.Measures[0]
	if len(m.Voices) != 2 {
		t.Errorf("got %d voices, want notes and text", len(m.Voices))
	}
	if len(m.Tuplets) != 1 || len(m.Beams) != 1 {
		t.Errorf("got %d tuplets and %d beams, want 1 and 1", len(m.Tuplets), len(m.Beams))
	}
	if !m.Voices[0].IsComplete() {
		t.Error("triplet voice is not complete")
	}

	ctx := render.NewSVG(render.WithSize(s.Width, s.Height), render.WithMeasurer(text.EstimateMeasurer{}))
	if err := s.Draw(ctx); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	svg := string(ctx.Bytes())
	for _, class := range []string{"vf-measure", "vf-stave", "vf-tuplet", "vf-beam", "vf-gracenotegroup", "vf-textnote", "vf-barnote", "vf-articulation", "vf-accidental", "vf-annotation"} {
		if !strings.Contains(svg, `class="`+class+`"`) {
			t.Errorf("drawing has no %s group", class)
		}
	}
}

func TestBuildSizesToContent(t *testing.T) {
	s := build(t, FromNotes("C4/q, D4, E4, F4", "treble", "4/4"))
	m := s.Measures[0]
	if m.MinWidth <= 0 {
		t.Fatalf("MinWidth = %v, want positive", m.MinWidth)
	}
	if got, want := m.Stave.JustifyWidth(), m.MinWidth*contentStretch; math.Abs(got-want) > 1e-6 {
		t.Errorf("JustifyWidth() = %v, want %v", got, want)
	}
	if s.Width != m.Stave.X()+m.Stave.Width()+pageMargin {
		t.Errorf("score width %v does not fit stave ending at %v", s.Width, m.Stave.X()+m.Stave.Width())
	}
	if m.Iterations < 1 {
		t.Errorf("Iterations = %d, want at least 1", m.Iterations)
	}

	fixed := FromNotes("C4/h, D4", "bass", "")
	fixed.Measures[0].Width = 321
	if got := build(t, fixed).Measures[0].Stave.Width(); got != 321 {
		t.Errorf("fixed stave width = %v, want 321", got)
	}
}

func TestBuildWrapsSystems(t *testing.T) {
	doc := &Document{Width: 300}
	for range 4 {
		doc.Measures = append(doc.Measures, MeasureSpec{Voices: []VoiceSpec{{Notes: "C4/q, D4, E4, F4"}}})
	}
	s := build(t, doc)
	first := s.Measures[0].Stave
	wrapped := false
	for i, m := range s.Measures {
		st := m.Stave
		if st.Y() > first.Y() {
			wrapped = true
		}
		if st.X() > pageMargin && st.X()+st.Width() > doc.Width-pageMargin {
			t.Errorf("measure %d ends at %v, past the page", i+1, st.X()+st.Width())
		}
	}
	if !wrapped {
		t.Error("four measures fit one 300px system, want a wrap")
	}
	if s.Width != 300 {
		t.Errorf("Width = %v, want page width 300", s.Width)
	}
	if last := s.Measures[3].Stave; s.Height != last.Y()+last.Height()+pageMargin {
		t.Errorf("Height = %v, want bottom of last system", s.Height)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		voice VoiceSpec
		code  errors.Code
	}{
		{"incomplete strict voice", VoiceSpec{Notes: "C4/q"}, errors.ErrCodeIncompleteVoice},
		{"parse error", VoiceSpec{Notes: "C4/q, X"}, errors.ErrCodeParse},
		{"unknown modifier", VoiceSpec{Notes: "C4/w", Modifiers: []ModifierSpec{{Kind: "sparkle"}}}, errors.ErrCodeBadArguments},
		{"modifier key out of range", VoiceSpec{Notes: "C4/w", Modifiers: []ModifierSpec{{Key: 2, Kind: "fingering", Value: "1"}}}, errors.ErrCodeBadArguments},
		{"modifier note out of range", VoiceSpec{Notes: "C4/w", Modifiers: []ModifierSpec{{Note: 1, Kind: "vibrato"}}}, errors.ErrCodeBadArguments},
		{"bad position", VoiceSpec{Notes: "C4/w", Modifiers: []ModifierSpec{{Kind: "fingering", Value: "1", Position: "sideways"}}}, errors.ErrCodeBadArguments},
		{"bad stem", VoiceSpec{Notes: "C4/w", Stem: "sideways"}, errors.ErrCodeBadArguments},
		{"bad mode", VoiceSpec{Notes: "C4/w", Mode: "loose"}, errors.ErrCodeBadArguments},
		{"tuplet overrun", VoiceSpec{Notes: "C4/w", Tuplets: []TupletSpec{{Start: 0, Count: 3}}}, errors.ErrCodeBadArguments},
		{"beam on quarter", VoiceSpec{Notes: "C4/q, D4, E4, F4", Beams: [][]int{{0, 1}}}, errors.ErrCodeBadArguments},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Document{Measures: []MeasureSpec{{Voices: []VoiceSpec{tt.voice}}}}
			_, err := Build(doc, WithMeasurer(text.EstimateMeasurer{}))
			if !errors.Is(err, tt.code) {
				t.Errorf("Build() error = %v, want %s", err, tt.code)
			}
		})
	}

	empty := &Document{Measures: []MeasureSpec{{Clef: "treble"}}}
	if _, err := Build(empty); !errors.Is(err, errors.ErrCodeBadArguments) {
		t.Errorf("Build() of empty measure error = %v, want BAD_ARGUMENTS", err)
	}
	bar := &Document{Measures: []MeasureSpec{{Barline: "wavy", Voices: []VoiceSpec{{Notes: "C4/w"}}}}}
	if _, err := Build(bar); !errors.Is(err, errors.ErrCodeBadArguments) {
		t.Errorf("Build() with unknown barline error = %v, want BAD_ARGUMENTS", err)
	}
}

func TestBuildExamples(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.toml"))
	if err != nil || len(paths) == 0 {
		t.Fatalf("no example scores found: %v", err)
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			doc, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			s := build(t, doc)
			for i, m := range s.Measures {
				for vi, v := range m.Voices {
					if !v.IsComplete() {
						t.Errorf("measure %d voice %d is incomplete", i+1, vi+1)
					}
				}
			}
			ctx := render.NewSVG(render.WithSize(s.Width, s.Height), render.WithMeasurer(text.EstimateMeasurer{}))
			if err := s.Draw(ctx); err != nil {
				t.Fatalf("Draw() error = %v", err)
			}
		})
	}
}
