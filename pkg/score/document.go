package score

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/engrave/pkg/errors"
)

// Document is a score as written in TOML:
//
//	title = "Minuet"
//	width = 900
//
//	[[measure]]
//	clef = "treble"
//	time = "3/4"
//
//	[[measure.voice]]
//	notes = "D5/q, G4/8, A4, B4, C5"
//	auto_beam = true
//
//	[[measure.voice.modifier]]
//	note = 0
//	kind = "articulation"
//	value = "a."
type Document struct {
	Title string `toml:"title"`
	// Width is the page width. Measures wrap onto a new system when they
	// would pass it; zero keeps everything on one system.
	Width float64 `toml:"width"`
	// SystemSpacing is the vertical distance between systems.
	SystemSpacing float64       `toml:"system_spacing"`
	Measures      []MeasureSpec `toml:"measure"`
}

// MeasureSpec is one stave's worth of music.
type MeasureSpec struct {
	Clef string `toml:"clef"`
	Time string `toml:"time"`
	// ShowTime draws the time signature.
	ShowTime bool `toml:"show_time"`
	// Width fixes the stave width; zero sizes the measure to its content.
	Width   float64     `toml:"width"`
	Barline string      `toml:"barline"`
	Voices  []VoiceSpec `toml:"voice"`
	Text    []TextSpec  `toml:"text"`
}

// VoiceSpec is one voice of a measure.
type VoiceSpec struct {
	Notes     string         `toml:"notes"`
	Stem      string         `toml:"stem"` // up, down or auto
	Mode      string         `toml:"mode"` // strict, soft or full
	AutoBeam  bool           `toml:"auto_beam"`
	Beams     [][]int        `toml:"beams"` // event indexes per beam
	Tuplets   []TupletSpec   `toml:"tuplet"`
	Modifiers []ModifierSpec `toml:"modifier"`
	Graces    []GraceSpec    `toml:"grace"`
}

// TupletSpec groups Count events from Start.
type TupletSpec struct {
	Start     int    `toml:"start"`
	Count     int    `toml:"count"`
	Occupied  int    `toml:"occupied"`
	Location  string `toml:"location"` // above or below
	Bracketed *bool  `toml:"bracketed"`
	Ratioed   *bool  `toml:"ratioed"`
}

// ModifierSpec attaches a modifier to the key at Key of event Note.
type ModifierSpec struct {
	Note     int    `toml:"note"`
	Key      int    `toml:"key"`
	Kind     string `toml:"kind"`
	Value    string `toml:"value"`
	Position string `toml:"position"`
}

// GraceSpec puts grace notes before event Note.
type GraceSpec struct {
	Note  int    `toml:"note"`
	Notes string `toml:"notes"`
	Slash bool   `toml:"slash"`
	Slur  bool   `toml:"slur"`
}

// TextSpec is one entry of a measure's text line, such as a lyric.
type TextSpec struct {
	Content  string  `toml:"content"`
	Duration string  `toml:"duration"`
	Line     float64 `toml:"line"`
}

// Parse decodes a TOML score document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode score")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeParse, "unknown score key %q", undecoded[0].String())
	}
	if len(doc.Measures) == 0 {
		return nil, errors.New(errors.ErrCodeParse, "score has no measures")
	}
	return &doc, nil
}

// Load reads a TOML score file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBadArguments, err, "read score %s", path)
	}
	return Parse(data)
}

// FromNotes wraps a single note list in a one-measure document.
func FromNotes(notes, clef, time string) *Document {
	return &Document{Measures: []MeasureSpec{{
		Clef:     clef,
		Time:     time,
		ShowTime: time != "",
		Voices:   []VoiceSpec{{Notes: notes, AutoBeam: true}},
	}}}
}
