package tables

import (
	"strconv"
	"strings"

	"github.com/matzehuels/engrave/pkg/errors"
)

// NoteValue describes one pitch spelling: its diatonic index (c=0 to b=6),
// its semitone value and the accidental it is spelled with.
type NoteValue struct {
	Root       string
	Index      int
	IntValue   int
	Accidental string
}

var noteValues = map[string]NoteValue{
	"c": {"c", 0, 0, ""}, "cn": {"c", 0, 0, "n"}, "c#": {"c", 0, 1, "#"}, "c##": {"c", 0, 2, "##"}, "cb": {"c", 0, -1, "b"}, "cbb": {"c", 0, -2, "bb"},
	"d": {"d", 1, 2, ""}, "dn": {"d", 1, 2, "n"}, "d#": {"d", 1, 3, "#"}, "d##": {"d", 1, 4, "##"}, "db": {"d", 1, 1, "b"}, "dbb": {"d", 1, 0, "bb"},
	"e": {"e", 2, 4, ""}, "en": {"e", 2, 4, "n"}, "e#": {"e", 2, 5, "#"}, "e##": {"e", 2, 6, "##"}, "eb": {"e", 2, 3, "b"}, "ebb": {"e", 2, 2, "bb"},
	"f": {"f", 3, 5, ""}, "fn": {"f", 3, 5, "n"}, "f#": {"f", 3, 6, "#"}, "f##": {"f", 3, 7, "##"}, "fb": {"f", 3, 4, "b"}, "fbb": {"f", 3, 3, "bb"},
	"g": {"g", 4, 7, ""}, "gn": {"g", 4, 7, "n"}, "g#": {"g", 4, 8, "#"}, "g##": {"g", 4, 9, "##"}, "gb": {"g", 4, 6, "b"}, "gbb": {"g", 4, 5, "bb"},
	"a": {"a", 5, 9, ""}, "an": {"a", 5, 9, "n"}, "a#": {"a", 5, 10, "#"}, "a##": {"a", 5, 11, "##"}, "ab": {"a", 5, 8, "b"}, "abb": {"a", 5, 7, "bb"},
	"b": {"b", 6, 11, ""}, "bn": {"b", 6, 11, "n"}, "b#": {"b", 6, 12, "#"}, "b##": {"b", 6, 13, "##"}, "bb": {"b", 6, 10, "b"}, "bbb": {"b", 6, 9, "bb"},
	// Rest placement pseudo-pitch.
	"r": {"r", 6, 0, ""},
	// Noteheads without pitch.
	"x": {"x", 6, 0, ""},
}

// Clef line shifts relative to treble.
var clefShifts = map[string]float64{
	"treble":        0,
	"bass":          6,
	"tenor":         4,
	"alto":          3,
	"soprano":       1,
	"mezzo-soprano": 2,
	"baritone-c":    5,
	"baritone-f":    5,
	"subbass":       7,
	"french":        -1,
	"percussion":    0,
	"tab":           0,
}

// ClefShift returns the line shift for clef, failing on unknown clefs.
func ClefShift(clef string) (float64, error) {
	if clef == "" {
		clef = "treble"
	}
	s, ok := clefShifts[clef]
	if !ok {
		return 0, errors.New(errors.ErrCodeBadArguments, "invalid clef: %q", clef)
	}
	return s, nil
}

// KeyProps is the layout description of a single key such as "c#/5".
type KeyProps struct {
	Key        string
	Octave     int
	Line       float64 // staff line: 1 is the bottom line, 5 the top line
	IntValue   int     // semitones from c/0
	Accidental string
	Notehead   string // glyph name override from a third key component
	Stroke     int    // +1 needs ledger lines below, -1 above
	ShiftRight float64
	Displaced  bool
}

// KeyProperties resolves "name/octave[/notehead]" for clef. octaveShift
// transposes by whole octaves.
func KeyProperties(key, clef string, octaveShift int) (KeyProps, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(key)), "/")
	if len(parts) < 2 {
		return KeyProps{}, errors.New(errors.ErrCodeBadArguments, "key must have note and octave: %q", key)
	}
	value, ok := noteValues[parts[0]]
	if !ok {
		return KeyProps{}, errors.New(errors.ErrCodeBadArguments, "invalid key name: %q", parts[0])
	}
	octave, err := strconv.Atoi(parts[1])
	if err != nil {
		return KeyProps{}, errors.Wrap(errors.ErrCodeBadArguments, err, "invalid octave in key %q", key)
	}
	octave += octaveShift
	shift, err := ClefShift(clef)
	if err != nil {
		return KeyProps{}, err
	}

	base := float64(octave*7-4*7+value.Index) / 2
	line := base + shift

	stroke := 0
	switch {
	case line <= 0:
		stroke = 1
	case line >= 6:
		stroke = -1
	}

	props := KeyProps{
		Key:        parts[0],
		Octave:     octave,
		Line:       line,
		IntValue:   octave*12 + value.IntValue,
		Accidental: value.Accidental,
		Stroke:     stroke,
	}
	if len(parts) > 2 {
		props.Notehead = parts[2]
	}
	return props, nil
}

// NoteIndex returns the diatonic index of a note name (c=0, b=6).
func NoteIndex(name string) (int, bool) {
	v, ok := noteValues[strings.ToLower(name)]
	return v.Index, ok
}
