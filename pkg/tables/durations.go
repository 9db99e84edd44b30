package tables

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/fraction"
)

// Resolution is the number of ticks in a whole note.
const Resolution int64 = 16384

// Durations lists every supported duration code from longest to shortest.
var Durations = []string{"1/2", "1", "2", "4", "8", "16", "32", "64", "128", "256", "512", "1024"}

var durationTicks = map[string]int64{
	"1/2":  Resolution * 2,
	"1":    Resolution,
	"2":    Resolution / 2,
	"4":    Resolution / 4,
	"8":    Resolution / 8,
	"16":   Resolution / 16,
	"32":   Resolution / 32,
	"64":   Resolution / 64,
	"128":  Resolution / 128,
	"256":  Resolution / 256,
	"512":  Resolution / 512,
	"1024": Resolution / 1024,
}

var durationAliases = map[string]string{
	"w": "1",
	"h": "2",
	"q": "4",
	"b": "256",
}

// Note types accepted after the duration code. "n" is a pitched note, "r" a
// rest, "x" a cross notehead, "h" a harmonic, "m" a muted note and "s" a
// slash.
var validNoteTypes = map[string]bool{
	"n": true, "r": true, "x": true, "h": true, "m": true, "s": true, "g": true,
}

var noteStructRe = regexp.MustCompile(`^(\d*/?\d+|[a-z])(d*)([nrhmsxg]|$)$`)

// NoteStruct is a parsed duration string such as "8d" or "4r".
type NoteStruct struct {
	Duration string // canonical duration code, e.g. "8"
	Dots     int
	Type     string // one of n, r, x, h, m, s, g
	Ticks    int64  // intrinsic ticks including dots
}

// SanitizeDuration resolves aliases ("q", "h", ...) and fails with
// BAD_ARGUMENTS on unknown codes.
func SanitizeDuration(d string) (string, error) {
	if alias, ok := durationAliases[d]; ok {
		d = alias
	}
	if _, ok := durationTicks[d]; !ok {
		return "", errors.New(errors.ErrCodeBadArguments, "invalid duration: %q", d)
	}
	return d, nil
}

// ParseNoteStruct parses a duration string with optional dots and type
// suffix. An explicit noteType overrides the suffix; an explicit dots count
// greater than zero overrides the parsed dots.
func ParseNoteStruct(duration string, dots int, noteType string) (NoteStruct, error) {
	m := noteStructRe.FindStringSubmatch(strings.TrimSpace(duration))
	if m == nil {
		return NoteStruct{}, errors.New(errors.ErrCodeBadArguments, "invalid duration: %q", duration)
	}
	d, err := SanitizeDuration(m[1])
	if err != nil {
		return NoteStruct{}, err
	}
	if dots <= 0 {
		dots = len(m[2])
	}
	typ := m[3]
	if noteType != "" {
		typ = noteType
	}
	if typ == "" {
		typ = "n"
	}
	if !validNoteTypes[typ] {
		return NoteStruct{}, errors.New(errors.ErrCodeBadArguments, "invalid note type: %q", typ)
	}

	base := durationTicks[d]
	ticks := base
	for i, half := 0, base; i < dots; i++ {
		half /= 2
		if half == 0 {
			return NoteStruct{}, errors.New(errors.ErrCodeBadArguments, "too many dots for duration %q", d)
		}
		ticks += half
	}
	return NoteStruct{Duration: d, Dots: dots, Type: typ, Ticks: ticks}, nil
}

// DurationToTicks returns the undotted tick count for a duration code.
func DurationToTicks(d string) (int64, error) {
	d, err := SanitizeDuration(d)
	if err != nil {
		return 0, err
	}
	return durationTicks[d], nil
}

// DurationToFraction returns the duration as a fraction of a whole note.
func DurationToFraction(d string) (fraction.Fraction, error) {
	ticks, err := DurationToTicks(d)
	if err != nil {
		return fraction.Fraction{}, err
	}
	return fraction.New(ticks, Resolution)
}

// DurationToNumber returns 1/duration as a number: "8" gives 8, "1/2" gives 0.5.
func DurationToNumber(d string) (float64, error) {
	d, err := SanitizeDuration(d)
	if err != nil {
		return 0, err
	}
	f, err := fraction.Parse(d)
	if err != nil {
		return 0, err
	}
	return f.Value(), nil
}

// TicksToDuration returns the duration code whose undotted length is ticks.
func TicksToDuration(ticks int64) (string, bool) {
	for _, d := range Durations {
		if durationTicks[d] == ticks {
			return d, true
		}
	}
	return "", false
}

// BeamCount returns the number of beams (or flags) a duration carries:
// 1 for eighths, 2 for sixteenths and so on. Quarter notes and longer carry 0.
func BeamCount(d string) int {
	n, err := DurationToNumber(d)
	if err != nil || n < 8 {
		return 0
	}
	count := 0
	for v := int64(n); v >= 8; v /= 2 {
		count++
	}
	return count
}

// ParseDots counts a trailing run of 'd' characters, returning the stripped
// duration: "8dd" gives ("8", 2).
func ParseDots(s string) (string, int) {
	trimmed := strings.TrimRight(s, "d")
	return trimmed, len(s) - len(trimmed)
}

// FormatTicks renders ticks as a human-readable duration, used in error
// messages and logs.
func FormatTicks(ticks int64) string {
	if d, ok := TicksToDuration(ticks); ok {
		return d
	}
	return strconv.FormatInt(ticks, 10) + " ticks"
}
