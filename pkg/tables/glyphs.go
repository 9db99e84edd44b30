package tables

import (
	"github.com/matzehuels/engrave/pkg/errors"
)

// Glyph is a SMuFL code point with its advance width and height in staff
// spaces. Multiply by Profile.Px to get pixels.
type Glyph struct {
	Name   string
	Code   rune
	Width  float64
	Height float64
}

var glyphs = map[string]Glyph{}

func def(name string, code rune, width, height float64) {
	glyphs[name] = Glyph{Name: name, Code: code, Width: width, Height: height}
}

func init() {
	// Noteheads
	def("noteheadDoubleWhole", 0xE0A0, 2.2, 1.0)
	def("noteheadWhole", 0xE0A2, 1.688, 1.0)
	def("noteheadHalf", 0xE0A3, 1.18, 1.0)
	def("noteheadBlack", 0xE0A4, 1.18, 1.0)
	def("noteheadXBlack", 0xE0A9, 1.16, 1.0)
	def("noteheadDiamondBlack", 0xE0DB, 1.1, 1.0)
	def("noteheadSlashVerticalEnds", 0xE100, 1.4, 2.0)
	def("noteheadCircleX", 0xE0B3, 1.2, 1.0)

	// Rests
	def("restDoubleWhole", 0xE4E2, 0.5, 1.0)
	def("restWhole", 0xE4E3, 1.128, 0.5)
	def("restHalf", 0xE4E4, 1.128, 0.5)
	def("restQuarter", 0xE4E5, 1.08, 3.0)
	def("rest8th", 0xE4E6, 0.988, 2.0)
	def("rest16th", 0xE4E7, 1.28, 3.0)
	def("rest32nd", 0xE4E8, 1.452, 4.0)
	def("rest64th", 0xE4E9, 1.692, 5.0)
	def("rest128th", 0xE4EA, 1.952, 6.0)
	def("rest256th", 0xE4EB, 2.2, 7.0)
	def("rest512th", 0xE4EC, 2.45, 8.0)
	def("rest1024th", 0xE4ED, 2.7, 9.0)

	// Flags
	def("flag8thUp", 0xE240, 1.056, 3.2)
	def("flag8thDown", 0xE241, 1.224, 3.2)
	def("flag16thUp", 0xE242, 1.116, 3.8)
	def("flag16thDown", 0xE243, 1.164, 3.8)
	def("flag32ndUp", 0xE244, 1.044, 4.5)
	def("flag32ndDown", 0xE245, 1.164, 4.5)
	def("flag64thUp", 0xE246, 1.092, 5.2)
	def("flag64thDown", 0xE247, 1.164, 5.2)
	def("flag128thUp", 0xE248, 1.092, 6.0)
	def("flag128thDown", 0xE249, 1.164, 6.0)
	def("flag256thUp", 0xE24A, 1.092, 6.8)
	def("flag256thDown", 0xE24B, 1.164, 6.8)
	def("flag512thUp", 0xE24C, 1.092, 7.6)
	def("flag512thDown", 0xE24D, 1.164, 7.6)
	def("flag1024thUp", 0xE24E, 1.092, 8.4)
	def("flag1024thDown", 0xE24F, 1.164, 8.4)

	// Accidentals
	def("accidentalFlat", 0xE260, 0.904, 2.4)
	def("accidentalNatural", 0xE261, 0.672, 2.7)
	def("accidentalSharp", 0xE262, 0.996, 2.8)
	def("accidentalDoubleSharp", 0xE263, 0.988, 1.0)
	def("accidentalDoubleFlat", 0xE264, 1.644, 2.4)
	def("accidentalParensLeft", 0xE26A, 0.376, 2.4)
	def("accidentalParensRight", 0xE26B, 0.376, 2.4)
	def("accidentalQuarterToneFlatStein", 0xE280, 0.904, 2.4)
	def("accidentalQuarterToneSharpStein", 0xE282, 0.664, 2.8)

	// Dots
	def("augmentationDot", 0xE1E7, 0.4, 0.4)

	// Articulations
	def("articAccentAbove", 0xE4A0, 1.356, 0.988)
	def("articAccentBelow", 0xE4A1, 1.356, 0.988)
	def("articStaccatoAbove", 0xE4A2, 0.28, 0.28)
	def("articStaccatoBelow", 0xE4A3, 0.28, 0.28)
	def("articTenutoAbove", 0xE4A4, 1.352, 0.16)
	def("articTenutoBelow", 0xE4A5, 1.352, 0.16)
	def("articStaccatissimoAbove", 0xE4A6, 0.452, 1.2)
	def("articStaccatissimoBelow", 0xE4A7, 0.452, 1.2)
	def("articMarcatoAbove", 0xE4AC, 0.94, 1.04)
	def("articMarcatoBelow", 0xE4AD, 0.94, 1.04)
	def("fermataAbove", 0xE4C0, 2.42, 1.32)
	def("fermataBelow", 0xE4C1, 2.42, 1.32)
	def("breathMarkComma", 0xE4CE, 0.62, 1.0)
	def("stringsDownBow", 0xE610, 1.044, 1.24)
	def("stringsUpBow", 0xE612, 0.852, 1.84)
	def("stringsHarmonic", 0xE614, 0.6, 0.6)
	def("pluckedSnapPizzicatoBelow", 0xE630, 0.9, 1.0)
	def("pluckedSnapPizzicatoAbove", 0xE631, 0.9, 1.0)
	def("pluckedLeftHandPizzicato", 0xE633, 0.96, 0.96)

	// Ornaments
	def("ornamentTrill", 0xE566, 1.9, 1.5)
	def("ornamentTurn", 0xE567, 1.6, 0.8)
	def("ornamentTurnInverted", 0xE568, 1.6, 0.8)
	def("ornamentShortTrill", 0xE56C, 2.2, 1.0)
	def("ornamentMordent", 0xE56D, 2.2, 1.2)
	def("brassScoop", 0xE5D0, 1.6, 1.2)
	def("brassDoitMedium", 0xE5D5, 1.6, 1.2)
	def("brassFallLipShort", 0xE5D7, 1.6, 1.2)

	// Strokes
	def("arpeggiatoUp", 0xE634, 0.8, 1.0)
	def("arpeggiatoDown", 0xE635, 0.8, 1.0)
	def("wiggleArpeggiatoUp", 0xEAA9, 0.6, 1.0)
	def("wiggleVibrato", 0xEAB0, 0.96, 0.6)

	// Clefs
	def("gClef", 0xE050, 2.684, 7.0)
	def("fClef", 0xE062, 2.736, 3.5)
	def("cClef", 0xE05C, 2.796, 4.0)
	def("unpitchedPercussionClef1", 0xE069, 1.8, 2.0)
	def("6stringTabClef", 0xE06D, 1.7, 4.0)
	def("gClef8vb", 0xE052, 2.684, 8.0)

	// Time signatures
	for i := 0; i <= 9; i++ {
		def(timeSigDigitName(i), rune(0xE080+i), 1.8, 2.0)
	}
	def("timeSigCommon", 0xE08A, 1.8, 2.0)
	def("timeSigCutCommon", 0xE08B, 1.8, 2.6)

	// Tuplet digits
	for i := 0; i <= 9; i++ {
		def(tupletDigitName(i), rune(0xE880+i), 0.9, 1.2)
	}
	def("tupletColon", 0xE88A, 0.4, 1.0)

	// Grace note slash
	def("graceNoteSlashStemUp", 0xE564, 1.0, 1.2)
}

func timeSigDigitName(i int) string { return "timeSig" + string(rune('0'+i)) }
func tupletDigitName(i int) string  { return "tuplet" + string(rune('0'+i)) }

// GlyphByName returns the metrics of a named SMuFL glyph.
func GlyphByName(name string) (Glyph, error) {
	g, ok := glyphs[name]
	if !ok {
		return Glyph{}, errors.New(errors.ErrCodeBadArguments, "unknown glyph: %q", name)
	}
	return g, nil
}

// MustGlyph is like GlyphByName but panics on unknown names.
// Only use with names from this package's tables.
func MustGlyph(name string) Glyph {
	g, err := GlyphByName(name)
	if err != nil {
		panic(err)
	}
	return g
}

// TimeSigDigit returns the glyph for a time signature digit.
func TimeSigDigit(i int) Glyph { return glyphs[timeSigDigitName(i%10)] }

// TupletDigit returns the glyph for a tuplet number digit.
func TupletDigit(i int) Glyph { return glyphs[tupletDigitName(i%10)] }

var flagNames = map[string]string{
	"8": "8th", "16": "16th", "32": "32nd", "64": "64th", "128": "128th",
	"256": "256th", "512": "512th", "1024": "1024th",
}

var restNames = map[string]string{
	"1/2": "restDoubleWhole", "1": "restWhole", "2": "restHalf", "4": "restQuarter",
	"8": "rest8th", "16": "rest16th", "32": "rest32nd", "64": "rest64th",
	"128": "rest128th", "256": "rest256th", "512": "rest512th", "1024": "rest1024th",
}

// NoteheadGlyph selects a notehead for duration and note type.
func NoteheadGlyph(duration, noteType string) (Glyph, error) {
	d, err := SanitizeDuration(duration)
	if err != nil {
		return Glyph{}, err
	}
	switch noteType {
	case "r":
		return glyphs[restNames[d]], nil
	case "x", "m":
		return glyphs["noteheadXBlack"], nil
	case "h":
		return glyphs["noteheadDiamondBlack"], nil
	case "s":
		return glyphs["noteheadSlashVerticalEnds"], nil
	}
	switch d {
	case "1/2":
		return glyphs["noteheadDoubleWhole"], nil
	case "1":
		return glyphs["noteheadWhole"], nil
	case "2":
		return glyphs["noteheadHalf"], nil
	}
	return glyphs["noteheadBlack"], nil
}

// FlagGlyph returns the flag for duration, or false for durations without one.
func FlagGlyph(duration string, stemDown bool) (Glyph, bool) {
	d, err := SanitizeDuration(duration)
	if err != nil {
		return Glyph{}, false
	}
	n, ok := flagNames[d]
	if !ok {
		return Glyph{}, false
	}
	if stemDown {
		return glyphs["flag"+n+"Down"], true
	}
	return glyphs["flag"+n+"Up"], true
}

// HasStem reports whether duration is drawn with a stem.
func HasStem(duration string) bool {
	d, err := SanitizeDuration(duration)
	if err != nil {
		return false
	}
	return d != "1" && d != "1/2"
}

// GlyphCodeFor looks up the code point for a glyph category and duration.
// Categories are "notehead", "rest", "flagUp" and "flagDown".
func GlyphCodeFor(category, duration string) (rune, error) {
	switch category {
	case "notehead":
		g, err := NoteheadGlyph(duration, "n")
		return g.Code, err
	case "rest":
		g, err := NoteheadGlyph(duration, "r")
		return g.Code, err
	case "flagUp", "flagDown":
		g, ok := FlagGlyph(duration, category == "flagDown")
		if !ok {
			return 0, errors.New(errors.ErrCodeBadArguments, "duration %q has no flag", duration)
		}
		return g.Code, nil
	}
	return 0, errors.New(errors.ErrCodeBadArguments, "unknown glyph category: %q", category)
}

var accidentalNames = map[string]string{
	"#":  "accidentalSharp",
	"##": "accidentalDoubleSharp",
	"b":  "accidentalFlat",
	"bb": "accidentalDoubleFlat",
	"n":  "accidentalNatural",
	"d":  "accidentalQuarterToneFlatStein",
	"+":  "accidentalQuarterToneSharpStein",
	"{":  "accidentalParensLeft",
	"}":  "accidentalParensRight",
}

// AccidentalGlyph returns the glyph for an accidental code such as "#".
func AccidentalGlyph(code string) (Glyph, error) {
	n, ok := accidentalNames[code]
	if !ok {
		return Glyph{}, errors.New(errors.ErrCodeBadArguments, "unknown accidental: %q", code)
	}
	return glyphs[n], nil
}

// Articulation describes one articulation code.
type Articulation struct {
	Above        string // glyph name when placed above
	Below        string // glyph name when placed below
	BetweenLines bool   // may sit inside the stave
}

var articulations = map[string]Articulation{
	"a.":  {"articStaccatoAbove", "articStaccatoBelow", true},
	"av":  {"articStaccatissimoAbove", "articStaccatissimoBelow", true},
	"a>":  {"articAccentAbove", "articAccentBelow", true},
	"a-":  {"articTenutoAbove", "articTenutoBelow", true},
	"a^":  {"articMarcatoAbove", "articMarcatoBelow", false},
	"a+":  {"pluckedLeftHandPizzicato", "pluckedLeftHandPizzicato", false},
	"ao":  {"pluckedSnapPizzicatoAbove", "pluckedSnapPizzicatoBelow", false},
	"ah":  {"stringsHarmonic", "stringsHarmonic", false},
	"a@a": {"fermataAbove", "fermataAbove", false},
	"a@u": {"fermataBelow", "fermataBelow", false},
	"a|":  {"stringsUpBow", "stringsUpBow", false},
	"am":  {"stringsDownBow", "stringsDownBow", false},
	"a,":  {"breathMarkComma", "breathMarkComma", false},
}

// ArticulationFor looks up an articulation code such as "a.".
func ArticulationFor(code string) (Articulation, error) {
	a, ok := articulations[code]
	if !ok {
		return Articulation{}, errors.New(errors.ErrCodeBadArguments, "unknown articulation: %q", code)
	}
	return a, nil
}

// OrnamentKind classifies where an ornament is placed horizontally.
type OrnamentKind int

const (
	OrnamentNormal  OrnamentKind = iota
	OrnamentAttack               // left of the notehead
	OrnamentRelease              // right of the notehead
)

// OrnamentInfo describes one ornament type.
type OrnamentInfo struct {
	Glyph string
	Kind  OrnamentKind
}

var ornaments = map[string]OrnamentInfo{
	"tr":               {"ornamentTrill", OrnamentNormal},
	"turn":             {"ornamentTurn", OrnamentNormal},
	"turn_inverted":    {"ornamentTurnInverted", OrnamentNormal},
	"mordent":          {"ornamentMordent", OrnamentNormal},
	"mordent_inverted": {"ornamentShortTrill", OrnamentNormal},
	"scoop":            {"brassScoop", OrnamentAttack},
	"doit":             {"brassDoitMedium", OrnamentRelease},
	"fall":             {"brassFallLipShort", OrnamentRelease},
}

// OrnamentFor looks up an ornament type such as "tr".
func OrnamentFor(typ string) (OrnamentInfo, error) {
	o, ok := ornaments[typ]
	if !ok {
		return OrnamentInfo{}, errors.New(errors.ErrCodeBadArguments, "unknown ornament: %q", typ)
	}
	return o, nil
}

// ClefGlyph is the glyph and anchor line for drawing a clef.
type ClefGlyph struct {
	Glyph Glyph
	Line  float64 // stave line (0 is the top line) the glyph origin sits on
}

type clefAnchor struct {
	glyph string
	line  float64
}

var clefGlyphs = map[string]clefAnchor{
	"treble":        {"gClef", 3},
	"bass":          {"fClef", 1},
	"alto":          {"cClef", 2},
	"tenor":         {"cClef", 1},
	"soprano":       {"cClef", 4},
	"mezzo-soprano": {"cClef", 3},
	"baritone-c":    {"cClef", 0},
	"baritone-f":    {"fClef", 2},
	"subbass":       {"fClef", 0},
	"french":        {"gClef", 4},
	"percussion":    {"unpitchedPercussionClef1", 2},
	"tab":           {"6stringTabClef", 2.5},
}

// ClefGlyphFor returns the drawing glyph for clef.
func ClefGlyphFor(clef string) (ClefGlyph, error) {
	if clef == "" {
		clef = "treble"
	}
	a, ok := clefGlyphs[clef]
	if !ok {
		return ClefGlyph{}, errors.New(errors.ErrCodeBadArguments, "invalid clef: %q", clef)
	}
	return ClefGlyph{Glyph: glyphs[a.glyph], Line: a.line}, nil
}
