package engrave

import (
	"slices"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/tables"
	"github.com/matzehuels/engrave/pkg/text"
)

// NoteKind selects how a note is laid out and drawn.
type NoteKind int

const (
	KindStave NoteKind = iota // pitched note or rest on a five-line stave
	KindTab                   // fret numbers on a tab stave
	KindGrace                 // small ornamental note inside a GraceNoteGroup
	KindGhost                 // invisible note that only occupies time
)

func (k NoteKind) String() string {
	switch k {
	case KindTab:
		return "tab"
	case KindGrace:
		return "grace"
	case KindGhost:
		return "ghost"
	}
	return "stave"
}

const graceScale = 0.66

// TabPosition is one string/fret pair of a tab note.
type TabPosition struct {
	String int    // 1 is the highest string
	Fret   string // usually a number, "X" for a dead note
}

// NoteOptions configures a new note.
type NoteOptions struct {
	Keys          []string // "c#/5"; rests use the key for vertical position
	Duration      string   // "q", "8d", "4r"
	Dots          int      // overrides dots parsed from Duration
	Type          string   // overrides the type suffix of Duration
	Clef          string
	OctaveShift   int
	StemDirection Direction // 0 means up unless AutoStem is set
	AutoStem      bool
	AlignCenter   bool
	Slash         bool          // grace notes: draw an acciaccatura slash
	Positions     []TabPosition // tab notes
	DrawStem      bool          // tab notes: draw a stem
	Profile       *tables.Profile
}

type noteHead struct {
	props     tables.KeyProps
	glyph     tables.Glyph
	line      float64
	displaced bool
}

// Note is a pitched note, chord, rest, tab note, grace note or ghost note.
type Note struct {
	Tick

	kind      NoteKind
	noteType  string
	dots      int
	keys      []string
	clef      string
	heads     []noteHead
	positions []TabPosition
	fretText  []string
	scale     float64
	slash     bool
	drawStem  bool

	stemDir       Direction
	stemOverride  Direction // set by collision formatting, reset every pass
	autoStem      bool
	stem          *Stem
	beam          *Beam
	beamExtension float64
	stemExtOver   *float64
	stemletHeight float64

	restLineShift float64 // set by collision formatting, reset every pass
	hidden        bool    // set by collision formatting, reset every pass
	delayedPx     float64

	leftDisplacedHeadPx  float64
	rightDisplacedHeadPx float64

	modifiers []Modifier
	ys        []float64
	measurer  text.Measurer
}

// NewStaveNote creates a note, chord or rest for a five-line stave.
func NewStaveNote(opts NoteOptions) (*Note, error) {
	return newNote(KindStave, opts)
}

// NewGraceNote creates a small note for use in a GraceNoteGroup.
func NewGraceNote(opts NoteOptions) (*Note, error) {
	return newNote(KindGrace, opts)
}

// NewGhostNote creates an invisible note that occupies duration.
func NewGhostNote(duration string, p *tables.Profile) (*Note, error) {
	return newNote(KindGhost, NoteOptions{Keys: []string{"b/4"}, Duration: duration, Profile: p})
}

// NewTabNote creates a tab note from string/fret positions.
func NewTabNote(opts NoteOptions) (*Note, error) {
	if len(opts.Positions) == 0 {
		return nil, errors.New(errors.ErrCodeBadArguments, "tab note requires at least one position")
	}
	keys := make([]string, len(opts.Positions))
	for i := range keys {
		keys[i] = "b/4"
	}
	opts.Keys = keys
	return newNote(KindTab, opts)
}

func newNote(kind NoteKind, opts NoteOptions) (*Note, error) {
	ns, err := tables.ParseNoteStruct(opts.Duration, opts.Dots, opts.Type)
	if err != nil {
		return nil, err
	}
	if len(opts.Keys) == 0 {
		if ns.Type != "r" {
			return nil, errors.New(errors.ErrCodeBadArguments, "note requires at least one key")
		}
		opts.Keys = []string{"b/4"}
	}

	n := &Note{
		Tick:      newTick(ns.Ticks, opts.Profile),
		kind:      kind,
		noteType:  ns.Type,
		dots:      ns.Dots,
		keys:      slices.Clone(opts.Keys),
		clef:      opts.Clef,
		positions: slices.Clone(opts.Positions),
		scale:     1,
		slash:     opts.Slash,
		drawStem:  opts.DrawStem || kind != KindTab,
		stemDir:   Up,
		autoStem:  opts.AutoStem,
		measurer:  text.Default(),
	}
	n.duration = ns.Duration
	if kind == KindGrace {
		n.scale = graceScale
	}
	if opts.AlignCenter {
		n.align = AlignCenter
	}
	if opts.StemDirection != 0 {
		n.stemDir = opts.StemDirection
	}
	if n.clef == "" {
		n.clef = "treble"
	}

	n.heads = make([]noteHead, len(n.keys))
	for i, key := range n.keys {
		props, err := tables.KeyProperties(key, n.clef, opts.OctaveShift)
		if err != nil {
			return nil, err
		}
		glyph, err := n.headGlyph(props)
		if err != nil {
			return nil, err
		}
		n.heads[i] = noteHead{props: props, glyph: glyph, line: props.Line}
	}
	if kind == KindTab {
		if err := n.initTab(); err != nil {
			return nil, err
		}
	}
	if n.autoStem {
		n.stemDir = n.optimalStemDirection()
	}
	n.refresh()
	return n, nil
}

func (n *Note) headGlyph(props tables.KeyProps) (tables.Glyph, error) {
	if props.Notehead != "" && n.noteType != "r" {
		switch props.Notehead {
		case "x", "x2":
			return tables.MustGlyph("noteheadXBlack"), nil
		case "d", "d2":
			return tables.MustGlyph("noteheadDiamondBlack"), nil
		case "cx":
			return tables.MustGlyph("noteheadCircleX"), nil
		}
		return tables.GlyphByName(props.Notehead)
	}
	return tables.NoteheadGlyph(n.duration, n.noteType)
}

func (n *Note) initTab() error {
	n.fretText = make([]string, len(n.positions))
	for i, pos := range n.positions {
		if pos.String < 1 {
			return errors.New(errors.ErrCodeBadArguments, "tab string must be at least 1, got %d", pos.String)
		}
		n.heads[i].line = float64(pos.String - 1)
		n.fretText[i] = pos.Fret
	}
	return nil
}

// Kind returns the note kind.
func (n *Note) Kind() NoteKind { return n.kind }

// Keys returns the keys the note was created with.
func (n *Note) Keys() []string { return n.keys }

// KeyProps returns the resolved properties of every key.
func (n *Note) KeyProps() []tables.KeyProps {
	out := make([]tables.KeyProps, len(n.heads))
	for i, h := range n.heads {
		out[i] = h.props
	}
	return out
}

// Lines returns the effective staff line of every key, including any rest
// shift from collision formatting.
func (n *Note) Lines() []float64 {
	out := make([]float64, len(n.heads))
	for i, h := range n.heads {
		out[i] = h.line
	}
	return out
}

// IsRest reports whether the note is a rest.
func (n *Note) IsRest() bool { return n.noteType == "r" }

// IsHidden reports whether collision formatting hid this rest.
func (n *Note) IsHidden() bool { return n.hidden }

// NoteType returns the type code: n, r, x, h, m, s or g.
func (n *Note) NoteType() string { return n.noteType }

// Dots returns the number of augmentation dots in the duration.
func (n *Note) Dots() int { return n.dots }

// Positions returns tab positions.
func (n *Note) Positions() []TabPosition { return n.positions }

// SetMeasurer replaces the text measurer used for tab frets.
func (n *Note) SetMeasurer(m text.Measurer) { n.measurer = m }

// AddModifier attaches m to the key at index.
func (n *Note) AddModifier(m Modifier, index int) error {
	if index < 0 || index >= len(n.heads) {
		return errors.New(errors.ErrCodeBadArguments, "modifier index %d out of range for %d keys", index, len(n.heads))
	}
	m.attach(n, index)
	n.modifiers = append(n.modifiers, m)
	if n.modifierContext != nil {
		n.modifierContext.addModifier(m)
	}
	n.preFormatted = false
	return nil
}

// AddDotToAll attaches one dot to every key.
func (n *Note) AddDotToAll() {
	for i := range n.heads {
		_ = n.AddModifier(NewDot(), i)
	}
}

// Modifiers returns the attached modifiers.
func (n *Note) Modifiers() []Modifier { return n.modifiers }

// ModifiersByCategory returns the attached modifiers of one category.
func (n *Note) ModifiersByCategory(c Category) []Modifier {
	var out []Modifier
	for _, m := range n.modifiers {
		if m.Category() == c {
			out = append(out, m)
		}
	}
	return out
}

// Beam returns the beam this note belongs to, or nil.
func (n *Note) Beam() *Beam { return n.beam }

// StemDirection returns the effective stem direction.
func (n *Note) StemDirection() Direction {
	if n.stemOverride != 0 {
		return n.stemOverride
	}
	return n.stemDir
}

// SetStemDirection fixes the stem direction and disables auto stemming.
func (n *Note) SetStemDirection(d Direction) {
	if d == 0 {
		d = Up
	}
	n.stemDir = d
	n.autoStem = false
	n.refresh()
}

// SetStemExtension overrides the natural stem extension.
func (n *Note) SetStemExtension(ext float64) {
	n.stemExtOver = &ext
}

// HasStem reports whether the note has a stem at all.
func (n *Note) HasStem() bool {
	switch n.kind {
	case KindGhost:
		return false
	case KindTab:
		return n.drawStem && tables.HasStem(n.duration)
	}
	return tables.HasStem(n.duration)
}

// SetKeyLine moves key i to line; used to align rests with neighbouring
// notes.
func (n *Note) SetKeyLine(i int, line float64) error {
	if i < 0 || i >= len(n.heads) {
		return errors.New(errors.ErrCodeBadArguments, "key index %d out of range", i)
	}
	n.heads[i].props.Line = line
	n.refresh()
	return nil
}

// MinLine returns the lowest effective line.
func (n *Note) MinLine() float64 {
	lines := n.Lines()
	return slices.Min(lines)
}

// MaxLine returns the highest effective line.
func (n *Note) MaxLine() float64 {
	lines := n.Lines()
	return slices.Max(lines)
}

// LineForRest returns the line a rest next to this note should sit on.
func (n *Note) LineForRest() float64 {
	if len(n.heads) == 1 {
		return n.heads[0].line
	}
	return (n.MinLine() + n.MaxLine()) / 2
}

// SetStave binds the note to s and computes y positions.
func (n *Note) SetStave(s *Stave) {
	n.stave = s
	n.refresh()
}

// Ys returns the y of every key. It fails with NO_Y_VALUES before a stave
// has been set.
func (n *Note) Ys() ([]float64, error) {
	if n.ys == nil {
		return nil, errors.New(errors.ErrCodeNoYValues, "no y values; set a stave first")
	}
	return n.ys, nil
}

func (n *Note) optimalStemDirection() Direction {
	if n.IsRest() {
		return Up
	}
	var minLine, maxLine float64
	for i, h := range n.heads {
		if i == 0 || h.line < minLine {
			minLine = h.line
		}
		if i == 0 || h.line > maxLine {
			maxLine = h.line
		}
	}
	if (minLine+maxLine)/2 < 3 {
		return Up
	}
	return Down
}

// resetFormatState clears every field collision formatting assigns, so a
// format pass starts from the note as it was built.
func (n *Note) resetFormatState() {
	n.formatXShift = 0
	n.restLineShift = 0
	n.stemOverride = 0
	n.hidden = false
	n.delayedPx = 0
	if n.autoStem {
		n.stemDir = n.optimalStemDirection()
	}
	n.refresh()
}
