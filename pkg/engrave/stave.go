package engrave

import (
	"strconv"

	"github.com/matzehuels/engrave/pkg/tables"
)

const (
	stavePadding     = 10.0
	staveClefPadding = 5.0
	tabSpacing       = 13.0
	topTextPosition  = 1.0
)

// StaveOptions configures a stave.
type StaveOptions struct {
	Clef          string // default "treble"
	TimeSignature string // optional, e.g. "4/4"
	NumLines      int    // default 5, 6 for tab staves
	Spacing       float64
	NoBarlines    bool
	Profile       *tables.Profile
}

// Stave is a set of horizontal lines that notes are positioned against.
type Stave struct {
	x, y, width float64
	numLines    int
	spacing     float64
	clef        string
	timeSig     *tables.TimeSignature
	tab         bool
	barlines    bool
	profile     *tables.Profile

	noteStartX float64
}

// NewStave creates a stave with its top-left corner at (x, y).
func NewStave(x, y, width float64, opts StaveOptions) (*Stave, error) {
	p := resolveProfile(opts.Profile)
	s := &Stave{
		x:        x,
		y:        y,
		width:    width,
		numLines: opts.NumLines,
		spacing:  opts.Spacing,
		clef:     opts.Clef,
		barlines: !opts.NoBarlines,
		profile:  p,
	}
	if s.numLines == 0 {
		s.numLines = 5
	}
	if s.spacing == 0 {
		s.spacing = p.StaveSpace
	}
	if s.clef == "" {
		s.clef = "treble"
	}
	if _, err := tables.ClefShift(s.clef); err != nil {
		return nil, err
	}
	if opts.TimeSignature != "" {
		ts, err := tables.ParseTimeSignature(opts.TimeSignature)
		if err != nil {
			return nil, err
		}
		s.timeSig = &ts
	}
	s.layoutBegin()
	return s, nil
}

// NewTabStave creates a six-line tablature stave.
func NewTabStave(x, y, width float64, opts StaveOptions) (*Stave, error) {
	if opts.NumLines == 0 {
		opts.NumLines = 6
	}
	if opts.Spacing == 0 {
		opts.Spacing = tabSpacing
	}
	opts.Clef = "tab"
	s, err := NewStave(x, y, width, opts)
	if err != nil {
		return nil, err
	}
	s.tab = true
	return s, nil
}

func (s *Stave) layoutBegin() {
	x := s.x + stavePadding
	if g, err := tables.ClefGlyphFor(s.clef); err == nil {
		x += s.profile.GlyphWidth(g.Glyph) + staveClefPadding
	}
	if s.timeSig != nil {
		x += s.timeSigWidth() + staveClefPadding
	}
	s.noteStartX = x
}

func (s *Stave) timeSigWidth() float64 {
	if s.timeSig.Symbol != "" {
		return s.profile.Px(tables.MustGlyph("timeSigCommon").Width)
	}
	n := max(len(strconv.Itoa(s.timeSig.Beats)), len(strconv.Itoa(s.timeSig.BeatValue)))
	return float64(n) * s.profile.Px(tables.TimeSigDigit(0).Width)
}

// X returns the left edge.
func (s *Stave) X() float64 { return s.x }

// Y returns the top of the stave's bounding box (above the top line).
func (s *Stave) Y() float64 { return s.y }

// Width returns the stave width.
func (s *Stave) Width() float64 { return s.width }

// Spacing returns the distance between lines.
func (s *Stave) Spacing() float64 { return s.spacing }

// NumLines returns the line count.
func (s *Stave) NumLines() int { return s.numLines }

// Clef returns the clef name.
func (s *Stave) Clef() string { return s.clef }

// IsTab reports whether this is a tablature stave.
func (s *Stave) IsTab() bool { return s.tab }

// TimeSignature returns the time signature, or nil.
func (s *Stave) TimeSignature() *tables.TimeSignature { return s.timeSig }

// NoteStartX is where the first note may be placed.
func (s *Stave) NoteStartX() float64 { return s.noteStartX }

// SetNoteStartX overrides the computed start, for aligning multiple staves.
func (s *Stave) SetNoteStartX(x float64) { s.noteStartX = x }

// NoteEndX is where the last note must end.
func (s *Stave) NoteEndX() float64 { return s.x + s.width - stavePadding }

// JustifyWidth returns the width FormatToStave spreads notes over.
func (s *Stave) JustifyWidth() float64 { return s.NoteEndX() - s.noteStartX - stavePadding }

// GetYForLine returns the y of line, counted from the top line (0).
func (s *Stave) GetYForLine(line float64) float64 {
	return s.y + (line+s.profile.SpaceAboveLines)*s.spacing
}

// GetYForNote converts a note line (1 is the bottom line, 5 the top of a
// five-line stave) to y.
func (s *Stave) GetYForNote(line float64) float64 {
	return s.y + s.profile.SpaceAboveLines*s.spacing + float64(s.numLines)*s.spacing - line*s.spacing
}

// GetYForTopText returns the baseline for text line n above the stave.
func (s *Stave) GetYForTopText(n float64) float64 {
	return s.GetYForLine(-n - topTextPosition)
}

// GetYForBottomText returns the baseline for text line n below the stave.
func (s *Stave) GetYForBottomText(n float64) float64 {
	return s.GetYForLine(float64(s.numLines) + n)
}

// TopLineY returns the y of the top line.
func (s *Stave) TopLineY() float64 { return s.GetYForLine(0) }

// BottomLineY returns the y of the bottom line.
func (s *Stave) BottomLineY() float64 { return s.GetYForLine(float64(s.numLines - 1)) }

// Height returns the full height including the space above and below.
func (s *Stave) Height() float64 {
	return (float64(s.numLines-1) + s.profile.SpaceAboveLines + s.profile.SpaceBelowLines) * s.spacing
}

// Draw draws lines, bar lines, clef and time signature.
func (s *Stave) Draw(ctx Context) error {
	ctx.OpenGroup("stave", "")
	defer ctx.CloseGroup()

	ctx.SetLineWidth(1)
	for i := 0; i < s.numLines; i++ {
		y := s.GetYForLine(float64(i))
		ctx.BeginPath()
		ctx.MoveTo(s.x, y)
		ctx.LineTo(s.x+s.width, y)
		ctx.Stroke()
	}
	if s.barlines {
		top, bottom := s.TopLineY(), s.BottomLineY()
		ctx.FillRect(s.x, top, 1, bottom-top)
		ctx.FillRect(s.x+s.width-1, top, 1, bottom-top)
	}

	x := s.x + stavePadding
	if g, err := tables.ClefGlyphFor(s.clef); err == nil {
		drawGlyph(ctx, s.profile, g.Glyph, x, s.GetYForLine(g.Line))
		x += s.profile.GlyphWidth(g.Glyph) + staveClefPadding
	}
	if s.timeSig != nil {
		s.drawTimeSignature(ctx, x)
	}
	return nil
}

func (s *Stave) drawTimeSignature(ctx Context, x float64) {
	switch s.timeSig.Symbol {
	case "C":
		drawGlyph(ctx, s.profile, tables.MustGlyph("timeSigCommon"), x, s.GetYForLine(2))
		return
	case "C|":
		drawGlyph(ctx, s.profile, tables.MustGlyph("timeSigCutCommon"), x, s.GetYForLine(2))
		return
	}
	top := strconv.Itoa(s.timeSig.Beats)
	bottom := strconv.Itoa(s.timeSig.BeatValue)
	width := s.timeSigWidth()
	drawDigits := func(digits string, y float64) {
		dw := s.profile.Px(tables.TimeSigDigit(0).Width)
		dx := x + (width-float64(len(digits))*dw)/2
		for _, r := range digits {
			drawGlyph(ctx, s.profile, tables.TimeSigDigit(int(r-'0')), dx, y)
			dx += dw
		}
	}
	drawDigits(top, s.GetYForLine(1))
	drawDigits(bottom, s.GetYForLine(3))
}
