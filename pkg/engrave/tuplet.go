package engrave

import (
	"math"
	"slices"
	"strconv"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/tables"
)

// TupletLocation places the tuplet number above or below the notes. The
// values double as y multipliers.
type TupletLocation int

const (
	TupletTop    TupletLocation = 1
	TupletBottom TupletLocation = -1
)

const (
	defaultNotesOccupied = 2
	nestedTupletOffset   = 15.0
)

// TupletOptions configures a tuplet. Zero values select the defaults.
type TupletOptions struct {
	NumNotes      int // defaults to the number of notes
	NotesOccupied int // defaults to 2
	Bracketed     *bool
	Ratioed       *bool
	Location      TupletLocation
	YOffset       float64
}

// Tuplet plays NumNotes notes in the time of NotesOccupied. Attaching it
// scales every member's ticks by NotesOccupied/NumNotes.
type Tuplet struct {
	notes         []*Note
	numNotes      int
	notesOccupied int
	bracketed     bool
	ratioed       bool
	location      TupletLocation
	yOffset       float64
	style         *Style
}

// NewTuplet builds a tuplet over notes and attaches it to them.
func NewTuplet(notes []*Note, opts TupletOptions) (*Tuplet, error) {
	if len(notes) == 0 {
		return nil, errors.New(errors.ErrCodeBadArguments, "no notes provided for tuplet")
	}
	t := &Tuplet{
		notes:         slices.Clone(notes),
		numNotes:      opts.NumNotes,
		notesOccupied: opts.NotesOccupied,
		location:      opts.Location,
		yOffset:       opts.YOffset,
	}
	if t.numNotes <= 0 {
		t.numNotes = len(notes)
	}
	if t.notesOccupied <= 0 {
		t.notesOccupied = defaultNotesOccupied
	}
	if t.location == 0 {
		t.location = TupletTop
	}
	if opts.Bracketed != nil {
		t.bracketed = *opts.Bracketed
	} else {
		t.bracketed = slices.ContainsFunc(notes, func(n *Note) bool { return n.beam == nil })
	}
	if opts.Ratioed != nil {
		t.ratioed = *opts.Ratioed
	} else {
		t.ratioed = math.Abs(float64(t.notesOccupied-t.numNotes)) > 1
	}
	t.Attach()
	return t, nil
}

// Attach pushes the tuplet onto every member's tuplet stack.
func (t *Tuplet) Attach() {
	for _, n := range t.notes {
		n.AddTuplet(t)
	}
}

// Detach removes the tuplet from every member, restoring their ticks.
func (t *Tuplet) Detach() {
	for _, n := range t.notes {
		n.RemoveTuplet(t)
	}
}

// Notes returns the members.
func (t *Tuplet) Notes() []*Note { return t.notes }

// NoteCount returns the number of notes played.
func (t *Tuplet) NoteCount() int { return t.numNotes }

// NotesOccupied returns the number of notes whose time is taken.
func (t *Tuplet) NotesOccupied() int { return t.notesOccupied }

// SetNotesOccupied changes the ratio, rescaling every member.
func (t *Tuplet) SetNotesOccupied(n int) error {
	if n <= 0 {
		return errors.New(errors.ErrCodeBadArguments, "notes occupied must be positive, got %d", n)
	}
	t.Detach()
	t.notesOccupied = n
	t.Attach()
	return nil
}

// Location returns where the number is drawn.
func (t *Tuplet) Location() TupletLocation { return t.location }

// SetLocation places the number above or below the notes.
func (t *Tuplet) SetLocation(l TupletLocation) {
	if l != TupletBottom {
		l = TupletTop
	}
	t.location = l
}

// Bracketed reports whether a bracket is drawn.
func (t *Tuplet) Bracketed() bool { return t.bracketed }

// SetBracketed toggles the bracket.
func (t *Tuplet) SetBracketed(b bool) { t.bracketed = b }

// Ratioed reports whether the number is drawn as "n:m".
func (t *Tuplet) Ratioed() bool { return t.ratioed }

// SetRatioed toggles the ratio display.
func (t *Tuplet) SetRatioed(r bool) { t.ratioed = r }

// SetStyle sets the paint override.
func (t *Tuplet) SetStyle(s *Style) { t.style = s }

// NestingLevel returns how many tuplets at the same location sit between
// this tuplet and the notes, across all members.
func (t *Tuplet) NestingLevel() int {
	count := func(n *Note) int {
		c := 0
		for _, tp := range n.tuplets {
			if tp.location == t.location {
				c++
			}
		}
		return c
	}
	lo, hi := count(t.notes[0]), count(t.notes[0])
	for _, n := range t.notes[1:] {
		c := count(n)
		lo, hi = min(lo, c), max(hi, c)
	}
	return hi - lo
}

// yPosition returns the baseline of the tuplet number, clear of every
// member's stem and noteheads.
func (t *Tuplet) yPosition() (float64, error) {
	first := t.notes[0]
	stave, err := first.Stave()
	if err != nil {
		return 0, err
	}
	var y float64
	if t.location == TupletTop {
		y = stave.GetYForLine(0) - 15
		for _, n := range t.notes {
			top, _, err := n.verticalBounds()
			if err != nil {
				return 0, err
			}
			ty := top - 20
			if n.StemDirection() == Up {
				ty = top - 10
			}
			y = min(y, ty)
		}
	} else {
		y = stave.GetYForLine(4) + 20
		for _, n := range t.notes {
			_, bottom, err := n.verticalBounds()
			if err != nil {
				return 0, err
			}
			by := bottom + 10
			if n.StemDirection() == Up {
				by = bottom + 20
			}
			y = max(y, by)
		}
	}
	nested := float64(t.NestingLevel()) * nestedTupletOffset * -float64(t.location)
	return y + nested + t.yOffset, nil
}

// verticalBounds returns the top and bottom of the note including its stem,
// or of its heads alone when it has none.
func (n *Note) verticalBounds() (top, bottom float64, err error) {
	if n.stem != nil {
		tip, base := n.stem.Extents()
		ys, err := n.Ys()
		if err != nil {
			return 0, 0, err
		}
		lo, hi := slices.Min(ys), slices.Max(ys)
		return min(tip, base, lo), max(tip, base, hi), nil
	}
	return n.VerticalExtents()
}

func digitGlyphs(v int) []tables.Glyph {
	s := strconv.Itoa(v)
	out := make([]tables.Glyph, len(s))
	for i, c := range s {
		out[i] = tables.TupletDigit(int(c - '0'))
	}
	return out
}

// Draw draws the bracket and number.
func (t *Tuplet) Draw(ctx Context) error {
	first, last := t.notes[0], t.notes[len(t.notes)-1]
	p := first.profile
	point := p.FontScale * 3 / 5
	scale := point / p.FontScale

	var x, width float64
	if t.bracketed {
		l, err := first.TieLeftX()
		if err != nil {
			return err
		}
		r, err := last.TieRightX()
		if err != nil {
			return err
		}
		x = l - 5
		width = r - x + 5
	} else {
		l, err := first.StemX()
		if err != nil {
			return err
		}
		r, err := last.StemX()
		if err != nil {
			return err
		}
		x, width = l, r-l
	}
	y, err := t.yPosition()
	if err != nil {
		return err
	}

	num := digitGlyphs(t.numNotes)
	den := digitGlyphs(t.notesOccupied)
	textWidth := 0.0
	for _, g := range num {
		textWidth += p.GlyphWidth(g) * scale
	}
	if t.ratioed {
		for _, g := range den {
			textWidth += p.GlyphWidth(g) * scale
		}
		textWidth += point * 0.32
	}
	center := x + width/2
	start := center - textWidth/2

	ctx.OpenGroup("tuplet", "")
	defer ctx.CloseGroup()
	ctx.Save()
	defer ctx.Restore()
	applyStyle(ctx, t.style)

	if t.bracketed {
		lineWidth := width/2 - textWidth/2 - 5
		if lineWidth > 0 {
			hookY := y
			if t.location == TupletBottom {
				hookY++
			}
			ctx.FillRect(x, y, lineWidth, 1)
			ctx.FillRect(x+width/2+textWidth/2+5, y, lineWidth, 1)
			ctx.FillRect(x, hookY, 1, float64(t.location)*10)
			ctx.FillRect(x+width, hookY, 1, float64(t.location)*10)
		}
	}

	baseline := y + point/3 - 2
	offset := 0.0
	for _, g := range num {
		drawGlyphScaled(ctx, p, g, start+offset, baseline, scale)
		offset += p.GlyphWidth(g) * scale
	}
	if t.ratioed {
		colonX := start + offset + point*0.16
		radius := point * 0.06
		for _, cy := range []float64{y - point*0.08, y + point*0.12} {
			ctx.BeginPath()
			ctx.Arc(colonX, cy, radius, 0, 2*math.Pi, false)
			ctx.ClosePath()
			ctx.Fill()
		}
		offset += point * 0.32
		for _, g := range den {
			drawGlyphScaled(ctx, p, g, start+offset, baseline, scale)
			offset += p.GlyphWidth(g) * scale
		}
	}
	return nil
}
