package engrave

import (
	"math"
	"slices"

	"github.com/matzehuels/engrave/pkg/tables"
)

// Accidental is a sharp, flat, natural or quarter-tone sign left of a
// notehead, optionally in cautionary parentheses.
type Accidental struct {
	ModifierBase
	code       string
	glyph      tables.Glyph
	cautionary bool
}

// NewAccidental returns an accidental for code: "#", "##", "b", "bb", "n",
// "d" or "+". Unknown codes fail with BAD_ARGUMENTS.
func NewAccidental(code string) (*Accidental, error) {
	g, err := tables.AccidentalGlyph(code)
	if err != nil {
		return nil, err
	}
	a := &Accidental{code: code, glyph: g}
	a.position = PositionLeft
	return a, nil
}

// Category implements Modifier.
func (*Accidental) Category() Category { return CategoryAccidental }

// Code returns the accidental code.
func (a *Accidental) Code() string { return a.code }

// SetCautionary wraps the accidental in parentheses.
func (a *Accidental) SetCautionary(c bool) *Accidental {
	a.cautionary = c
	return a
}

// Cautionary reports whether the accidental is parenthesised.
func (a *Accidental) Cautionary() bool { return a.cautionary }

func (a *Accidental) measure(p *tables.Profile, scale float64) float64 {
	w := p.GlyphWidth(a.glyph)
	if a.cautionary {
		w += p.GlyphWidth(tables.MustGlyph("accidentalParensLeft")) +
			p.GlyphWidth(tables.MustGlyph("accidentalParensRight"))
	}
	return w * scale
}

// flatLike accidentals have their bulk low and pack closer to the next one.
func (a *Accidental) flatLike() bool {
	return a.code == "b" || a.code == "bb" || a.code == "d"
}

type accidentalLine struct {
	acc      *Accidental
	line     float64
	flatLine bool
	dblSharp bool
	column   int
}

// accidentalsCollide reports whether two accidentals, ordered top to
// bottom, are too close to share a column. Three lines of clearance are
// needed, half a line less below a flat or above a double sharp.
func accidentalsCollide(upper, lower accidentalLine) bool {
	clearance := upper.line - lower.line
	required := 3.0
	if lower.flatLine || lower.dblSharp {
		required = 2.5
	}
	if upper.dblSharp {
		clearance -= 0.5
	}
	return math.Abs(clearance) < required
}

// formatAccidentals packs accidentals into columns left of the noteheads.
// Accidentals are sorted top to bottom and split into groups of mutually
// colliding lines. Groups of up to six use the fixed patterns in
// tables.AccidentalColumns; larger groups cycle through the fewest parallel
// columns that avoid collisions.
func formatAccidentals(mods []Modifier, st *State, mc *ModifierContext) (bool, error) {
	spacing := mc.profile.AccidentalSpace

	lines := make([]accidentalLine, 0, len(mods))
	for _, m := range mods {
		a := m.(*Accidental)
		n, err := a.attachedNote()
		if err != nil {
			return false, err
		}
		a.width = a.measure(mc.profile, n.scale)
		lines = append(lines, accidentalLine{
			acc:      a,
			line:     n.heads[a.index].line,
			flatLine: a.flatLike(),
			dblSharp: a.code == "##",
		})
	}
	slices.SortStableFunc(lines, func(a, b accidentalLine) int {
		switch {
		case a.line > b.line:
			return -1
		case a.line < b.line:
			return 1
		}
		return 0
	})

	totalColumns := 0
	for start := 0; start < len(lines); {
		end := start
		for end+1 < len(lines) && accidentalsCollide(lines[end], lines[end+1]) {
			end++
		}
		group := lines[start : end+1]
		cols := accidentalGroupColumns(group)
		for i := range group {
			group[i].column = cols[i]
			totalColumns = max(totalColumns, cols[i])
		}
		start = end + 1
	}

	widths := make([]float64, totalColumns+1)
	for _, l := range lines {
		widths[l.column] = max(widths[l.column], l.acc.width)
	}
	offsets := make([]float64, totalColumns+1)
	offset := st.LeftShift
	for c := 1; c <= totalColumns; c++ {
		offsets[c] = offset
		offset += widths[c] + spacing
	}
	for _, l := range lines {
		l.acc.xShift = offsets[l.column]
	}
	st.LeftShift = offset
	return true, nil
}

func accidentalGroupColumns(group []accidentalLine) []int {
	n := len(group)
	if n >= 7 {
		pattern := 2
		for collision := true; collision; {
			collision = false
			for i := 0; i+pattern < n; i++ {
				if accidentalsCollide(group[i], group[i+pattern]) {
					collision = true
					pattern++
					break
				}
			}
		}
		cols := make([]int, n)
		for i := range cols {
			cols[i] = i%pattern + 1
		}
		return cols
	}

	name := "a"
	if n > 1 && !accidentalsCollide(group[0], group[n-1]) {
		name = "b"
	}
	switch n {
	case 2:
		name = "a"
	case 3:
		if name == "a" && group[1].line-group[2].line == 0.5 && group[0].line-group[1].line != 0.5 {
			name = "second_on_bottom"
		}
	case 4:
		if !accidentalsCollide(group[0], group[2]) && !accidentalsCollide(group[1], group[3]) {
			name = "spaced_out_tetrachord"
		}
	case 5:
		if name == "b" && !accidentalsCollide(group[1], group[3]) {
			name = "spaced_out_pentachord"
			if !accidentalsCollide(group[0], group[2]) && !accidentalsCollide(group[2], group[4]) {
				name = "very_spaced_out_pentachord"
			}
		}
	case 6:
		if !accidentalsCollide(group[0], group[3]) && !accidentalsCollide(group[1], group[4]) &&
			!accidentalsCollide(group[2], group[5]) {
			name = "spaced_out_hexachord"
		}
		if !accidentalsCollide(group[0], group[2]) && !accidentalsCollide(group[2], group[4]) &&
			!accidentalsCollide(group[1], group[3]) && !accidentalsCollide(group[3], group[5]) {
			name = "very_spaced_out_hexachord"
		}
	}
	cols, ok := tables.AccidentalColumns(n, name)
	if !ok {
		cols, _ = tables.AccidentalColumns(n, "a")
	}
	return cols
}

// Draw draws the accidental and its parentheses.
func (a *Accidental) Draw(ctx Context) error {
	n, err := a.attachedNote()
	if err != nil {
		return err
	}
	x, y, err := a.startXY()
	if err != nil {
		return err
	}
	x -= a.xShift + a.width
	y += a.yShift

	ctx.OpenGroup("accidental", "")
	defer ctx.CloseGroup()
	applyStyle(ctx, a.style)
	if !a.cautionary {
		drawGlyphScaled(ctx, n.profile, a.glyph, x, y, n.scale)
		return nil
	}
	left := tables.MustGlyph("accidentalParensLeft")
	right := tables.MustGlyph("accidentalParensRight")
	drawGlyphScaled(ctx, n.profile, left, x, y, n.scale)
	x += n.profile.GlyphWidth(left) * n.scale
	drawGlyphScaled(ctx, n.profile, a.glyph, x, y, n.scale)
	x += n.profile.GlyphWidth(a.glyph) * n.scale
	drawGlyphScaled(ctx, n.profile, right, x, y, n.scale)
	return nil
}
