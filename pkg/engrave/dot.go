package engrave

import (
	"math"
	"slices"

	"github.com/matzehuels/engrave/pkg/tables"
)

// Dot is an augmentation dot placed right of a notehead.
type Dot struct {
	ModifierBase
	dotShiftY float64 // half-line shift in staff lines, assigned by formatDots
}

// NewDot returns a dot positioned right of its note.
func NewDot() *Dot {
	d := &Dot{}
	d.position = PositionRight
	return d
}

// Category implements Modifier.
func (*Dot) Category() Category { return CategoryDot }

// DotShiftY returns the vertical shift in staff lines assigned by the last
// format pass: 0 for a dot already in a space, -0.5 to move up from a line,
// +0.5 to move down.
func (d *Dot) DotShiftY() float64 { return d.dotShiftY }

func (d *Dot) glyph() tables.Glyph { return tables.MustGlyph("augmentationDot") }

type dotEntry struct {
	dot    *Dot
	note   *Note
	line   float64
	offset float64 // where the note's right modifiers start, past the tick x
}

type dotKey struct {
	note  *Note
	index int
}

// formatDots stacks dots from the highest line down. A dot on a line moves
// into the space above; when that space is already taken, or the note a
// half-line above has claimed it, the dot moves into the space below.
// All dots at a tick share one column; further dots on the same key step
// to the right.
func formatDots(mods []Modifier, st *State, mc *ModifierContext) (bool, error) {
	dotSpacing := mc.profile.DotSpacing

	entries := make([]dotEntry, 0, len(mods))
	column := st.RightShift
	for _, m := range mods {
		d := m.(*Dot)
		n, err := d.attachedNote()
		if err != nil {
			return false, err
		}
		d.width = mc.profile.GlyphWidth(d.glyph()) * n.scale
		offset := n.formatXShift + n.rightDisplacedHeadPx
		entries = append(entries, dotEntry{dot: d, note: n, line: n.heads[d.index].line, offset: offset})
		column = max(column, offset)
	}

	slices.SortStableFunc(entries, func(a, b dotEntry) int {
		switch {
		case a.line > b.line:
			return -1
		case a.line < b.line:
			return 1
		}
		return 0
	})

	counts := make(map[dotKey]int)
	halves := make(map[dotKey]float64)
	prevLine := math.NaN()
	prevDottedSpace := math.NaN()
	right := st.RightShift
	for _, e := range entries {
		k := dotKey{e.note, e.dot.index}
		c := counts[k]
		counts[k]++

		half, seen := halves[k]
		if !seen {
			half = 0
			if math.Mod(e.line, 1) == 0 {
				half = 0.5
				if prevLine-e.line == 0.5 || e.line+half == prevDottedSpace {
					half = -0.5
				}
			}
			halves[k] = half
			prevDottedSpace = e.line + half
			prevLine = e.line
		}

		e.dot.dotShiftY = -half
		e.dot.xShift = column - e.offset + dotSpacing + float64(c)*(e.dot.width+dotSpacing)
		right = max(right, e.note.formatXShift+e.dot.xShift+e.dot.width)
	}
	st.RightShift = right
	return true, nil
}

// Draw draws the dot.
func (d *Dot) Draw(ctx Context) error {
	n, err := d.attachedNote()
	if err != nil {
		return err
	}
	if n.hidden {
		return nil
	}
	x, y, err := d.startXY()
	if err != nil {
		return err
	}
	spacing := n.profile.StaveSpace
	if n.stave != nil {
		spacing = n.stave.Spacing()
	}
	y += d.dotShiftY*spacing + d.yShift
	ctx.OpenGroup("dot", "")
	drawGlyphScaled(ctx, n.profile, d.glyph(), x+d.xShift, y, n.scale)
	ctx.CloseGroup()
	return nil
}
