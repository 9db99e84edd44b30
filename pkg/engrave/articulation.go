package engrave

import (
	"math"
	"slices"

	"github.com/matzehuels/engrave/pkg/tables"
)

const (
	articulationMargin        = 0.5
	articulationInitialOffset = -0.5
)

// Articulation is a staccato, accent, fermata or similar mark above or
// below a note.
type Articulation struct {
	ModifierBase
	code string
	info tables.Articulation
}

// NewArticulation returns the articulation for code, such as "a." or
// "a>", placed above the note.
func NewArticulation(code string) (*Articulation, error) {
	info, err := tables.ArticulationFor(code)
	if err != nil {
		return nil, err
	}
	a := &Articulation{code: code, info: info}
	a.position = PositionAbove
	return a, nil
}

// Category implements Modifier.
func (*Articulation) Category() Category { return CategoryArticulation }

// Code returns the articulation code.
func (a *Articulation) Code() string { return a.code }

// BetweenLines reports whether the mark may sit inside the stave.
func (a *Articulation) BetweenLines() bool { return a.info.BetweenLines }

func (a *Articulation) glyph() tables.Glyph {
	if a.position == PositionBelow {
		return tables.MustGlyph(a.info.Below)
	}
	return tables.MustGlyph(a.info.Above)
}

func withinLines(line float64, pos Position) bool {
	if pos == PositionAbove {
		return line <= 5
	}
	return line >= 1
}

// lineRounding rounds up above and down below while inside the stave, and
// to the nearest value outside it.
func lineRounding(line float64, pos Position) func(float64) float64 {
	if !withinLines(line, pos) {
		return math.Round
	}
	if pos == PositionAbove {
		return math.Ceil
	}
	return math.Floor
}

func roundToHalf(round func(float64) float64, v float64) float64 {
	return round(v/0.5) * 0.5
}

// snapLineToStaff moves a mark that may sit between lines off a stave line
// and into the neighbouring space, away from the note.
func snapLineToStaff(betweenLines bool, line float64, pos Position, dir float64) float64 {
	snapped := roundToHalf(lineRounding(line, pos), line)
	if betweenLines && withinLines(snapped, pos) && math.Mod(snapped, 1) == 0 {
		return snapped - 0.5*dir
	}
	return snapped
}

// stemLines returns the stem length in staff spaces, zero for stemless notes.
func stemLines(n *Note) float64 {
	if !n.HasStem() {
		return 0
	}
	return (n.profile.StemHeight*n.scale + n.stemExtension()) / n.profile.StaveSpace
}

// formatArticulations stacks marks on text lines above and below. A mark
// that may not sit between lines is pushed past the stave edge. When the
// widest mark is wider than the noteheads, the overhang is claimed evenly on
// both sides.
func formatArticulations(mods []Modifier, st *State, mc *ModifierContext) (bool, error) {
	maxHead := 0.0
	for _, m := range mods {
		a := m.(*Articulation)
		n, err := a.attachedNote()
		if err != nil {
			return false, err
		}
		g := a.glyph()
		a.width = mc.profile.GlyphWidth(g)
		maxHead = max(maxHead, n.glyphWidth())

		lines := 5.0
		if n.stave != nil {
			lines = float64(n.stave.NumLines())
		}
		stemDir := Up
		if n.HasStem() {
			stemDir = n.StemDirection()
		}
		height := g.Height + articulationMargin

		switch a.position {
		case PositionAbove:
			noteLine := n.MaxLine()
			if stemDir == Up {
				noteLine += stemLines(n)
			}
			inc := roundToHalf(lineRounding(st.TopTextLine, PositionAbove), height)
			if cur := noteLine + st.TopTextLine + 0.5; !a.info.BetweenLines && cur < lines {
				inc += lines - cur
			}
			a.textLine = st.TopTextLine
			st.TopTextLine += inc
		case PositionBelow:
			noteLine := max(lines-n.MinLine(), 0)
			if stemDir == Down {
				noteLine += stemLines(n)
			}
			inc := roundToHalf(lineRounding(st.TextLine, PositionBelow), height)
			if cur := noteLine + st.TextLine + 0.5; !a.info.BetweenLines && cur < lines {
				inc += lines - cur
			}
			a.textLine = st.TextLine
			st.TextLine += inc
		}
	}

	widest := 0.0
	for _, m := range mods {
		widest = max(widest, m.Width())
	}
	overlap := min(max(widest-maxHead, 0), max(widest-(st.LeftShift+st.RightShift), 0))
	st.LeftShift += overlap / 2
	st.RightShift += overlap / 2
	return true, nil
}

// noteTopY is the y an above mark stacks from: the stem tip for up stems,
// otherwise the highest notehead.
func noteTopY(n *Note) (float64, error) {
	ys, err := n.Ys()
	if err != nil {
		return 0, err
	}
	if n.HasStem() && n.StemDirection() == Up && n.tickContext != nil {
		tip, _, err := n.StemExtents()
		if err != nil {
			return 0, err
		}
		return tip, nil
	}
	return slices.Min(ys), nil
}

func noteBottomY(n *Note) (float64, error) {
	ys, err := n.Ys()
	if err != nil {
		return 0, err
	}
	if n.HasStem() && n.StemDirection() == Down && n.tickContext != nil {
		tip, _, err := n.StemExtents()
		if err != nil {
			return 0, err
		}
		return tip, nil
	}
	return slices.Max(ys), nil
}

func initialOffset(n *Note, pos Position) float64 {
	if n.kind == KindTab {
		return 1
	}
	onTip := (pos == PositionAbove && n.StemDirection() == Up) ||
		(pos == PositionBelow && n.StemDirection() == Down)
	if n.HasStem() && onTip {
		return 0.5
	}
	return 1
}

// y returns the baseline y for drawing the mark.
func (a *Articulation) y(n *Note) (float64, error) {
	stave, err := n.Stave()
	if err != nil {
		return 0, err
	}
	spacing := stave.Spacing()
	outside := !a.info.BetweenLines || n.kind == KindTab
	off := initialOffset(n, a.position)
	g := a.glyph()
	gh := n.profile.Px(g.Height)

	var y float64
	dir := 1.0
	if a.position == PositionAbove {
		dir = -1
		top, err := noteTopY(n)
		if err != nil {
			return 0, err
		}
		y = top - (a.textLine+off)*spacing
		if outside {
			y = min(stave.GetYForTopText(articulationInitialOffset), y)
		}
	} else {
		bottom, err := noteBottomY(n)
		if err != nil {
			return 0, err
		}
		y = bottom + (a.textLine+off)*spacing
		if outside {
			y = max(stave.GetYForBottomText(articulationInitialOffset), y)
		}
		y += gh
	}

	if n.kind == KindTab {
		return y, nil
	}
	ys, err := n.Ys()
	if err != nil {
		return 0, err
	}
	line := (ys[a.index]-y)/spacing + n.heads[a.index].line
	snapped := snapLineToStaff(a.info.BetweenLines, line, a.position, dir)
	if withinLines(snapped, a.position) {
		// Centred on the line it snapped to.
		if a.position == PositionAbove {
			y += gh / 2
		} else {
			y -= gh / 2
		}
	}
	return y + math.Abs(snapped-line)*spacing*dir, nil
}

// Draw draws the mark centred on the notehead.
func (a *Articulation) Draw(ctx Context) error {
	n, err := a.attachedNote()
	if err != nil {
		return err
	}
	x, _, err := a.startXY()
	if err != nil {
		return err
	}
	y, err := a.y(n)
	if err != nil {
		return err
	}
	ctx.OpenGroup("articulation", "")
	applyStyle(ctx, a.style)
	drawGlyph(ctx, n.profile, a.glyph(), x-a.width/2+a.xShift, y+a.yShift)
	ctx.CloseGroup()
	return nil
}
