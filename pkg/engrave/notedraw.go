package engrave

import (
	"math"
	"slices"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/tables"
)

// TieLeftX returns where a tie or bracket ending on this note stops.
func (n *Note) TieLeftX() (float64, error) {
	x, err := n.AbsoluteX()
	if err != nil {
		return 0, err
	}
	return x - n.leftDisplacedHeadPx, nil
}

// TieRightX returns where a tie or bracket starting on this note begins,
// past any modifiers on the right.
func (n *Note) TieRightX() (float64, error) {
	x, err := n.AbsoluteX()
	if err != nil {
		return 0, err
	}
	x += n.glyphWidth() + n.rightDisplacedHeadPx
	if n.modifierContext != nil {
		x += n.modifierContext.State().RightShift
	}
	return x, nil
}

// headX returns the x of head i, moved across the stem when displaced.
func (n *Note) headX(x float64, i int) float64 {
	if !n.heads[i].displaced {
		return x
	}
	shift := n.glyphWidth() - n.profile.StemWidth/2
	if n.StemDirection() == Down {
		return x - shift
	}
	return x + shift
}

// Draw draws ledger lines, heads, the stem and flag when not beamed, and
// every modifier. Ghost notes and rests hidden by collision formatting
// draw nothing of their own.
func (n *Note) Draw(ctx Context) error {
	if n.kind == KindGhost {
		return nil
	}
	stave, err := n.Stave()
	if err != nil {
		return err
	}
	x, err := n.AbsoluteX()
	if err != nil {
		return err
	}
	ys, err := n.Ys()
	if err != nil {
		return err
	}

	ctx.OpenGroup(n.kind.String()+"note", "")
	defer ctx.CloseGroup()
	ctx.Save()
	defer ctx.Restore()
	applyStyle(ctx, n.style)

	if !n.hidden {
		switch n.kind {
		case KindTab:
			if err := n.drawFrets(ctx, x, ys); err != nil {
				return err
			}
		default:
			if !n.IsRest() {
				n.drawLedgerLines(ctx, stave, x)
			}
			for i, h := range n.heads {
				drawGlyphScaled(ctx, n.profile, h.glyph, n.headX(x, i), ys[i], n.scale)
			}
		}
		if n.beam == nil && n.HasStem() && !n.IsRest() {
			if err := n.drawStemAndFlag(ctx); err != nil {
				return err
			}
		}
	}

	for _, m := range n.modifiers {
		if err := m.Draw(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (n *Note) drawLedgerLines(ctx Context, stave *Stave, x float64) {
	lines := n.Lines()
	top, bottom := slices.Max(lines), slices.Min(lines)
	topLine := float64(stave.NumLines())
	extend := n.profile.LedgerLineExtend * n.scale

	left, right := x, x+n.glyphWidth()
	for i := range n.heads {
		hx := n.headX(x, i)
		left, right = min(left, hx), max(right, hx+n.glyphWidth())
	}
	draw := func(line float64) {
		y := stave.GetYForNote(line)
		ctx.FillRect(left-extend, y-0.5, right-left+2*extend, 1.4)
	}
	for line := topLine + 1; line <= top; line++ {
		draw(line)
	}
	for line := 0.0; line >= bottom; line-- {
		draw(line)
	}
}

func (n *Note) drawStemAndFlag(ctx Context) error {
	if n.stem == nil {
		if err := n.buildStem(); err != nil {
			return err
		}
	}
	n.stem.Draw(ctx, n.style)
	tip, _ := n.stem.Extents()

	if g, ok := tables.FlagGlyph(n.duration, n.StemDirection() == Down); ok {
		drawGlyphScaled(ctx, n.profile, g, n.stem.X-n.profile.StemWidth/2, tip, n.scale)
	}
	if n.kind == KindGrace && n.slash {
		n.drawSlash(ctx, tip)
	}
	return nil
}

// drawSlash crosses the stem of an acciaccatura near its tip.
func (n *Note) drawSlash(ctx Context, tip float64) {
	dir := float64(n.StemDirection())
	s := n.scale
	x := n.stem.X
	ctx.SetLineWidth(1)
	ctx.BeginPath()
	ctx.MoveTo(x-5*s, tip+dir*12*s)
	ctx.LineTo(x+7*s, tip+dir*3*s)
	ctx.Stroke()
}

// drawFrets draws each fret number over its string, clearing the line
// behind it.
func (n *Note) drawFrets(ctx Context, x float64, ys []float64) error {
	font, err := n.profile.FontFor("TabNote")
	if err != nil {
		return err
	}
	if len(ys) != len(n.fretText) {
		return errors.New(errors.ErrCodeInternal, "tab note has %d frets for %d positions", len(n.fretText), len(ys))
	}
	gw := n.glyphWidth()
	for i, fret := range n.fretText {
		m := n.measurer.Measure(fret, font)
		tx := x + (gw-m.Width)/2
		ctx.Save()
		ctx.SetFillStyle("#fff")
		ctx.FillRect(tx-2, ys[i]-math.Ceil(m.Height/2), m.Width+4, m.Height)
		ctx.Restore()
		ctx.SetFont(font)
		ctx.FillText(fret, tx, ys[i]+m.Height/2-1)
	}
	return nil
}
