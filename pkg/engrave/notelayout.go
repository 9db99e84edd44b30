package engrave

import (
	"math"
	"slices"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/tables"
)

// Extra stem length for flags that would otherwise collide with noteheads.
var flagStemExtension = map[string]float64{
	"32": 9, "64": 13, "128": 22, "256": 24, "512": 28, "1024": 32,
}

const middleLine = 3.0

// refresh recomputes effective lines, head displacement and y values from
// the note's current state.
func (n *Note) refresh() {
	for i := range n.heads {
		h := &n.heads[i]
		if n.kind != KindTab {
			h.line = h.props.Line
			if n.IsRest() {
				h.line += n.restLineShift
			}
		}
		h.displaced = false
	}
	n.leftDisplacedHeadPx, n.rightDisplacedHeadPx = 0, 0

	if !n.IsRest() && n.kind != KindTab && len(n.heads) > 1 {
		order := make([]int, len(n.heads))
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			switch {
			case n.heads[a].line < n.heads[b].line:
				return -1
			case n.heads[a].line > n.heads[b].line:
				return 1
			}
			return 0
		})
		// Walk from the stem end so the head nearest the stem stays put.
		if n.StemDirection() == Down {
			slices.Reverse(order)
		}
		displaced, anyDisplaced := false, false
		var last float64
		for j, i := range order {
			line := n.heads[i].line
			if j > 0 {
				diff := math.Abs(last - line)
				if diff == 0 || diff == 0.5 {
					displaced = !displaced
				} else {
					displaced = false
				}
			}
			last = line
			n.heads[i].displaced = displaced
			anyDisplaced = anyDisplaced || displaced
		}
		if anyDisplaced {
			if n.StemDirection() == Up {
				n.rightDisplacedHeadPx = n.glyphWidth()
			} else {
				n.leftDisplacedHeadPx = n.glyphWidth()
			}
		}
	}
	n.computeYs()
}

func (n *Note) computeYs() {
	if n.stave == nil {
		n.ys = nil
		return
	}
	n.ys = make([]float64, len(n.heads))
	for i, h := range n.heads {
		if n.kind == KindTab {
			n.ys[i] = n.stave.GetYForLine(h.line)
		} else {
			n.ys[i] = n.stave.GetYForNote(h.line)
		}
	}
}

// glyphWidth returns the width of the notehead, rest or fret column.
func (n *Note) glyphWidth() float64 {
	switch n.kind {
	case KindGhost:
		return 0
	case KindTab:
		font, _ := n.profile.FontFor("TabNote")
		w := 0.0
		for _, s := range n.fretText {
			w = max(w, n.measurer.Measure(s, font).Width)
		}
		return w
	}
	w := 0.0
	for _, h := range n.heads {
		w = max(w, n.profile.GlyphWidth(h.glyph))
	}
	return w * n.scale
}

// GlyphWidth returns the notehead width in pixels.
func (n *Note) GlyphWidth() float64 { return n.glyphWidth() }

// LeftDisplacedHeadPx returns the width of heads displaced left of the stem.
func (n *Note) LeftDisplacedHeadPx() float64 { return n.leftDisplacedHeadPx }

// RightDisplacedHeadPx returns the width of heads displaced right of the stem.
func (n *Note) RightDisplacedHeadPx() float64 { return n.rightDisplacedHeadPx }

// HasDisplacedHeads reports whether any head sits on the far side of the stem.
func (n *Note) HasDisplacedHeads() bool {
	return n.leftDisplacedHeadPx > 0 || n.rightDisplacedHeadPx > 0
}

func (n *Note) shouldDrawFlag() bool {
	if n.beam != nil || n.IsRest() || !n.HasStem() {
		return false
	}
	_, ok := tables.FlagGlyph(n.duration, false)
	return ok
}

func (n *Note) flagWidth() float64 {
	g, ok := tables.FlagGlyph(n.duration, n.StemDirection() == Down)
	if !ok {
		return 0
	}
	return n.profile.GlyphWidth(g) * n.scale
}

// Metrics returns the horizontal breakdown used by the tick context.
func (n *Note) Metrics() Metrics {
	var left, right float64
	if n.modifierContext != nil {
		st := n.modifierContext.State()
		left, right = st.LeftShift, st.RightShift
	}
	notePx := n.glyphWidth()
	if n.shouldDrawFlag() && n.StemDirection() == Up {
		notePx += n.flagWidth()
	}
	return Metrics{
		Width:                notePx + left + right + n.leftDisplacedHeadPx + n.rightDisplacedHeadPx,
		NotePx:               notePx,
		ModLeftPx:            left,
		ModRightPx:           right,
		LeftDisplacedHeadPx:  n.leftDisplacedHeadPx,
		RightDisplacedHeadPx: n.rightDisplacedHeadPx,
		DelayedPx:            n.delayedPx,
	}
}

// PreFormat runs the modifier context and computes the note width.
func (n *Note) PreFormat() error {
	if mc := n.modifierContext; mc != nil {
		if err := mc.PreFormat(); err != nil {
			return err
		}
	} else {
		n.resetFormatState()
	}
	m := n.Metrics()
	n.width = m.NotePx + m.LeftDisplacedHeadPx + m.RightDisplacedHeadPx
	n.preFormatted = true
	return nil
}

// PostFormat computes stem geometry once the note has a position.
func (n *Note) PostFormat() error {
	if n.stave != nil && n.tickContext != nil && n.HasStem() {
		if err := n.buildStem(); err != nil {
			return err
		}
	}
	n.postFormatted = true
	return nil
}

func (n *Note) stemExtension() float64 {
	if n.stemExtOver != nil {
		return *n.stemExtOver
	}
	if n.beam != nil {
		return n.beamExtension
	}
	ext := flagStemExtension[n.duration] * n.scale
	if n.kind != KindStave || n.IsRest() || n.StemDirection() != n.optimalStemDirection() {
		return ext
	}
	var dist float64
	if n.StemDirection() == Up {
		dist = middleLine - n.MaxLine()
	} else {
		dist = n.MinLine() - middleLine
	}
	over := dist - 3.5
	if over <= 0 {
		return ext
	}
	spacing := n.profile.StaveSpace
	if n.stave != nil {
		spacing = n.stave.Spacing()
	}
	return ext + over*spacing
}

func (n *Note) buildStem() error {
	if !n.HasStem() {
		return errors.New(errors.ErrCodeNoStem, "%s note of duration %s has no stem", n.kind, n.duration)
	}
	ys, err := n.Ys()
	if err != nil {
		return err
	}
	x, err := n.AbsoluteX()
	if err != nil {
		return err
	}
	dir := n.StemDirection()
	gw := n.glyphWidth()
	stemWidth := n.profile.StemWidth

	stemX := x
	switch {
	case n.kind == KindTab:
		stemX = x + gw/2
	case dir == Up:
		stemX = x + gw - stemWidth/2
	default:
		stemX = x + stemWidth/2
	}

	yTop, yBottom := slices.Min(ys), slices.Max(ys)
	if n.kind == KindTab {
		// Tab stems start outside the stave.
		if dir == Up {
			yBottom = n.stave.TopLineY() - 2
			yTop = yBottom
		} else {
			yTop = n.stave.BottomLineY() + 2
			yBottom = yTop
		}
	}
	ext := n.stemExtension()
	n.stem = &Stem{
		X:         stemX,
		YTop:      yTop,
		YBottom:   yBottom,
		Height:    n.profile.StemHeight * n.scale,
		Extension: ext,
		Direction: dir,
		Width:     stemWidth,
		Hide:      n.IsRest() || n.kind == KindGhost,
	}
	if n.stemletHeight > 0 {
		n.stem.IsStemlet = true
		n.stem.StemletHeight = n.stemletHeight
		n.stem.Hide = false
	}
	return nil
}

// Stem returns the note's stem, building it from the current layout. It
// fails with NO_STEM for stemless notes, NO_Y_VALUES without a stave and
// NO_TICK_CONTEXT before formatting.
func (n *Note) Stem() (*Stem, error) {
	if err := n.buildStem(); err != nil {
		return nil, err
	}
	return n.stem, nil
}

// StemExtents returns the stem tip and base y values.
func (n *Note) StemExtents() (tipY, baseY float64, err error) {
	s, err := n.Stem()
	if err != nil {
		return 0, 0, err
	}
	tipY, baseY = s.Extents()
	return tipY, baseY, nil
}

// StemX returns the x of the stem line.
func (n *Note) StemX() (float64, error) {
	s, err := n.Stem()
	if err != nil {
		return 0, err
	}
	return s.X, nil
}

// ModifierStartXY returns where a modifier at pos starts for key index.
func (n *Note) ModifierStartXY(pos Position, index int) (x, y float64, err error) {
	if index < 0 || index >= len(n.heads) {
		return 0, 0, errors.New(errors.ErrCodeBadArguments, "key index %d out of range", index)
	}
	ys, err := n.Ys()
	if err != nil {
		return 0, 0, err
	}
	x, err = n.AbsoluteX()
	if err != nil {
		return 0, 0, err
	}
	gw := n.glyphWidth()
	switch pos {
	case PositionLeft:
		x -= n.leftDisplacedHeadPx + 2
	case PositionRight:
		x += gw + n.rightDisplacedHeadPx + 2
	default:
		x += gw / 2
	}
	return x, ys[index], nil
}

// VerticalExtents returns the highest and lowest y the note occupies,
// including its stem.
func (n *Note) VerticalExtents() (top, bottom float64, err error) {
	ys, err := n.Ys()
	if err != nil {
		return 0, 0, err
	}
	top, bottom = slices.Min(ys), slices.Max(ys)
	if n.HasStem() && n.tickContext != nil && !n.IsRest() {
		tip, _, err := n.StemExtents()
		if err != nil {
			return 0, 0, err
		}
		top, bottom = min(top, tip), max(bottom, tip)
	}
	return top, bottom, nil
}
