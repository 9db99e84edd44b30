package engrave

import (
	"math"

	"github.com/matzehuels/engrave/pkg/tables"
)

const ornamentAccidentalScale = 0.7

// Ornament is a trill, turn, mordent or jazz attack/release mark.
//
// Normal ornaments stack above the stave. Attack ornaments sit left of the
// notehead and release ornaments right of it. A delayed ornament is drawn
// halfway between its note and the next tick position.
type Ornament struct {
	ModifierBase
	typ     string
	info    tables.OrnamentInfo
	delayed bool
	upper   *tables.Glyph
	lower   *tables.Glyph

	delayXShift float64
}

// NewOrnament returns the ornament for typ, such as "tr" or "mordent".
func NewOrnament(typ string) (*Ornament, error) {
	info, err := tables.OrnamentFor(typ)
	if err != nil {
		return nil, err
	}
	o := &Ornament{typ: typ, info: info}
	switch info.Kind {
	case tables.OrnamentAttack:
		o.position = PositionLeft
	case tables.OrnamentRelease:
		o.position = PositionRight
	default:
		o.position = PositionAbove
	}
	return o, nil
}

// Category implements Modifier.
func (*Ornament) Category() Category { return CategoryOrnament }

// Type returns the ornament type.
func (o *Ornament) Type() string { return o.typ }

// SetDelayed moves the ornament after its note.
func (o *Ornament) SetDelayed(d bool) *Ornament {
	o.delayed = d
	return o
}

// Delayed reports whether the ornament is drawn after its note.
func (o *Ornament) Delayed() bool { return o.delayed }

// SetUpperAccidental places a small accidental above the ornament.
func (o *Ornament) SetUpperAccidental(code string) error {
	g, err := tables.AccidentalGlyph(code)
	if err != nil {
		return err
	}
	o.upper = &g
	return nil
}

// SetLowerAccidental places a small accidental below the ornament.
func (o *Ornament) SetLowerAccidental(code string) error {
	g, err := tables.AccidentalGlyph(code)
	if err != nil {
		return err
	}
	o.lower = &g
	return nil
}

func (o *Ornament) glyph() tables.Glyph { return tables.MustGlyph(o.info.Glyph) }

// height returns the stacked height in staff spaces including accidentals.
func (o *Ornament) height() float64 {
	h := o.glyph().Height
	if o.upper != nil {
		h += o.upper.Height * ornamentAccidentalScale
	}
	if o.lower != nil {
		h += o.lower.Height * ornamentAccidentalScale
	}
	return h
}

func formatOrnaments(mods []Modifier, st *State, mc *ModifierContext) (bool, error) {
	var width, left, right float64
	for _, m := range mods {
		o := m.(*Ornament)
		n, err := o.attachedNote()
		if err != nil {
			return false, err
		}
		o.width = mc.profile.GlyphWidth(o.glyph())
		o.delayXShift = 0

		switch o.info.Kind {
		case tables.OrnamentAttack:
			o.xShift = st.LeftShift + left + 2
			left += o.width + 2
		case tables.OrnamentRelease:
			o.xShift = st.RightShift + right + 2
			right += o.width + 2
		default:
			o.textLine = st.TopTextLine
			st.TopTextLine += roundToHalf(math.Ceil, o.height()+articulationMargin)
			if o.delayed {
				n.delayedPx = max(n.delayedPx, o.width)
			} else {
				width = max(width, o.width)
			}
		}
	}
	st.LeftShift += left + width/2
	st.RightShift += right + width/2
	return true, nil
}

// DelayXShift returns the horizontal offset applied to a delayed ornament
// during the last draw.
func (o *Ornament) DelayXShift() float64 { return o.delayXShift }

func (o *Ornament) delayShift(n *Note, x float64) float64 {
	shift := o.width / 2
	tc := n.tickContext
	stave := n.stave
	if next := tc.Next(); next != nil {
		shift += (next.X() - tc.X()) / 2
	} else if stave != nil {
		shift += (stave.X() + stave.Width() - x) / 2
	}
	return shift
}

// Draw draws the ornament and any accidentals stacked with it.
func (o *Ornament) Draw(ctx Context) error {
	n, err := o.attachedNote()
	if err != nil {
		return err
	}
	stave, err := n.Stave()
	if err != nil {
		return err
	}
	x, y, err := o.startXY()
	if err != nil {
		return err
	}
	g := o.glyph()
	p := n.profile

	ctx.OpenGroup("ornament", "")
	defer ctx.CloseGroup()
	applyStyle(ctx, o.style)

	switch o.info.Kind {
	case tables.OrnamentAttack:
		drawGlyph(ctx, p, g, x-o.xShift-o.width, y+o.yShift)
		return nil
	case tables.OrnamentRelease:
		drawGlyph(ctx, p, g, x+o.xShift, y+o.yShift)
		return nil
	}

	top, err := noteTopY(n)
	if err != nil {
		return err
	}
	y = min(stave.GetYForTopText(o.textLine), top-7-o.textLine*stave.Spacing()) + o.yShift
	x -= o.width / 2
	if o.delayed {
		o.delayXShift = o.delayShift(n, x)
		x += o.delayXShift
	}
	if o.lower != nil {
		drawGlyphScaled(ctx, p, *o.lower, x+o.width/2-p.GlyphWidth(*o.lower)*ornamentAccidentalScale/2, y, ornamentAccidentalScale)
		y -= p.Px(o.lower.Height) * ornamentAccidentalScale
	}
	drawGlyph(ctx, p, g, x, y)
	y -= p.Px(g.Height)
	if o.upper != nil {
		drawGlyphScaled(ctx, p, *o.upper, x+o.width/2-p.GlyphWidth(*o.upper)*ornamentAccidentalScale/2, y, ornamentAccidentalScale)
	}
	return nil
}
