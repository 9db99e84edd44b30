package engrave

import "github.com/matzehuels/engrave/pkg/tables"

// Parenthesis is one half of a pair of brackets around a notehead.
type Parenthesis struct {
	ModifierBase
	glyph tables.Glyph
}

// NewParenthesis returns the left or right bracket.
func NewParenthesis(pos Position) *Parenthesis {
	p := &Parenthesis{glyph: tables.MustGlyph("accidentalParensLeft")}
	p.position = PositionLeft
	if pos == PositionRight {
		p.position = PositionRight
		p.glyph = tables.MustGlyph("accidentalParensRight")
	}
	return p
}

// AddParentheses brackets key index of n on both sides.
func AddParentheses(n *Note, index int) error {
	if err := n.AddModifier(NewParenthesis(PositionLeft), index); err != nil {
		return err
	}
	return n.AddModifier(NewParenthesis(PositionRight), index)
}

// Category implements Modifier.
func (*Parenthesis) Category() Category { return CategoryParenthesis }

// formatParentheses hugs the noteheads: parentheses are laid out before
// dots and accidentals, so they only clear collision shifts.
func formatParentheses(mods []Modifier, st *State, mc *ModifierContext) (bool, error) {
	var left, right float64
	for _, m := range mods {
		p := m.(*Parenthesis)
		n, err := p.attachedNote()
		if err != nil {
			return false, err
		}
		p.width = mc.profile.GlyphWidth(p.glyph) * n.scale
		switch p.position {
		case PositionLeft:
			p.xShift = st.LeftShift
			left = max(left, p.width)
		case PositionRight:
			p.xShift = st.RightShift
			right = max(right, p.width)
		}
	}
	st.LeftShift += left
	st.RightShift += right
	return true, nil
}

// Draw draws the bracket.
func (p *Parenthesis) Draw(ctx Context) error {
	n, err := p.attachedNote()
	if err != nil {
		return err
	}
	x, y, err := p.startXY()
	if err != nil {
		return err
	}
	if p.position == PositionLeft {
		x -= p.xShift + p.width
	} else {
		x += p.xShift
	}
	ctx.OpenGroup("parenthesis", "")
	applyStyle(ctx, p.style)
	drawGlyphScaled(ctx, n.profile, p.glyph, x, y+p.yShift, n.scale)
	ctx.CloseGroup()
	return nil
}
