package engrave

import (
	"slices"

	"github.com/matzehuels/engrave/pkg/tables"
)

// Justify is the horizontal alignment of text relative to its note.
type Justify int

const (
	JustifyCenter Justify = iota
	JustifyLeft
	JustifyRight
	JustifyCenterStem
)

// VerticalJustify is the vertical placement of text relative to its note.
type VerticalJustify int

const (
	VerticalTop VerticalJustify = iota
	VerticalCenter
	VerticalBottom
	VerticalCenterStem
)

const minAnnotationPadding = 1.0

// Annotation is free text attached to a note, such as a lyric or a
// performance direction.
type Annotation struct {
	ModifierBase
	text     string
	justify  Justify
	vertical VerticalJustify
	font     tables.FontInfo
}

// NewAnnotation returns centred text above the note.
func NewAnnotation(text string) *Annotation {
	a := &Annotation{text: text}
	a.position = PositionAbove
	a.font, _ = tables.FontInfoFor("Annotation")
	return a
}

// Category implements Modifier.
func (*Annotation) Category() Category { return CategoryAnnotation }

// Text returns the annotation text.
func (a *Annotation) Text() string { return a.text }

// SetJustification sets the horizontal alignment.
func (a *Annotation) SetJustification(j Justify) *Annotation {
	a.justify = j
	return a
}

// SetVerticalJustification sets the vertical placement.
func (a *Annotation) SetVerticalJustification(v VerticalJustify) *Annotation {
	a.vertical = v
	if v == VerticalBottom {
		a.position = PositionBelow
	} else {
		a.position = PositionAbove
	}
	return a
}

// SetFont overrides the text font.
func (a *Annotation) SetFont(f tables.FontInfo) *Annotation {
	a.font = f
	return a
}

// noteStemLines is the stem length in lines the text must clear. Only
// plain notes and drawn tab stems count.
func noteStemLines(n *Note) float64 {
	if !n.HasStem() {
		return 0
	}
	if n.kind != KindTab && n.noteType != "n" {
		return 0
	}
	return n.profile.StemHeight * n.scale / n.profile.TextLineHeight
}

func staveLines(n *Note) float64 {
	if n.stave != nil {
		return float64(n.stave.NumLines())
	}
	return 5
}

// stackText claims height text lines above or below n. Text that would
// start inside the stave is pushed out first.
func stackText(n *Note, v VerticalJustify, height float64, st *State) float64 {
	lines := staveLines(n)
	stemDir := Up
	if n.HasStem() {
		stemDir = n.StemDirection()
	}
	switch v {
	case VerticalTop:
		noteLine := n.MaxLine()
		if n.kind == KindTab {
			noteLine = lines - (slices.Min(n.Lines()) + 0.5)
		}
		if stemDir == Up {
			noteLine += noteStemLines(n)
		}
		if noteLine+st.TopTextLine+0.5 < lines {
			line := lines - noteLine
			st.TopTextLine = max(st.TopTextLine, height+line)
			return line
		}
		line := st.TopTextLine
		st.TopTextLine += height
		return line
	case VerticalBottom:
		noteLine := lines - n.MinLine()
		if n.kind == KindTab {
			noteLine = slices.Max(n.Lines())
		}
		if stemDir == Down {
			noteLine += noteStemLines(n)
		}
		if cur := noteLine + st.TextLine + 1; cur < lines {
			line := lines - cur
			st.TextLine = max(st.TextLine, height+line)
			return line
		}
		line := st.TextLine
		st.TextLine += height
		return line
	}
	return st.TextLine
}

// textOverlap claims the part of the text extending past the noteheads
// that is not already covered.
type textOverlap struct {
	left, right   float64
	maxLeftGlyph  float64
	maxRightGlyph float64
}

func (o *textOverlap) add(j Justify, textWidth, glyphWidth float64) {
	switch j {
	case JustifyLeft:
		o.maxLeftGlyph = max(o.maxLeftGlyph, glyphWidth)
		o.left = max(o.left, textWidth) + minAnnotationPadding
	case JustifyRight:
		o.maxRightGlyph = max(o.maxRightGlyph, glyphWidth)
		o.right = max(o.right, textWidth)
	default:
		o.left = max(o.left, textWidth/2) + minAnnotationPadding
		o.right = max(o.right, textWidth/2)
		o.maxLeftGlyph = max(o.maxLeftGlyph, glyphWidth/2)
		o.maxRightGlyph = max(o.maxRightGlyph, glyphWidth/2)
	}
}

func (o *textOverlap) apply(st *State) {
	right := min(max(o.right-o.maxRightGlyph, 0), max(o.right-st.RightShift, 0))
	left := min(max(o.left-o.maxLeftGlyph, 0), max(o.left-st.LeftShift, 0))
	st.LeftShift += left
	st.RightShift += right
}

func formatAnnotations(mods []Modifier, st *State, mc *ModifierContext) (bool, error) {
	var ov textOverlap
	for _, m := range mods {
		a := m.(*Annotation)
		n, err := a.attachedNote()
		if err != nil {
			return false, err
		}
		tm := mc.measurer.Measure(a.text, a.font)
		a.width = tm.Width
		ov.add(a.justify, tm.Width, n.glyphWidth())
		height := (2 + tm.Height) / mc.profile.TextLineHeight
		a.textLine = stackText(n, a.vertical, height, st)
	}
	ov.apply(st)
	return true, nil
}

// textX returns the x where text of width w starts for justification j.
func textX(n *Note, j Justify, index int, w float64) (float64, error) {
	x, _, err := n.ModifierStartXY(PositionAbove, index)
	if err != nil {
		return 0, err
	}
	switch j {
	case JustifyLeft:
		x -= n.glyphWidth() / 2
	case JustifyRight:
		x += n.glyphWidth()/2 - w
	case JustifyCenterStem:
		if n.HasStem() {
			sx, err := n.StemX()
			if err != nil {
				return 0, err
			}
			return sx - w/2, nil
		}
		x -= w / 2
	default:
		x -= w / 2
	}
	return x, nil
}

// textY returns the text baseline for vertical placement v on textLine.
func textY(n *Note, v VerticalJustify, textLine, height float64) (float64, error) {
	stave, err := n.Stave()
	if err != nil {
		return 0, err
	}
	ys, err := n.Ys()
	if err != nil {
		return 0, err
	}
	lineHeight := n.profile.TextLineHeight
	hasStem := n.HasStem() && n.tickContext != nil
	switch v {
	case VerticalBottom:
		y := slices.Max(ys) + (textLine+1)*lineHeight + height
		if hasStem && n.StemDirection() == Down {
			tip, _, err := n.StemExtents()
			if err != nil {
				return 0, err
			}
			y = max(y, tip+height+stave.Spacing()*textLine)
		}
		return y, nil
	case VerticalCenter:
		yt := stave.GetYForTopText(textLine) - 1
		yb := stave.GetYForBottomText(textLine)
		return yt + (yb-yt)/2 + height/2, nil
	case VerticalCenterStem:
		if hasStem {
			tip, base, err := n.StemExtents()
			if err != nil {
				return 0, err
			}
			top, bottom := min(tip, base), max(tip, base)
			return top + (bottom-top)/2 + height/2, nil
		}
		return ys[0] + height/2, nil
	}
	y := slices.Min(ys) - (textLine+1)*lineHeight
	if hasStem && n.StemDirection() == Up {
		tip, _, err := n.StemExtents()
		if err != nil {
			return 0, err
		}
		spacing := stave.Spacing()
		if tip < stave.TopLineY() {
			spacing = lineHeight
		}
		y = min(y, tip-spacing*(textLine+1))
	}
	return y, nil
}

// Draw draws the text.
func (a *Annotation) Draw(ctx Context) error {
	n, err := a.attachedNote()
	if err != nil {
		return err
	}
	ctx.SetFont(a.font)
	m := ctx.MeasureText(a.text)
	x, err := textX(n, a.justify, a.index, m.Width)
	if err != nil {
		return err
	}
	y, err := textY(n, a.vertical, a.textLine, m.Height)
	if err != nil {
		return err
	}
	ctx.OpenGroup("annotation", "")
	applyStyle(ctx, a.style)
	ctx.FillText(a.text, x+a.xShift, y+a.yShift)
	ctx.CloseGroup()
	return nil
}
