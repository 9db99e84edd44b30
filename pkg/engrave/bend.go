package engrave

import (
	"slices"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/tables"
)

// BendType is the direction of one bend phrase.
type BendType int

const (
	BendUp BendType = iota
	BendDown
)

const (
	bendWidth    = 8.0
	releaseWidth = 8.0
	bendPadding  = 3.0
)

// BendPhrase is one segment of a bend. A zero Width is measured from the
// text during formatting.
type BendPhrase struct {
	Type  BendType
	Text  string
	Width float64
}

// Bend is a guitar bend: a sequence of up and release curves with labels.
type Bend struct {
	ModifierBase
	phrase []BendPhrase
	widths []float64
	font   tables.FontInfo
}

// NewBend returns a single bend labelled text, followed by a release when
// release is set.
func NewBend(text string, release bool) *Bend {
	phrase := []BendPhrase{{Type: BendUp, Text: text}}
	if release {
		phrase = append(phrase, BendPhrase{Type: BendDown})
	}
	b, _ := NewBendPhrase(phrase)
	return b
}

// NewBendPhrase returns a bend built from an explicit phrase.
func NewBendPhrase(phrase []BendPhrase) (*Bend, error) {
	if len(phrase) == 0 {
		return nil, errors.New(errors.ErrCodeBadArguments, "bend requires at least one phrase")
	}
	b := &Bend{phrase: slices.Clone(phrase)}
	b.position = PositionRight
	b.font, _ = tables.FontInfoFor("Bend")
	return b, nil
}

// Category implements Modifier.
func (*Bend) Category() Category { return CategoryBend }

// Phrase returns the bend phrases.
func (b *Bend) Phrase() []BendPhrase { return b.phrase }

// measure sets each phrase width: the curve length or label width, whichever
// is larger, plus padding.
func (b *Bend) measure(mc *ModifierContext) {
	b.widths = make([]float64, len(b.phrase))
	total := 0.0
	for i, p := range b.phrase {
		w := p.Width
		if w == 0 {
			base := bendWidth
			if p.Type == BendDown {
				base = releaseWidth
			}
			w = max(base, mc.measurer.Measure(p.Text, b.font).Width) + bendPadding
		}
		b.widths[i] = w
		total += w
	}
	b.width = total + b.xShift
}

func formatBends(mods []Modifier, st *State, mc *ModifierContext) (bool, error) {
	last := 0.0
	for _, m := range mods {
		b := m.(*Bend)
		n, err := b.attachedNote()
		if err != nil {
			return false, err
		}
		if n.kind == KindTab {
			if pos := slices.Min(n.Lines()); st.TopTextLine < pos {
				st.TopTextLine = pos
			}
		}
		b.xShift = last
		b.measure(mc)
		last = b.width
		b.textLine = st.TopTextLine
	}
	st.RightShift += last
	st.TopTextLine++
	return true, nil
}

// bendShape is one drawing instruction of a bend.
type bendShape int

const (
	shapeBend bendShape = iota
	shapeRelease
	shapeArrowUp
	shapeArrowDown
)

type bendStep struct {
	shape bendShape
	x     float64
	width float64
}

type bendLabel struct {
	x    float64
	text string
}

// planBend turns a phrase into curves, arrowheads and labels, with x
// relative to the start point. Two consecutive ups draw an arrowhead for the
// first, an up then a down draws a release, two downs draw an arrowhead and
// a release. The last phrase always ends in an arrowhead.
func planBend(phrase []BendPhrase, widths []float64, xShift float64) ([]bendStep, []bendLabel) {
	var steps []bendStep
	var labels []bendLabel
	x := 0.0
	var lastX, lastDraw, drawn float64
	var last *BendPhrase
	for i := range phrase {
		p := &phrase[i]
		draw := widths[i] / 2
		if i == 0 {
			draw += xShift
		}
		drawn = draw + lastDraw
		if i == 1 {
			drawn -= xShift
		}
		switch p.Type {
		case BendUp:
			if last != nil && last.Type == BendUp {
				steps = append(steps, bendStep{shape: shapeArrowUp, x: x})
			}
			steps = append(steps, bendStep{shape: shapeBend, x: x, width: drawn})
		case BendDown:
			switch {
			case last == nil:
				drawn = draw
				steps = append(steps, bendStep{shape: shapeRelease, x: x, width: drawn})
			case last.Type == BendUp:
				steps = append(steps, bendStep{shape: shapeRelease, x: x, width: drawn})
			default:
				steps = append(steps, bendStep{shape: shapeArrowDown, x: x})
				steps = append(steps, bendStep{shape: shapeRelease, x: x, width: drawn})
			}
		}
		labels = append(labels, bendLabel{x: x + drawn, text: p.Text})
		last, lastDraw, lastX = p, draw, x
		x += drawn
	}
	if last.Type == BendUp {
		steps = append(steps, bendStep{shape: shapeArrowUp, x: lastX + drawn})
	} else {
		steps = append(steps, bendStep{shape: shapeArrowDown, x: lastX + drawn})
	}
	return steps, labels
}

// Draw draws the curves, arrowheads and labels.
func (b *Bend) Draw(ctx Context) error {
	n, err := b.attachedNote()
	if err != nil {
		return err
	}
	stave, err := n.Stave()
	if err != nil {
		return err
	}
	x, y, err := b.startXY()
	if err != nil {
		return err
	}
	ys, err := n.Ys()
	if err != nil {
		return err
	}
	if len(b.widths) != len(b.phrase) {
		return errors.New(errors.ErrCodeUnformattedNote, "bend drawn before formatting")
	}
	x += 3
	y += 0.5
	spacing := stave.Spacing()
	lowest := slices.Min(ys)
	top := lowest - (b.textLine+1)*spacing
	bendHeight := top + 3
	labelY := top - 1

	steps, labels := planBend(b.phrase, b.widths, b.xShift)

	ctx.OpenGroup("bend", "")
	defer ctx.CloseGroup()
	ctx.Save()
	defer ctx.Restore()
	ctx.SetLineWidth(1.5)
	ctx.SetStrokeStyle("#777")
	ctx.SetFillStyle("#777")
	applyStyle(ctx, b.style)

	for _, s := range steps {
		sx := x + s.x
		switch s.shape {
		case shapeBend:
			ctx.BeginPath()
			ctx.MoveTo(sx, y)
			ctx.QuadraticCurveTo(sx+s.width, y, sx+s.width, bendHeight)
			ctx.Stroke()
		case shapeRelease:
			ctx.BeginPath()
			ctx.MoveTo(sx, bendHeight)
			ctx.QuadraticCurveTo(sx+s.width, bendHeight, sx+s.width, y)
			ctx.Stroke()
		case shapeArrowUp:
			drawArrowhead(ctx, sx, bendHeight, 4, Up)
		case shapeArrowDown:
			drawArrowhead(ctx, sx, y, 4, Down)
		}
	}
	ctx.SetFont(b.font)
	for _, l := range labels {
		if l.text == "" {
			continue
		}
		m := ctx.MeasureText(l.text)
		ctx.FillText(l.text, x+l.x-m.Width/2, labelY)
	}
	return nil
}
