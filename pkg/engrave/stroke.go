package engrave

import (
	"slices"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/tables"
)

// StrokeType is the kind of chord stroke.
type StrokeType int

const (
	BrushDown StrokeType = iota + 1
	BrushUp
	RollDown
	RollUp
	RasgueadoDown
	RasgueadoUp
	ArpeggioDirectionless
)

// Stroke is a brush, roll or arpeggio sign left of a chord.
type Stroke struct {
	ModifierBase
	kind      StrokeType
	allVoices bool
}

// NewStroke returns a stroke of kind t that spans only its own note.
func NewStroke(t StrokeType) (*Stroke, error) {
	if t < BrushDown || t > ArpeggioDirectionless {
		return nil, errors.New(errors.ErrCodeBadArguments, "unknown stroke type %d", t)
	}
	s := &Stroke{kind: t}
	s.position = PositionLeft
	s.width = 10
	return s, nil
}

// SetAllVoices extends the stroke over every note at the same tick.
func (s *Stroke) SetAllVoices(all bool) *Stroke {
	s.allVoices = all
	return s
}

// Type returns the stroke kind.
func (s *Stroke) Type() StrokeType { return s.kind }

// Category implements Modifier.
func (*Stroke) Category() Category { return CategoryStroke }

func formatStrokes(mods []Modifier, st *State, _ *ModifierContext) (bool, error) {
	w := 0.0
	for _, m := range mods {
		s := m.(*Stroke)
		if _, err := s.attachedNote(); err != nil {
			return false, err
		}
		s.xShift = st.LeftShift
		w = max(w, s.width)
	}
	st.LeftShift += w
	return true, nil
}

// span returns the top and bottom y the stroke covers.
func (s *Stroke) span(n *Note) (top, bottom float64, err error) {
	ys, err := n.Ys()
	if err != nil {
		return 0, 0, err
	}
	top, bottom = slices.Min(ys), slices.Max(ys)
	if s.allVoices && n.modifierContext != nil {
		for _, other := range n.modifierContext.Notes() {
			oys, err := other.Ys()
			if err != nil {
				continue
			}
			top, bottom = min(top, slices.Min(oys)), max(bottom, slices.Max(oys))
		}
	}
	spacing := n.profile.StaveSpace
	if n.stave != nil {
		spacing = n.stave.Spacing()
	}
	if n.kind == KindTab {
		return top - spacing/2, bottom + spacing/2, nil
	}
	return top - spacing/2 - 2, bottom + spacing/2 + 2, nil
}

// Draw draws the stroke line or wiggle and its arrowhead.
func (s *Stroke) Draw(ctx Context) error {
	n, err := s.attachedNote()
	if err != nil {
		return err
	}
	x, _, err := s.startXY()
	if err != nil {
		return err
	}
	top, bottom, err := s.span(n)
	if err != nil {
		return err
	}
	x -= s.xShift + s.width/2

	ctx.OpenGroup("stroke", "")
	defer ctx.CloseGroup()
	ctx.Save()
	defer ctx.Restore()
	applyStyle(ctx, s.style)

	switch s.kind {
	case BrushDown, BrushUp, RasgueadoDown, RasgueadoUp:
		ctx.SetLineWidth(1)
		ctx.BeginPath()
		ctx.MoveTo(x, top)
		ctx.LineTo(x, bottom)
		ctx.Stroke()
	default:
		wiggle := tables.MustGlyph("wiggleArpeggiatoUp")
		step := n.profile.Px(wiggle.Height)
		for y := top + step; y <= bottom; y += step {
			drawGlyph(ctx, n.profile, wiggle, x-n.profile.GlyphWidth(wiggle)/2, y)
		}
	}

	const arrow = 4.0
	switch s.kind {
	case BrushDown, RollDown, RasgueadoDown:
		drawArrowhead(ctx, x, bottom, arrow, Down)
	case BrushUp, RollUp, RasgueadoUp:
		drawArrowhead(ctx, x, top, arrow, Up)
	}
	if s.kind == RasgueadoDown || s.kind == RasgueadoUp {
		font, err := n.profile.FontFor("Stroke")
		if err != nil {
			return err
		}
		ctx.SetFont(font)
		y := top - 4
		if s.kind == RasgueadoDown {
			y = bottom + font.Size + 4
		}
		ctx.FillText("R", x-font.Size/3, y)
	}
	return nil
}

// drawArrowhead fills a triangle whose point is (x, y), pointing dir.
func drawArrowhead(ctx Context, x, y, size float64, dir Direction) {
	back := y + float64(dir)*size*1.5
	ctx.BeginPath()
	ctx.MoveTo(x, y)
	ctx.LineTo(x-size, back)
	ctx.LineTo(x+size, back)
	ctx.ClosePath()
	ctx.Fill()
}
