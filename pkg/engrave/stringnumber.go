package engrave

import (
	"math"

	"github.com/matzehuels/engrave/pkg/tables"
)

// StringNumber is a circled string number.
type StringNumber struct {
	ModifierBase
	number string
	radius float64
	font   tables.FontInfo
}

// NewStringNumber returns a string number placed above the note.
func NewStringNumber(number string) *StringNumber {
	s := &StringNumber{number: number, radius: 8}
	s.position = PositionAbove
	s.font, _ = tables.FontInfoFor("StringNumber")
	return s
}

// Category implements Modifier.
func (*StringNumber) Category() Category { return CategoryStringNumber }

// Number returns the string label.
func (s *StringNumber) Number() string { return s.number }

func formatStringNumbers(mods []Modifier, st *State, mc *ModifierContext) (bool, error) {
	entries := make([]sideEntry, 0, len(mods))
	for _, m := range mods {
		s := m.(*StringNumber)
		n, err := s.attachedNote()
		if err != nil {
			return false, err
		}
		if font, err := mc.profile.FontFor("StringNumber"); err == nil {
			s.font = font
		}
		s.width = s.radius*2 + 4
		if s.position == PositionAbove || s.position == PositionBelow {
			// Stacked vertically on text lines instead.
			line := &st.TopTextLine
			if s.position == PositionBelow {
				line = &st.TextLine
			}
			s.textLine = *line
			*line += (s.radius*2 + 2) / mc.profile.TextLineHeight
			continue
		}
		entries = append(entries, sideEntry{base: &s.ModifierBase, note: n, line: n.heads[s.index].line})
	}
	stackSide(entries, st, 1)
	return true, nil
}

// Draw draws the circle and its label.
func (s *StringNumber) Draw(ctx Context) error {
	n, err := s.attachedNote()
	if err != nil {
		return err
	}
	x, y, err := s.startXY()
	if err != nil {
		return err
	}
	textLineHeight := n.profile.TextLineHeight
	switch s.position {
	case PositionAbove:
		top, _, err := n.VerticalExtents()
		if err != nil {
			return err
		}
		if n.stave != nil {
			top = min(top, n.stave.GetYForTopText(0))
		}
		y = top - s.radius - 4 - s.textLine*textLineHeight
	case PositionBelow:
		_, bottom, err := n.VerticalExtents()
		if err != nil {
			return err
		}
		if n.stave != nil {
			bottom = max(bottom, n.stave.GetYForBottomText(0))
		}
		y = bottom + s.radius + 4 + s.textLine*textLineHeight
	case PositionLeft:
		x -= s.xShift + s.radius + 2
	case PositionRight:
		x += s.xShift + s.radius + 2
	}
	y += s.yShift

	ctx.OpenGroup("stringnumber", "")
	defer ctx.CloseGroup()
	ctx.Save()
	applyStyle(ctx, s.style)
	ctx.SetLineWidth(1.5)
	ctx.BeginPath()
	ctx.Arc(x, y, s.radius, 0, 2*math.Pi, false)
	ctx.Stroke()
	ctx.SetFont(s.font)
	m := ctx.MeasureText(s.number)
	ctx.FillText(s.number, x-m.Width/2, y+4.5)
	ctx.Restore()
	return nil
}
