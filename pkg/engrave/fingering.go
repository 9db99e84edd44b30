package engrave

import (
	"slices"

	"github.com/matzehuels/engrave/pkg/tables"
)

// FretHandFinger is a left-hand fingering number, or "T" for the thumb.
type FretHandFinger struct {
	ModifierBase
	finger string
	font   tables.FontInfo
}

// NewFretHandFinger returns a fingering placed left of the notehead.
func NewFretHandFinger(finger string) *FretHandFinger {
	f := &FretHandFinger{finger: finger}
	f.position = PositionLeft
	f.font, _ = tables.FontInfoFor("FretHandFinger")
	return f
}

// Category implements Modifier.
func (*FretHandFinger) Category() Category { return CategoryFretHandFinger }

// Finger returns the fingering text.
func (f *FretHandFinger) Finger() string { return f.finger }

// sideEntry is a modifier stacked horizontally beside a key.
type sideEntry struct {
	base *ModifierBase
	note *Note
	line float64
}

// stackSide lays out modifiers placed left or right of their keys. Entries
// are walked top line first; several modifiers on one key step outward,
// each new key starts again next to the space already claimed. Above and
// below placements take no horizontal space.
func stackSide(entries []sideEntry, st *State, spacing float64) {
	slices.SortStableFunc(entries, func(a, b sideEntry) int {
		switch {
		case a.line > b.line:
			return -1
		case a.line < b.line:
			return 1
		}
		return 0
	})

	var left, right float64
	var shiftL, shiftR float64
	var lastNote *Note
	lastLine := 0.0
	for i, e := range entries {
		if i == 0 || e.note != lastNote || e.line != lastLine {
			shiftL, shiftR = st.LeftShift, st.RightShift
		}
		w := e.base.width + spacing
		switch e.base.position {
		case PositionLeft:
			e.base.xShift = shiftL
			shiftL += w
			left = max(left, shiftL-st.LeftShift)
		case PositionRight:
			e.base.xShift = shiftR
			shiftR += w
			right = max(right, shiftR-st.RightShift)
		}
		lastNote, lastLine = e.note, e.line
	}
	st.LeftShift += left
	st.RightShift += right
}

func formatFretHandFingers(mods []Modifier, st *State, mc *ModifierContext) (bool, error) {
	entries := make([]sideEntry, 0, len(mods))
	for _, m := range mods {
		f := m.(*FretHandFinger)
		n, err := f.attachedNote()
		if err != nil {
			return false, err
		}
		if font, err := mc.profile.FontFor("FretHandFinger"); err == nil {
			f.font = font
		}
		f.width = mc.measurer.Measure(f.finger, f.font).Width
		entries = append(entries, sideEntry{base: &f.ModifierBase, note: n, line: n.heads[f.index].line})
	}
	stackSide(entries, st, 1)
	return true, nil
}

// Draw draws the fingering text.
func (f *FretHandFinger) Draw(ctx Context) error {
	if _, err := f.attachedNote(); err != nil {
		return err
	}
	x, y, err := f.startXY()
	if err != nil {
		return err
	}
	switch f.position {
	case PositionAbove:
		x -= 4
		y -= 12
	case PositionBelow:
		x -= 2
		y += 10
	case PositionLeft:
		x -= f.xShift + f.width
	case PositionRight:
		x += f.xShift + 1
	}
	ctx.OpenGroup("frethandfinger", "")
	applyStyle(ctx, f.style)
	ctx.SetFont(f.font)
	ctx.FillText(f.finger, x, y+f.yShift+4)
	ctx.CloseGroup()
	return nil
}
