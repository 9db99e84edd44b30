package engrave

import (
	"math"
	"slices"
)

// voiceSettings is the vertical footprint of one voice's note at a tick.
type voiceSettings struct {
	note      *Note
	line      float64 // lowest key line
	minLine   float64 // lower bound including stem or rest glyph
	maxLine   float64 // upper bound including stem or rest glyph
	isRest    bool
	stemDir   Direction
	voiceWide float64 // horizontal shift that clears this note
}

func newVoiceSettings(n *Note) voiceSettings {
	lines := n.Lines()
	lo, hi := slices.Min(lines), slices.Max(lines)
	s := voiceSettings{
		note:      n,
		line:      lo,
		isRest:    n.IsRest(),
		stemDir:   n.StemDirection(),
		voiceWide: n.glyphWidth(),
	}
	if n.HasDisplacedHeads() {
		s.voiceWide *= 2
	}
	if s.isRest {
		half := 0.5
		if len(n.heads) > 0 {
			half = n.heads[0].glyph.Height / 2
		}
		s.maxLine = lo + half
		s.minLine = lo - half
		return s
	}
	stemLines := 0.0
	if n.HasStem() {
		stemLines = (n.profile.StemHeight*n.scale + n.stemExtension()) / n.profile.StaveSpace
	}
	if s.stemDir == Up {
		s.maxLine = hi + stemLines
		s.minLine = lo
	} else {
		s.maxLine = hi
		s.minLine = lo - stemLines
	}
	return s
}

func (s *voiceSettings) shiftRest(delta float64) {
	s.line += delta
	s.maxLine += delta
	s.minLine += delta
	s.note.restLineShift += delta
	s.note.refresh()
}

// shiftRestVertical moves rest by whole lines in dir until it clears note.
func shiftRestVertical(rest, note *voiceSettings, dir Direction) {
	var delta float64
	if dir == Up {
		delta = math.Max(1, math.Ceil(note.maxLine-rest.minLine))
	} else {
		delta = -math.Max(1, math.Ceil(rest.maxLine-note.minLine))
	}
	rest.shiftRest(delta)
}

// centerRest places rest midway between the upper and lower notes,
// snapped to the nearest half line.
func centerRest(rest, upper, lower *voiceSettings) {
	mid := lower.maxLine + (upper.minLine-lower.maxLine)/2
	mid = math.Round(mid*2) / 2
	rest.shiftRest(mid - rest.line)
}

func (s *voiceSettings) setStem(d Direction) {
	if s.note.beam != nil || !s.note.HasStem() {
		return
	}
	s.stemDir = d
	s.note.stemOverride = d
	s.note.refresh()
}

func dotCount(n *Note) int {
	c := 0
	for _, m := range n.ModifiersByCategory(CategoryDot) {
		if m.Index() == 0 {
			c++
		}
	}
	return c
}

func sameStyle(a, b *Style) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	}
	return *a == *b
}

// isUnison reports whether upper and lower can share a notehead.
func isUnison(u, l *voiceSettings, unison bool) bool {
	if !unison {
		return false
	}
	uHead := u.note.heads[lowestHead(u.note)].glyph.Name
	lHead := l.note.heads[highestHead(l.note)].glyph.Name
	lineDiff := math.Abs(u.line - l.line)
	return uHead == lHead &&
		dotCount(u.note) == dotCount(l.note) &&
		!(lineDiff > 0 && lineDiff < 1) &&
		sameStyle(u.note.style, l.note.style)
}

func lowestHead(n *Note) int {
	idx := 0
	for i, h := range n.heads {
		if h.line < n.heads[idx].line {
			idx = i
		}
	}
	return idx
}

func highestHead(n *Note) int {
	idx := 0
	for i, h := range n.heads {
		if h.line > n.heads[idx].line {
			idx = i
		}
	}
	return idx
}

// formatNotes resolves collisions between simultaneous notes of up to three
// voices. It is a fixed rule set: rests move vertically, notes that would
// overlap move horizontally or flip stems, and anything not covered is left
// alone.
func formatNotes(notes []*Note, st *State, mc *ModifierContext) error {
	var list []voiceSettings
	for _, n := range notes {
		if n.kind != KindStave {
			continue
		}
		list = append(list, newVoiceSettings(n))
	}
	if len(list) < 2 {
		return nil
	}
	if len(list) > 3 {
		list = list[:3]
	}

	xShift := 0.0
	defer func() { st.RightShift += xShift }()

	if len(list) == 2 {
		u, l := &list[0], &list[1]
		if u.stemDir == Down && l.stemDir == Up {
			u, l = l, u
		}
		voiceShift := math.Max(u.voiceWide, l.voiceWide)
		lineSpacing := 0.5
		if u.note.HasStem() && l.note.HasStem() && u.stemDir == l.stemDir {
			lineSpacing = 0
		}

		switch {
		case u.isRest && l.isRest && u.note.duration == l.note.duration:
			l.note.hidden = true
		case u.minLine <= l.maxLine+lineSpacing:
			switch {
			case u.isRest:
				shiftRestVertical(u, l, Up)
			case l.isRest:
				shiftRestVertical(l, u, Down)
			default:
				lineDiff := math.Abs(u.line - l.line)
				switch {
				case u.note.HasStem() && l.note.HasStem():
					if !isUnison(u, l, mc.profile.Unison) {
						xShift = voiceShift + 2
						if u.stemDir == l.stemDir {
							u.note.formatXShift = xShift
						} else {
							l.note.formatXShift = xShift
						}
					} else if u.note.voice != l.note.voice && u.stemDir == l.stemDir {
						if u.line != l.line {
							xShift = voiceShift + 2
							u.note.formatXShift = xShift
						} else if l.stemDir == Up {
							l.setStem(Down)
						}
					}
				case lineDiff < 1:
					xShift = voiceShift + 2
					if u.note.intrinsicTicks < l.note.intrinsicTicks {
						u.note.formatXShift = xShift
					} else {
						l.note.formatXShift = xShift
					}
				case u.note.HasStem():
					u.setStem(-u.stemDir)
				case l.note.HasStem():
					l.setStem(-l.stemDir)
				}
			}
		}
		return nil
	}

	u, m, l := &list[0], &list[1], &list[2]
	voiceShift := math.Max(u.voiceWide, l.voiceWide)

	// A middle rest between two notes is centered when it fits.
	if m.isRest && !u.isRest && !l.isRest {
		if u.minLine <= m.maxLine || m.minLine <= l.maxLine {
			restHeight := m.maxLine - m.minLine
			space := u.minLine - l.maxLine
			if restHeight < space {
				centerRest(m, u, l)
			} else {
				xShift = voiceShift + 2
				m.note.formatXShift = xShift
				l.setStem(Down)
				if u.minLine <= l.maxLine {
					u.setStem(Up)
				}
			}
			return nil
		}
	}

	if u.isRest && m.isRest && l.isRest {
		u.note.hidden = true
		l.note.hidden = true
		return nil
	}

	if m.isRest && u.isRest && m.minLine <= l.maxLine {
		m.note.hidden = true
	}
	if m.isRest && l.isRest && u.minLine <= m.maxLine {
		m.note.hidden = true
	}
	if u.isRest && u.minLine <= m.maxLine {
		shiftRestVertical(u, m, Up)
	}
	if l.isRest && m.minLine <= l.maxLine {
		shiftRestVertical(l, m, Down)
	}
	if u.minLine <= m.maxLine+0.5 || m.minLine <= l.maxLine {
		xShift = voiceShift + 2
		m.note.formatXShift = xShift
		l.setStem(Down)
		if u.minLine <= l.maxLine {
			u.setStem(Up)
		}
	}
	return nil
}
