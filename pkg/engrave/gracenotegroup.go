package engrave

import (
	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/tables"
)

const (
	graceGroupSpacingStave = 4.0
	graceGroupSpacingTab   = 0.0
	graceBeamWidth         = 3.0
	gracePartialBeamLength = 4.0
)

// GraceNoteGroup is a run of grace notes drawn left of a main note. The
// notes live in their own soft voice, formatted as tightly as possible.
type GraceNoteGroup struct {
	ModifierBase
	notes     []*Note
	voice     *Voice
	formatter *Formatter
	beams     []*Beam
	showSlur  bool
	formatted bool
}

// NewGraceNoteGroup groups notes. With showSlur a slur joins the group to
// the main note.
func NewGraceNoteGroup(notes []*Note, showSlur bool) (*GraceNoteGroup, error) {
	if len(notes) == 0 {
		return nil, errors.New(errors.ErrCodeBadArguments, "grace note group requires at least one note")
	}
	v := NewVoice(tables.TimeSignature{Beats: 4, BeatValue: 4}).SetMode(VoiceSoft)
	ts := make([]Tickable, len(notes))
	for i, n := range notes {
		ts[i] = n
	}
	if err := v.AddTickables(ts...); err != nil {
		return nil, err
	}
	g := &GraceNoteGroup{
		notes:     notes,
		voice:     v,
		showSlur:  showSlur,
		formatter: NewFormatter(WithProfile(notes[0].profile)),
	}
	g.position = PositionLeft
	return g, nil
}

// Category implements Modifier.
func (*GraceNoteGroup) Category() Category { return CategoryGraceNoteGroup }

// Notes returns the grace notes.
func (g *GraceNoteGroup) Notes() []*Note { return g.notes }

// Voice returns the voice holding the grace notes.
func (g *GraceNoteGroup) Voice() *Voice { return g.voice }

// BeamNotes beams the grace notes together with a thin beam. It is a no-op
// for a single note.
func (g *GraceNoteGroup) BeamNotes() error {
	if len(g.notes) < 2 {
		return nil
	}
	b, err := NewBeam(g.notes, false)
	if err != nil {
		return err
	}
	b.opts.Width = graceBeamWidth
	b.opts.PartialBeamLength = gracePartialBeamLength
	g.beams = append(g.beams, b)
	return nil
}

// preFormat lays the grace notes out at their minimum width.
func (g *GraceNoteGroup) preFormat() error {
	if g.formatted {
		return nil
	}
	if err := g.formatter.Format([]*Voice{g.voice}, 0); err != nil {
		return err
	}
	g.width = g.formatter.MinTotalWidth()
	g.formatted = true
	return nil
}

// formatGraceNoteGroups stacks groups leftwards from the space already
// claimed, past any displaced notehead of the main note.
func formatGraceNoteGroups(mods []Modifier, st *State, _ *ModifierContext) (bool, error) {
	shift := 0.0
	var prev *Note
	widest := 0.0
	for _, m := range mods {
		g := m.(*GraceNoteGroup)
		n, err := g.attachedNote()
		if err != nil {
			return false, err
		}
		spacing := graceGroupSpacingStave
		if n.kind == KindTab {
			spacing = graceGroupSpacingTab
		} else if n != prev {
			shift = max(shift, n.leftDisplacedHeadPx)
			prev = n
		}
		if err := g.preFormat(); err != nil {
			return false, err
		}
		g.xShift = st.LeftShift + shift
		widest = max(widest, g.width+spacing)
	}
	st.LeftShift += shift + widest
	return true, nil
}

// Draw places the grace notes left of the main note and draws them with
// their beams and slur.
func (g *GraceNoteGroup) Draw(ctx Context) error {
	n, err := g.attachedNote()
	if err != nil {
		return err
	}
	stave, err := n.Stave()
	if err != nil {
		return err
	}
	left, _, err := n.ModifierStartXY(PositionLeft, 0)
	if err != nil {
		return err
	}
	if !g.formatted {
		return errors.New(errors.ErrCodeUnformattedNote, "grace note group drawn before formatting")
	}

	g.voice.SetStave(stave)
	origin := left - g.xShift - g.width - stave.NoteStartX()
	for _, gn := range g.notes {
		tc, err := gn.TickContext()
		if err != nil {
			return err
		}
		tc.SetXOffset(origin)
	}
	if err := g.formatter.PostFormat(); err != nil {
		return err
	}

	ctx.OpenGroup("gracenotegroup", "")
	defer ctx.CloseGroup()
	if err := g.voice.Draw(ctx); err != nil {
		return err
	}
	for _, b := range g.beams {
		if err := b.Draw(ctx); err != nil {
			return err
		}
	}
	if g.showSlur {
		return g.drawSlur(ctx, n)
	}
	return nil
}

// drawSlur curves from the first grace note to the main note on the side
// away from the grace stems.
func (g *GraceNoteGroup) drawSlur(ctx Context, main *Note) error {
	first := g.notes[0]
	x1, err := first.AbsoluteX()
	if err != nil {
		return err
	}
	x1 += first.glyphWidth() / 2
	x2, err := main.AbsoluteX()
	if err != nil {
		return err
	}
	x2 += main.glyphWidth() / 2
	fy, err := first.Ys()
	if err != nil {
		return err
	}
	my, err := main.Ys()
	if err != nil {
		return err
	}
	dir := -float64(first.StemDirection())
	y1 := fy[0] - dir*5
	y2 := my[0] - dir*5
	cp := 8.0
	if x2-x1 > 20 {
		cp = 10
	}
	ctx.Save()
	defer ctx.Restore()
	applyStyle(ctx, g.style)
	ctx.BeginPath()
	ctx.MoveTo(x1, y1)
	ctx.QuadraticCurveTo((x1+x2)/2, (y1+y2)/2-dir*cp, x2, y2)
	ctx.QuadraticCurveTo((x1+x2)/2, (y1+y2)/2-dir*(cp+3), x1, y1)
	ctx.Fill()
	return nil
}
