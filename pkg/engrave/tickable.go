package engrave

import (
	"slices"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/fraction"
	"github.com/matzehuels/engrave/pkg/tables"
)

// Tickable is anything that occupies musical time: notes, rests, bar lines
// and text events. Concrete types embed [Tick].
type Tickable interface {
	Base() *Tick
	PreFormat() error
	PostFormat() error
	Metrics() Metrics
	Draw(ctx Context) error
}

// Metrics is the horizontal breakdown of a pre-formatted tickable.
type Metrics struct {
	Width                float64 // total, equal to the sum of the parts below
	NotePx               float64 // notehead or glyph itself
	ModLeftPx            float64 // modifier space claimed on the left
	ModRightPx           float64 // modifier space claimed on the right
	LeftDisplacedHeadPx  float64
	RightDisplacedHeadPx float64
	DelayedPx            float64 // space a delayed ornament needs after the note
}

// Align is the horizontal alignment of a tickable within its measure.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// Tick holds the state every tickable shares: duration, tuplet scaling,
// context links and horizontal shifts.
type Tick struct {
	intrinsicTicks int64
	multiplier     fraction.Fraction
	ticks          fraction.Fraction
	ignoreTicks    bool

	duration string
	width    float64
	xShift   float64

	formatXShift float64 // collision shift, rebuilt every format pass
	centerXShift float64
	align        Align

	voice           *Voice
	tickContext     *TickContext
	modifierContext *ModifierContext
	tuplets         []*Tuplet
	stave           *Stave
	profile         *tables.Profile
	style           *Style

	preFormatted  bool
	postFormatted bool
}

func newTick(ticks int64, p *tables.Profile) Tick {
	return Tick{
		intrinsicTicks: ticks,
		multiplier:     fraction.Int(1),
		ticks:          fraction.Int(ticks),
		profile:        resolveProfile(p),
	}
}

// Base returns t, giving every embedding type the Tickable accessor.
func (t *Tick) Base() *Tick { return t }

// Ticks returns the effective duration: intrinsic ticks times the tuplet
// multiplier.
func (t *Tick) Ticks() fraction.Fraction { return t.ticks }

// IntrinsicTicks returns the duration before tuplet scaling.
func (t *Tick) IntrinsicTicks() int64 { return t.intrinsicTicks }

// SetIntrinsicTicks replaces the unscaled duration.
func (t *Tick) SetIntrinsicTicks(n int64) {
	t.intrinsicTicks = n
	t.ticks = t.multiplier.MulInt(n)
}

// TickMultiplier returns the product of all enclosing tuplet ratios.
func (t *Tick) TickMultiplier() fraction.Fraction { return t.multiplier }

// ApplyTickMultiplier scales the duration by num/den.
func (t *Tick) ApplyTickMultiplier(num, den int64) {
	t.multiplier = t.multiplier.Mul(fraction.MustNew(num, den))
	t.ticks = t.multiplier.MulInt(t.intrinsicTicks)
}

// ShouldIgnoreTicks reports whether the tickable consumes no time.
func (t *Tick) ShouldIgnoreTicks() bool { return t.ignoreTicks }

// Duration returns the duration code, empty for tick-less elements.
func (t *Tick) Duration() string { return t.duration }

// Tuplets returns the enclosing tuplets, innermost last.
func (t *Tick) Tuplets() []*Tuplet { return t.tuplets }

// Tuplet returns the innermost tuplet, or nil.
func (t *Tick) Tuplet() *Tuplet {
	if len(t.tuplets) == 0 {
		return nil
	}
	return t.tuplets[len(t.tuplets)-1]
}

// AddTuplet pushes tp onto the tuplet stack and scales the duration by
// notesOccupied/numNotes.
func (t *Tick) AddTuplet(tp *Tuplet) {
	t.tuplets = append(t.tuplets, tp)
	t.ApplyTickMultiplier(int64(tp.notesOccupied), int64(tp.numNotes))
}

// RemoveTuplet removes tp and applies the inverse ratio, restoring the
// duration it had before the tuplet was added.
func (t *Tick) RemoveTuplet(tp *Tuplet) {
	i := slices.Index(t.tuplets, tp)
	if i < 0 {
		return
	}
	t.tuplets = slices.Delete(t.tuplets, i, i+1)
	t.ApplyTickMultiplier(int64(tp.numNotes), int64(tp.notesOccupied))
}

// Width returns the pre-formatted width.
func (t *Tick) Width() float64 { return t.width }

// SetWidth overrides the pre-formatted width.
func (t *Tick) SetWidth(w float64) { t.width = w }

// XShift returns the user-supplied horizontal shift.
func (t *Tick) XShift() float64 { return t.xShift }

// SetXShift sets the user-supplied horizontal shift.
func (t *Tick) SetXShift(x float64) { t.xShift = x }

// FormatXShift returns the collision shift assigned by the last format pass.
func (t *Tick) FormatXShift() float64 { return t.formatXShift }

// CenterXShift returns the shift that centers a center-aligned tickable.
func (t *Tick) CenterXShift() float64 { return t.centerXShift }

// SetAlign sets the measure alignment. Center-aligned tickables, typically
// whole-measure rests, are drawn in the middle of the formatted width.
func (t *Tick) SetAlign(a Align) { t.align = a }

// IsCenterAligned reports whether the tickable is center-aligned.
func (t *Tick) IsCenterAligned() bool { return t.align == AlignCenter }

// Voice returns the owning voice, or nil.
func (t *Tick) Voice() *Voice { return t.voice }

// SetStyle sets the paint override.
func (t *Tick) SetStyle(s *Style) { t.style = s }

// Stave returns the stave, failing with NO_STAVE when none is set.
func (t *Tick) Stave() (*Stave, error) {
	if t.stave == nil {
		return nil, errors.New(errors.ErrCodeNoStave, "tickable has no stave")
	}
	return t.stave, nil
}

// TickContext returns the tick context, failing with NO_TICK_CONTEXT.
func (t *Tick) TickContext() (*TickContext, error) {
	if t.tickContext == nil {
		return nil, errors.New(errors.ErrCodeNoTickContext, "tickable has no tick context")
	}
	return t.tickContext, nil
}

// SetTickContext binds t to tc.
func (t *Tick) SetTickContext(tc *TickContext) {
	t.tickContext = tc
	t.preFormatted = false
}

// ModifierContext returns the modifier context, or nil.
func (t *Tick) ModifierContext() *ModifierContext { return t.modifierContext }

// Profile returns the engraving profile.
func (t *Tick) Profile() *tables.Profile { return t.profile }

// AbsoluteX returns the x coordinate of the tickable's origin on the page.
func (t *Tick) AbsoluteX() (float64, error) {
	if t.tickContext == nil {
		return 0, errors.New(errors.ErrCodeNoTickContext, "absolute x requested before formatting")
	}
	x := t.tickContext.X()
	if t.stave != nil {
		x += t.stave.NoteStartX()
	}
	return x + t.xShift + t.formatXShift + t.centerXShift, nil
}

// PostFormat marks the tickable post-formatted. Embedding types override it
// when they have work to do.
func (t *Tick) PostFormat() error {
	t.postFormatted = true
	return nil
}

var defaultProfile = tables.DefaultProfile()

func resolveProfile(p *tables.Profile) *tables.Profile {
	if p == nil {
		return &defaultProfile
	}
	return p
}
