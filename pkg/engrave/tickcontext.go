package engrave

import (
	"math"

	"github.com/matzehuels/engrave/pkg/fraction"
)

// TickContext is the set of tickables, across all joined voices, that
// start at one tick position. Every member is drawn at the context's x.
type TickContext struct {
	tick      fraction.Fraction
	tickables []Tickable

	notePx               float64
	leftDisplacedHeadPx  float64
	rightDisplacedHeadPx float64
	modLeftPx            float64
	modRightPx           float64
	totalLeftPx          float64
	totalRightPx         float64
	delayedPx            float64

	width   float64
	xBase   float64
	xOffset float64

	maxTicks fraction.Fraction
	minTicks fraction.Fraction
	minSet   bool

	prev, next *TickContext
	lead       int

	preFormatted  bool
	postFormatted bool
}

// NewTickContext returns an empty context at tick.
func NewTickContext(tick fraction.Fraction) *TickContext {
	return &TickContext{tick: tick}
}

// Tick returns the start tick.
func (tc *TickContext) Tick() fraction.Fraction { return tc.tick }

// AddTickable adds t and binds it to this context.
func (tc *TickContext) AddTickable(t Tickable) {
	b := t.Base()
	if !b.ShouldIgnoreTicks() {
		ticks := b.Ticks()
		if ticks.GreaterThan(tc.maxTicks) {
			tc.maxTicks = ticks
		}
		if !tc.minSet || ticks.LessThan(tc.minTicks) {
			tc.minTicks = ticks
			tc.minSet = true
		}
	}
	b.SetTickContext(tc)
	tc.tickables = append(tc.tickables, t)
	tc.preFormatted = false
}

// slotRank orders contexts sharing a tick: tick-less slots first, in the
// order they appear, then the ticked slot.
func (tc *TickContext) slotRank() int {
	if tc.lead == 0 {
		return math.MaxInt
	}
	return tc.lead
}

// Tickables returns the members in insertion order.
func (tc *TickContext) Tickables() []Tickable { return tc.tickables }

// MaxTicks returns the longest member duration.
func (tc *TickContext) MaxTicks() fraction.Fraction { return tc.maxTicks }

// MinTicks returns the shortest member duration, zero if every member
// ignores ticks.
func (tc *TickContext) MinTicks() fraction.Fraction { return tc.minTicks }

// X returns the position relative to the stave's note start.
func (tc *TickContext) X() float64 { return tc.xBase + tc.xOffset }

// SetX places the context and clears any offset.
func (tc *TickContext) SetX(x float64) {
	tc.xBase = x
	tc.xOffset = 0
}

// XBase returns the position before offsets.
func (tc *TickContext) XBase() float64 { return tc.xBase }

// XOffset returns the offset added to the base position.
func (tc *TickContext) XOffset() float64 { return tc.xOffset }

// SetXOffset shifts the context without moving its base.
func (tc *TickContext) SetXOffset(x float64) { tc.xOffset = x }

// Width returns the pre-formatted width.
func (tc *TickContext) Width() float64 { return tc.width }

// TotalLeftPx returns the widest claim left of the noteheads.
func (tc *TickContext) TotalLeftPx() float64 { return tc.totalLeftPx }

// TotalRightPx returns the widest claim right of the noteheads.
func (tc *TickContext) TotalRightPx() float64 { return tc.totalRightPx }

// NotePx returns the widest notehead.
func (tc *TickContext) NotePx() float64 { return tc.notePx }

// DelayedPx returns the room delayed ornaments need after the context.
func (tc *TickContext) DelayedPx() float64 { return tc.delayedPx }

// Prev returns the preceding context in formatting order.
func (tc *TickContext) Prev() *TickContext { return tc.prev }

// Next returns the following context in formatting order.
func (tc *TickContext) Next() *TickContext { return tc.next }

// PreFormat pre-formats every member and takes the widest extent on each
// side. The context width is notehead plus both sides.
func (tc *TickContext) PreFormat() error {
	tc.notePx, tc.leftDisplacedHeadPx, tc.rightDisplacedHeadPx = 0, 0, 0
	tc.modLeftPx, tc.modRightPx = 0, 0
	tc.totalLeftPx, tc.totalRightPx = 0, 0
	tc.delayedPx = 0
	for _, t := range tc.tickables {
		if err := t.PreFormat(); err != nil {
			return err
		}
		m := t.Metrics()
		tc.notePx = max(tc.notePx, m.NotePx)
		tc.leftDisplacedHeadPx = max(tc.leftDisplacedHeadPx, m.LeftDisplacedHeadPx)
		tc.rightDisplacedHeadPx = max(tc.rightDisplacedHeadPx, m.RightDisplacedHeadPx)
		tc.modLeftPx = max(tc.modLeftPx, m.ModLeftPx)
		tc.modRightPx = max(tc.modRightPx, m.ModRightPx)
		tc.totalLeftPx = max(tc.totalLeftPx, m.ModLeftPx+m.LeftDisplacedHeadPx)
		tc.totalRightPx = max(tc.totalRightPx, m.ModRightPx+m.RightDisplacedHeadPx)
		tc.delayedPx = max(tc.delayedPx, m.DelayedPx)
	}
	tc.width = tc.notePx + tc.totalLeftPx + tc.totalRightPx
	tc.preFormatted = true
	return nil
}

// PostFormat post-formats every member.
func (tc *TickContext) PostFormat() error {
	for _, t := range tc.tickables {
		if err := t.PostFormat(); err != nil {
			return err
		}
	}
	tc.postFormatted = true
	return nil
}

// CenterAlignedTickables returns the members drawn in the middle of the
// measure.
func (tc *TickContext) CenterAlignedTickables() []Tickable {
	var out []Tickable
	for _, t := range tc.tickables {
		if t.Base().IsCenterAligned() {
			out = append(out, t)
		}
	}
	return out
}
