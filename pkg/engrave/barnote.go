package engrave

import (
	"math"

	"github.com/matzehuels/engrave/pkg/errors"
)

// BarlineType selects how a bar note is drawn.
type BarlineType int

const (
	BarSingle BarlineType = iota
	BarDouble
	BarEnd
	BarRepeatEnd
	BarRepeatBegin
	BarRepeatBoth
	BarNone
)

var barlineWidths = map[BarlineType]float64{
	BarSingle:      8,
	BarDouble:      12,
	BarEnd:         15,
	BarRepeatEnd:   14,
	BarRepeatBegin: 14,
	BarRepeatBoth:  18,
	BarNone:        0,
}

// BarNote is a bar line inside a voice. It consumes no ticks.
type BarNote struct {
	Tick
	typ BarlineType
}

// NewBarNote returns a bar note of type t.
func NewBarNote(t BarlineType) (*BarNote, error) {
	w, ok := barlineWidths[t]
	if !ok {
		return nil, errors.New(errors.ErrCodeBadArguments, "unknown barline type %d", t)
	}
	b := &BarNote{Tick: newTick(0, nil), typ: t}
	b.ignoreTicks = true
	b.width = w
	return b, nil
}

// Type returns the barline type.
func (b *BarNote) Type() BarlineType { return b.typ }

// PreFormat implements Tickable.
func (b *BarNote) PreFormat() error {
	b.width = barlineWidths[b.typ]
	b.preFormatted = true
	return nil
}

// Metrics implements Tickable.
func (b *BarNote) Metrics() Metrics {
	return Metrics{Width: b.width, NotePx: b.width}
}

// Draw implements Tickable.
func (b *BarNote) Draw(ctx Context) error {
	stave, err := b.Stave()
	if err != nil {
		return err
	}
	x, err := b.AbsoluteX()
	if err != nil {
		return err
	}
	top, bottom := stave.TopLineY(), stave.BottomLineY()
	h := bottom - top

	ctx.OpenGroup("barnote", "")
	defer ctx.CloseGroup()
	ctx.Save()
	defer ctx.Restore()
	applyStyle(ctx, b.style)

	dots := func(dx float64) {
		for _, line := range []float64{1.5, 2.5} {
			ctx.BeginPath()
			ctx.Arc(x+dx, stave.GetYForLine(line), 2, 0, 2*math.Pi, false)
			ctx.Fill()
		}
	}

	switch b.typ {
	case BarSingle:
		ctx.FillRect(x, top, 1, h)
	case BarDouble:
		ctx.FillRect(x, top, 1, h)
		ctx.FillRect(x+3, top, 1, h)
	case BarEnd:
		ctx.FillRect(x, top, 1, h)
		ctx.FillRect(x+3, top, 3, h)
	case BarRepeatBegin:
		ctx.FillRect(x, top, 3, h)
		ctx.FillRect(x+5, top, 1, h)
		dots(10)
	case BarRepeatEnd:
		dots(2)
		ctx.FillRect(x+6, top, 1, h)
		ctx.FillRect(x+9, top, 3, h)
	case BarRepeatBoth:
		dots(2)
		ctx.FillRect(x+6, top, 1, h)
		ctx.FillRect(x+9, top, 3, h)
		ctx.FillRect(x+14, top, 1, h)
		dots(18)
	}
	return nil
}
