package engrave

import (
	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/fraction"
	"github.com/matzehuels/engrave/pkg/tables"
)

// VoiceMode controls how a voice enforces its capacity.
type VoiceMode int

const (
	// VoiceStrict rejects overflow and must be exactly full before
	// formatting.
	VoiceStrict VoiceMode = iota
	// VoiceSoft accepts any number of ticks.
	VoiceSoft
	// VoiceFull rejects overflow but may be formatted partly filled.
	VoiceFull
)

func (m VoiceMode) String() string {
	switch m {
	case VoiceSoft:
		return "soft"
	case VoiceFull:
		return "full"
	}
	return "strict"
}

// Voice is one ordered rhythmic line with a time-signature capacity.
type Voice struct {
	timeSig   tables.TimeSignature
	mode      VoiceMode
	capacity  fraction.Fraction
	tickables []Tickable
	stave     *Stave
}

// NewVoice returns an empty strict voice holding one measure of ts.
func NewVoice(ts tables.TimeSignature) *Voice {
	return &Voice{timeSig: ts, capacity: ts.TotalTicks()}
}

// NewVoiceFromString parses meter, such as "4/4", and returns a voice.
func NewVoiceFromString(meter string) (*Voice, error) {
	ts, err := tables.ParseTimeSignature(meter)
	if err != nil {
		return nil, err
	}
	return NewVoice(ts), nil
}

// SetMode sets the capacity mode.
func (v *Voice) SetMode(m VoiceMode) *Voice {
	v.mode = m
	return v
}

// Mode returns the capacity mode.
func (v *Voice) Mode() VoiceMode { return v.mode }

// TimeSignature returns the meter.
func (v *Voice) TimeSignature() tables.TimeSignature { return v.timeSig }

// TotalTicks returns the capacity.
func (v *Voice) TotalTicks() fraction.Fraction { return v.capacity }

// TicksUsed sums the ticks of every member that consumes time.
func (v *Voice) TicksUsed() fraction.Fraction {
	total := fraction.Fraction{}
	for _, t := range v.tickables {
		if b := t.Base(); !b.ShouldIgnoreTicks() {
			total = total.Add(b.Ticks())
		}
	}
	return total
}

// IsComplete reports whether a strict or full voice is exactly full. Soft
// voices are always complete.
func (v *Voice) IsComplete() bool {
	if v.mode == VoiceSoft {
		return true
	}
	return v.TicksUsed().Equals(v.capacity)
}

// SmallestTicks returns the shortest member duration.
func (v *Voice) SmallestTicks() fraction.Fraction {
	var smallest fraction.Fraction
	first := true
	for _, t := range v.tickables {
		b := t.Base()
		if b.ShouldIgnoreTicks() {
			continue
		}
		if first || b.Ticks().LessThan(smallest) {
			smallest = b.Ticks()
			first = false
		}
	}
	return smallest
}

// Tickables returns the members in order.
func (v *Voice) Tickables() []Tickable { return v.tickables }

// AddTickable appends t. Strict and full voices fail with TOO_MANY_TICKS
// when t would overflow the capacity, leaving the voice unchanged.
func (v *Voice) AddTickable(t Tickable) error {
	return v.AddTickables(t)
}

// AddTickables appends ts in order. On overflow nothing is added.
func (v *Voice) AddTickables(ts ...Tickable) error {
	used := v.TicksUsed()
	for _, t := range ts {
		if b := t.Base(); !b.ShouldIgnoreTicks() {
			used = used.Add(b.Ticks())
		}
	}
	if v.mode != VoiceSoft && used.GreaterThan(v.capacity) {
		return errors.New(errors.ErrCodeTooManyTicks,
			"too many ticks: %s exceeds voice capacity %s", used, v.capacity)
	}
	for _, t := range ts {
		b := t.Base()
		b.voice = v
		if v.stave != nil && b.stave == nil {
			setTickableStave(t, v.stave)
		}
		v.tickables = append(v.tickables, t)
	}
	return nil
}

// SetStave binds every member to s.
func (v *Voice) SetStave(s *Stave) *Voice {
	v.stave = s
	for _, t := range v.tickables {
		setTickableStave(t, s)
	}
	return v
}

// Stave returns the bound stave, or nil.
func (v *Voice) Stave() *Stave { return v.stave }

// setTickableStave binds t to s, recomputing note geometry.
func setTickableStave(t Tickable, s *Stave) {
	if n, ok := t.(*Note); ok {
		n.SetStave(s)
		return
	}
	t.Base().stave = s
}

// PreFormat pre-formats every member that has not been formatted yet.
func (v *Voice) PreFormat() error {
	for _, t := range v.tickables {
		if err := t.PreFormat(); err != nil {
			return err
		}
	}
	return nil
}

// Draw draws every member.
func (v *Voice) Draw(ctx Context) error {
	for _, t := range v.tickables {
		if err := t.Draw(ctx); err != nil {
			return err
		}
	}
	return nil
}
