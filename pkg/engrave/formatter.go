package engrave

import (
	"cmp"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/fraction"
	"github.com/matzehuels/engrave/pkg/tables"
	"github.com/matzehuels/engrave/pkg/text"
)

// Formatter aligns joined voices on shared tick contexts and distributes
// horizontal space between them.
type Formatter struct {
	profile  *tables.Profile
	measurer text.Measurer
	logger   *log.Logger

	softmaxFactor float64
	maxIterations int

	contexts []*TickContext
	byTick   map[slotKey]*TickContext
	voices   []*Voice
	counts   []int
	total    fraction.Fraction

	minTotalWidth float64
	hasMinWidth   bool
	justifyWidth  float64
	iterations    int
	lossHistory   []float64
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithProfile sets the engraving profile.
func WithProfile(p *tables.Profile) Option { return func(f *Formatter) { f.profile = p } }

// WithMeasurer sets the text measurer used by modifier contexts.
func WithMeasurer(m text.Measurer) Option { return func(f *Formatter) { f.measurer = m } }

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option { return func(f *Formatter) { f.logger = l } }

// WithSoftmaxFactor overrides the profile's duration weighting base.
func WithSoftmaxFactor(v float64) Option { return func(f *Formatter) { f.softmaxFactor = v } }

// WithMaxIterations overrides the profile's convergence bound.
func WithMaxIterations(n int) Option { return func(f *Formatter) { f.maxIterations = n } }

// NewFormatter returns a formatter.
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{}
	for _, opt := range opts {
		opt(f)
	}
	f.profile = resolveProfile(f.profile)
	if f.measurer == nil {
		f.measurer = text.Default()
	}
	if f.logger == nil {
		f.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if f.softmaxFactor <= 0 {
		f.softmaxFactor = f.profile.SoftmaxFactor
	}
	if f.maxIterations <= 0 {
		f.maxIterations = f.profile.MaxIterations
	}
	return f
}

// slotKey identifies a tick context. Tick-less members such as bar lines
// get their own contexts ahead of the ticked members starting at the same
// tick, numbered by lead.
type slotKey struct {
	tick fraction.Fraction
	lead int
}

type mcKey struct {
	stave *Stave
	tick  fraction.Fraction
}

// JoinVoices gives notes that start together on the same stave one shared
// modifier context, so their modifiers and collisions are laid out
// together.
func (f *Formatter) JoinVoices(voices ...*Voice) *Formatter {
	contexts := make(map[mcKey]*ModifierContext)
	for _, v := range voices {
		tick := fraction.Fraction{}
		for _, t := range v.tickables {
			b := t.Base()
			if n, ok := t.(*Note); ok && n.modifierContext == nil {
				k := mcKey{stave: n.stave, tick: tick.Simplify()}
				mc, ok := contexts[k]
				if !ok {
					mc = NewModifierContext(f.profile, f.measurer)
					contexts[k] = mc
				}
				mc.AddNote(n)
			}
			if !b.ShouldIgnoreTicks() {
				tick = tick.Add(b.Ticks())
			}
		}
	}
	return f
}

// CreateTickContexts scans voices in lock step and creates one tick context
// per distinct start tick. Voices must share a capacity and strict voices
// must be complete.
func (f *Formatter) CreateTickContexts(voices ...*Voice) error {
	f.contexts = nil
	f.byTick = make(map[slotKey]*TickContext)
	f.voices = voices
	f.counts = f.counts[:0]
	for _, v := range voices {
		f.counts = append(f.counts, len(v.tickables))
	}
	f.hasMinWidth = false
	if len(voices) == 0 {
		return nil
	}

	f.total = voices[0].TotalTicks()
	for i, v := range voices {
		if !v.TotalTicks().Equals(f.total) {
			return errors.New(errors.ErrCodeTickMismatch,
				"voice %d has capacity %s, voice 0 has %s", i, v.TotalTicks(), f.total)
		}
		if v.Mode() == VoiceStrict && !v.IsComplete() {
			return errors.New(errors.ErrCodeIncompleteVoice,
				"voice %d uses %s of %s ticks", i, v.TicksUsed(), v.TotalTicks())
		}
	}

	// Notes that were never joined still need their own modifier context.
	f.JoinVoices(voices...)

	for _, v := range voices {
		tick := fraction.Fraction{}
		lead := 0
		for _, t := range v.tickables {
			b := t.Base()
			key := slotKey{tick: tick.Simplify()}
			if b.ShouldIgnoreTicks() {
				lead++
				key.lead = lead
			} else {
				lead = 0
			}
			tc, ok := f.byTick[key]
			if !ok {
				tc = NewTickContext(key.tick)
				tc.lead = key.lead
				f.byTick[key] = tc
				f.contexts = append(f.contexts, tc)
			}
			tc.AddTickable(t)
			if !b.ShouldIgnoreTicks() {
				tick = tick.Add(b.Ticks())
			}
		}
		if used := tick; used.GreaterThan(f.total) {
			f.total = used
		}
	}

	slices.SortStableFunc(f.contexts, func(a, b *TickContext) int {
		if c := a.tick.Cmp(b.tick); c != 0 {
			return c
		}
		return cmp.Compare(a.slotRank(), b.slotRank())
	})
	for i, tc := range f.contexts {
		tc.prev, tc.next = nil, nil
		if i > 0 {
			tc.prev = f.contexts[i-1]
			f.contexts[i-1].next = tc
		}
	}
	f.logger.Debug("created tick contexts", "voices", len(voices), "contexts", len(f.contexts))
	return nil
}

// TickContexts returns the contexts in tick order.
func (f *Formatter) TickContexts() []*TickContext { return f.contexts }

// paddingDuration is the longest duration that fits in ticks, used to look
// up the gap after a slot.
func paddingDuration(ticks fraction.Fraction) string {
	v := ticks.Value()
	for _, d := range tables.Durations {
		t, _ := tables.DurationToTicks(d)
		if float64(t) <= v {
			return d
		}
	}
	return tables.Durations[len(tables.Durations)-1]
}

// padding returns the gap between contexts i and i+1, taken from the
// shorter of the two.
func (f *Formatter) padding(i int) float64 {
	a, b := f.contexts[i], f.contexts[i+1]
	ticks := a.MinTicks()
	if bt := b.MinTicks(); !bt.IsZero() && (ticks.IsZero() || bt.LessThan(ticks)) {
		ticks = bt
	}
	if ticks.IsZero() {
		return f.profile.PaddingFor("4")
	}
	return f.profile.PaddingFor(paddingDuration(ticks))
}

// minSpans returns the smallest distance from each context's x to the next
// one's x; the last entry runs to the end of the formatted width.
func (f *Formatter) minSpans() []float64 {
	n := len(f.contexts)
	spans := make([]float64, n)
	for i, tc := range f.contexts {
		spans[i] = tc.Width() - tc.TotalLeftPx() + tc.DelayedPx()
		if i+1 < n {
			spans[i] += f.padding(i) + f.contexts[i+1].TotalLeftPx()
		}
	}
	return spans
}

// preFormat pre-formats every context and records the minimum total width.
func (f *Formatter) preFormat() error {
	for _, tc := range f.contexts {
		if err := tc.PreFormat(); err != nil {
			return err
		}
	}
	f.minTotalWidth = 0
	for i, tc := range f.contexts {
		f.minTotalWidth += tc.Width() + tc.DelayedPx()
		if i+1 < len(f.contexts) {
			f.minTotalWidth += f.padding(i)
		}
	}
	f.hasMinWidth = true
	return nil
}

// PreCalculateMinTotalWidth returns the narrowest width voices can be
// formatted to: every context's width plus the padding between them.
func (f *Formatter) PreCalculateMinTotalWidth(voices ...*Voice) (float64, error) {
	if f.minWidthCurrent(voices) {
		return f.minTotalWidth, nil
	}
	if err := f.CreateTickContexts(voices...); err != nil {
		return 0, err
	}
	if err := f.preFormat(); err != nil {
		return 0, err
	}
	return f.minTotalWidth, nil
}

// minWidthCurrent reports whether the recorded minimum width still holds
// for voices: same voices, no tickables added and every member still
// pre-formatted. Adding a modifier or tuplet clears a note's flag.
func (f *Formatter) minWidthCurrent(voices []*Voice) bool {
	if !f.hasMinWidth || !slices.Equal(f.voices, voices) {
		return false
	}
	for i, v := range voices {
		if len(v.tickables) != f.counts[i] {
			return false
		}
		for _, t := range v.tickables {
			if !t.Base().preFormatted {
				return false
			}
		}
	}
	return true
}

// MinTotalWidth returns the width computed by the last pre-format.
func (f *Formatter) MinTotalWidth() float64 { return f.minTotalWidth }

// JustifyWidth returns the width the last Format call laid out to.
func (f *Formatter) JustifyWidth() float64 { return f.justifyWidth }

// Iterations returns the number of layout passes the last Format took.
func (f *Formatter) Iterations() int { return f.iterations }

// LossHistory returns the Evaluate loss after each layout pass.
func (f *Formatter) LossHistory() []float64 { return f.lossHistory }

// slotTicks returns the time from each context to the next, ending at the
// voice capacity.
func (f *Formatter) slotTicks() []float64 {
	n := len(f.contexts)
	out := make([]float64, n)
	for i, tc := range f.contexts {
		end := f.total
		if i+1 < n {
			end = f.contexts[i+1].tick
		}
		out[i] = end.Sub(tc.tick).Value()
		if out[i] <= 0 {
			out[i] = tc.MaxTicks().Value()
		}
	}
	return out
}

// justify distributes width over the spans. Each span's share follows
// factor^(ticks/total); spans that would fall below their minimum are pinned
// to it and the rest is shared among the others again.
func justify(mins, ticks []float64, width, factor float64) []float64 {
	n := len(mins)
	out := make([]float64, n)
	total := 0.0
	for _, t := range ticks {
		total += t
	}
	weights := make([]float64, n)
	for i, t := range ticks {
		if t <= 0 {
			weights[i] = 0
		} else if total > 0 {
			weights[i] = math.Pow(factor, t/total)
		} else {
			weights[i] = 1
		}
	}

	pinned := make([]bool, n)
	remaining := width
	for round := 0; round < n; round++ {
		sum := 0.0
		for i := range weights {
			if !pinned[i] {
				sum += weights[i]
			}
		}
		if sum == 0 {
			break
		}
		violated := false
		for i := range out {
			if pinned[i] {
				continue
			}
			out[i] = remaining * weights[i] / sum
		}
		for i := range out {
			if !pinned[i] && out[i] < mins[i] {
				out[i] = mins[i]
				pinned[i] = true
				remaining -= mins[i]
				violated = true
			}
		}
		if !violated {
			break
		}
	}
	for i := range out {
		out[i] = max(out[i], mins[i])
	}
	return out
}

// position places the contexts for justifyWidth, or as tightly as possible
// when it is zero.
func (f *Formatter) position(justifyWidth float64) {
	if len(f.contexts) == 0 {
		return
	}
	mins := f.minSpans()
	spans := mins
	lead := f.contexts[0].TotalLeftPx()
	if justifyWidth > 0 {
		spans = justify(mins, f.slotTicks(), justifyWidth-lead, f.softmaxFactor)
	}
	x := lead
	for i, tc := range f.contexts {
		tc.SetX(x)
		x += spans[i]
	}
}

// centerAlign shifts center-aligned tickables to the middle of width.
func (f *Formatter) centerAlign(width float64) {
	for _, tc := range f.contexts {
		for _, t := range tc.CenterAlignedTickables() {
			b := t.Base()
			b.centerXShift = (width-b.Width())/2 - tc.X()
		}
	}
}

// FormatOption tunes a single Format call.
type FormatOption func(*formatParams)

type formatParams struct {
	alignRests bool
}

// WithAlignRests aligns rests inside beams with the neighbouring notes
// before formatting.
func WithAlignRests() FormatOption { return func(p *formatParams) { p.alignRests = true } }

// Format lays voices out to justifyWidth. A width of zero packs the
// contexts as tightly as possible; a width below the minimum is clamped to
// the minimum. Zero voices is a no-op.
//
// Beams on the formatted notes change stem lengths and with them the space
// modifiers claim. Format therefore repeats the layout until the context
// widths stop changing, at most MaxIterations times; the last layout is
// kept if they never settle.
func (f *Formatter) Format(voices []*Voice, justifyWidth float64, opts ...FormatOption) error {
	var params formatParams
	for _, opt := range opts {
		opt(&params)
	}
	if params.alignRests {
		for _, v := range voices {
			AlignRestsToNotes(v.tickables, true, false)
		}
	}
	if err := f.CreateTickContexts(voices...); err != nil {
		return err
	}
	f.lossHistory = f.lossHistory[:0]
	f.iterations = 0
	if len(f.contexts) == 0 {
		return nil
	}

	var prev []float64
	for f.iterations < f.maxIterations {
		f.iterations++
		if f.iterations > 1 {
			for _, tc := range f.contexts {
				for _, t := range tc.tickables {
					if mc := t.Base().modifierContext; mc != nil {
						mc.Invalidate()
					}
				}
			}
		}
		if err := f.preFormat(); err != nil {
			return err
		}
		width := justifyWidth
		if width > 0 && width < f.minTotalWidth {
			f.logger.Debug("justify width below minimum, clamping",
				"requested", width, "minimum", f.minTotalWidth)
			width = f.minTotalWidth
		}
		f.justifyWidth = width
		f.position(width)
		if width > 0 {
			f.centerAlign(width)
		}
		f.lossHistory = append(f.lossHistory, f.Evaluate())

		widths := make([]float64, len(f.contexts))
		for i, tc := range f.contexts {
			widths[i] = tc.Width()
		}
		if prev != nil && slices.Equal(prev, widths) {
			return nil
		}
		prev = widths
		if !f.relayoutBeams() {
			return nil
		}
	}
	f.logger.Debug("format did not converge", "iterations", f.iterations)
	return nil
}

// relayoutBeams recomputes beams on positioned notes and reports whether
// any exist.
func (f *Formatter) relayoutBeams() bool {
	beams := f.beams()
	for _, b := range beams {
		b.invalidate()
		if err := b.PostFormat(); err != nil {
			f.logger.Debug("beam layout failed", "err", err)
		}
	}
	return len(beams) > 0
}

func (f *Formatter) beams() []*Beam {
	var out []*Beam
	seen := make(map[*Beam]bool)
	for _, tc := range f.contexts {
		for _, t := range tc.tickables {
			n, ok := t.(*Note)
			if !ok || n.beam == nil || seen[n.beam] || !n.beam.positioned() {
				continue
			}
			seen[n.beam] = true
			out = append(out, n.beam)
		}
	}
	return out
}

// FormatToStave formats voices to fill the note area of stave and
// post-formats them.
func (f *Formatter) FormatToStave(voices []*Voice, stave *Stave, opts ...FormatOption) error {
	for _, v := range voices {
		if v.stave == nil {
			v.SetStave(stave)
		}
	}
	if err := f.Format(voices, stave.JustifyWidth(), opts...); err != nil {
		return err
	}
	return f.PostFormat()
}

// PostFormat builds stems at the final positions and lays out beams.
func (f *Formatter) PostFormat() error {
	for _, tc := range f.contexts {
		if err := tc.PostFormat(); err != nil {
			return err
		}
	}
	for _, b := range f.beams() {
		b.invalidate()
		if err := b.PostFormat(); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate returns the squared deviation of each span from the share of
// the formatted width its duration would get in a strictly proportional
// layout.
func (f *Formatter) Evaluate() float64 {
	n := len(f.contexts)
	if n < 2 {
		return 0
	}
	ticks := f.slotTicks()
	total := 0.0
	for _, t := range ticks {
		total += t
	}
	first := f.contexts[0].X()
	last := f.contexts[n-1]
	width := last.X() + last.Width() - last.TotalLeftPx() - first
	if f.justifyWidth > 0 {
		width = f.justifyWidth - first
	}
	loss := 0.0
	for i := 0; i+1 < n; i++ {
		expected := width * ticks[i] / total
		actual := f.contexts[i+1].X() - f.contexts[i].X()
		loss += (actual - expected) * (actual - expected)
	}
	return loss
}

// AlignRestsToNotes moves rests next to pitched notes onto the line between
// them. Only beamed rests move unless alignAll is set, and rests inside
// tuplets only move with alignTuplets. Rests placed off the middle line by
// their key stay where they are.
func AlignRestsToNotes(ts []Tickable, alignAll, alignTuplets bool) {
	for i, t := range ts {
		rest, ok := t.(*Note)
		if !ok || !rest.IsRest() || rest.kind != KindStave {
			continue
		}
		if rest.Tuplet() != nil && !alignTuplets {
			continue
		}
		if key := strings.ToLower(rest.keys[0]); key != "b/4" && key != "r/4" {
			continue
		}
		if !alignAll && rest.beam == nil {
			continue
		}
		line := rest.heads[0].props.Line
		switch {
		case i == 0:
			line = lookAheadRestLine(ts, line, i, false)
		default:
			prev, ok := ts[i-1].(*Note)
			if !ok {
				continue
			}
			if prev.IsRest() {
				line = prev.heads[0].props.Line
			} else {
				line = lookAheadRestLine(ts, prev.LineForRest(), i, true)
			}
		}
		_ = rest.SetKeyLine(0, line)
	}
}

func lookAheadRestLine(ts []Tickable, restLine float64, i int, compare bool) float64 {
	next := restLine
	for _, t := range ts[i+1:] {
		n, ok := t.(*Note)
		if ok && !n.IsRest() && !n.ShouldIgnoreTicks() {
			next = n.LineForRest()
			break
		}
	}
	if compare && restLine != next {
		top, bottom := max(restLine, next), min(restLine, next)
		next = math.Round((bottom+(top-bottom)/2)*2) / 2
	}
	return next
}
