package engrave

import (
	"math"
	"slices"
	"strconv"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/fraction"
	"github.com/matzehuels/engrave/pkg/tables"
)

// PartialDirection forces which way a lone partial beam points.
type PartialDirection int

const (
	PartialAuto PartialDirection = iota
	PartialLeft
	PartialRight
	PartialBoth
)

// beamLevels are the durations whose beam levels are drawn: a note carries
// the beam of a level when it is shorter than that duration.
var beamLevels = []string{"4", "8", "16", "32", "64"}

var quarterTicks, _ = tables.DurationToTicks("4")

// Beam joins two or more stemmed notes shorter than a quarter. All members
// share one stem direction, which is assigned at construction.
type Beam struct {
	notes     []*Note
	stemDir   Direction
	beamCount int
	opts      tables.BeamProfile
	style     *Style

	breaks              []int
	forcedPartials      map[int]PartialDirection
	secondaryBreakTicks int64
	flatBeamOffset      float64

	slope         float64
	yShift        float64
	postFormatted bool
}

// NewBeam beams notes. With autoStem the direction follows the average line
// of the notes; otherwise the first stemmed note decides. Every note's stem
// direction is then set to the beam's.
func NewBeam(notes []*Note, autoStem bool) (*Beam, error) {
	if len(notes) < 2 {
		return nil, errors.New(errors.ErrCodeBadArguments, "too few notes for beam: %d", len(notes))
	}
	for i, n := range notes {
		if n.IntrinsicTicks() >= quarterTicks {
			return nil, errors.New(errors.ErrCodeBadArguments,
				"note %d: beams can only be applied to notes shorter than a quarter, got %s", i, n.Duration())
		}
	}

	b := &Beam{
		notes: slices.Clone(notes),
		opts:  notes[0].profile.Beam,
	}
	b.stemDir = Up
	for _, n := range notes {
		if n.HasStem() {
			b.stemDir = n.StemDirection()
			break
		}
	}
	if autoStem {
		if notes[0].kind == KindTab {
			weight := 0
			for _, n := range notes {
				weight += int(n.StemDirection())
			}
			b.stemDir = Down
			if weight > -1 {
				b.stemDir = Up
			}
		} else {
			b.stemDir = beamStemDirection(notes)
		}
	}
	for _, n := range notes {
		n.SetStemDirection(b.stemDir)
		n.beam = b
		b.beamCount = max(b.beamCount, tables.BeamCount(n.Duration()))
	}
	return b, nil
}

// beamStemDirection points stems down when the notes sit on or above the
// middle line on average.
func beamStemDirection(notes []*Note) Direction {
	sum := 0.0
	for _, n := range notes {
		for _, h := range n.heads {
			sum += h.props.Line - middleLine
		}
	}
	if sum >= 0 {
		return Down
	}
	return Up
}

// Notes returns the beamed notes.
func (b *Beam) Notes() []*Note { return b.notes }

// StemDirection returns the direction shared by every member.
func (b *Beam) StemDirection() Direction { return b.stemDir }

// BeamCount returns the number of beam levels of the shortest note.
func (b *Beam) BeamCount() int { return b.beamCount }

// Slope returns the computed beam slope in pixels per pixel.
func (b *Beam) Slope() float64 { return b.slope }

// YShift returns the vertical shift applied to clear every stem tip.
func (b *Beam) YShift() float64 { return b.yShift }

// SetStyle sets the paint override for the beam and its stems.
func (b *Beam) SetStyle(s *Style) { b.style = s }

// SetFlatBeams draws the beam horizontally at offset, or at the computed
// average tip when offset is zero.
func (b *Beam) SetFlatBeams(offset float64) {
	b.opts.FlatBeams = true
	b.flatBeamOffset = offset
	b.postFormatted = false
}

// SetShowStemlets draws short stems on rests inside the beam.
func (b *Beam) SetShowStemlets(show bool) {
	b.opts.ShowStemlets = show
	b.postFormatted = false
}

// SetSecondaryBreaks breaks secondary beams every time duration d has
// elapsed.
func (b *Beam) SetSecondaryBreaks(d string) error {
	ticks, err := tables.DurationToTicks(d)
	if err != nil {
		return err
	}
	b.secondaryBreakTicks = ticks
	return nil
}

// BreakSecondaryAt breaks secondary beams after the notes at indices.
func (b *Beam) BreakSecondaryAt(indices ...int) {
	b.breaks = append(b.breaks, indices...)
}

// SetPartialBeamDirection forces the direction of a lone partial beam on the
// note at index.
func (b *Beam) SetPartialBeamDirection(index int, d PartialDirection) {
	if b.forcedPartials == nil {
		b.forcedPartials = make(map[int]PartialDirection)
	}
	b.forcedPartials[index] = d
}

// positioned reports whether every member has been placed on a stave.
func (b *Beam) positioned() bool {
	for _, n := range b.notes {
		if n.stave == nil || n.tickContext == nil {
			return false
		}
	}
	return true
}

// invalidate drops the computed layout so the next PostFormat starts again
// from natural stem lengths.
func (b *Beam) invalidate() {
	b.postFormatted = false
	for _, n := range b.notes {
		n.beamExtension = 0
		n.stemletHeight = 0
	}
}

type stemTip struct {
	x, y float64
}

// naturalTips builds every stem with its unbeamed length and returns the
// stem x and tip y of each note.
func (b *Beam) naturalTips() ([]stemTip, error) {
	tips := make([]stemTip, len(b.notes))
	for i, n := range b.notes {
		s, err := n.Stem()
		if err != nil {
			return nil, err
		}
		tip, _ := s.Extents()
		tips[i] = stemTip{x: s.X, y: tip}
	}
	return tips, nil
}

// PostFormat computes the slope and extends every stem to the beam. It runs
// once; later calls do nothing until the layout changes.
func (b *Beam) PostFormat() error {
	if b.postFormatted {
		return nil
	}
	for _, n := range b.notes {
		n.beamExtension = 0
		n.stemletHeight = 0
	}
	tips, err := b.naturalTips()
	if err != nil {
		return err
	}
	if b.notes[0].kind == KindTab || b.opts.FlatBeams {
		if err := b.calculateFlatSlope(tips); err != nil {
			return err
		}
	} else {
		b.calculateSlope(tips)
	}
	if err := b.applyStemExtensions(tips); err != nil {
		return err
	}
	b.postFormatted = true
	return nil
}

func slopeY(x, firstX, firstY, slope float64) float64 {
	return firstY + (x-firstX)*slope
}

// calculateSlope searches the slope range for the candidate that keeps
// stems closest to their natural length while staying near half the slope
// between the outer stem tips.
func (b *Beam) calculateSlope(tips []stemTip) {
	first, last := tips[0], tips[len(tips)-1]
	initial := 0.0
	if dx := last.x - first.x; dx != 0 {
		initial = (last.y - first.y) / dx
	}
	ideal := initial / 2
	dir := float64(b.stemDir)

	steps := max(b.opts.SlopeIterations, 1)
	minCost := math.MaxFloat64
	bestSlope, bestShift := 0.0, 0.0
	for step := 0; step <= steps; step++ {
		slope := b.opts.MinSlope + (b.opts.MaxSlope-b.opts.MinSlope)*float64(step)/float64(steps)
		extension, shift := 0.0, 0.0
		for i := 1; i < len(tips); i++ {
			n := b.notes[i]
			if !n.HasStem() && !n.IsRest() {
				continue
			}
			adjusted := slopeY(tips[i].x, first.x, first.y, slope) + shift
			tip := tips[i].y
			if tip*dir < adjusted*dir {
				diff := math.Abs(tip - adjusted)
				shift += diff * -dir
				extension += diff * float64(i)
			} else {
				extension += (tip - adjusted) * dir
			}
		}
		cost := b.opts.SlopeCost*math.Abs(ideal-slope) + math.Abs(extension)
		if cost < minCost {
			minCost = cost
			bestSlope, bestShift = slope, shift
		}
	}
	b.slope = bestSlope
	b.yShift = bestShift
}

// calculateFlatSlope places a horizontal beam at the average stem tip,
// pushed out far enough to clear the most extreme notehead.
func (b *Beam) calculateFlatSlope(tips []stemTip) error {
	total, extreme, extremeY := 0.0, 0.0, 0.0
	extremeBeams := 0
	for i, n := range b.notes {
		tip := tips[i].y
		total += tip
		ys, err := n.Ys()
		if err != nil {
			return err
		}
		switch {
		case b.stemDir == Down && extreme < tip:
			extreme, extremeY = tip, slices.Max(ys)
			extremeBeams = tables.BeamCount(n.Duration())
		case b.stemDir == Up && (extreme == 0 || extreme > tip):
			extreme, extremeY = tip, slices.Min(ys)
			extremeBeams = tables.BeamCount(n.Duration())
		}
	}
	offset := total / float64(len(b.notes))
	clearance := b.opts.MinFlatBeamOffset + float64(extremeBeams)*b.opts.Width*1.5
	limit := extremeY + clearance*-float64(b.stemDir)
	if b.stemDir == Down && offset < limit {
		offset = extremeY + clearance
	} else if b.stemDir == Up && offset > limit {
		offset = extremeY - clearance
	}
	switch {
	case b.flatBeamOffset == 0:
		b.flatBeamOffset = offset
	case b.stemDir == Down && offset > b.flatBeamOffset:
		b.flatBeamOffset = offset
	case b.stemDir == Up && offset < b.flatBeamOffset:
		b.flatBeamOffset = offset
	}
	b.slope = 0
	b.yShift = 0
	return nil
}

// beamY returns the y of the beam at the first stem, before slope.
func (b *Beam) beamY(firstTip float64) float64 {
	if b.opts.FlatBeams && b.flatBeamOffset != 0 {
		return b.flatBeamOffset
	}
	return firstTip
}

func (b *Beam) applyStemExtensions(tips []stemTip) error {
	first := tips[0]
	anchor := b.beamY(first.y)
	for i, n := range b.notes {
		beamed := slopeY(tips[i].x, first.x, anchor, b.slope) + b.yShift
		ext := beamed - tips[i].y
		if n.StemDirection() == Up {
			ext = tips[i].y - beamed
		}
		n.beamExtension = ext
		if n.IsRest() && b.opts.ShowStemlets {
			total := float64(b.beamCount-1)*b.opts.Width*1.5 + b.opts.Width
			n.stemletHeight = total + b.opts.StemletExtension
		}
		if err := n.buildStem(); err != nil {
			return err
		}
	}
	return nil
}

// beamLine is one horizontal run of a beam at a single level.
type beamLine struct {
	start, end float64
	hasEnd     bool
}

func getsBeamAt(n *Note, ticks int64) bool { return n.IntrinsicTicks() < ticks }

// beamLines returns the runs of the beam level belonging to duration.
func (b *Beam) beamLines(duration string) ([]beamLine, error) {
	levelTicks, err := tables.DurationToTicks(duration)
	if err != nil {
		return nil, err
	}
	number, _ := tables.DurationToNumber(duration)
	partial := b.opts.PartialBeamLength
	var lines []beamLine
	started, prevBreak := false, false
	tally := 0.0

	for i, n := range b.notes {
		tally += n.Ticks().Value()
		shouldBreak := false
		if number >= 8 {
			shouldBreak = slices.Contains(b.breaks, i)
			if b.secondaryBreakTicks > 0 && tally >= float64(b.secondaryBreakTicks) {
				tally = 0
				shouldBreak = true
			}
		}
		getsBeam := getsBeamAt(n, levelTicks)
		if !getsBeam {
			started = false
			prevBreak = shouldBreak
			continue
		}
		sx, err := n.StemX()
		if err != nil {
			return nil, err
		}
		sx -= n.profile.StemWidth / 2

		var prev, next *Note
		if i > 0 {
			prev = b.notes[i-1]
		}
		if i+1 < len(b.notes) {
			next = b.notes[i+1]
		}
		nextGets := next != nil && getsBeamAt(next, levelTicks)
		prevGets := prev != nil && getsBeamAt(prev, levelTicks)
		alone := prev != nil && next != nil && !prevGets && !nextGets

		if started {
			cur := &lines[len(lines)-1]
			cur.end, cur.hasEnd = sx, true
			if shouldBreak {
				started = false
			}
			prevBreak = shouldBreak
			continue
		}

		cur := beamLine{start: sx}
		started = true
		switch {
		case alone:
			d := b.lookupDirection(duration, prev.IntrinsicTicks(), n.IntrinsicTicks(), next.IntrinsicTicks(), i)
			if d == PartialLeft || d == PartialBoth {
				cur.end = cur.start - partial
			} else {
				cur.end = cur.start + partial
			}
			cur.hasEnd = true
		case !nextGets:
			if (prevBreak || i == 0) && next != nil {
				cur.end = cur.start + partial
			} else {
				cur.end = cur.start - partial
			}
			cur.hasEnd = true
		case shouldBreak:
			cur.end, cur.hasEnd = cur.start-partial, true
			started = false
		}
		lines = append(lines, cur)
		prevBreak = shouldBreak
	}
	if len(lines) > 0 && !lines[len(lines)-1].hasEnd {
		last := &lines[len(lines)-1]
		last.end, last.hasEnd = last.start-partial, true
	}
	return lines, nil
}

// lookupDirection decides which way a partial beam points by halving the
// duration until the neighbours' beaming tells them apart.
func (b *Beam) lookupDirection(duration string, prev, tick, next int64, index int) PartialDirection {
	if d, ok := b.forcedPartials[index]; ok && d != PartialAuto {
		return d
	}
	for duration != "4" {
		number, err := tables.DurationToNumber(duration)
		if err != nil {
			break
		}
		duration = strconv.Itoa(int(number / 2))
		limit, err := tables.DurationToTicks(duration)
		if err != nil {
			break
		}
		prevGets, nextGets, gets := prev < limit, next < limit, tick < limit
		switch {
		case prevGets && nextGets && gets:
			return PartialBoth
		case prevGets && !nextGets && gets:
			return PartialLeft
		case !prevGets && nextGets && gets:
			return PartialRight
		}
	}
	return PartialLeft
}

// Draw draws every member's stem and the beam lines.
func (b *Beam) Draw(ctx Context) error {
	if err := b.PostFormat(); err != nil {
		return err
	}
	ctx.OpenGroup("beam", "")
	defer ctx.CloseGroup()
	ctx.Save()
	defer ctx.Restore()
	applyStyle(ctx, b.style)

	for _, n := range b.notes {
		if n.stem == nil {
			continue
		}
		style := n.style
		if style == nil {
			style = b.style
		}
		n.stem.Draw(ctx, style)
	}

	first := b.notes[0].stem
	tip, _ := first.Extents()
	y := b.beamY(tip)
	firstX := first.X
	thickness := b.opts.Width * float64(b.stemDir)
	for _, d := range beamLevels {
		lines, err := b.beamLines(d)
		if err != nil {
			return err
		}
		for _, l := range lines {
			sy := slopeY(l.start, firstX, y, b.slope)
			ey := slopeY(l.end, firstX, y, b.slope)
			ctx.BeginPath()
			ctx.MoveTo(l.start, sy)
			ctx.LineTo(l.start, sy+thickness)
			ctx.LineTo(l.end+1, ey+thickness)
			ctx.LineTo(l.end+1, ey)
			ctx.ClosePath()
			ctx.Fill()
		}
		y += thickness * 1.5
	}
	return nil
}

// BeamConfig controls automatic beaming.
type BeamConfig struct {
	// Groups are the beat groupings as fractions of a whole note, cycled
	// through the notes. Empty means 2/8.
	Groups []fraction.Fraction
	// StemDirection forces every group's direction when non-zero.
	StemDirection          Direction
	BeamRests              bool
	BeamMiddleOnly         bool
	MaintainStemDirections bool
	ShowStemlets           bool
	// SecondaryBreaks is a duration after which secondary beams break.
	SecondaryBreaks string
	FlatBeams       bool
	FlatBeamOffset  float64
}

// GenerateBeams splits tickables into beat groups and beams every group of
// two or more notes shorter than a quarter. Tuplets touched by the groups
// are placed on the stem side and bracketed unless fully beamed.
func GenerateBeams(ts []Tickable, cfg BeamConfig) ([]*Beam, error) {
	groups := cfg.Groups
	if len(groups) == 0 {
		groups = []fraction.Fraction{fraction.MustNew(2, 8)}
	}
	tickGroups := make([]fraction.Fraction, len(groups))
	for i, g := range groups {
		tickGroups[i] = g.MulInt(tables.Resolution)
	}

	noteGroups := splitBeatGroups(ts, tickGroups)
	noteGroups = sanitizeBeamGroups(noteGroups, cfg)

	for _, group := range noteGroups {
		var dir Direction
		switch {
		case cfg.MaintainStemDirections:
			dir = Up
			for _, n := range group {
				if !n.IsRest() {
					dir = n.StemDirection()
					break
				}
			}
		case cfg.StemDirection != 0:
			dir = cfg.StemDirection
		default:
			dir = beamStemDirection(group)
		}
		for _, n := range group {
			n.SetStemDirection(dir)
		}
	}

	var beams []*Beam
	for _, group := range noteGroups {
		if len(group) < 2 || slices.ContainsFunc(group, func(n *Note) bool { return n.IntrinsicTicks() >= quarterTicks }) {
			continue
		}
		b, err := NewBeam(group, false)
		if err != nil {
			return nil, err
		}
		if cfg.ShowStemlets {
			b.opts.ShowStemlets = true
		}
		if cfg.SecondaryBreaks != "" {
			if err := b.SetSecondaryBreaks(cfg.SecondaryBreaks); err != nil {
				return nil, err
			}
		}
		if cfg.FlatBeams {
			b.SetFlatBeams(cfg.FlatBeamOffset)
		}
		beams = append(beams, b)
	}

	var seen []*Tuplet
	for _, group := range noteGroups {
		var current *Tuplet
		for _, n := range group {
			if tp := n.Tuplet(); tp != nil && tp != current {
				current = tp
				if !slices.Contains(seen, tp) {
					seen = append(seen, tp)
				}
			}
		}
	}
	for _, tp := range seen {
		loc := TupletTop
		if len(tp.notes) > 0 && tp.notes[0].StemDirection() == Down {
			loc = TupletBottom
		}
		tp.SetLocation(loc)
		bracketed := slices.ContainsFunc(tp.notes, func(n *Note) bool { return n.beam == nil })
		tp.SetBracketed(bracketed)
	}
	return beams, nil
}

// splitBeatGroups walks the notes accumulating ticks and closes a group each
// time the current beat group is filled or overflowed. Tick-less tickables
// always close the current group.
func splitBeatGroups(ts []Tickable, tickGroups []fraction.Fraction) [][]*Note {
	var groups [][]*Note
	var current []*Note
	carried := fraction.Fraction{}
	gi := 0
	nextGroup := func() {
		gi = (gi + 1) % len(tickGroups)
	}

	for _, t := range ts {
		n, ok := t.(*Note)
		if !ok || n.ShouldIgnoreTicks() {
			groups = append(groups, current)
			current = nil
			continue
		}
		current = append(current, n)
		perGroup := tickGroups[gi]
		total := carried
		for _, c := range current {
			total = total.Add(c.Ticks())
		}
		number, _ := tables.DurationToNumber(n.Duration())
		unbeamable := number < 8
		if unbeamable && n.Tuplet() != nil {
			perGroup = perGroup.MulInt(2)
		}

		switch {
		case total.GreaterThan(perGroup):
			var next []*Note
			if !unbeamable {
				next = []*Note{current[len(current)-1]}
				current = current[:len(current)-1]
			}
			groups = append(groups, current)
			for {
				carried = total.Sub(tickGroups[gi])
				nextGroup()
				if carried.LessThan(tickGroups[gi]) {
					break
				}
				total = carried
			}
			current = next
		case total.Equals(perGroup):
			groups = append(groups, current)
			carried = fraction.Fraction{}
			current = nil
			nextGroup()
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// sanitizeBeamGroups splits groups at rests, stem direction changes and
// unbeamable durations according to cfg.
func sanitizeBeamGroups(groups [][]*Note, cfg BeamConfig) [][]*Note {
	var out [][]*Note
	for _, group := range groups {
		var temp []*Note
		for i, n := range group {
			firstOrLast := i == 0 || i == len(group)-1
			breakOnRest := !cfg.BeamRests && n.IsRest()
			breakOnEdgeRest := cfg.BeamRests && cfg.BeamMiddleOnly && n.IsRest() && firstOrLast
			breakOnStem := false
			if cfg.MaintainStemDirections && i > 0 && !n.IsRest() && !group[i-1].IsRest() {
				breakOnStem = n.StemDirection() != group[i-1].StemDirection()
			}
			number, _ := tables.DurationToNumber(n.Duration())
			if breakOnRest || breakOnEdgeRest || breakOnStem || number < 8 {
				if len(temp) > 0 {
					out = append(out, temp)
				}
				temp = nil
				if breakOnStem {
					temp = []*Note{n}
				}
				continue
			}
			temp = append(temp, n)
		}
		if len(temp) > 0 {
			out = append(out, temp)
		}
	}
	return out
}

// ApplyAndGetBeams beams a voice using groups, or the default groups of the
// voice's meter when groups is empty.
func ApplyAndGetBeams(v *Voice, dir Direction, groups []fraction.Fraction) ([]*Beam, error) {
	if len(groups) == 0 {
		var err error
		groups, err = tables.DefaultBeamGroups(v.TimeSignature().String())
		if err != nil {
			return nil, err
		}
	}
	return GenerateBeams(v.Tickables(), BeamConfig{Groups: groups, StemDirection: dir})
}
