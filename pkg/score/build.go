package score

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/engrave/pkg/engrave"
	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/tables"
	"github.com/matzehuels/engrave/pkg/text"
)

const (
	pageMargin     = 10.0
	contentStretch = 1.25
	systemGap      = 20.0
	defaultMeter   = "4/4"
)

// Option configures Build.
type Option func(*builder)

// WithProfile sets the engraving profile.
func WithProfile(p *tables.Profile) Option { return func(b *builder) { b.profile = p } }

// WithMeasurer sets the text measurer used during layout.
func WithMeasurer(m text.Measurer) Option { return func(b *builder) { b.measurer = m } }

// WithLogger sets the logger for build and formatter traces.
func WithLogger(l *log.Logger) Option { return func(b *builder) { b.logger = l } }

type builder struct {
	profile  *tables.Profile
	measurer text.Measurer
	logger   *log.Logger
}

// Measure is a built and formatted measure.
type Measure struct {
	Stave   *engrave.Stave
	Voices  []*engrave.Voice
	Beams   []*engrave.Beam
	Tuplets []*engrave.Tuplet

	// MinWidth is the narrowest the notes could be set.
	MinWidth float64
	// Loss is the formatter's spacing loss for the final layout.
	Loss       float64
	Iterations int
}

// Score is a laid out document ready to draw.
type Score struct {
	Title    string
	Measures []*Measure
	Width    float64
	Height   float64
}

// Build creates, formats and positions every measure of doc.
func Build(doc *Document, opts ...Option) (*Score, error) {
	b := &builder{logger: log.NewWithOptions(io.Discard, log.Options{})}
	for _, opt := range opts {
		opt(b)
	}
	if b.profile == nil {
		p := tables.DefaultProfile()
		b.profile = &p
	}
	if b.measurer == nil {
		b.measurer = text.Default()
	}

	s := &Score{Title: doc.Title}
	x, y := pageMargin, pageMargin
	spacing := doc.SystemSpacing
	right := 0.0
	for i, spec := range doc.Measures {
		m, err := b.measure(spec)
		if err != nil {
			return nil, wrapf(err, "measure %d", i+1)
		}

		sizing, err := b.stave(0, 0, 1000, spec)
		if err != nil {
			return nil, wrapf(err, "measure %d", i+1)
		}
		for _, v := range m.Voices {
			v.SetStave(sizing)
		}
		m.MinWidth, err = b.formatter().PreCalculateMinTotalWidth(m.Voices...)
		if err != nil {
			return nil, wrapf(err, "measure %d", i+1)
		}
		width := spec.Width
		if width <= 0 {
			width = sizing.Width() - sizing.JustifyWidth() + m.MinWidth*contentStretch
		}
		if spacing <= 0 {
			spacing = sizing.Height() + systemGap
		}
		if doc.Width > 0 && x > pageMargin && x+width > doc.Width-pageMargin {
			x, y = pageMargin, y+spacing
		}

		m.Stave, err = b.stave(x, y, width, spec)
		if err != nil {
			return nil, wrapf(err, "measure %d", i+1)
		}
		for _, v := range m.Voices {
			v.SetStave(m.Stave)
		}
		f := b.formatter()
		if err := f.FormatToStave(m.Voices, m.Stave); err != nil {
			return nil, wrapf(err, "measure %d", i+1)
		}
		m.Loss, m.Iterations = f.Evaluate(), f.Iterations()
		b.logger.Debug("formatted measure", "measure", i+1, "width", width,
			"min_width", m.MinWidth, "iterations", m.Iterations, "loss", m.Loss)

		s.Measures = append(s.Measures, m)
		x += width
		right = max(right, x)
		s.Height = y + m.Stave.Height() + pageMargin
	}
	s.Width = right + pageMargin
	if doc.Width > 0 {
		s.Width = doc.Width
	}
	return s, nil
}

// Draw draws every measure.
func (s *Score) Draw(ctx engrave.Context) error {
	for i, m := range s.Measures {
		ctx.OpenGroup("measure", strconv.Itoa(i+1))
		if err := m.draw(ctx); err != nil {
			ctx.CloseGroup()
			return wrapf(err, "draw measure %d", i+1)
		}
		ctx.CloseGroup()
	}
	return nil
}

func (m *Measure) draw(ctx engrave.Context) error {
	if err := m.Stave.Draw(ctx); err != nil {
		return err
	}
	for _, v := range m.Voices {
		if err := v.Draw(ctx); err != nil {
			return err
		}
	}
	for _, bm := range m.Beams {
		if err := bm.Draw(ctx); err != nil {
			return err
		}
	}
	for _, t := range m.Tuplets {
		if err := t.Draw(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) formatter() *engrave.Formatter {
	return engrave.NewFormatter(
		engrave.WithProfile(b.profile),
		engrave.WithMeasurer(b.measurer),
		engrave.WithLogger(b.logger),
	)
}

func (b *builder) stave(x, y, width float64, spec MeasureSpec) (*engrave.Stave, error) {
	opts := engrave.StaveOptions{Clef: spec.Clef, Profile: b.profile}
	if spec.ShowTime {
		opts.TimeSignature = meter(spec)
	}
	return engrave.NewStave(x, y, width, opts)
}

func meter(spec MeasureSpec) string {
	if spec.Time == "" {
		return defaultMeter
	}
	return spec.Time
}

func (b *builder) measure(spec MeasureSpec) (*Measure, error) {
	m := &Measure{}
	for vi, vs := range spec.Voices {
		if err := b.voice(m, spec, vs, vi == 0); err != nil {
			return nil, wrapf(err, "voice %d", vi+1)
		}
	}
	if len(spec.Text) > 0 {
		v, err := b.textVoice(spec)
		if err != nil {
			return nil, err
		}
		m.Voices = append(m.Voices, v)
	}
	if len(m.Voices) == 0 {
		return nil, errors.New(errors.ErrCodeBadArguments, "measure has no voices")
	}
	return m, nil
}

func (b *builder) voice(m *Measure, spec MeasureSpec, vs VoiceSpec, first bool) error {
	events, err := ParseNotes(vs.Notes)
	if err != nil {
		return err
	}
	stem, auto, err := parseStem(vs.Stem)
	if err != nil {
		return err
	}
	notes := make([]*engrave.Note, len(events))
	for i, e := range events {
		n, err := b.note(e, spec.Clef, stem, auto)
		if err != nil {
			return wrapf(err, "note %d", i+1)
		}
		notes[i] = n
	}

	for _, ms := range vs.Modifiers {
		if ms.Note < 0 || ms.Note >= len(notes) {
			return errors.New(errors.ErrCodeBadArguments, "modifier on note %d of %d", ms.Note, len(notes))
		}
		if err := b.modifier(notes[ms.Note], ms); err != nil {
			return err
		}
	}
	for _, gs := range vs.Graces {
		if gs.Note < 0 || gs.Note >= len(notes) {
			return errors.New(errors.ErrCodeBadArguments, "grace notes before note %d of %d", gs.Note, len(notes))
		}
		if err := b.graces(notes[gs.Note], spec.Clef, gs); err != nil {
			return err
		}
	}
	for _, ts := range vs.Tuplets {
		t, err := tuplet(notes, ts)
		if err != nil {
			return err
		}
		m.Tuplets = append(m.Tuplets, t)
	}

	v, err := engrave.NewVoiceFromString(meter(spec))
	if err != nil {
		return err
	}
	mode, err := parseMode(vs.Mode)
	if err != nil {
		return err
	}
	v.SetMode(mode)
	ts := make([]engrave.Tickable, 0, len(notes)+1)
	for _, n := range notes {
		ts = append(ts, n)
	}
	if first && spec.Barline != "" {
		bt, err := parseBarline(spec.Barline)
		if err != nil {
			return err
		}
		bar, err := engrave.NewBarNote(bt)
		if err != nil {
			return err
		}
		ts = append(ts, bar)
	}
	if err := v.AddTickables(ts...); err != nil {
		return err
	}
	m.Voices = append(m.Voices, v)

	for _, idx := range vs.Beams {
		group := make([]*engrave.Note, 0, len(idx))
		for _, i := range idx {
			if i < 0 || i >= len(notes) {
				return errors.New(errors.ErrCodeBadArguments, "beam over note %d of %d", i, len(notes))
			}
			group = append(group, notes[i])
		}
		bm, err := engrave.NewBeam(group, auto)
		if err != nil {
			return err
		}
		m.Beams = append(m.Beams, bm)
	}
	if vs.AutoBeam && len(vs.Beams) == 0 {
		groups, err := tables.DefaultBeamGroups(meter(spec))
		if err != nil {
			return err
		}
		cfg := engrave.BeamConfig{Groups: groups}
		if !auto {
			cfg.StemDirection = stem
		}
		beams, err := engrave.GenerateBeams(v.Tickables(), cfg)
		if err != nil {
			return err
		}
		m.Beams = append(m.Beams, beams...)
	}
	return nil
}

func (b *builder) note(e Event, clef string, stem engrave.Direction, auto bool) (*engrave.Note, error) {
	if e.IsGhost() {
		return engrave.NewGhostNote(e.Duration+strings.Repeat("d", e.Dots), b.profile)
	}
	n, err := engrave.NewStaveNote(engrave.NoteOptions{
		Keys:          e.Keys(),
		Duration:      e.Duration,
		Dots:          e.Dots,
		Type:          e.Type,
		Clef:          clef,
		StemDirection: stem,
		AutoStem:      auto,
		Profile:       b.profile,
	})
	if err != nil {
		return nil, err
	}
	if !e.IsRest() {
		for i, p := range e.Pitches {
			if p.Accidental == "" {
				continue
			}
			acc, err := engrave.NewAccidental(p.Accidental)
			if err != nil {
				return nil, err
			}
			if err := n.AddModifier(acc, i); err != nil {
				return nil, err
			}
		}
	}
	for range e.Dots {
		n.AddDotToAll()
	}
	return n, nil
}

func (b *builder) graces(main *engrave.Note, clef string, gs GraceSpec) error {
	events, err := ParseNotes(gs.Notes)
	if err != nil {
		return wrapf(err, "grace notes")
	}
	notes := make([]*engrave.Note, len(events))
	for i, e := range events {
		n, err := engrave.NewGraceNote(engrave.NoteOptions{
			Keys:     e.Keys(),
			Duration: e.Duration,
			Dots:     e.Dots,
			Clef:     clef,
			Slash:    gs.Slash,
			Profile:  b.profile,
		})
		if err != nil {
			return err
		}
		notes[i] = n
	}
	group, err := engrave.NewGraceNoteGroup(notes, gs.Slur)
	if err != nil {
		return err
	}
	if err := group.BeamNotes(); err != nil {
		return err
	}
	return main.AddModifier(group, 0)
}

func (b *builder) textVoice(spec MeasureSpec) (*engrave.Voice, error) {
	v, err := engrave.NewVoiceFromString(meter(spec))
	if err != nil {
		return nil, err
	}
	v.SetMode(engrave.VoiceSoft)
	for i, ts := range spec.Text {
		d := ts.Duration
		if d == "" {
			d = "q"
		}
		line := ts.Line
		if line == 0 {
			line = 7
		}
		tn, err := engrave.NewTextNote(engrave.TextNoteOptions{
			Text:     ts.Content,
			Duration: d,
			Line:     line,
			Profile:  b.profile,
		})
		if err != nil {
			return nil, wrapf(err, "text %d", i+1)
		}
		tn.SetMeasurer(b.measurer)
		if err := v.AddTickable(tn); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func tuplet(notes []*engrave.Note, ts TupletSpec) (*engrave.Tuplet, error) {
	if ts.Count < 1 || ts.Start < 0 || ts.Start+ts.Count > len(notes) {
		return nil, errors.New(errors.ErrCodeBadArguments,
			"tuplet of %d notes from %d does not fit %d notes", ts.Count, ts.Start, len(notes))
	}
	opts := engrave.TupletOptions{
		NotesOccupied: ts.Occupied,
		Bracketed:     ts.Bracketed,
		Ratioed:       ts.Ratioed,
	}
	switch ts.Location {
	case "", "above":
	case "below":
		opts.Location = engrave.TupletBottom
	default:
		return nil, errors.New(errors.ErrCodeBadArguments, "unknown tuplet location %q", ts.Location)
	}
	return engrave.NewTuplet(notes[ts.Start:ts.Start+ts.Count], opts)
}

func parseStem(s string) (engrave.Direction, bool, error) {
	switch s {
	case "", "auto":
		return 0, true, nil
	case "up":
		return engrave.Up, false, nil
	case "down":
		return engrave.Down, false, nil
	}
	return 0, false, errors.New(errors.ErrCodeBadArguments, "unknown stem direction %q", s)
}

func parseMode(s string) (engrave.VoiceMode, error) {
	switch s {
	case "", "strict":
		return engrave.VoiceStrict, nil
	case "soft":
		return engrave.VoiceSoft, nil
	case "full":
		return engrave.VoiceFull, nil
	}
	return 0, errors.New(errors.ErrCodeBadArguments, "unknown voice mode %q", s)
}

// wrapf adds context to err and keeps its code.
func wrapf(err error, format string, args ...any) error {
	return errors.Wrap(errors.GetCode(err), err, format, args...)
}

var barlines = map[string]engrave.BarlineType{
	"single":       engrave.BarSingle,
	"double":       engrave.BarDouble,
	"end":          engrave.BarEnd,
	"repeat-end":   engrave.BarRepeatEnd,
	"repeat-begin": engrave.BarRepeatBegin,
	"repeat-both":  engrave.BarRepeatBoth,
	"none":         engrave.BarNone,
}

func parseBarline(s string) (engrave.BarlineType, error) {
	if t, ok := barlines[s]; ok {
		return t, nil
	}
	return 0, errors.New(errors.ErrCodeBadArguments, "unknown barline %q", s)
}
