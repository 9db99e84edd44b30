package engrave

import (
	"math"
	"testing"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/fraction"
)

func eighths(t *testing.T, keys ...string) []*Note {
	t.Helper()
	out := make([]*Note, len(keys))
	for i, k := range keys {
		out[i] = mustNote(t, "8", k)
	}
	return out
}

// formatBeamed formats notes padded with rests to a full 4/4 measure.
func formatBeamed(t *testing.T, notes []*Note) *Stave {
	t.Helper()
	stave := mustStave(t, 400)
	ts := tickables(notes...)
	v := mustVoice(t, "4/4")
	v.SetMode(VoiceSoft)
	if err := v.AddTickables(ts...); err != nil {
		t.Fatalf("AddTickables() error = %v", err)
	}
	if err := newTestFormatter().FormatToStave([]*Voice{v}, stave); err != nil {
		t.Fatalf("FormatToStave() error = %v", err)
	}
	return stave
}

func stemTips(t *testing.T, notes []*Note) (xs, tips []float64) {
	t.Helper()
	for _, n := range notes {
		s, err := n.Stem()
		if err != nil {
			t.Fatalf("Stem() error = %v", err)
		}
		tip, _ := s.Extents()
		xs = append(xs, s.X)
		tips = append(tips, tip)
	}
	return xs, tips
}

func TestNewBeamErrors(t *testing.T) {
	tests := []struct {
		name  string
		notes func(t *testing.T) []*Note
	}{
		{"single note", func(t *testing.T) []*Note { return eighths(t, "c/4") }},
		{"quarter note", func(t *testing.T) []*Note {
			return []*Note{mustNote(t, "8", "c/4"), mustNote(t, "q", "d/4")}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBeam(tt.notes(t), false); !errors.Is(err, errors.ErrCodeBadArguments) {
				t.Errorf("NewBeam() error = %v, want BAD_ARGUMENTS", err)
			}
		})
	}
}

func TestBeamStemDirection(t *testing.T) {
	tests := []struct {
		name     string
		notes    func(t *testing.T) []*Note
		autoStem bool
		want     Direction
	}{
		{"low notes auto", func(t *testing.T) []*Note { return eighths(t, "c/4", "e/4") }, true, Up},
		{"high notes auto", func(t *testing.T) []*Note { return eighths(t, "a/5", "f/5") }, true, Down},
		{"middle line auto", func(t *testing.T) []*Note { return eighths(t, "b/4", "b/4") }, true, Down},
		{"first note decides", func(t *testing.T) []*Note {
			return []*Note{mustStemNote(t, "8", Down, "c/4"), mustStemNote(t, "8", Up, "d/4")}
		}, false, Down},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := tt.notes(t)
			b, err := NewBeam(notes, tt.autoStem)
			if err != nil {
				t.Fatalf("NewBeam() error = %v", err)
			}
			if b.StemDirection() != tt.want {
				t.Errorf("StemDirection() = %v, want %v", b.StemDirection(), tt.want)
			}
			for i, n := range notes {
				if n.StemDirection() != tt.want {
					t.Errorf("note %d StemDirection() = %v, want %v", i, n.StemDirection(), tt.want)
				}
				if n.Beam() != b {
					t.Errorf("note %d not bound to beam", i)
				}
			}
		})
	}
}

func TestBeamCount(t *testing.T) {
	notes := []*Note{mustNote(t, "8", "c/5"), mustNote(t, "16", "c/5"), mustNote(t, "16", "c/5")}
	b, err := NewBeam(notes, false)
	if err != nil {
		t.Fatalf("NewBeam() error = %v", err)
	}
	if b.BeamCount() != 2 {
		t.Errorf("BeamCount() = %d, want 2", b.BeamCount())
	}
}

func TestBeamFlatOnSameLine(t *testing.T) {
	notes := eighths(t, "b/4", "b/4", "b/4", "b/4")
	b, err := NewBeam(notes, false)
	if err != nil {
		t.Fatalf("NewBeam() error = %v", err)
	}
	formatBeamed(t, notes)

	if b.Slope() != 0 {
		t.Errorf("Slope() = %v, want 0", b.Slope())
	}
	if b.YShift() != 0 {
		t.Errorf("YShift() = %v, want 0", b.YShift())
	}
	_, tips := stemTips(t, notes)
	for i, tip := range tips {
		if !approx(tip, tips[0]) {
			t.Errorf("stem %d tip = %v, want %v", i, tip, tips[0])
		}
	}
}

func TestBeamStemsReachBeam(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		dir  Direction
	}{
		{"rising up stems", []string{"c/4", "e/4", "g/4", "b/4"}, Up},
		{"falling down stems", []string{"a/5", "f/5", "d/5", "b/4"}, Down},
		{"zig zag", []string{"c/4", "a/4", "d/4", "f/4"}, Up},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := make([]*Note, len(tt.keys))
			for i, k := range tt.keys {
				notes[i] = mustStemNote(t, "8", tt.dir, k)
			}
			b, err := NewBeam(notes, false)
			if err != nil {
				t.Fatalf("NewBeam() error = %v", err)
			}
			formatBeamed(t, notes)

			if s := b.Slope(); s < b.opts.MinSlope-1e-9 || s > b.opts.MaxSlope+1e-9 {
				t.Errorf("Slope() = %v outside [%v, %v]", s, b.opts.MinSlope, b.opts.MaxSlope)
			}
			xs, tips := stemTips(t, notes)
			for i := range notes {
				want := tips[0] + (xs[i]-xs[0])*b.Slope()
				if math.Abs(tips[i]-want) > 1e-6 {
					t.Errorf("stem %d tip = %v, beam at %v", i, tips[i], want)
				}
				if notes[i].beamExtension < -1e-9 {
					t.Errorf("stem %d shortened by %v", i, -notes[i].beamExtension)
				}
			}
		})
	}
}

func TestBeamPostFormatIdempotent(t *testing.T) {
	notes := eighths(t, "c/4", "g/4", "e/4", "a/4")
	b, err := NewBeam(notes, true)
	if err != nil {
		t.Fatalf("NewBeam() error = %v", err)
	}
	formatBeamed(t, notes)
	_, before := stemTips(t, notes)
	if err := b.PostFormat(); err != nil {
		t.Fatalf("PostFormat() error = %v", err)
	}
	b.invalidate()
	if err := b.PostFormat(); err != nil {
		t.Fatalf("PostFormat() after invalidate error = %v", err)
	}
	_, after := stemTips(t, notes)
	for i := range before {
		if !approx(before[i], after[i]) {
			t.Errorf("stem %d tip = %v after relayout, want %v", i, after[i], before[i])
		}
	}
}

func TestBeamFlatBeams(t *testing.T) {
	notes := eighths(t, "c/4", "e/4", "g/4", "c/5")
	b, err := NewBeam(notes, false)
	if err != nil {
		t.Fatalf("NewBeam() error = %v", err)
	}
	b.SetFlatBeams(0)
	formatBeamed(t, notes)

	if b.Slope() != 0 {
		t.Errorf("Slope() = %v, want 0", b.Slope())
	}
	_, tips := stemTips(t, notes)
	for i, tip := range tips {
		if !approx(tip, tips[0]) {
			t.Errorf("stem %d tip = %v, want flat at %v", i, tip, tips[0])
		}
	}
	ys, _ := notes[3].Ys()
	if tips[0] > ys[0]-b.opts.MinFlatBeamOffset {
		t.Errorf("flat beam at %v does not clear highest head %v", tips[0], ys[0])
	}
}

func TestBeamLookupDirection(t *testing.T) {
	b := &Beam{}
	tests := []struct {
		name             string
		duration         string
		prev, tick, next int64
		want             PartialDirection
	}{
		{"between eighths", "16", 2048, 1024, 2048, PartialBoth},
		{"after sixteenth", "32", 1024, 512, 2048, PartialLeft},
		{"before sixteenth", "32", 2048, 512, 1024, PartialRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.lookupDirection(tt.duration, tt.prev, tt.tick, tt.next, 1); got != tt.want {
				t.Errorf("lookupDirection() = %v, want %v", got, tt.want)
			}
		})
	}

	b.SetPartialBeamDirection(1, PartialRight)
	if got := b.lookupDirection("16", 2048, 1024, 2048, 1); got != PartialRight {
		t.Errorf("forced lookupDirection() = %v, want right", got)
	}
}

func TestGenerateBeams(t *testing.T) {
	eighthGroup := []fraction.Fraction{fraction.MustNew(2, 8)}
	halfGroup := []fraction.Fraction{fraction.MustNew(4, 8)}

	tests := []struct {
		name      string
		build     func(t *testing.T) []Tickable
		cfg       BeamConfig
		wantBeams []int
	}{
		{
			name: "eight eighths in quarter groups",
			build: func(t *testing.T) []Tickable {
				return tickables(eighths(t, "c/4", "d/4", "e/4", "f/4", "g/4", "a/4", "b/4", "c/5")...)
			},
			cfg:       BeamConfig{Groups: eighthGroup},
			wantBeams: []int{2, 2, 2, 2},
		},
		{
			name: "rest breaks the group",
			build: func(t *testing.T) []Tickable {
				return []Tickable{mustNote(t, "8", "c/4"), mustNote(t, "8r", "b/4"), mustNote(t, "8", "e/4"), mustNote(t, "8", "f/4")}
			},
			cfg:       BeamConfig{Groups: halfGroup},
			wantBeams: []int{2},
		},
		{
			name: "beamed rests",
			build: func(t *testing.T) []Tickable {
				return []Tickable{mustNote(t, "8", "c/4"), mustNote(t, "8r", "b/4"), mustNote(t, "8", "e/4"), mustNote(t, "8", "f/4")}
			},
			cfg:       BeamConfig{Groups: halfGroup, BeamRests: true},
			wantBeams: []int{4},
		},
		{
			name: "quarters are never beamed",
			build: func(t *testing.T) []Tickable {
				return []Tickable{mustNote(t, "q", "c/4"), mustNote(t, "8", "d/4"), mustNote(t, "8", "e/4")}
			},
			cfg:       BeamConfig{Groups: halfGroup},
			wantBeams: []int{2},
		},
		{
			name: "bar note closes the group",
			build: func(t *testing.T) []Tickable {
				bar, err := NewBarNote(BarSingle)
				if err != nil {
					t.Fatal(err)
				}
				return []Tickable{mustNote(t, "8", "c/4"), mustNote(t, "8", "d/4"), bar, mustNote(t, "8", "e/4"), mustNote(t, "8", "f/4")}
			},
			cfg:       BeamConfig{Groups: halfGroup},
			wantBeams: []int{2, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			beams, err := GenerateBeams(tt.build(t), tt.cfg)
			if err != nil {
				t.Fatalf("GenerateBeams() error = %v", err)
			}
			if len(beams) != len(tt.wantBeams) {
				t.Fatalf("GenerateBeams() made %d beams, want %d", len(beams), len(tt.wantBeams))
			}
			for i, b := range beams {
				if got := len(b.Notes()); got != tt.wantBeams[i] {
					t.Errorf("beam %d has %d notes, want %d", i, got, tt.wantBeams[i])
				}
			}
		})
	}
}

func TestGenerateBeamsPlacesTuplets(t *testing.T) {
	notes := eighths(t, "a/5", "g/5", "f/5")
	tp, err := NewTuplet(notes, TupletOptions{})
	if err != nil {
		t.Fatalf("NewTuplet() error = %v", err)
	}
	beams, err := GenerateBeams(tickables(notes...), BeamConfig{Groups: []fraction.Fraction{fraction.MustNew(2, 8)}})
	if err != nil {
		t.Fatalf("GenerateBeams() error = %v", err)
	}
	if len(beams) != 1 {
		t.Fatalf("GenerateBeams() made %d beams, want 1", len(beams))
	}
	if tp.Location() != TupletBottom {
		t.Errorf("tuplet Location() = %v, want bottom for down stems", tp.Location())
	}
	if tp.Bracketed() {
		t.Error("fully beamed tuplet should not be bracketed")
	}
}

func TestApplyAndGetBeams(t *testing.T) {
	notes := eighths(t, "c/4", "d/4", "e/4", "f/4", "g/4", "a/4", "b/4", "c/5")
	v := mustVoice(t, "4/4", tickables(notes...)...)
	beams, err := ApplyAndGetBeams(v, Down, nil)
	if err != nil {
		t.Fatalf("ApplyAndGetBeams() error = %v", err)
	}
	if len(beams) == 0 {
		t.Fatal("ApplyAndGetBeams() made no beams")
	}
	for i, n := range notes {
		if n.StemDirection() != Down {
			t.Errorf("note %d StemDirection() = %v, want down", i, n.StemDirection())
		}
	}
}

func TestBeamDraw(t *testing.T) {
	notes := []*Note{mustNote(t, "8", "c/5"), mustNote(t, "16", "d/5"), mustNote(t, "16", "e/5")}
	b, err := NewBeam(notes, true)
	if err != nil {
		t.Fatalf("NewBeam() error = %v", err)
	}
	formatBeamed(t, notes)

	rec := &recorder{}
	if err := b.Draw(rec); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if got := rec.count("fill"); got < b.BeamCount() {
		t.Errorf("Draw() filled %d shapes, want at least %d", got, b.BeamCount())
	}
	if got := rec.count("stroke"); got != len(notes) {
		t.Errorf("Draw() stroked %d stems, want %d", got, len(notes))
	}
}
