package engrave

import (
	"testing"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/fraction"
)

func quarters(t *testing.T, n int, key string) []*Note {
	t.Helper()
	out := make([]*Note, n)
	for i := range out {
		out[i] = mustNote(t, "q", key)
	}
	return out
}

func TestFormatterAlignsSimultaneousNotes(t *testing.T) {
	upper := quarters(t, 4, "c/5")
	h1, h2 := mustNote(t, "h", "e/4"), mustNote(t, "h", "f/4")
	v1 := mustVoice(t, "4/4", tickables(upper...)...)
	v2 := mustVoice(t, "4/4", h1, h2)

	f := newTestFormatter()
	if err := f.Format([]*Voice{v1, v2}, 300); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	if got := len(f.TickContexts()); got != 4 {
		t.Fatalf("len(TickContexts()) = %d, want 4", got)
	}
	pairs := []struct {
		name string
		a, b *Note
	}{
		{"beat one", upper[0], h1},
		{"beat three", upper[2], h2},
	}
	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			ta, _ := p.a.TickContext()
			tb, _ := p.b.TickContext()
			if ta != tb {
				t.Fatal("notes starting together have different tick contexts")
			}
			if ta.X() != tb.X() {
				t.Errorf("TickContext().X() = %v and %v, want equal", ta.X(), tb.X())
			}
			xa, err := p.a.AbsoluteX()
			if err != nil {
				t.Fatalf("AbsoluteX() error = %v", err)
			}
			xb, _ := p.b.AbsoluteX()
			if !approx(xa-xb, p.a.FormatXShift()) {
				t.Errorf("AbsoluteX() = %v and %v, want offset by FormatXShift() %v", xa, xb, p.a.FormatXShift())
			}
			if p.a.ModifierContext() != p.b.ModifierContext() {
				t.Error("notes starting together on one stave do not share a modifier context")
			}
		})
	}

	if upper[0].FormatXShift() <= 0 || h1.FormatXShift() != 0 {
		t.Errorf("FormatXShift() = %v and %v, want the upper voice pushed clear of the lower stem", upper[0].FormatXShift(), h1.FormatXShift())
	}
	if upper[1].FormatXShift() != 0 {
		t.Errorf("unaccompanied note FormatXShift() = %v, want 0", upper[1].FormatXShift())
	}

	prev := -1.0
	for i, tc := range f.TickContexts() {
		if tc.X() <= prev {
			t.Errorf("context %d x = %v, not after %v", i, tc.X(), prev)
		}
		prev = tc.X()
	}
}

func TestFormatterMinimumWidth(t *testing.T) {
	notes := quarters(t, 4, "b/4")
	v := mustVoice(t, "4/4", tickables(notes...)...)
	f := newTestFormatter()

	minWidth, err := f.PreCalculateMinTotalWidth(v)
	if err != nil {
		t.Fatalf("PreCalculateMinTotalWidth() error = %v", err)
	}
	w := f.TickContexts()[0].Width()
	pad := f.profile.PaddingFor("4")
	if want := 4*w + 3*pad; !approx(minWidth, want) {
		t.Fatalf("PreCalculateMinTotalWidth() = %v, want %v", minWidth, want)
	}

	if err := f.Format([]*Voice{v}, minWidth); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	for i, tc := range f.TickContexts() {
		if want := float64(i) * (w + pad); !approx(tc.X(), want) {
			t.Errorf("context %d x = %v, want %v", i, tc.X(), want)
		}
	}
}

func TestFormatterMinimumWidthTracksChanges(t *testing.T) {
	notes := quarters(t, 4, "b/4")
	v := mustVoice(t, "4/4", tickables(notes...)...)
	f := newTestFormatter()

	plain, err := f.PreCalculateMinTotalWidth(v)
	if err != nil {
		t.Fatalf("PreCalculateMinTotalWidth() error = %v", err)
	}
	first := f.TickContexts()[0]
	again, _ := f.PreCalculateMinTotalWidth(v)
	if again != plain || f.TickContexts()[0] != first {
		t.Errorf("unchanged voice recomputed: %v, want %v from the same contexts", again, plain)
	}

	acc, err := NewAccidental("#")
	if err != nil {
		t.Fatalf("NewAccidental() error = %v", err)
	}
	addMod(t, notes[0], acc, 0)
	withAcc, err := f.PreCalculateMinTotalWidth(v)
	if err != nil {
		t.Fatalf("PreCalculateMinTotalWidth() error = %v", err)
	}
	if withAcc <= plain {
		t.Errorf("PreCalculateMinTotalWidth() after adding an accidental = %v, want more than %v", withAcc, plain)
	}

	soft, err := NewVoiceFromString("4/4")
	if err != nil {
		t.Fatalf("NewVoiceFromString() error = %v", err)
	}
	soft.SetMode(VoiceSoft)
	if err := soft.AddTickables(mustNote(t, "q", "b/4")); err != nil {
		t.Fatalf("AddTickables() error = %v", err)
	}
	short, _ := f.PreCalculateMinTotalWidth(soft)
	if err := soft.AddTickables(mustNote(t, "q", "b/4")); err != nil {
		t.Fatalf("AddTickables() error = %v", err)
	}
	if longer, _ := f.PreCalculateMinTotalWidth(soft); longer <= short {
		t.Errorf("PreCalculateMinTotalWidth() after adding a note = %v, want more than %v", longer, short)
	}
}

func TestFormatterClampsNarrowWidth(t *testing.T) {
	v := mustVoice(t, "4/4", tickables(quarters(t, 4, "b/4")...)...)
	f := newTestFormatter()
	minWidth, err := f.PreCalculateMinTotalWidth(v)
	if err != nil {
		t.Fatalf("PreCalculateMinTotalWidth() error = %v", err)
	}

	if err := f.Format([]*Voice{v}, 5); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got := f.JustifyWidth(); !approx(got, minWidth) {
		t.Errorf("JustifyWidth() = %v, want clamped to %v", got, minWidth)
	}
	narrow := xs(f)

	if err := f.Format([]*Voice{v}, minWidth); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got := xs(f); got != narrow {
		t.Errorf("positions at min width = %s, want %s", got, narrow)
	}
}

func TestFormatterErrors(t *testing.T) {
	tests := []struct {
		name   string
		voices func(t *testing.T) []*Voice
		code   errors.Code
	}{
		{
			name: "capacity mismatch",
			voices: func(t *testing.T) []*Voice {
				return []*Voice{
					mustVoice(t, "4/4", tickables(quarters(t, 4, "b/4")...)...),
					mustVoice(t, "3/4", tickables(quarters(t, 3, "b/4")...)...),
				}
			},
			code: errors.ErrCodeTickMismatch,
		},
		{
			name: "incomplete strict voice",
			voices: func(t *testing.T) []*Voice {
				return []*Voice{mustVoice(t, "4/4", tickables(quarters(t, 3, "b/4")...)...)}
			},
			code: errors.ErrCodeIncompleteVoice,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestFormatter().Format(tt.voices(t), 300)
			if !errors.Is(err, tt.code) {
				t.Errorf("Format() error = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestFormatterPartialVoices(t *testing.T) {
	v := mustVoice(t, "4/4", tickables(quarters(t, 2, "b/4")...)...)
	v.SetMode(VoiceFull)
	f := newTestFormatter()
	if err := f.Format([]*Voice{v}, 200); err != nil {
		t.Fatalf("Format() of a full-mode voice error = %v", err)
	}
	if got := len(f.TickContexts()); got != 2 {
		t.Errorf("len(TickContexts()) = %d, want 2", got)
	}
}

func TestFormatterNoVoices(t *testing.T) {
	f := newTestFormatter()
	if err := f.Format(nil, 300); err != nil {
		t.Fatalf("Format(nil) error = %v", err)
	}
	if len(f.TickContexts()) != 0 {
		t.Errorf("TickContexts() = %v, want none", f.TickContexts())
	}
	if f.Iterations() != 0 {
		t.Errorf("Iterations() = %d, want 0", f.Iterations())
	}
}

func TestFormatterIdempotent(t *testing.T) {
	notes := []*Note{mustNote(t, "8", "c/4"), mustNote(t, "8", "e/5"), mustNote(t, "q", "g/4"), mustNote(t, "h", "a/4", "c/5")}
	notes[1].AddDotToAll()
	v := mustVoice(t, "4/4")
	v.SetMode(VoiceSoft)
	if err := v.AddTickables(tickables(notes...)...); err != nil {
		t.Fatalf("AddTickables() error = %v", err)
	}

	f := newTestFormatter()
	if err := f.Format([]*Voice{v}, 350); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	first := xs(f)
	if err := f.Format([]*Voice{v}, 350); err != nil {
		t.Fatalf("second Format() error = %v", err)
	}
	if got := xs(f); got != first {
		t.Errorf("second Format() positions = %s, want %s", got, first)
	}
	if got := len(f.LossHistory()); got != f.Iterations() {
		t.Errorf("len(LossHistory()) = %d, want one per iteration (%d)", got, f.Iterations())
	}
}

func TestFormatterProportionalSpacing(t *testing.T) {
	notes := []*Note{mustNote(t, "h", "b/4"), mustNote(t, "q", "b/4"), mustNote(t, "q", "b/4")}
	v := mustVoice(t, "4/4", tickables(notes...)...)
	f := newTestFormatter()
	if err := f.Format([]*Voice{v}, 400); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	tcs := f.TickContexts()
	half := tcs[1].X() - tcs[0].X()
	quarter := tcs[2].X() - tcs[1].X()
	if half <= quarter {
		t.Errorf("half note span %v not wider than quarter span %v", half, quarter)
	}
	if f.Evaluate() < 0 {
		t.Errorf("Evaluate() = %v, want non-negative", f.Evaluate())
	}
}

func TestFormatterBarNoteSlot(t *testing.T) {
	bar, err := NewBarNote(BarSingle)
	if err != nil {
		t.Fatalf("NewBarNote() error = %v", err)
	}
	notes := quarters(t, 4, "b/4")
	v := mustVoice(t, "4/4", notes[0], notes[1], bar, notes[2], notes[3])

	f := newTestFormatter()
	if err := f.Format([]*Voice{v}, 300); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	tcs := f.TickContexts()
	if len(tcs) != 5 {
		t.Fatalf("len(TickContexts()) = %d, want 5", len(tcs))
	}
	barTC, _ := bar.TickContext()
	noteTC, _ := notes[2].TickContext()
	if barTC == noteTC {
		t.Fatal("bar note shares a tick context with the note after it")
	}
	if tcs[2] != barTC || tcs[3] != noteTC {
		t.Error("bar note context is not ordered before the note at the same tick")
	}
	if !barTC.Tick().Equals(fraction.Int(8192)) {
		t.Errorf("bar context tick = %v, want 8192", barTC.Tick())
	}
	if barTC.X() >= noteTC.X() {
		t.Errorf("bar x = %v, want before note x %v", barTC.X(), noteTC.X())
	}
}

func TestFormatToStave(t *testing.T) {
	stave := mustStave(t, 400)
	notes := quarters(t, 4, "g/4")
	v := mustVoice(t, "4/4", tickables(notes...)...)

	f := newTestFormatter()
	if err := f.FormatToStave([]*Voice{v}, stave); err != nil {
		t.Fatalf("FormatToStave() error = %v", err)
	}
	want := stave.NoteEndX() - stave.NoteStartX() - stavePadding
	if got := f.JustifyWidth(); !approx(got, want) {
		t.Errorf("JustifyWidth() = %v, want %v", got, want)
	}
	for i, n := range notes {
		if _, err := n.Stem(); err != nil {
			t.Errorf("note %d Stem() error = %v", i, err)
		}
		x, err := n.AbsoluteX()
		if err != nil {
			t.Fatalf("AbsoluteX() error = %v", err)
		}
		if x < stave.NoteStartX() || x > stave.NoteEndX() {
			t.Errorf("note %d x = %v outside [%v, %v]", i, x, stave.NoteStartX(), stave.NoteEndX())
		}
	}
}

func TestAlignRestsToNotes(t *testing.T) {
	tests := []struct {
		name     string
		alignAll bool
		want     float64
	}{
		{"align all", true, 4},
		{"unbeamed rest stays", false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest := mustNote(t, "qr", "b/4")
			ts := []Tickable{mustNote(t, "q", "c/5"), rest, mustNote(t, "q", "e/5")}
			AlignRestsToNotes(ts, tt.alignAll, false)
			if got := rest.Lines()[0]; got != tt.want {
				t.Errorf("rest line = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPaddingDuration(t *testing.T) {
	tests := []struct {
		ticks int64
		want  string
	}{
		{4096, "4"},
		{6144, "4"},
		{2048, "8"},
		{16384, "1"},
		{3, "1024"},
	}
	for _, tt := range tests {
		if got := paddingDuration(fraction.Int(tt.ticks)); got != tt.want {
			t.Errorf("paddingDuration(%d) = %q, want %q", tt.ticks, got, tt.want)
		}
	}
}

func TestJustifyPinsShortSpans(t *testing.T) {
	mins := []float64{50, 5, 5}
	got := justify(mins, []float64{1, 1, 1}, 90, 10)
	if got[0] != 50 {
		t.Errorf("span 0 = %v, want pinned to 50", got[0])
	}
	if !approx(got[1], 20) || !approx(got[2], 20) {
		t.Errorf("remaining spans = %v, %v, want 20 each", got[1], got[2])
	}
}
