package engrave

import (
	"slices"
	"testing"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/text"
)

// must unwraps a constructor result; a failing constructor panics, which
// fails the calling test.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func addMod(t *testing.T, n *Note, m Modifier, index int) {
	t.Helper()
	if err := n.AddModifier(m, index); err != nil {
		t.Fatalf("AddModifier(%s) error = %v", m.Category(), err)
	}
}

func TestDrawMeasure(t *testing.T) {
	stave := mustStave(t, 500)

	chord := mustNote(t, "q", "c/4", "e/4", "g/4")
	addMod(t, chord, must(NewAccidental("#")), 0)
	addMod(t, chord, must(NewStroke(RollDown)), 0)
	addMod(t, chord, NewFretHandFinger("1"), 1)
	addMod(t, chord, must(NewArticulation("a.")), 2)
	addMod(t, chord, NewAnnotation("dolce"), 0)

	e1 := mustNote(t, "8", "d/5")
	addMod(t, e1, must(NewOrnament("tr")), 0)
	addMod(t, e1, NewChordSymbol().AddText("C", SymbolNone).AddSuperscript("7"), 0)
	e2 := mustNote(t, "8", "e/5")
	addMod(t, e2, NewStringNumber("2"), 0)
	if err := AddParentheses(e2, 0); err != nil {
		t.Fatalf("AddParentheses() error = %v", err)
	}
	beam := must(NewBeam([]*Note{e1, e2}, true))

	main := mustNote(t, "q", "a/4")
	graces := []*Note{
		must(NewGraceNote(NoteOptions{Keys: []string{"g/4"}, Duration: "8", Slash: true})),
		must(NewGraceNote(NoteOptions{Keys: []string{"f/4"}, Duration: "8"})),
	}
	group := must(NewGraceNoteGroup(graces, true))
	if err := group.BeamNotes(); err != nil {
		t.Fatalf("BeamNotes() error = %v", err)
	}
	addMod(t, main, group, 0)

	rest := mustNote(t, "qr", "b/4")
	bar := must(NewBarNote(BarEnd))
	v := mustVoice(t, "4/4", chord, e1, e2, main, rest, bar)

	lyric := must(NewTextNote(TextNoteOptions{Text: "la", Duration: "w", Line: 6, Superscript: "2"}))
	lyric.SetMeasurer(text.EstimateMeasurer{})
	words := mustVoice(t, "4/4", lyric)

	f := newTestFormatter()
	if err := f.FormatToStave([]*Voice{v, words}, stave); err != nil {
		t.Fatalf("FormatToStave() error = %v", err)
	}

	if gx, mx := group.XShift(), main.ModifierContext().State().LeftShift; gx > mx {
		t.Errorf("grace group shift %v beyond claimed left space %v", gx, mx)
	}
	chordTC, _ := chord.TickContext()
	if chordTC.TotalLeftPx() <= 0 {
		t.Error("accidental and stroke claimed no space left of the chord")
	}

	rec := &recorder{}
	if err := stave.Draw(rec); err != nil {
		t.Fatalf("Stave.Draw() error = %v", err)
	}
	for _, voice := range []*Voice{v, words} {
		if err := voice.Draw(rec); err != nil {
			t.Fatalf("Voice.Draw() error = %v", err)
		}
	}
	if err := beam.Draw(rec); err != nil {
		t.Fatalf("Beam.Draw() error = %v", err)
	}

	if rec.depth != 0 {
		t.Errorf("unbalanced groups, depth %d", rec.depth)
	}
	groups := rec.groups()
	for _, want := range []string{"stave", "stavenote", "gracenotegroup", "gracenote", "barnote", "textnote", "beam"} {
		if !slices.Contains(groups, want) {
			t.Errorf("no %q group drawn; groups = %v", want, groups)
		}
	}
	if rec.count("fillText") == 0 {
		t.Error("nothing drawn as text")
	}
}

func TestDrawBeforeFormat(t *testing.T) {
	n := mustNote(t, "q", "c/4")
	if err := n.Draw(&recorder{}); !errors.Is(err, errors.ErrCodeNoStave) {
		t.Errorf("Note.Draw() without stave error = %v, want NO_STAVE", err)
	}

	stave := mustStave(t, 300)
	n.SetStave(stave)
	if err := n.Draw(&recorder{}); !errors.Is(err, errors.ErrCodeNoTickContext) {
		t.Errorf("Note.Draw() without tick context error = %v, want NO_TICK_CONTEXT", err)
	}

	tn := must(NewTextNote(TextNoteOptions{Text: "x", Duration: "q"}))
	v := mustVoice(t, "1/4", tn).SetStave(stave)
	f := newTestFormatter()
	if err := f.CreateTickContexts(v); err != nil {
		t.Fatalf("CreateTickContexts() error = %v", err)
	}
	if err := tn.Draw(&recorder{}); !errors.Is(err, errors.ErrCodeUnformattedNote) {
		t.Errorf("TextNote.Draw() before format error = %v, want UNFORMATTED_NOTE", err)
	}
}

func TestDrawGhostNote(t *testing.T) {
	ghost := must(NewGhostNote("h", nil))
	v := mustVoice(t, "2/4", ghost)
	if err := newTestFormatter().FormatToStave([]*Voice{v}, mustStave(t, 200)); err != nil {
		t.Fatalf("FormatToStave() error = %v", err)
	}
	rec := &recorder{}
	if err := ghost.Draw(rec); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("ghost note drew %d calls, want none", len(rec.calls))
	}
}

func TestDrawTab(t *testing.T) {
	stave := must(NewTabStave(10, 40, 300, StaveOptions{}))
	n := must(NewTabNote(NoteOptions{
		Duration:  "h",
		Positions: []TabPosition{{String: 1, Fret: "12"}, {String: 3, Fret: "10"}},
	}))
	n.SetMeasurer(text.EstimateMeasurer{})
	addMod(t, n, NewBend("Full", true), 0)
	addMod(t, n, NewVibrato(), 0)
	other := must(NewTabNote(NoteOptions{Duration: "h", Positions: []TabPosition{{String: 2, Fret: "X"}}}))
	v := mustVoice(t, "4/4", n, other)

	if err := newTestFormatter().FormatToStave([]*Voice{v}, stave); err != nil {
		t.Fatalf("FormatToStave() error = %v", err)
	}
	rec := &recorder{}
	if err := v.Draw(rec); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	var frets []string
	for _, c := range rec.calls {
		if c.op == "fillText" {
			frets = append(frets, c.text)
		}
	}
	for _, want := range []string{"12", "10", "X", "Full"} {
		if !slices.Contains(frets, want) {
			t.Errorf("text %q not drawn; got %v", want, frets)
		}
	}
	if !slices.Contains(rec.groups(), "tabnote") {
		t.Error("no tabnote group drawn")
	}
}

func TestBarNoteWidths(t *testing.T) {
	for typ, want := range barlineWidths {
		b := must(NewBarNote(typ))
		if err := b.PreFormat(); err != nil {
			t.Fatalf("PreFormat() error = %v", err)
		}
		if b.Metrics().Width != want {
			t.Errorf("barline %d width = %v, want %v", typ, b.Metrics().Width, want)
		}
		if !b.ShouldIgnoreTicks() {
			t.Errorf("barline %d consumes ticks", typ)
		}
	}
	if _, err := NewBarNote(BarlineType(99)); !errors.Is(err, errors.ErrCodeBadArguments) {
		t.Errorf("NewBarNote(99) error = %v, want BAD_ARGUMENTS", err)
	}
}
