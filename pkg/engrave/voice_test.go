package engrave

import (
	"testing"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/fraction"
)

func TestVoiceModes(t *testing.T) {
	tests := []struct {
		name      string
		mode      VoiceMode
		durations []string
		wantErr   bool
		complete  bool
	}{
		{"strict exact", VoiceStrict, []string{"h", "q", "q"}, false, true},
		{"strict short", VoiceStrict, []string{"h", "q"}, false, false},
		{"strict overflow", VoiceStrict, []string{"h", "h", "q"}, true, false},
		{"full short", VoiceFull, []string{"q"}, false, false},
		{"full overflow", VoiceFull, []string{"1", "8"}, true, false},
		{"soft overflow", VoiceSoft, []string{"1", "1"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewVoiceFromString("4/4")
			if err != nil {
				t.Fatalf("NewVoiceFromString() error = %v", err)
			}
			v.SetMode(tt.mode)
			ts := make([]Tickable, len(tt.durations))
			for i, d := range tt.durations {
				ts[i] = mustNote(t, d, "b/4")
			}
			err = v.AddTickables(ts...)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeTooManyTicks) {
					t.Fatalf("AddTickables() error = %v, want TOO_MANY_TICKS", err)
				}
				if len(v.Tickables()) != 0 {
					t.Errorf("voice holds %d tickables after a rejected add, want 0", len(v.Tickables()))
				}
				return
			}
			if err != nil {
				t.Fatalf("AddTickables() error = %v", err)
			}
			if got := v.IsComplete(); got != tt.complete {
				t.Errorf("IsComplete() = %v, want %v", got, tt.complete)
			}
		})
	}
}

func TestVoiceTicks(t *testing.T) {
	bar, err := NewBarNote(BarDouble)
	if err != nil {
		t.Fatalf("NewBarNote() error = %v", err)
	}
	v := mustVoice(t, "3/4", mustNote(t, "8d", "c/4"), mustNote(t, "16", "d/4"), bar, mustNote(t, "h", "e/4"))

	if got, want := v.TotalTicks(), fraction.Int(12288); !got.Equals(want) {
		t.Errorf("TotalTicks() = %v, want %v", got, want)
	}
	if got, want := v.TicksUsed(), fraction.Int(12288); !got.Equals(want) {
		t.Errorf("TicksUsed() = %v, want %v", got, want)
	}
	if got, want := v.SmallestTicks(), fraction.Int(1024); !got.Equals(want) {
		t.Errorf("SmallestTicks() = %v, want %v", got, want)
	}
	if !v.IsComplete() {
		t.Error("IsComplete() = false, want true")
	}
	for i, tk := range v.Tickables() {
		if tk.Base().Voice() != v {
			t.Errorf("tickable %d not bound to its voice", i)
		}
	}
}

func TestVoiceSetStave(t *testing.T) {
	n := mustNote(t, "w", "b/4")
	v := mustVoice(t, "4/4", n)
	if _, err := n.Ys(); !errors.Is(err, errors.ErrCodeNoYValues) {
		t.Fatalf("Ys() before stave error = %v, want NO_Y_VALUES", err)
	}

	stave := mustStave(t, 300)
	v.SetStave(stave)
	ys, err := n.Ys()
	if err != nil {
		t.Fatalf("Ys() error = %v", err)
	}
	if want := stave.GetYForNote(3); ys[0] != want {
		t.Errorf("Ys()[0] = %v, want %v", ys[0], want)
	}

	late := mustNote(t, "q", "b/4")
	soft := NewVoice(v.TimeSignature()).SetMode(VoiceSoft).SetStave(stave)
	if err := soft.AddTickable(late); err != nil {
		t.Fatalf("AddTickable() error = %v", err)
	}
	if s, err := late.Stave(); err != nil || s != stave {
		t.Errorf("Stave() = %v, %v, want the voice's stave", s, err)
	}
}

func TestVoiceModeString(t *testing.T) {
	for mode, want := range map[VoiceMode]string{VoiceStrict: "strict", VoiceSoft: "soft", VoiceFull: "full"} {
		if got := mode.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", mode, got, want)
		}
	}
}
