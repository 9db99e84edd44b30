package score

import (
	"slices"
	"testing"

	"github.com/matzehuels/engrave/pkg/errors"
)

func TestParseNotes(t *testing.T) {
	type want struct {
		keys     []string
		duration string
		dots     int
		typ      string
	}
	tests := []struct {
		name  string
		input string
		want  []want
	}{
		{"mixed", "C#5/q, (C4 E4 G4)/h, B4/8/r", []want{
			{[]string{"c#/5"}, "4", 0, "n"},
			{[]string{"c/4", "e/4", "g/4"}, "2", 0, "n"},
			{[]string{"b/4"}, "8", 0, "r"},
		}},
		{"inherits duration and octave", "A3/8d, B", []want{
			{[]string{"a/3"}, "8", 1, "n"},
			{[]string{"b/3"}, "8", 1, "n"},
		}},
		{"flats and naturals", "Bb4/q., Cn5/16", []want{
			{[]string{"bb/4"}, "4", 1, "n"},
			{[]string{"cn/5"}, "16", 0, "n"},
		}},
		{"double accidentals", "F##4/w, Gbb4", []want{
			{[]string{"f##/4"}, "1", 0, "n"},
			{[]string{"gbb/4"}, "1", 0, "n"},
		}},
		{"inline type", "C4/8r", []want{{[]string{"c/4"}, "8", 0, "r"}}},
		{"breve", "E4/1/2", []want{{[]string{"e/4"}, "1/2", 0, "n"}}},
		{"ghost", "B4/h/g", []want{{[]string{"b/4"}, "2", 0, "g"}}},
		{"default duration", "c4", []want{{[]string{"c/4"}, "4", 0, "n"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := ParseNotes(tt.input)
			if err != nil {
				t.Fatalf("ParseNotes(%q) error = %v", tt.input, err)
			}
			if len(events) != len(tt.want) {
				t.Fatalf("ParseNotes(%q) returned %d events, want %d", tt.input, len(events), len(tt.want))
			}
			for i, e := range events {
				w := tt.want[i]
				if !slices.Equal(e.Keys(), w.keys) {
					t.Errorf("event %d Keys() = %v, want %v", i, e.Keys(), w.keys)
				}
				if e.Duration != w.duration || e.Dots != w.dots || e.Type != w.typ {
					t.Errorf("event %d = %s/%d/%s, want %s/%d/%s", i, e.Duration, e.Dots, e.Type, w.duration, w.dots, w.typ)
				}
			}
		})
	}
}

func TestParseNotesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", "  "},
		{"bad letter", "H4/q"},
		{"unterminated chord", "(C4 E4/q"},
		{"bad duration", "C4/7"},
		{"bad type", "C4/q/zz"},
		{"missing comma", "C4 D4"},
		{"missing duration", "C4/"},
		{"too many dots", "C4/1024ddddd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNotes(tt.input)
			if !errors.Is(err, errors.ErrCodeParse) {
				t.Errorf("ParseNotes(%q) error = %v, want PARSE_ERROR", tt.input, err)
			}
		})
	}
}

func TestEventTicks(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"C4/q", 4096},
		{"C4/q.", 6144},
		{"C4/8dd", 3584},
		{"C4/w/r", 16384},
	}
	for _, tt := range tests {
		events, err := ParseNotes(tt.input)
		if err != nil {
			t.Fatalf("ParseNotes(%q) error = %v", tt.input, err)
		}
		got, err := events[0].Ticks()
		if err != nil || got != tt.want {
			t.Errorf("Ticks(%q) = %d, %v, want %d", tt.input, got, err, tt.want)
		}
	}
}
