package text

import (
	"testing"

	"github.com/matzehuels/engrave/pkg/tables"
)

func TestFontMeasurer(t *testing.T) {
	m, err := NewFontMeasurer()
	if err != nil {
		t.Fatalf("NewFontMeasurer() error = %v", err)
	}
	f := tables.FontInfo{Size: 10}

	empty := m.Measure("", f)
	if empty.Width != 0 {
		t.Errorf("empty width = %v, want 0", empty.Width)
	}

	short := m.Measure("i", f)
	long := m.Measure("dolce espressivo", f)
	if short.Width <= 0 || long.Width <= short.Width {
		t.Errorf("widths not monotone: %v, %v", short.Width, long.Width)
	}
	if long.Height <= 0 {
		t.Errorf("height = %v, want > 0", long.Height)
	}

	bigger := m.Measure("dolce espressivo", tables.FontInfo{Size: 20})
	if bigger.Width <= long.Width {
		t.Errorf("larger size should be wider: %v <= %v", bigger.Width, long.Width)
	}

	bold := m.Measure("Cmaj7", tables.FontInfo{Size: 10, Weight: "bold"})
	regular := m.Measure("Cmaj7", f)
	if bold.Width < regular.Width {
		t.Errorf("bold narrower than regular: %v < %v", bold.Width, regular.Width)
	}
}

func TestFontMeasurerCachesFaces(t *testing.T) {
	m, err := NewFontMeasurer()
	if err != nil {
		t.Fatal(err)
	}
	f := tables.FontInfo{Size: 12}
	a := m.Measure("ff", f)
	b := m.Measure("ff", f)
	if a != b {
		t.Errorf("repeated measure differs: %v vs %v", a, b)
	}
	if len(m.faces) != 1 {
		t.Errorf("faces cached = %d, want 1", len(m.faces))
	}
}

func TestEstimateMeasurer(t *testing.T) {
	tests := []struct {
		name string
		s    string
		f    tables.FontInfo
		want float64
	}{
		{"empty", "", tables.FontInfo{Size: 10}, 0},
		{"regular", "abcd", tables.FontInfo{Size: 10}, 22},
		{"bold", "abcd", tables.FontInfo{Size: 10, Weight: "bold"}, 24},
		{"default size", "ab", tables.FontInfo{}, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateMeasurer{}.Measure(tt.s, tt.f)
			if got.Width != tt.want {
				t.Errorf("Width = %v, want %v", got.Width, tt.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
	if Default() != Default() {
		t.Error("Default() should return a shared measurer")
	}
}
