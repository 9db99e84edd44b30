package fraction

import (
	"testing"

	"github.com/matzehuels/engrave/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		num, den int64
		want     Fraction
	}{
		{"already reduced", 3, 4, Fraction{3, 4}},
		{"reduces", 4096, 16384, Fraction{1, 4}},
		{"negative denominator", 1, -2, Fraction{-1, 2}},
		{"zero", 0, 7, Fraction{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.num, tt.den)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("New() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewZeroDenominator(t *testing.T) {
	_, err := New(1, 0)
	if !errors.Is(err, errors.ErrCodeDivideByZero) {
		t.Errorf("New(1, 0) error = %v, want DIVIDE_BY_ZERO", err)
	}
}

func TestZeroValue(t *testing.T) {
	var f Fraction
	if !f.IsZero() || f.Value() != 0 {
		t.Errorf("zero value = %v, want 0", f)
	}
	if got := f.Add(MustNew(1, 3)); !got.Equals(MustNew(1, 3)) {
		t.Errorf("0 + 1/3 = %v", got)
	}
}

func TestArithmetic(t *testing.T) {
	a := MustNew(1, 3)
	b := MustNew(1, 6)

	if got := a.Add(b); got != (Fraction{1, 2}) {
		t.Errorf("Add = %v, want 1/2", got)
	}
	if got := a.Sub(b); got != (Fraction{1, 6}) {
		t.Errorf("Sub = %v, want 1/6", got)
	}
	if got := a.Mul(b); got != (Fraction{1, 18}) {
		t.Errorf("Mul = %v, want 1/18", got)
	}
	got, err := a.Div(b)
	if err != nil || got != (Fraction{2, 1}) {
		t.Errorf("Div = %v, %v, want 2/1", got, err)
	}
}

func TestDivByZero(t *testing.T) {
	_, err := MustNew(1, 2).Div(Fraction{})
	if !errors.Is(err, errors.ErrCodeDivideByZero) {
		t.Errorf("Div(0) error = %v, want DIVIDE_BY_ZERO", err)
	}
}

func TestAddSubtractRoundTrip(t *testing.T) {
	values := []Fraction{
		MustNew(0, 1), MustNew(1, 3), MustNew(-5, 7), MustNew(16384, 3),
		MustNew(2, 8), MustNew(9, 4), MustNew(-1, 1024),
	}
	for _, a := range values {
		for _, b := range values {
			if got := a.Add(b).Sub(b); !got.Equals(a) {
				t.Errorf("(%v + %v) - %v = %v", a, b, b, got)
			}
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	values := []Fraction{MustNew(3, 8), MustNew(-2, 3), Int(5), MustNew(4096, 3)}
	for _, v := range values {
		got, err := Parse(v.String())
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", v.String(), err)
		}
		if !got.Equals(v) {
			t.Errorf("Parse(%q) = %v, want %v", v.String(), got, v)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in   string
		code errors.Code
	}{
		{"", errors.ErrCodeParse},
		{"a/4", errors.ErrCodeParse},
		{"3/x", errors.ErrCodeParse},
		{"3/0", errors.ErrCodeDivideByZero},
	}
	for _, tt := range tests {
		_, err := Parse(tt.in)
		if !errors.Is(err, tt.code) {
			t.Errorf("Parse(%q) error = %v, want %s", tt.in, err, tt.code)
		}
	}
}

func TestCompare(t *testing.T) {
	a, b := MustNew(2, 3), MustNew(3, 4)
	if !b.GreaterThan(a) || a.GreaterThan(b) {
		t.Error("GreaterThan wrong")
	}
	if !a.GreaterThanEquals(MustNew(4, 6)) {
		t.Error("GreaterThanEquals should hold for equal values")
	}
	if !a.LessThan(b) {
		t.Error("LessThan wrong")
	}
	if Max(a, b) != b || Min(a, b) != a {
		t.Error("Max/Min wrong")
	}
}

func TestTripletSumIsExact(t *testing.T) {
	// Three triplet eighths occupy exactly one quarter: 3 * (2048 * 2/3) = 4096.
	eighth := Int(2048)
	ratio := MustNew(2, 3)
	var sum Fraction
	for i := 0; i < 3; i++ {
		sum = sum.Add(eighth.Mul(ratio))
	}
	if !sum.Equals(Int(4096)) {
		t.Errorf("sum = %v, want 4096", sum)
	}
}

func TestUnmarshalText(t *testing.T) {
	var f Fraction
	if err := f.UnmarshalText([]byte("3/8")); err != nil {
		t.Fatal(err)
	}
	if f != MustNew(3, 8) {
		t.Errorf("got %v", f)
	}
}

func TestLCM(t *testing.T) {
	if got := LCMAll(2, 3, 4); got != 12 {
		t.Errorf("LCMAll = %d, want 12", got)
	}
	if got := GCD(-12, 18); got != 6 {
		t.Errorf("GCD = %d, want 6", got)
	}
}
