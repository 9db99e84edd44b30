// Package fraction provides exact rational arithmetic for musical durations.
//
// Durations are measured in ticks (see tables.Resolution), and tuplets scale
// them by rational ratios such as 2/3. Keeping durations as fractions until the
// final width computation means a voice of nine triplet eighths sums to
// exactly three quarter notes, with no floating point residue.
//
// The zero value of [Fraction] is 0/1 and is ready to use. Every arithmetic
// result is reduced by the greatest common divisor, so repeated
// multiplication through nested tuplets does not overflow.
package fraction

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/engrave/pkg/errors"
)

// Fraction is an immutable rational number Num/Den.
// A zero Den is read as 1, which makes the zero value equal to 0.
type Fraction struct {
	Num int64
	Den int64
}

// New returns num/den reduced to lowest terms with a positive denominator.
// It fails with DIVIDE_BY_ZERO when den is zero.
func New(num, den int64) (Fraction, error) {
	if den == 0 {
		return Fraction{}, errors.New(errors.ErrCodeDivideByZero, "fraction %d/0 has zero denominator", num)
	}
	return Fraction{Num: num, Den: den}.Simplify(), nil
}

// MustNew is like New but panics on a zero denominator.
// It is meant for constants and static tables.
func MustNew(num, den int64) Fraction {
	f, err := New(num, den)
	if err != nil {
		panic(err)
	}
	return f
}

// Int returns the whole number n as a fraction.
func Int(n int64) Fraction { return Fraction{Num: n, Den: 1} }

func (f Fraction) den() int64 {
	if f.Den == 0 {
		return 1
	}
	return f.Den
}

// Simplify reduces f to lowest terms and moves the sign to the numerator.
func (f Fraction) Simplify() Fraction {
	n, d := f.Num, f.den()
	if d < 0 {
		n, d = -n, -d
	}
	if g := GCD(n, d); g > 1 {
		n, d = n/g, d/g
	}
	return Fraction{Num: n, Den: d}
}

// Add returns f + o.
func (f Fraction) Add(o Fraction) Fraction {
	fd, od := f.den(), o.den()
	l := LCM(fd, od)
	return Fraction{Num: f.Num*(l/fd) + o.Num*(l/od), Den: l}.Simplify()
}

// Sub returns f - o.
func (f Fraction) Sub(o Fraction) Fraction {
	return f.Add(Fraction{Num: -o.Num, Den: o.den()})
}

// Mul returns f * o. Factors are cross-reduced first to keep the
// intermediate products small.
func (f Fraction) Mul(o Fraction) Fraction {
	a, b := f.Simplify(), o.Simplify()
	g1 := GCD(a.Num, b.Den)
	g2 := GCD(b.Num, a.Den)
	if g1 == 0 {
		g1 = 1
	}
	if g2 == 0 {
		g2 = 1
	}
	return Fraction{
		Num: (a.Num / g1) * (b.Num / g2),
		Den: (a.Den / g2) * (b.Den / g1),
	}.Simplify()
}

// MulInt returns f * n.
func (f Fraction) MulInt(n int64) Fraction { return f.Mul(Int(n)) }

// Div returns f / o. It fails with DIVIDE_BY_ZERO when o is zero.
func (f Fraction) Div(o Fraction) (Fraction, error) {
	if o.Num == 0 {
		return Fraction{}, errors.New(errors.ErrCodeDivideByZero, "divide %s by zero fraction", f)
	}
	return f.Mul(Fraction{Num: o.den(), Den: o.Num}), nil
}

// Inverse returns 1/f. It fails with DIVIDE_BY_ZERO when f is zero.
func (f Fraction) Inverse() (Fraction, error) {
	return Int(1).Div(f)
}

// Cmp compares f and o exactly and returns -1, 0 or +1.
func (f Fraction) Cmp(o Fraction) int {
	a, b := f.Simplify(), o.Simplify()
	l := a.Num * b.Den
	r := b.Num * a.Den
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

// Equals reports whether f and o denote the same rational number.
func (f Fraction) Equals(o Fraction) bool { return f.Cmp(o) == 0 }

// GreaterThan reports whether f > o.
func (f Fraction) GreaterThan(o Fraction) bool { return f.Cmp(o) > 0 }

// GreaterThanEquals reports whether f >= o.
func (f Fraction) GreaterThanEquals(o Fraction) bool { return f.Cmp(o) >= 0 }

// LessThan reports whether f < o.
func (f Fraction) LessThan(o Fraction) bool { return f.Cmp(o) < 0 }

// LessThanEquals reports whether f <= o.
func (f Fraction) LessThanEquals(o Fraction) bool { return f.Cmp(o) <= 0 }

// IsZero reports whether f equals zero.
func (f Fraction) IsZero() bool { return f.Num == 0 }

// Value returns the floating point approximation of f.
func (f Fraction) Value() float64 { return float64(f.Num) / float64(f.den()) }

// Quotient returns the integer part of f, truncated toward zero.
func (f Fraction) Quotient() int64 { return f.Num / f.den() }

// Max returns the larger of f and o.
func Max(f, o Fraction) Fraction {
	if f.GreaterThan(o) {
		return f
	}
	return o
}

// Min returns the smaller of f and o.
func Min(f, o Fraction) Fraction {
	if f.LessThan(o) {
		return f
	}
	return o
}

// String formats f as "num/den" in lowest terms.
func (f Fraction) String() string {
	s := f.Simplify()
	return fmt.Sprintf("%d/%d", s.Num, s.Den)
}

// Parse reads "n/d" or a bare integer "n". It fails with PARSE_ERROR on
// malformed input and DIVIDE_BY_ZERO on a zero denominator.
func Parse(s string) (Fraction, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Fraction{}, errors.New(errors.ErrCodeParse, "empty fraction")
	}
	numStr, denStr, found := strings.Cut(s, "/")
	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return Fraction{}, errors.Wrap(errors.ErrCodeParse, err, "fraction %q: bad numerator", s)
	}
	if !found {
		return Int(num), nil
	}
	den, err := strconv.ParseInt(strings.TrimSpace(denStr), 10, 64)
	if err != nil {
		return Fraction{}, errors.Wrap(errors.ErrCodeParse, err, "fraction %q: bad denominator", s)
	}
	return New(num, den)
}

// MarshalText implements encoding.TextMarshaler.
func (f Fraction) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler, so fractions can be
// written as "3/8" in TOML documents.
func (f *Fraction) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// GCD returns the greatest common divisor of |a| and |b|. GCD(0, 0) is 0.
func GCD(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of |a| and |b|.
func LCM(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	l := a / GCD(a, b) * b
	if l < 0 {
		return -l
	}
	return l
}

// LCMAll returns the least common multiple of all values, or 1 for none.
func LCMAll(values ...int64) int64 {
	l := int64(1)
	for _, v := range values {
		l = LCM(l, v)
	}
	return l
}
