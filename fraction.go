package partitur

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
)

// Division is the number of integer ticks per quarter note used when a
// Fraction is converted to MIDI style ticks.
const Division = 480

// Fraction is an exact rational number used for every position and duration
// in a score. A whole note is 1/1, a quarter 1/4. Fractions are always kept
// reduced with a positive denominator; the zero value is 0/1.
type Fraction struct {
	num int64
	den int64
}

// NewFraction returns num/den reduced. It panics if den is zero, as a zero
// denominator is always a programming error.
func NewFraction(num, den int64) Fraction {
	if den == 0 {
		panic("partitur: zero denominator")
	}
	return reduce(num, den)
}

// Whole returns n/1.
func Whole(n int64) Fraction {
	return Fraction{num: n, den: 1}
}

// FromTicks converts an integer tick count at the given division (ticks per
// quarter note) to a Fraction.
func FromTicks(ticks, division int) Fraction {
	return NewFraction(int64(ticks), int64(division)*4)
}

func gcd(a, b int64) int64 {
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

func abs64(a int64) uint64 {
	if a < 0 {
		return -uint64(a)
	}
	return uint64(a)
}

// mul returns a*b and panics if the product does not fit in an int64.
func mul(a, b int64) int64 {
	hi, lo := bits.Mul64(abs64(a), abs64(b))
	if hi != 0 || lo > math.MaxInt64 {
		panic("partitur: fraction overflow")
	}
	if (a < 0) != (b < 0) {
		return -int64(lo)
	}
	return int64(lo)
}

// add returns a+b and panics on overflow.
func add(a, b int64) int64 {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		panic("partitur: fraction overflow")
	}
	return s
}

func reduce(num, den int64) Fraction {
	if den < 0 {
		num, den = -num, -den
	}
	if num == 0 {
		return Fraction{num: 0, den: 1}
	}
	g := gcd(num, den)
	return Fraction{num: num / g, den: den / g}
}

func (f Fraction) parts() (int64, int64) {
	if f.den == 0 {
		return f.num, 1
	}
	return f.num, f.den
}

// Num returns the numerator of the reduced fraction.
func (f Fraction) Num() int64 { n, _ := f.parts(); return n }

// Den returns the denominator of the reduced fraction.
func (f Fraction) Den() int64 { _, d := f.parts(); return d }

// Add returns f+g. The denominators are combined through their lcm so that
// long sums over a score stay small. Like the other arithmetic methods it
// panics if the result does not fit in int64.
func (f Fraction) Add(g Fraction) Fraction {
	an, ad := f.parts()
	bn, bd := g.parts()
	if ad == bd {
		return reduce(add(an, bn), ad)
	}
	d := gcd(ad, bd)
	return reduce(add(mul(an, bd/d), mul(bn, ad/d)), mul(ad/d, bd))
}

// Sub returns f-g.
func (f Fraction) Sub(g Fraction) Fraction {
	return f.Add(g.Neg())
}

// Mul returns f*g.
func (f Fraction) Mul(g Fraction) Fraction {
	an, ad := f.parts()
	bn, bd := g.parts()
	g1 := gcd(an, bd)
	g2 := gcd(bn, ad)
	return reduce(mul(an/g1, bn/g2), mul(ad/g2, bd/g1))
}

// Div returns f/g. It panics if g is zero.
func (f Fraction) Div(g Fraction) Fraction {
	bn, bd := g.parts()
	if bn == 0 {
		panic("partitur: division by zero fraction")
	}
	return f.Mul(reduce(bd, bn))
}

// MulInt returns f*n.
func (f Fraction) MulInt(n int64) Fraction {
	return f.Mul(Whole(n))
}

// DivInt returns f/n.
func (f Fraction) DivInt(n int64) Fraction {
	return f.Div(Whole(n))
}

// Neg returns -f.
func (f Fraction) Neg() Fraction {
	n, d := f.parts()
	return Fraction{num: -n, den: d}
}

// Cmp returns -1, 0 or 1 depending on whether f is less than, equal to or
// greater than g. The cross products are compared in 128 bits, so Cmp never
// overflows.
func (f Fraction) Cmp(g Fraction) int {
	fs, gs := f.Sign(), g.Sign()
	if fs != gs {
		if fs < gs {
			return -1
		}
		return 1
	}
	if fs == 0 {
		return 0
	}
	an, ad := f.parts()
	bn, bd := g.parts()
	ahi, alo := bits.Mul64(abs64(an), uint64(bd))
	bhi, blo := bits.Mul64(abs64(bn), uint64(ad))
	c := 0
	switch {
	case ahi < bhi || (ahi == bhi && alo < blo):
		c = -1
	case ahi > bhi || (ahi == bhi && alo > blo):
		c = 1
	}
	return c * fs
}

// Sign returns -1, 0 or 1.
func (f Fraction) Sign() int {
	switch {
	case f.num < 0:
		return -1
	case f.num > 0:
		return 1
	}
	return 0
}

func (f Fraction) Equal(g Fraction) bool {
	an, ad := f.parts()
	bn, bd := g.parts()
	return an == bn && ad == bd
}

func (f Fraction) Less(g Fraction) bool      { return f.Cmp(g) < 0 }
func (f Fraction) LessEq(g Fraction) bool    { return f.Cmp(g) <= 0 }
func (f Fraction) Greater(g Fraction) bool   { return f.Cmp(g) > 0 }
func (f Fraction) GreaterEq(g Fraction) bool { return f.Cmp(g) >= 0 }
func (f Fraction) IsZero() bool              { return f.num == 0 }

// Max returns the larger of f and g.
func (f Fraction) Max(g Fraction) Fraction {
	if f.Less(g) {
		return g
	}
	return f
}

// Min returns the smaller of f and g.
func (f Fraction) Min(g Fraction) Fraction {
	if g.Less(f) {
		return g
	}
	return f
}

// Ticks converts the fraction to integer ticks at the given division,
// truncating toward zero.
func (f Fraction) Ticks(division int) int {
	n, d := f.parts()
	return int(mul(n, int64(division)*4) / d)
}

func (f Fraction) String() string {
	n, d := f.parts()
	return fmt.Sprintf("%d/%d", n, d)
}

var errBadFraction = errors.New("malformed fraction")

// ParseFraction parses "n/d" or a bare integer "n".
func ParseFraction(s string) (Fraction, error) {
	s = strings.TrimSpace(s)
	numStr, denStr, found := strings.Cut(s, "/")
	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return Fraction{}, fmt.Errorf("%w %q: %v", errBadFraction, s, err)
	}
	if !found {
		return Whole(num), nil
	}
	den, err := strconv.ParseInt(strings.TrimSpace(denStr), 10, 64)
	if err != nil {
		return Fraction{}, fmt.Errorf("%w %q: %v", errBadFraction, s, err)
	}
	if den == 0 {
		return Fraction{}, fmt.Errorf("%w %q: zero denominator", errBadFraction, s)
	}
	return reduce(num, den), nil
}

func (f Fraction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fraction) UnmarshalText(text []byte) error {
	v, err := ParseFraction(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
