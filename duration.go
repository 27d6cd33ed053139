package partitur

import (
	"fmt"
	"strings"
)

// DurationValue is the written note value of a chord or rest.
type DurationValue int

const (
	DurLong DurationValue = iota
	DurBreve
	DurWhole
	DurHalf
	DurQuarter
	DurEighth
	Dur16th
	Dur32nd
	Dur64th
	Dur128th
	Dur256th
	Dur512th
	Dur1024th
	// DurMeasure marks a full-measure rest; its length is the measure length.
	DurMeasure
	DurZero
	numDurationValues
)

// MaxDots is the largest number of augmentation dots DurationFor tries.
const MaxDots = 3

var durationNames = [numDurationValues]string{
	"long", "breve", "whole", "half", "quarter", "eighth", "16th", "32nd",
	"64th", "128th", "256th", "512th", "1024th", "measure", "zero",
}

// DurationType is the display hint of a chord or rest: a note value plus
// dots. The exact length of an element is always stored separately as a
// Fraction; DurationType may only approximate it.
type DurationType struct {
	Value DurationValue
	Dots  int
}

// base returns the undotted length of a note value.
func (v DurationValue) base() Fraction {
	switch {
	case v == DurLong:
		return Whole(4)
	case v == DurBreve:
		return Whole(2)
	case v >= DurWhole && v <= Dur1024th:
		return NewFraction(1, 1<<(v-DurWhole))
	}
	return Fraction{}
}

func (v DurationValue) String() string {
	if v < 0 || v >= numDurationValues {
		return fmt.Sprintf("duration(%d)", int(v))
	}
	return durationNames[v]
}

// Fraction returns the length of the duration type. Measure and zero
// durations have no intrinsic length and return 0.
func (d DurationType) Fraction() Fraction {
	b := d.Value.base()
	ret := b
	for i := 0; i < d.Dots; i++ {
		b = b.DivInt(2)
		ret = ret.Add(b)
	}
	return ret
}

func (d DurationType) IsMeasure() bool { return d.Value == DurMeasure }

// DurationFor returns the duration type matching f exactly with at most
// MaxDots dots. When no exact match exists, the longest undotted value not
// exceeding f is returned and exact is false.
func DurationFor(f Fraction) (d DurationType, exact bool) {
	if f.Sign() <= 0 {
		return DurationType{Value: DurZero}, f.IsZero()
	}
	for v := DurLong; v <= Dur1024th; v++ {
		for dots := 0; dots <= MaxDots; dots++ {
			d := DurationType{Value: v, Dots: dots}
			if d.Fraction().Equal(f) {
				return d, true
			}
		}
	}
	for v := DurLong; v <= Dur1024th; v++ {
		if v.base().LessEq(f) {
			return DurationType{Value: v}, false
		}
	}
	return DurationType{Value: Dur1024th}, false
}

func (d DurationType) String() string {
	return d.Value.String() + strings.Repeat(".", d.Dots)
}

// ParseDurationType parses the String form, e.g. "quarter.." or "measure".
func ParseDurationType(s string) (DurationType, error) {
	name := strings.TrimRight(s, ".")
	dots := len(s) - len(name)
	for v, n := range durationNames {
		if n == name {
			return DurationType{Value: DurationValue(v), Dots: dots}, nil
		}
	}
	return DurationType{}, fmt.Errorf("unknown duration type %q", s)
}

func (d DurationType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DurationType) UnmarshalText(text []byte) error {
	v, err := ParseDurationType(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
