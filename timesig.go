package partitur

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeSig is a nominal time signature. It is kept unreduced so that 6/8 and
// 3/4 stay distinct, even though their Fraction is equal.
type TimeSig struct {
	Numerator   int
	Denominator int
}

// CommonTime is 4/4, used for measures created without an explicit
// signature.
var CommonTime = TimeSig{4, 4}

func (t TimeSig) Valid() bool {
	if t.Numerator <= 0 || t.Denominator <= 0 {
		return false
	}
	return t.Denominator&(t.Denominator-1) == 0
}

// Fraction returns the nominal length of a measure in this signature.
func (t TimeSig) Fraction() Fraction {
	return NewFraction(int64(t.Numerator), int64(t.Denominator))
}

func (t TimeSig) IsZero() bool { return t.Numerator == 0 && t.Denominator == 0 }

func (t TimeSig) String() string {
	return fmt.Sprintf("%d/%d", t.Numerator, t.Denominator)
}

// ParseTimeSig parses "n/d" where d is a power of two.
func ParseTimeSig(s string) (TimeSig, error) {
	numStr, denStr, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return TimeSig{}, fmt.Errorf("malformed time signature %q", s)
	}
	num, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil {
		return TimeSig{}, fmt.Errorf("malformed time signature %q: %v", s, err)
	}
	den, err := strconv.Atoi(strings.TrimSpace(denStr))
	if err != nil {
		return TimeSig{}, fmt.Errorf("malformed time signature %q: %v", s, err)
	}
	ret := TimeSig{num, den}
	if !ret.Valid() {
		return TimeSig{}, fmt.Errorf("invalid time signature %q", s)
	}
	return ret, nil
}

func (t TimeSig) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeSig) UnmarshalText(text []byte) error {
	v, err := ParseTimeSig(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
