package partitur

import (
	"fmt"
	"math/bits"
	"strings"
)

// SegmentType is a bit mask of segment kinds. The bit order is the
// precedence of segments sharing the same tick: a clef comes before a key
// signature which comes before the chord-rests.
type SegmentType uint32

const (
	SegBeginBarLine SegmentType = 1 << iota
	SegHeaderClef
	SegKeySig
	SegAmbitus
	SegTimeSig
	SegStartRepeatBarLine
	SegClef
	SegBarLine
	SegBreath
	SegChordRest
	SegEndBarLine
	SegKeySigAnnounce
	SegTimeSigAnnounce
	segEnd
)

// SegAll matches every segment type.
const SegAll = segEnd - 1

var segmentTypeNames = []string{
	"beginbarline", "headerclef", "keysig", "ambitus", "timesig",
	"startrepeatbarline", "clef", "barline", "breath", "chordrest",
	"endbarline", "keysigannounce", "timesigannounce",
}

// Precedence returns the ordering rank of a single segment type.
func (t SegmentType) Precedence() int {
	return bits.TrailingZeros32(uint32(t))
}

// Single reports if exactly one bit is set.
func (t SegmentType) Single() bool {
	return t != 0 && t&(t-1) == 0 && t < segEnd
}

func (t SegmentType) Matches(mask SegmentType) bool {
	return t&mask != 0
}

func (t SegmentType) String() string {
	if t == SegAll {
		return "all"
	}
	var parts []string
	for i, name := range segmentTypeNames {
		if t&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("segtype(%#x)", uint32(t))
	}
	return strings.Join(parts, "|")
}

// ParseSegmentType parses a single segment type name.
func ParseSegmentType(s string) (SegmentType, error) {
	for i, name := range segmentTypeNames {
		if name == s {
			return SegmentType(1 << i), nil
		}
	}
	return 0, fmt.Errorf("unknown segment type %q", s)
}
