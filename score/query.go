package score

import (
	"iter"

	"github.com/vsariola/partitur"
)

// Elements iterates every live element in arena order.
func (s *Score) Elements() iter.Seq[*Element] {
	return func(yield func(*Element) bool) {
		for _, e := range s.elems {
			if e.dead {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// NumElements returns the number of live elements.
func (s *Score) NumElements() int {
	n := 0
	for range s.Elements() {
		n++
	}
	return n
}

// lastOnTrack walks the segments of type mask backwards from tick and returns
// the element on track in the first segment holding one.
func (s *Score) lastOnTrack(track partitur.Track, tick partitur.Fraction, mask partitur.SegmentType) ElementID {
	mid := s.MeasureAt(tick)
	if mid == NoElement && len(s.measures) > 0 && tick.GreaterEq(s.EndTick()) {
		mid = s.measures[len(s.measures)-1]
	}
	for ; mid != NoElement; mid = s.PrevMeasure(mid) {
		segs := s.Measure(mid).Segments
		for i := len(segs) - 1; i >= 0; i-- {
			seg := s.elems[segs[i]].Payload.(*Segment)
			if !seg.Type.Matches(mask) || seg.Tick.Greater(tick) {
				continue
			}
			if id := seg.Element(track); id != NoElement {
				return id
			}
		}
	}
	return NoElement
}

// KeyAt returns the key in effect on a staff at tick: the last key
// signature at or before tick, or the initial key of the staff.
func (s *Score) KeyAt(staff int, tick partitur.Fraction) partitur.Key {
	if id := s.lastOnTrack(partitur.MakeTrack(staff, 0), tick, partitur.SegKeySig); id != NoElement {
		return s.elems[id].Payload.(*KeySig).Key
	}
	if st := s.Staff(staff); st != nil {
		return st.Key
	}
	return partitur.KeyC
}

// ClefAt returns the clef in effect on a staff at tick.
func (s *Score) ClefAt(staff int, tick partitur.Fraction) partitur.ClefType {
	if id := s.lastOnTrack(partitur.MakeTrack(staff, 0), tick, partitur.SegHeaderClef|partitur.SegClef); id != NoElement {
		return s.elems[id].Payload.(*Clef).Type
	}
	if st := s.Staff(staff); st != nil {
		return st.Clef
	}
	return partitur.ClefTreble
}

// LocalTimeSigAt returns the time signature shown on a staff at tick: the
// last time signature element at or before tick, or the nominal signature
// of the measure scaled by the time stretch of the staff.
func (s *Score) LocalTimeSigAt(staff int, tick partitur.Fraction) partitur.TimeSig {
	if id := s.lastOnTrack(partitur.MakeTrack(staff, 0), tick, partitur.SegTimeSig); id != NoElement {
		return s.elems[id].Payload.(*TimeSigMark).Sig
	}
	sig := s.TimeSigAt(tick)
	if stretch := s.TimeStretch(staff, tick); !stretch.Equal(partitur.Whole(1)) {
		f := sig.Fraction().Mul(stretch)
		return partitur.TimeSig{Numerator: int(f.Num()), Denominator: int(f.Den())}
	}
	return sig
}

// Location is a (tick, track) position used in diagnostics and listings.
type Location struct {
	Measure int
	Tick    partitur.Fraction
	Track   partitur.Track
}

// Locate returns the position of an element.
func (s *Score) Locate(id ElementID) Location {
	e := s.Element(id)
	if e == nil {
		return Location{Measure: -1, Track: partitur.NoTrack}
	}
	tick := s.Tick(id)
	no := -1
	if m := s.Measure(s.MeasureAt(tick)); m != nil {
		no = m.No
	}
	return Location{Measure: no, Tick: tick, Track: e.Track}
}
