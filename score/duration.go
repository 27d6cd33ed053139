package score

import (
	"iter"

	"github.com/vsariola/partitur"
)

// Tick returns the absolute tick of an element: the tick of its segment for
// principal elements and annotations, the start tick for measures and
// tuplets.
func (s *Score) Tick(id ElementID) partitur.Fraction {
	e := s.Element(id)
	if e == nil {
		return partitur.Fraction{}
	}
	switch p := e.Payload.(type) {
	case *Measure:
		return p.Tick
	case *Segment:
		return p.Tick
	case *Tuplet:
		return p.Tick
	case *Break:
		return s.Measure(e.Parent).Tick
	}
	if seg := s.Segment(e.Parent); seg != nil {
		return seg.Tick
	}
	return partitur.Fraction{}
}

// Ticks returns the written length of a duration element or measure, zero
// for other elements.
func (s *Score) Ticks(id ElementID) partitur.Fraction {
	e := s.Element(id)
	if e == nil {
		return partitur.Fraction{}
	}
	switch p := e.Payload.(type) {
	case *ChordRest:
		return p.Duration
	case *Tuplet:
		return p.Ticks
	case *Measure:
		return p.Ticks
	}
	return partitur.Fraction{}
}

func (s *Score) parentTuplet(id ElementID) ElementID {
	switch p := s.elems[id].Payload.(type) {
	case *ChordRest:
		return p.Tuplet
	case *Tuplet:
		return p.Tuplet
	}
	return NoElement
}

// GlobalTicks returns the written length scaled by every enclosing tuplet:
// an eighth note in a triplet lasts 1/12.
func (s *Score) GlobalTicks(id ElementID) partitur.Fraction {
	if s.Element(id) == nil {
		return partitur.Fraction{}
	}
	ret := s.Ticks(id)
	for t := s.parentTuplet(id); t != NoElement; t = s.parentTuplet(t) {
		ret = ret.Div(s.Tuplet(t).Ratio)
	}
	return ret
}

// ActualTicks returns the length an element occupies on the global timeline:
// GlobalTicks divided by the time stretch of the staff.
func (s *Score) ActualTicks(id ElementID) partitur.Fraction {
	e := s.Element(id)
	if e == nil {
		return partitur.Fraction{}
	}
	return s.GlobalTicks(id).Div(s.TimeStretch(e.Track.Staff(), s.Tick(id)))
}

// MeasureLen returns the length of a measure in the local time of staff.
func (s *Score) MeasureLen(measure ElementID, staff int) partitur.Fraction {
	m := s.Measure(measure)
	if m == nil {
		return partitur.Fraction{}
	}
	return m.Ticks.Mul(s.TimeStretch(staff, m.Tick))
}

// TopTuplet returns the outermost tuplet enclosing id, or NoElement.
func (s *Score) TopTuplet(id ElementID) ElementID {
	if s.Element(id) == nil {
		return NoElement
	}
	ret := NoElement
	for t := s.parentTuplet(id); t != NoElement; t = s.parentTuplet(t) {
		ret = t
	}
	return ret
}

// TupletMembers returns the direct members of a tuplet in tick order.
func (s *Score) TupletMembers(id ElementID) []ElementID {
	t := s.Tuplet(id)
	if t == nil {
		return nil
	}
	return append([]ElementID(nil), t.Members...)
}

// SkipTuplet returns the segment of the last chord-rest of a tuplet,
// descending into nested tuplets, or NoElement for an empty tuplet.
func (s *Score) SkipTuplet(id ElementID) ElementID {
	for {
		t := s.Tuplet(id)
		if t == nil {
			if s.ChordRest(id) == nil {
				return NoElement
			}
			return s.elems[id].Parent
		}
		if len(t.Members) == 0 {
			return NoElement
		}
		id = t.Members[len(t.Members)-1]
	}
}

// OccupiedDuration returns the time covered by one voice of a staff in a
// measure. A tuplet counts once with its own actual length; its members are
// not counted again.
func (s *Score) OccupiedDuration(measure ElementID, staff, voice int) partitur.Fraction {
	m := s.Measure(measure)
	if m == nil {
		return partitur.Fraction{}
	}
	track := partitur.MakeTrack(staff, voice)
	var sum partitur.Fraction
	for step := range s.VoiceSteps(m.ID, track) {
		sum = sum.Add(s.ActualTicks(step))
	}
	return sum
}

// VoiceSteps iterates the top-level duration elements of one track in a
// measure: chord-rests outside tuplets, and each outermost tuplet once in
// place of its members.
func (s *Score) VoiceSteps(measure ElementID, track partitur.Track) iter.Seq[ElementID] {
	return func(yield func(ElementID) bool) {
		m := s.Measure(measure)
		if m == nil {
			return
		}
		skipTo := NoElement
		for _, segID := range m.Segments {
			seg := s.elems[segID].Payload.(*Segment)
			if seg.Type != partitur.SegChordRest {
				continue
			}
			if skipTo != NoElement {
				if segID == skipTo {
					skipTo = NoElement
				}
				continue
			}
			id := seg.Element(track)
			if id == NoElement {
				continue
			}
			if top := s.TopTuplet(id); top != NoElement {
				if last := s.SkipTuplet(top); last != segID {
					skipTo = last
				}
				id = top
			}
			if !yield(id) {
				return
			}
		}
	}
}

// DurationElements iterates the chord-rests of a track with from <= tick <
// to, in tick order.
func (s *Score) DurationElements(track partitur.Track, from, to partitur.Fraction) iter.Seq[ElementID] {
	return func(yield func(ElementID) bool) {
		for _, mid := range s.measures {
			m := s.Measure(mid)
			if m.EndTick().LessEq(from) {
				continue
			}
			if m.Tick.GreaterEq(to) {
				return
			}
			for segID := range m.Segs(partitur.SegChordRest) {
				seg := s.elems[segID].Payload.(*Segment)
				if seg.Tick.Less(from) || seg.Tick.GreaterEq(to) {
					continue
				}
				if id := seg.Element(track); id != NoElement {
					if !yield(id) {
						return
					}
				}
			}
		}
	}
}
