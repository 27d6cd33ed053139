package score

import (
	"iter"

	"golang.org/x/exp/slices"

	"github.com/vsariola/partitur"
)

// Segment is the payload of a segment element: one tick of one segment type
// within a measure. It holds at most one principal element per track plus
// any number of annotations.
type Segment struct {
	ID      ElementID
	Type    partitur.SegmentType
	Tick    partitur.Fraction
	Measure ElementID

	slots       map[partitur.Track]ElementID
	annotations []ElementID
	m           *Measure
}

// Rtick returns the tick relative to the start of the measure.
func (seg *Segment) Rtick() partitur.Fraction {
	return seg.Tick.Sub(seg.m.Tick)
}

// Element returns the principal element on track, or NoElement.
func (seg *Segment) Element(track partitur.Track) ElementID {
	if id, ok := seg.slots[track]; ok {
		return id
	}
	return NoElement
}

// Tracks returns the tracks having a principal element, in ascending order.
func (seg *Segment) Tracks() []partitur.Track {
	ret := make([]partitur.Track, 0, len(seg.slots))
	for t := range seg.slots {
		ret = append(ret, t)
	}
	slices.Sort(ret)
	return ret
}

// Annotations returns the annotations attached to the segment, in insertion
// order.
func (seg *Segment) Annotations() []ElementID {
	return slices.Clone(seg.annotations)
}

// Empty reports if the segment holds neither principal elements nor
// annotations.
func (seg *Segment) Empty() bool {
	return len(seg.slots) == 0 && len(seg.annotations) == 0
}

func segmentCmp(seg *Segment, tick partitur.Fraction, typ partitur.SegmentType) int {
	if c := seg.Tick.Cmp(tick); c != 0 {
		return c
	}
	return seg.Type.Precedence() - typ.Precedence()
}

// findSegment returns the index of the segment (tick, typ) in m or the index
// where it would be inserted.
func (s *Score) findSegment(m *Measure, typ partitur.SegmentType, tick partitur.Fraction) (int, bool) {
	return slices.BinarySearchFunc(m.Segments, tick, func(id ElementID, t partitur.Fraction) int {
		return segmentCmp(s.elems[id].Payload.(*Segment), t, typ)
	})
}

// GetSegment returns the segment of type typ at tick in the measure,
// creating it if it does not exist. New segments are inserted in (tick,
// type precedence) order.
func (s *Score) GetSegment(measure ElementID, typ partitur.SegmentType, tick partitur.Fraction) (ElementID, error) {
	m := s.Measure(measure)
	if m == nil {
		return NoElement, s.structural("get segment", tick, 0, partitur.ErrNoMeasure)
	}
	if !typ.Single() {
		return NoElement, s.structural("get segment", tick, 0, partitur.ErrUnknownKind)
	}
	if tick.Less(m.Tick) || tick.Greater(m.EndTick()) {
		return NoElement, s.structural("get segment", tick, 0, partitur.ErrNoMeasure)
	}
	i, found := s.findSegment(m, typ, tick)
	if found {
		return m.Segments[i], nil
	}
	seg := &Segment{Type: typ, Tick: tick, Measure: measure, slots: map[partitur.Track]ElementID{}, m: m}
	seg.ID = s.newElement(partitur.Segment, measure, 0, seg)
	m.Segments = slices.Insert(m.Segments, i, seg.ID)
	return seg.ID, nil
}

// lookupSegment is GetSegment without creation.
func (s *Score) lookupSegment(m *Measure, typ partitur.SegmentType, tick partitur.Fraction) ElementID {
	if i, found := s.findSegment(m, typ, tick); found {
		return m.Segments[i]
	}
	return NoElement
}

func (s *Score) removeSegmentIfEmpty(id ElementID) {
	seg := s.Segment(id)
	if seg == nil || !seg.Empty() {
		return
	}
	m := seg.m
	if i := slices.Index(m.Segments, id); i >= 0 {
		m.Segments = slices.Delete(m.Segments, i, i+1)
	}
	s.kill(id)
}

// SegmentAt returns the first segment at tick whose type matches mask, or
// NoElement. End barline segments at the end of a measure are found by the
// tick of the measure end.
func (s *Score) SegmentAt(tick partitur.Fraction, mask partitur.SegmentType) ElementID {
	for _, mid := range []ElementID{s.measureEndingAt(tick), s.MeasureAt(tick)} {
		m := s.Measure(mid)
		if m == nil {
			continue
		}
		for _, id := range m.Segments {
			seg := s.elems[id].Payload.(*Segment)
			if seg.Tick.Equal(tick) && seg.Type.Matches(mask) {
				return id
			}
		}
	}
	return NoElement
}

// FirstSegment returns the first segment of the score matching mask.
func (s *Score) FirstSegment(mask partitur.SegmentType) ElementID {
	for _, mid := range s.measures {
		if id := s.Measure(mid).First(mask); id != NoElement {
			return id
		}
	}
	return NoElement
}

// NextSegment returns the segment after seg matching mask, crossing measure
// boundaries, or NoElement.
func (s *Score) NextSegment(seg ElementID, mask partitur.SegmentType) ElementID {
	sp := s.Segment(seg)
	if sp == nil {
		return NoElement
	}
	m := sp.m
	for i := slices.Index(m.Segments, seg) + 1; i < len(m.Segments); i++ {
		if s.elems[m.Segments[i]].Payload.(*Segment).Type.Matches(mask) {
			return m.Segments[i]
		}
	}
	for mid := s.NextMeasure(m.ID); mid != NoElement; mid = s.NextMeasure(mid) {
		if id := s.Measure(mid).First(mask); id != NoElement {
			return id
		}
	}
	return NoElement
}

// PrevSegment returns the segment before seg matching mask, crossing measure
// boundaries, or NoElement.
func (s *Score) PrevSegment(seg ElementID, mask partitur.SegmentType) ElementID {
	sp := s.Segment(seg)
	if sp == nil {
		return NoElement
	}
	m := sp.m
	for i := slices.Index(m.Segments, seg) - 1; i >= 0; i-- {
		if s.elems[m.Segments[i]].Payload.(*Segment).Type.Matches(mask) {
			return m.Segments[i]
		}
	}
	for mid := s.PrevMeasure(m.ID); mid != NoElement; mid = s.PrevMeasure(mid) {
		segs := s.Measure(mid).Segments
		for i := len(segs) - 1; i >= 0; i-- {
			if s.elems[segs[i]].Payload.(*Segment).Type.Matches(mask) {
				return segs[i]
			}
		}
	}
	return NoElement
}

// Segments iterates all segments of the chain matching mask in order.
func (s *Score) Segments(mask partitur.SegmentType) iter.Seq[ElementID] {
	return func(yield func(ElementID) bool) {
		for _, mid := range s.measures {
			for id := range s.Measure(mid).Segs(mask) {
				if !yield(id) {
					return
				}
			}
		}
	}
}
