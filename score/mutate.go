package score

import (
	"golang.org/x/exp/slices"

	"github.com/vsariola/partitur"
)

// InsertElement inserts an element of the given kind at tick on track. The
// payload must be the payload type of the kind; the score takes ownership
// of it. Spanners are added with AddSpanner and multi-measure rests with
// AddMMRest.
//
// Structural violations, such as a second chord-rest on an occupied track
// slot or a key signature in the middle of a measure, are rejected with a
// *partitur.StructuralError and leave the score unchanged. InsertElement
// never fills gaps; run the checker after a batch of mutations.
func (s *Score) InsertElement(kind partitur.ElementKind, tick partitur.Fraction, track partitur.Track, p Payload) (ElementID, error) {
	const op = "insert element"
	switch {
	case !kind.Valid(), kind.IsSpanner(), kind.IsSpannerSegment(),
		kind == partitur.Measure, kind == partitur.Segment, kind == partitur.MMRest:
		return NoElement, s.structural(op, tick, track, partitur.ErrUnknownKind)
	case p == nil || !payloadMatches(kind, p):
		return NoElement, s.structural(op, tick, track, partitur.ErrBadPayload)
	case !track.Valid(s.NumStaves()):
		return NoElement, s.structural(op, tick, track, partitur.ErrNoStaff)
	}
	switch kind {
	case partitur.Tuplet:
		return s.insertTuplet(tick, track, p.(*Tuplet))
	case partitur.LayoutBreak:
		return s.insertBreak(tick, track, p.(*Break))
	}
	switch {
	case kind.IsChordRest():
		return s.insertChordRest(kind, tick, track, p.(*ChordRest))
	case kind.IsAnnotation():
		return s.insertAnnotation(kind, tick, track, p)
	}
	return s.insertSegmentElement(kind, tick, track, p)
}

func (s *Score) insertChordRest(kind partitur.ElementKind, tick partitur.Fraction, track partitur.Track, cr *ChordRest) (ElementID, error) {
	const op = "insert chord-rest"
	m := s.Measure(s.MeasureAt(tick))
	if m == nil {
		return NoElement, s.structural(op, tick, track, partitur.ErrNoMeasure)
	}
	if kind == partitur.MeasureRepeat || cr.Type.IsMeasure() {
		if !tick.Equal(m.Tick) {
			return NoElement, s.structural(op, tick, track, partitur.ErrNotMeasureStart)
		}
		if cr.Duration.IsZero() {
			cr.Duration = s.MeasureLen(m.ID, track.Staff())
		}
		if kind == partitur.MeasureRepeat && cr.Count == 0 {
			cr.Count = 1
		}
	}
	if cr.Duration.Sign() <= 0 {
		return NoElement, s.structural(op, tick, track, partitur.ErrBadDuration)
	}
	var tup *Tuplet
	if cr.Tuplet != NoElement {
		tup = s.Tuplet(cr.Tuplet)
		if tup == nil || s.elems[cr.Tuplet].Track != track {
			return NoElement, s.structural(op, tick, track, partitur.ErrUnknownElement)
		}
	}
	if seg := s.lookupSegment(m, partitur.SegChordRest, tick); seg != NoElement {
		if s.Segment(seg).Element(track) != NoElement {
			return NoElement, s.structural(op, tick, track, partitur.ErrSlotOccupied)
		}
	}
	segID, err := s.GetSegment(m.ID, partitur.SegChordRest, tick)
	if err != nil {
		return NoElement, err
	}
	if !cr.Type.IsMeasure() {
		cr.Type, _ = partitur.DurationFor(cr.Duration)
	}
	if kind == partitur.Chord {
		slices.Sort(cr.Pitches)
	}
	id := s.newElement(kind, segID, track, cr)
	s.Segment(segID).slots[track] = id
	if tup != nil {
		s.addTupletMember(tup, id)
	}
	return id, nil
}

func (s *Score) insertTuplet(tick partitur.Fraction, track partitur.Track, t *Tuplet) (ElementID, error) {
	const op = "insert tuplet"
	m := s.Measure(s.MeasureAt(tick))
	if m == nil {
		return NoElement, s.structural(op, tick, track, partitur.ErrNoMeasure)
	}
	if t.Ratio.Sign() <= 0 || t.Ticks.Sign() <= 0 {
		return NoElement, s.structural(op, tick, track, partitur.ErrBadDuration)
	}
	var outer *Tuplet
	if t.Tuplet != NoElement {
		outer = s.Tuplet(t.Tuplet)
		if outer == nil || s.elems[t.Tuplet].Track != track {
			return NoElement, s.structural(op, tick, track, partitur.ErrUnknownElement)
		}
	}
	t.Tick = tick
	t.Members = nil
	id := s.newElement(partitur.Tuplet, m.ID, track, t)
	if outer != nil {
		s.addTupletMember(outer, id)
	}
	return id, nil
}

func (s *Score) addTupletMember(t *Tuplet, id ElementID) {
	tick := s.Tick(id)
	i, _ := slices.BinarySearchFunc(t.Members, tick, func(m ElementID, tick partitur.Fraction) int {
		return s.Tick(m).Cmp(tick)
	})
	t.Members = slices.Insert(t.Members, i, id)
}

func (s *Score) insertAnnotation(kind partitur.ElementKind, tick partitur.Fraction, track partitur.Track, p Payload) (ElementID, error) {
	m := s.Measure(s.MeasureAt(tick))
	if m == nil {
		return NoElement, s.structural("insert annotation", tick, track, partitur.ErrNoMeasure)
	}
	segID, err := s.GetSegment(m.ID, partitur.SegChordRest, tick)
	if err != nil {
		return NoElement, err
	}
	id := s.newElement(kind, segID, track, p)
	seg := s.Segment(segID)
	seg.annotations = append(seg.annotations, id)
	return id, nil
}

func (s *Score) insertBreak(tick partitur.Fraction, track partitur.Track, b *Break) (ElementID, error) {
	m := s.Measure(s.MeasureAt(tick))
	if m == nil {
		return NoElement, s.structural("insert break", tick, track, partitur.ErrNoMeasure)
	}
	id := s.newElement(partitur.LayoutBreak, m.ID, track, b)
	m.Breaks = append(m.Breaks, id)
	return id, nil
}

// segmentFor returns the measure and segment type holding a clef, key
// signature, time signature, barline or breath at tick.
func (s *Score) segmentFor(kind partitur.ElementKind, tick partitur.Fraction, track partitur.Track, p Payload) (*Measure, partitur.SegmentType, error) {
	const op = "insert element"
	m := s.Measure(s.MeasureAt(tick))
	switch kind {
	case partitur.Clef, partitur.KeySig, partitur.TimeSigKind:
		if track.Voice() != 0 {
			return nil, 0, s.structural(op, tick, track, partitur.ErrWrongVoice)
		}
	case partitur.BarLine:
		if p.(*BarLine).Subtype != "startrepeat" {
			if end := s.Measure(s.measureEndingAt(tick)); end != nil {
				return end, partitur.SegEndBarLine, nil
			}
		}
	}
	if m == nil {
		return nil, 0, s.structural(op, tick, track, partitur.ErrNoMeasure)
	}
	atStart := tick.Equal(m.Tick)
	switch kind {
	case partitur.Clef:
		if atStart {
			return m, partitur.SegHeaderClef, nil
		}
		return m, partitur.SegClef, nil
	case partitur.KeySig:
		if !atStart {
			return nil, 0, s.structural(op, tick, track, partitur.ErrNotMeasureStart)
		}
		return m, partitur.SegKeySig, nil
	case partitur.TimeSigKind:
		if !atStart {
			return nil, 0, s.structural(op, tick, track, partitur.ErrNotMeasureStart)
		}
		local := m.Nominal().Mul(s.TimeStretch(track.Staff(), tick))
		if !p.(*TimeSigMark).Sig.Fraction().Equal(local) {
			return nil, 0, s.structural(op, tick, track, partitur.ErrTimeSigMismatch)
		}
		return m, partitur.SegTimeSig, nil
	case partitur.BarLine:
		switch {
		case p.(*BarLine).Subtype == "startrepeat":
			if !atStart {
				return nil, 0, s.structural(op, tick, track, partitur.ErrNotMeasureStart)
			}
			return m, partitur.SegStartRepeatBarLine, nil
		case atStart:
			return m, partitur.SegBeginBarLine, nil
		}
		return m, partitur.SegBarLine, nil
	case partitur.Breath:
		return m, partitur.SegBreath, nil
	}
	return nil, 0, s.structural(op, tick, track, partitur.ErrUnknownKind)
}

func (s *Score) insertSegmentElement(kind partitur.ElementKind, tick partitur.Fraction, track partitur.Track, p Payload) (ElementID, error) {
	m, typ, err := s.segmentFor(kind, tick, track, p)
	if err != nil {
		return NoElement, err
	}
	if seg := s.lookupSegment(m, typ, tick); seg != NoElement {
		if s.Segment(seg).Element(track) != NoElement {
			return NoElement, s.structural("insert element", tick, track, partitur.ErrSlotOccupied)
		}
	}
	segID, err := s.GetSegment(m.ID, typ, tick)
	if err != nil {
		return NoElement, err
	}
	id := s.newElement(kind, segID, track, p)
	s.Segment(segID).slots[track] = id
	return id, nil
}

// AddChord inserts a chord of written duration d.
func (s *Score) AddChord(tick partitur.Fraction, track partitur.Track, d partitur.Fraction, pitches ...int) (ElementID, error) {
	return s.InsertElement(partitur.Chord, tick, track, &ChordRest{Duration: d, Pitches: pitches, Tuplet: NoElement})
}

// AddRest inserts a rest of written duration d.
func (s *Score) AddRest(tick partitur.Fraction, track partitur.Track, d partitur.Fraction) (ElementID, error) {
	return s.InsertElement(partitur.Rest, tick, track, &ChordRest{Duration: d, Tuplet: NoElement})
}

// AddGapRest inserts a generated rest filling a gap. Gap rests are not
// written to streams unless asked for; readers regenerate them.
func (s *Score) AddGapRest(tick partitur.Fraction, track partitur.Track, d partitur.Fraction) (ElementID, error) {
	id, err := s.InsertElement(partitur.Rest, tick, track, &ChordRest{Duration: d, Tuplet: NoElement, Gap: true})
	if err != nil {
		return NoElement, err
	}
	s.elems[id].Generated = true
	return id, nil
}

// AddMeasureRest inserts a full measure rest at the start of a measure.
func (s *Score) AddMeasureRest(measure ElementID, track partitur.Track) (ElementID, error) {
	m := s.Measure(measure)
	if m == nil {
		return NoElement, s.structural("insert measure rest", partitur.Fraction{}, track, partitur.ErrNoMeasure)
	}
	return s.InsertElement(partitur.Rest, m.Tick, track, &ChordRest{Type: partitur.DurationType{Value: partitur.DurMeasure}, Tuplet: NoElement})
}

// AddTuplet inserts an empty tuplet; members are inserted with their
// ChordRest.Tuplet set to the returned ID.
func (s *Score) AddTuplet(tick partitur.Fraction, track partitur.Track, ratio, ticks partitur.Fraction) (ElementID, error) {
	return s.InsertElement(partitur.Tuplet, tick, track, &Tuplet{Ratio: ratio, Ticks: ticks, Tuplet: NoElement})
}

// AddKeySig inserts a key signature on voice 0 of staff.
func (s *Score) AddKeySig(tick partitur.Fraction, staff int, key partitur.Key) (ElementID, error) {
	return s.InsertElement(partitur.KeySig, tick, partitur.MakeTrack(staff, 0), &KeySig{Key: key})
}

// AddTimeSig inserts a time signature mark on voice 0 of staff. The
// signature must match the measure starting at tick.
func (s *Score) AddTimeSig(tick partitur.Fraction, staff int, sig partitur.TimeSig) (ElementID, error) {
	return s.InsertElement(partitur.TimeSigKind, tick, partitur.MakeTrack(staff, 0), &TimeSigMark{Sig: sig})
}

// AddClef inserts a clef on voice 0 of staff.
func (s *Score) AddClef(tick partitur.Fraction, staff int, clef partitur.ClefType) (ElementID, error) {
	return s.InsertElement(partitur.Clef, tick, partitur.MakeTrack(staff, 0), &Clef{Type: clef})
}

// AddAnnotation attaches a text annotation of the given kind.
func (s *Score) AddAnnotation(kind partitur.ElementKind, tick partitur.Fraction, track partitur.Track, text string) (ElementID, error) {
	return s.InsertElement(kind, tick, track, &Text{Text: text})
}

// AddBreak attaches a layout break to a measure.
func (s *Score) AddBreak(measure ElementID, typ partitur.BreakType) (ElementID, error) {
	m := s.Measure(measure)
	if m == nil {
		return NoElement, s.structural("insert break", partitur.Fraction{}, 0, partitur.ErrNoMeasure)
	}
	return s.InsertElement(partitur.LayoutBreak, m.Tick, 0, &Break{Type: typ})
}

// RemoveElement detaches an element from its containers and removes it.
// Elements anchoring a spanner, the last element of a segment a spanner is
// anchored to and tuplets with members are rejected; remove the spanner or
// the members first. Segments left empty are removed.
func (s *Score) RemoveElement(id ElementID) error {
	const op = "remove element"
	e := s.Element(id)
	if e == nil {
		return s.structural(op, partitur.Fraction{}, partitur.NoTrack, partitur.ErrUnknownElement)
	}
	tick := s.Tick(id)
	if e.Kind == partitur.Measure || e.Kind == partitur.Segment {
		return s.structural(op, tick, e.Track, partitur.ErrNotRemovable)
	}
	if s.anchorsSpanner(id) || s.removesSpannerSegment(e) {
		return s.structural(op, tick, e.Track, partitur.ErrAnchored)
	}
	switch p := e.Payload.(type) {
	case *Tuplet:
		if len(p.Members) > 0 {
			return s.structural(op, tick, e.Track, partitur.ErrTupletNotEmpty)
		}
		s.removeTupletMember(p.Tuplet, id)
		s.kill(id)
	case *Break:
		m := s.Measure(e.Parent)
		m.Breaks = slices.DeleteFunc(m.Breaks, func(b ElementID) bool { return b == id })
		s.kill(id)
	case *Text:
		seg := s.Segment(e.Parent)
		seg.annotations = slices.DeleteFunc(seg.annotations, func(a ElementID) bool { return a == id })
		s.kill(id)
		s.removeSegmentIfEmpty(seg.ID)
	default:
		seg := s.Segment(e.Parent)
		delete(seg.slots, e.Track)
		if cr, ok := p.(*ChordRest); ok {
			s.removeTupletMember(cr.Tuplet, id)
		}
		s.kill(id)
		s.removeSegmentIfEmpty(seg.ID)
	}
	return nil
}

// removesSpannerSegment reports if removing e would empty a ChordRest segment
// that a segment anchored spanner starts or ends at.
func (s *Score) removesSpannerSegment(e *Element) bool {
	seg := s.Segment(e.Parent)
	if seg == nil || seg.Type != partitur.SegChordRest || len(seg.slots)+len(seg.annotations) != 1 {
		return false
	}
	for _, sp := range s.spanners {
		if sp.Anchor != AnchorSegment {
			continue
		}
		if sp.Tick.Equal(seg.Tick) {
			return true
		}
		if sp.Tick2.Equal(seg.Tick) && s.measureEndingAt(seg.Tick) == NoElement {
			return true
		}
	}
	return false
}

func (s *Score) removeTupletMember(tuplet, id ElementID) {
	if t := s.Tuplet(tuplet); t != nil {
		t.Members = slices.DeleteFunc(t.Members, func(m ElementID) bool { return m == id })
	}
}

// SetDuration changes the written duration of a chord, rest or tuplet. The
// display duration type follows the new length, except for measure rests.
func (s *Score) SetDuration(id ElementID, d partitur.Fraction) error {
	const op = "set duration"
	e := s.Element(id)
	if e == nil {
		return s.structural(op, partitur.Fraction{}, partitur.NoTrack, partitur.ErrUnknownElement)
	}
	tick := s.Tick(id)
	if d.Sign() <= 0 {
		return s.structural(op, tick, e.Track, partitur.ErrBadDuration)
	}
	switch e.Kind {
	case partitur.Chord, partitur.Rest:
		cr := e.Payload.(*ChordRest)
		cr.Duration = d
		if !cr.Type.IsMeasure() {
			cr.Type, _ = partitur.DurationFor(d)
		}
	case partitur.Tuplet:
		e.Payload.(*Tuplet).Ticks = d
	default:
		return s.structural(op, tick, e.Track, partitur.ErrNotDurationElement)
	}
	return nil
}
