package score

import (
	"github.com/vsariola/partitur"
)

// AddMMRest builds a multi-measure rest replacing count measures starting
// with first. The mmrest is a measure outside the chain, linked from first
// and aligned with it; it holds one MMRest element on voice 0 of every
// staff.
func (s *Score) AddMMRest(first ElementID, count int) (ElementID, error) {
	const op = "add mmrest"
	m := s.Measure(first)
	if m == nil || m.IsMMRest {
		return NoElement, s.structural(op, partitur.Fraction{}, 0, partitur.ErrNoMeasure)
	}
	if count < 1 || m.No+count > len(s.measures) || m.MMRest != NoElement {
		return NoElement, s.structural(op, m.Tick, 0, partitur.ErrNotMMRest)
	}
	var ticks partitur.Fraction
	for i := m.No; i < m.No+count; i++ {
		ticks = ticks.Add(s.Measure(s.measures[i]).Ticks)
	}
	mm := &Measure{
		Tick:        m.Tick,
		Ticks:       ticks,
		TimeSig:     m.TimeSig,
		No:          m.No,
		IsMMRest:    true,
		MMRestCount: count,
		Irregular:   true,
		s:           s,
	}
	mm.ID = s.newElement(partitur.Measure, NoElement, 0, mm)
	segID, err := s.GetSegment(mm.ID, partitur.SegChordRest, mm.Tick)
	if err != nil {
		return NoElement, err
	}
	seg := s.Segment(segID)
	for staff := range s.staves {
		track := partitur.MakeTrack(staff, 0)
		cr := &ChordRest{
			Duration: ticks.Mul(s.TimeStretch(staff, mm.Tick)),
			Type:     partitur.DurationType{Value: partitur.DurMeasure},
			Count:    count,
		}
		seg.slots[track] = s.newElement(partitur.MMRest, segID, track, cr)
	}
	m.MMRest = mm.ID
	return mm.ID, nil
}

// MMRest returns the multi-measure rest starting at measure, or NoElement.
func (s *Score) MMRest(measure ElementID) ElementID {
	if m := s.Measure(measure); m != nil {
		return m.MMRest
	}
	return NoElement
}

// MMRests returns the multi-measure rests in chain order.
func (s *Score) MMRests() []ElementID {
	var ret []ElementID
	for _, mid := range s.measures {
		if mm := s.Measure(mid).MMRest; mm != NoElement {
			ret = append(ret, mm)
		}
	}
	return ret
}

// ClearMMRests removes every multi-measure rest.
func (s *Score) ClearMMRests() {
	for _, mid := range s.measures {
		m := s.Measure(mid)
		if m.MMRest == NoElement {
			continue
		}
		mm := s.Measure(m.MMRest)
		for _, segID := range mm.Segments {
			for _, id := range s.Segment(segID).slots {
				s.kill(id)
			}
			s.kill(segID)
		}
		s.kill(mm.ID)
		m.MMRest = NoElement
	}
}

// CreateMMRests replaces every run of at least minCount empty measures with
// a multi-measure rest, after removing the existing ones. A measure is empty
// if every staff holds nothing but a full measure rest on voice 0. Key,
// time signature and clef changes may only occur on the first measure of a
// run and layout breaks only on the last.
func (s *Score) CreateMMRests(minCount int) error {
	s.ClearMMRests()
	if minCount < 2 {
		minCount = 2
	}
	for i := 0; i < len(s.measures); {
		n := 0
		for i+n < len(s.measures) && s.mmRestCandidate(s.measures[i+n], n == 0) {
			n++
			if len(s.Measure(s.measures[i+n-1]).Breaks) > 0 {
				break
			}
		}
		if n >= minCount {
			if _, err := s.AddMMRest(s.measures[i], n); err != nil {
				return err
			}
		}
		i += max(n, 1)
	}
	return nil
}

func (s *Score) mmRestCandidate(measure ElementID, first bool) bool {
	m := s.Measure(measure)
	for _, segID := range m.Segments {
		seg := s.elems[segID].Payload.(*Segment)
		switch seg.Type {
		case partitur.SegChordRest:
			if len(seg.annotations) > 0 || !seg.Tick.Equal(m.Tick) {
				return false
			}
			for track, id := range seg.slots {
				cr := s.elems[id].Payload.(*ChordRest)
				if track.Voice() != 0 || s.elems[id].Kind != partitur.Rest || !cr.Type.IsMeasure() {
					return false
				}
			}
		case partitur.SegKeySig, partitur.SegTimeSig, partitur.SegHeaderClef:
			if !first {
				return false
			}
		case partitur.SegEndBarLine:
		default:
			return false
		}
	}
	for id := range s.spanners {
		sp := s.spanners[id]
		if sp.Tick.Greater(m.Tick) && sp.Tick.Less(m.EndTick()) {
			return false
		}
	}
	return true
}
