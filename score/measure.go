package score

import (
	"iter"

	"golang.org/x/exp/slices"

	"github.com/vsariola/partitur"
)

// Measure is the payload of a measure element. A measure spans
// [Tick, Tick+Ticks) and owns its segments in (tick, segment type) order.
type Measure struct {
	ID      ElementID
	Tick    partitur.Fraction
	Ticks   partitur.Fraction // actual length; differs from TimeSig only if Irregular
	TimeSig partitur.TimeSig
	No      int

	Irregular bool
	Segments  []ElementID
	Breaks    []ElementID

	// MMRest links a real measure to the multi-measure rest that replaces
	// it and the following measures when mmrests are shown.
	MMRest      ElementID
	IsMMRest    bool
	MMRestCount int

	s *Score
}

// EndTick returns the tick right after the measure.
func (m *Measure) EndTick() partitur.Fraction {
	return m.Tick.Add(m.Ticks)
}

// Nominal returns the length given by the time signature.
func (m *Measure) Nominal() partitur.Fraction {
	return m.TimeSig.Fraction()
}

// First returns the first segment of the measure matching mask, or
// NoElement.
func (m *Measure) First(mask partitur.SegmentType) ElementID {
	for _, id := range m.Segments {
		if m.s.elems[id].Payload.(*Segment).Type.Matches(mask) {
			return id
		}
	}
	return NoElement
}

// Segs iterates the segments of the measure matching mask.
func (m *Measure) Segs(mask partitur.SegmentType) iter.Seq[ElementID] {
	return func(yield func(ElementID) bool) {
		for _, id := range m.Segments {
			if !m.s.elems[id].Payload.(*Segment).Type.Matches(mask) {
				continue
			}
			if !yield(id) {
				return
			}
		}
	}
}

// AppendMeasure adds a measure of the given time signature to the end of the
// chain.
func (s *Score) AppendMeasure(sig partitur.TimeSig) ElementID {
	return s.appendMeasure(sig, sig.Fraction(), false)
}

// AppendIrregularMeasure adds a measure whose actual length differs from its
// time signature, e.g. a pickup measure.
func (s *Score) AppendIrregularMeasure(sig partitur.TimeSig, ticks partitur.Fraction) ElementID {
	return s.appendMeasure(sig, ticks, !ticks.Equal(sig.Fraction()))
}

// AppendMeasures adds n measures of the same time signature.
func (s *Score) AppendMeasures(n int, sig partitur.TimeSig) []ElementID {
	ret := make([]ElementID, n)
	for i := range ret {
		ret[i] = s.AppendMeasure(sig)
	}
	return ret
}

func (s *Score) appendMeasure(sig partitur.TimeSig, ticks partitur.Fraction, irregular bool) ElementID {
	m := &Measure{
		Tick:      s.EndTick(),
		Ticks:     ticks,
		TimeSig:   sig,
		No:        len(s.measures),
		Irregular: irregular,
		MMRest:    NoElement,
		s:         s,
	}
	m.ID = s.newElement(partitur.Measure, NoElement, 0, m)
	s.measures = append(s.measures, m.ID)
	return m.ID
}

// EndTick returns the tick after the last measure.
func (s *Score) EndTick() partitur.Fraction {
	if len(s.measures) == 0 {
		return partitur.Fraction{}
	}
	return s.Measure(s.measures[len(s.measures)-1]).EndTick()
}

// Measures returns the measure chain in tick order.
func (s *Score) Measures() []ElementID {
	return slices.Clone(s.measures)
}

// NumMeasures returns the length of the measure chain.
func (s *Score) NumMeasures() int { return len(s.measures) }

// MeasureByIndex returns the i:th measure of the chain, or NoElement.
func (s *Score) MeasureByIndex(i int) ElementID {
	if i < 0 || i >= len(s.measures) {
		return NoElement
	}
	return s.measures[i]
}

// MeasureIndex returns the position of a measure in the chain, or -1 for
// measures not in the chain, such as multi-measure rests.
func (s *Score) MeasureIndex(id ElementID) int {
	m := s.Measure(id)
	if m == nil || m.IsMMRest {
		return -1
	}
	return m.No
}

// MeasureAt returns the measure containing tick, or NoElement if tick is
// outside the score.
func (s *Score) MeasureAt(tick partitur.Fraction) ElementID {
	i, found := slices.BinarySearchFunc(s.measures, tick, func(id ElementID, t partitur.Fraction) int {
		return s.elems[id].Payload.(*Measure).Tick.Cmp(t)
	})
	if found {
		return s.measures[i]
	}
	if i == 0 {
		return NoElement
	}
	m := s.elems[s.measures[i-1]].Payload.(*Measure)
	if tick.Less(m.EndTick()) {
		return m.ID
	}
	return NoElement
}

// measureEndingAt returns the measure whose end tick is tick, or NoElement.
func (s *Score) measureEndingAt(tick partitur.Fraction) ElementID {
	id := s.MeasureAt(tick)
	if id == NoElement {
		if len(s.measures) > 0 && tick.Equal(s.EndTick()) {
			return s.measures[len(s.measures)-1]
		}
		return NoElement
	}
	if m := s.Measure(id); m.No > 0 && m.Tick.Equal(tick) {
		return s.measures[m.No-1]
	}
	return NoElement
}

// NextMeasure returns the measure following m in the chain, or NoElement.
func (s *Score) NextMeasure(id ElementID) ElementID {
	i := s.MeasureIndex(id)
	if i < 0 {
		return NoElement
	}
	return s.MeasureByIndex(i + 1)
}

// PrevMeasure returns the measure preceding m in the chain, or NoElement.
func (s *Score) PrevMeasure(id ElementID) ElementID {
	i := s.MeasureIndex(id)
	if i <= 0 {
		return NoElement
	}
	return s.measures[i-1]
}

// TimeSigAt returns the nominal time signature of the measure at tick.
func (s *Score) TimeSigAt(tick partitur.Fraction) partitur.TimeSig {
	if id := s.MeasureAt(tick); id != NoElement {
		return s.Measure(id).TimeSig
	}
	if len(s.measures) > 0 {
		return s.Measure(s.measures[len(s.measures)-1]).TimeSig
	}
	return partitur.CommonTime
}
