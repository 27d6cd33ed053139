// Package score holds the in-memory model of a notated score: the measure
// and segment chain, the element arena and the spanner set, together with
// the mutation and query interfaces working on them.
//
// A Score is single-writer: mutations and checks must not run concurrently
// with each other, while read-only queries may be issued freely between
// mutations.
package score

import (
	"github.com/vsariola/partitur"
)

type (
	// Score owns every element of one document. Elements are addressed by
	// ElementID handles into the arena; measures form the chain in tick
	// order.
	Score struct {
		elems    []*Element
		measures []ElementID
		staves   []Staff

		spanners    map[SpannerID]*Spanner
		nextSpanner SpannerID
		spannerMap  SpannerMap
	}

	// Staff holds the per staff state that is not expressed as elements:
	// the initial key and clef, and the time stretch events of staves
	// running in a local time signature.
	Staff struct {
		Index   int
		Name    string
		Key     partitur.Key
		Clef    partitur.ClefType
		stretch []stretchEvent
	}

	stretchEvent struct {
		Tick    partitur.Fraction
		Stretch partitur.Fraction
	}
)

// NewScore returns an empty score with the given number of staves.
func NewScore(staves int) *Score {
	s := &Score{spanners: map[SpannerID]*Spanner{}}
	s.elems = append(s.elems, &Element{ID: NoElement, dead: true})
	for i := 0; i < staves; i++ {
		s.AddStaff()
	}
	s.spannerMap.score = s
	return s
}

// AddStaff appends a staff and returns its index.
func (s *Score) AddStaff() int {
	i := len(s.staves)
	s.staves = append(s.staves, Staff{Index: i})
	return i
}

// NumStaves returns the number of staves.
func (s *Score) NumStaves() int { return len(s.staves) }

// NumTracks returns the number of tracks, i.e. staves times voices.
func (s *Score) NumTracks() int { return len(s.staves) * partitur.VOICES }

// Staff returns the staff with the given index, or nil.
func (s *Score) Staff(i int) *Staff {
	if i < 0 || i >= len(s.staves) {
		return nil
	}
	return &s.staves[i]
}

// SetTimeStretch sets the stretch (local length / global length) of a staff
// from tick onwards.
func (s *Score) SetTimeStretch(staff int, tick, stretch partitur.Fraction) error {
	st := s.Staff(staff)
	if st == nil {
		return &partitur.StructuralError{Op: "set time stretch", Tick: tick, Track: partitur.MakeTrack(staff, 0), Err: partitur.ErrNoStaff}
	}
	if stretch.Sign() <= 0 {
		return &partitur.StructuralError{Op: "set time stretch", Tick: tick, Track: partitur.MakeTrack(staff, 0), Err: partitur.ErrBadDuration}
	}
	for i, ev := range st.stretch {
		if ev.Tick.Equal(tick) {
			st.stretch[i].Stretch = stretch
			return nil
		}
		if ev.Tick.Greater(tick) {
			st.stretch = append(st.stretch[:i], append([]stretchEvent{{tick, stretch}}, st.stretch[i:]...)...)
			return nil
		}
	}
	st.stretch = append(st.stretch, stretchEvent{tick, stretch})
	return nil
}

// TimeStretch returns the stretch active on a staff at tick, 1/1 by default.
func (s *Score) TimeStretch(staff int, tick partitur.Fraction) partitur.Fraction {
	ret := partitur.Whole(1)
	st := s.Staff(staff)
	if st == nil {
		return ret
	}
	for _, ev := range st.stretch {
		if ev.Tick.Greater(tick) {
			break
		}
		ret = ev.Stretch
	}
	return ret
}

// StretchEvents returns the ticks where the stretch of a staff changes.
func (s *Score) StretchEvents(staff int) (ticks, stretches []partitur.Fraction) {
	st := s.Staff(staff)
	if st == nil {
		return nil, nil
	}
	for _, ev := range st.stretch {
		ticks = append(ticks, ev.Tick)
		stretches = append(stretches, ev.Stretch)
	}
	return ticks, stretches
}

func (s *Score) newElement(kind partitur.ElementKind, parent ElementID, track partitur.Track, p Payload) ElementID {
	id := ElementID(len(s.elems))
	s.elems = append(s.elems, &Element{ID: id, Kind: kind, Parent: parent, Track: track, Payload: p})
	return id
}

func (s *Score) kill(id ElementID) {
	s.elems[id].dead = true
}

// Element returns the live element with the given ID, or nil. The returned
// element and its payload must be treated as read-only; use the mutation
// methods of Score to change them.
func (s *Score) Element(id ElementID) *Element {
	if id < 0 || int(id) >= len(s.elems) || s.elems[id].dead {
		return nil
	}
	return s.elems[id]
}

// Measure returns the payload of a live measure, or nil.
func (s *Score) Measure(id ElementID) *Measure {
	if e := s.Element(id); e != nil {
		if m, ok := e.Payload.(*Measure); ok {
			return m
		}
	}
	return nil
}

// Segment returns the payload of a live segment, or nil.
func (s *Score) Segment(id ElementID) *Segment {
	if e := s.Element(id); e != nil {
		if seg, ok := e.Payload.(*Segment); ok {
			return seg
		}
	}
	return nil
}

// ChordRest returns the payload of a live chord, rest, mmrest or measure
// repeat, or nil.
func (s *Score) ChordRest(id ElementID) *ChordRest {
	if e := s.Element(id); e != nil {
		if cr, ok := e.Payload.(*ChordRest); ok {
			return cr
		}
	}
	return nil
}

// Tuplet returns the payload of a live tuplet, or nil.
func (s *Score) Tuplet(id ElementID) *Tuplet {
	if e := s.Element(id); e != nil {
		if t, ok := e.Payload.(*Tuplet); ok {
			return t
		}
	}
	return nil
}

func (s *Score) structural(op string, tick partitur.Fraction, track partitur.Track, err error) error {
	return &partitur.StructuralError{Op: op, Tick: tick, Track: track, Err: err}
}
