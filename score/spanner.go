package score

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/interval"
)

type (
	// SpannerID identifies a spanner in the spanner set.
	SpannerID int

	// Anchor tells what the endpoints of a spanner attach to.
	Anchor int

	// Spanner is a range annotation from (Tick, Track) to (Tick2, Track2).
	// The spanner is the only record of its range: segment level start and
	// end markers are derived from it when needed.
	Spanner struct {
		ID     SpannerID
		Kind   partitur.ElementKind
		Tick   partitur.Fraction
		Tick2  partitur.Fraction
		Track  partitur.Track
		Track2 partitur.Track // partitur.NoTrack means same as Track
		Anchor Anchor

		// StartElement and EndElement are the anchoring chord-rests of
		// chord anchored spanners such as ties and slurs.
		StartElement ElementID
		EndElement   ElementID

		Text      string
		Generated bool
	}

	// SpannerMap indexes the spanners of a score by their tick range. The
	// index is rebuilt lazily after the set changes.
	SpannerMap struct {
		score *Score
		tree  *interval.Tree[SpannerID]
		dirty bool
	}
)

const (
	AnchorSegment Anchor = iota
	AnchorChord
	AnchorMeasure
)

var anchorNames = [...]string{"segment", "chord", "measure"}

func (a Anchor) String() string {
	if a < 0 || int(a) >= len(anchorNames) {
		return fmt.Sprintf("anchor(%d)", int(a))
	}
	return anchorNames[a]
}

func (a Anchor) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Anchor) UnmarshalText(text []byte) error {
	for i, n := range anchorNames {
		if n == string(text) {
			*a = Anchor(i)
			return nil
		}
	}
	return fmt.Errorf("unknown anchor %q", string(text))
}

// EffectiveTrack2 returns the end track, resolving NoTrack to the start
// track.
func (sp *Spanner) EffectiveTrack2() partitur.Track {
	if sp.Track2 == partitur.NoTrack {
		return sp.Track
	}
	return sp.Track2
}

// Len returns Tick2 - Tick.
func (sp *Spanner) Len() partitur.Fraction {
	return sp.Tick2.Sub(sp.Tick)
}

// IsOpenAt reports if the spanner covers tick on track. A cross-staff
// spanner is open on its start track and on its own end track.
func (sp *Spanner) IsOpenAt(tick partitur.Fraction, track partitur.Track) bool {
	if tick.Less(sp.Tick) || tick.Greater(sp.Tick2) {
		return false
	}
	return track == sp.Track || track == sp.EffectiveTrack2()
}

// AddSpanner validates and adds a spanner; the ID field of sp is ignored.
// Chord anchored spanners get their start and end elements resolved from
// the chord-rests at the anchor positions when not given.
func (s *Score) AddSpanner(sp Spanner) (SpannerID, error) {
	const op = "add spanner"
	if !sp.Kind.IsSpanner() {
		return 0, s.structural(op, sp.Tick, sp.Track, partitur.ErrUnknownKind)
	}
	if !sp.Track.Valid(s.NumStaves()) || (sp.Track2 != partitur.NoTrack && !sp.Track2.Valid(s.NumStaves())) {
		return 0, s.structural(op, sp.Tick, sp.Track, partitur.ErrNoStaff)
	}
	if sp.Tick2.Less(sp.Tick) || (sp.Tick2.Equal(sp.Tick) && !partitur.AllowsZeroLength(sp.Kind)) {
		return 0, s.structural(op, sp.Tick, sp.Track, partitur.ErrBadSpannerRange)
	}
	switch sp.Anchor {
	case AnchorChord:
		start, err := s.resolveChordAnchor(sp.StartElement, sp.Tick, sp.Track)
		if err != nil {
			return 0, err
		}
		end, err := s.resolveChordAnchor(sp.EndElement, sp.Tick2, sp.EffectiveTrack2())
		if err != nil {
			return 0, err
		}
		sp.StartElement, sp.EndElement = start, end
	case AnchorMeasure:
		if m := s.Measure(s.MeasureAt(sp.Tick)); m == nil || !m.Tick.Equal(sp.Tick) {
			return 0, s.structural(op, sp.Tick, sp.Track, partitur.ErrMissingAnchor)
		}
		if s.measureEndingAt(sp.Tick2) == NoElement {
			return 0, s.structural(op, sp.Tick2, sp.EffectiveTrack2(), partitur.ErrMissingAnchor)
		}
		sp.StartElement, sp.EndElement = NoElement, NoElement
	default:
		if s.SegmentAt(sp.Tick, partitur.SegChordRest) == NoElement {
			return 0, s.structural(op, sp.Tick, sp.Track, partitur.ErrMissingAnchor)
		}
		if s.SegmentAt(sp.Tick2, partitur.SegChordRest) == NoElement && s.measureEndingAt(sp.Tick2) == NoElement {
			return 0, s.structural(op, sp.Tick2, sp.EffectiveTrack2(), partitur.ErrMissingAnchor)
		}
		sp.StartElement, sp.EndElement = NoElement, NoElement
	}
	s.nextSpanner++
	sp.ID = s.nextSpanner
	s.spanners[sp.ID] = &sp
	s.spannerMap.dirty = true
	return sp.ID, nil
}

func (s *Score) resolveChordAnchor(id ElementID, tick partitur.Fraction, track partitur.Track) (ElementID, error) {
	if id == NoElement {
		if seg := s.Segment(s.SegmentAt(tick, partitur.SegChordRest)); seg != nil {
			id = seg.Element(track)
		}
	}
	e := s.Element(id)
	if e == nil || !e.Kind.IsChordRest() || e.Track != track || !s.Tick(id).Equal(tick) {
		return NoElement, s.structural("add spanner", tick, track, partitur.ErrMissingAnchor)
	}
	return id, nil
}

// RemoveSpanner removes a spanner from the set.
func (s *Score) RemoveSpanner(id SpannerID) error {
	sp, ok := s.spanners[id]
	if !ok {
		return s.structural("remove spanner", partitur.Fraction{}, partitur.NoTrack, partitur.ErrUnknownElement)
	}
	delete(s.spanners, sp.ID)
	s.spannerMap.dirty = true
	return nil
}

// Spanner returns a copy of the spanner with the given ID.
func (s *Score) Spanner(id SpannerID) (Spanner, bool) {
	sp, ok := s.spanners[id]
	if !ok {
		return Spanner{}, false
	}
	return *sp, true
}

// Spanners returns copies of all spanners ordered by (Tick, Track, ID).
func (s *Score) Spanners() []Spanner {
	ret := make([]Spanner, 0, len(s.spanners))
	for _, sp := range s.spanners {
		ret = append(ret, *sp)
	}
	slices.SortFunc(ret, func(a, b Spanner) int {
		if c := a.Tick.Cmp(b.Tick); c != 0 {
			return c
		}
		if a.Track != b.Track {
			return int(a.Track - b.Track)
		}
		return int(a.ID - b.ID)
	})
	return ret
}

// NumSpanners returns the size of the spanner set.
func (s *Score) NumSpanners() int { return len(s.spanners) }

func (s *Score) anchorsSpanner(id ElementID) bool {
	for _, sp := range s.spanners {
		if sp.StartElement == id || sp.EndElement == id {
			return true
		}
	}
	return false
}

// SpannerMap returns the interval index of the spanner set.
func (s *Score) SpannerMap() *SpannerMap {
	return &s.spannerMap
}

// FindOverlapping is a shorthand for s.SpannerMap().FindOverlapping.
func (s *Score) FindOverlapping(from, to partitur.Fraction) []Spanner {
	return s.spannerMap.FindOverlapping(from, to)
}

func (m *SpannerMap) update() {
	if m.tree != nil && !m.dirty {
		return
	}
	ivs := make([]interval.Interval[SpannerID], 0, len(m.score.spanners))
	for _, sp := range m.score.Spanners() {
		ivs = append(ivs, interval.Interval[SpannerID]{Start: sp.Tick, Stop: sp.Tick2, Value: sp.ID})
	}
	m.tree = interval.New(ivs)
	m.dirty = false
}

// FindOverlapping returns the spanners intersecting [from, to) by a nonzero
// amount, the spanners ending exactly at to and the zero length spanners
// inside the window, ordered by (Tick, Track, ID).
func (m *SpannerMap) FindOverlapping(from, to partitur.Fraction) []Spanner {
	m.update()
	var ret []Spanner
	for _, iv := range m.tree.FindOverlapping(from, to) {
		sp := m.score.spanners[iv.Value]
		switch {
		case sp.Tick.Less(to) && sp.Tick2.Greater(from):
		case sp.Tick2.Equal(to):
		case sp.Tick.Equal(sp.Tick2) && sp.Tick.GreaterEq(from) && sp.Tick.Less(to):
		default:
			continue
		}
		ret = append(ret, *sp)
	}
	return ret
}

// Len returns the number of indexed spanners.
func (m *SpannerMap) Len() int {
	m.update()
	return m.tree.Len()
}
