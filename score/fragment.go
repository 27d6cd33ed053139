package score

import (
	"fmt"

	"github.com/vsariola/partitur"
)

type (
	// FragmentType tells which part of a spanner a fragment draws.
	FragmentType int

	// Fragment is one piece of a spanner between two layout breaks. Layout
	// draws one fragment per system the spanner crosses.
	Fragment struct {
		Kind  partitur.ElementKind
		Type  FragmentType
		Tick  partitur.Fraction
		Tick2 partitur.Fraction
	}
)

const (
	FragmentSingle FragmentType = iota
	FragmentBegin
	FragmentMiddle
	FragmentEnd
)

var fragmentTypeNames = [...]string{"single", "begin", "middle", "end"}

func (t FragmentType) String() string {
	if t < 0 || int(t) >= len(fragmentTypeNames) {
		return fmt.Sprintf("fragment(%d)", int(t))
	}
	return fragmentTypeNames[t]
}

// SpannerFragments splits a spanner at the end of every measure carrying a
// layout break strictly inside the spanner.
func (s *Score) SpannerFragments(id SpannerID) []Fragment {
	sp, ok := s.spanners[id]
	if !ok {
		return nil
	}
	kind := partitur.FragmentKind(sp.Kind)
	var cuts []partitur.Fraction
	for _, mid := range s.measures {
		m := s.Measure(mid)
		if len(m.Breaks) == 0 {
			continue
		}
		end := m.EndTick()
		if end.Greater(sp.Tick) && end.Less(sp.Tick2) {
			cuts = append(cuts, end)
		}
	}
	if len(cuts) == 0 {
		return []Fragment{{Kind: kind, Type: FragmentSingle, Tick: sp.Tick, Tick2: sp.Tick2}}
	}
	ret := make([]Fragment, 0, len(cuts)+1)
	start := sp.Tick
	for i, cut := range cuts {
		typ := FragmentMiddle
		if i == 0 {
			typ = FragmentBegin
		}
		ret = append(ret, Fragment{Kind: kind, Type: typ, Tick: start, Tick2: cut})
		start = cut
	}
	return append(ret, Fragment{Kind: kind, Type: FragmentEnd, Tick: start, Tick2: sp.Tick2})
}
