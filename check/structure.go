package check

import (
	"fmt"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/score"
)

// Structure validates the containment model: the measure chain is
// contiguous, segments are in (tick, segment type) order inside their
// measure, every slot holds a live element of a kind belonging to the
// segment, spanners are ordered and anchored, tuplets are complete and
// multi-measure rests are aligned with the measures they replace.
func Structure(s *score.Score) []Diagnostic {
	var ret []Diagnostic
	report := func(measure, staff int, code, format string, v ...any) {
		ret = append(ret, Diagnostic{
			Measure:  measure + 1,
			Staff:    staff,
			Severity: SeverityError,
			Code:     code,
			Message:  fmt.Sprintf("Measure %d: ", measure+1) + fmt.Sprintf(format, v...),
		})
	}
	measures := s.Measures()
	var prevEnd partitur.Fraction
	for i, mid := range measures {
		m := s.Measure(mid)
		if m.No != i || !m.Tick.Equal(prevEnd) {
			report(i, 0, CodeChain, "measure %d at %v, expected measure %d at %v", m.No+1, m.Tick, i+1, prevEnd)
		}
		prevEnd = m.EndTick()
		warnings := checkSegments(s, m, i, report)
		ret = append(ret, warnings...)
		if m.MMRest != score.NoElement {
			checkMMRest(s, m, i, report)
		}
	}
	for _, sp := range s.Spanners() {
		checkSpanner(s, sp, measureNo(s, sp.Tick), report)
	}
	for e := range s.Elements() {
		if e.Kind != partitur.Tuplet {
			continue
		}
		var sum partitur.Fraction
		for _, id := range s.TupletMembers(e.ID) {
			if s.Element(id) == nil {
				report(measureNo(s, s.Tick(e.ID)), e.Track.Staff()+1, CodeTuplet, "tuplet %v has a dead member %v", e.ID, id)
				continue
			}
			sum = sum.Add(s.ActualTicks(id))
		}
		if want := s.ActualTicks(e.ID); !sum.Equal(want) {
			report(measureNo(s, s.Tick(e.ID)), e.Track.Staff()+1, CodeTuplet, "tuplet %v at %v incomplete. Expected: %v; Found: %v", e.ID, s.Tick(e.ID), want, sum)
		}
	}
	return ret
}

func measureNo(s *score.Score, tick partitur.Fraction) int {
	if m := s.Measure(s.MeasureAt(tick)); m != nil {
		return m.No
	}
	return max(s.NumMeasures()-1, 0)
}

type reportFunc func(measure, staff int, code, format string, v ...any)

func checkSegments(s *score.Score, m *score.Measure, i int, report reportFunc) []Diagnostic {
	var warnings []Diagnostic
	var prev *score.Segment
	for _, segID := range m.Segments {
		seg := s.Segment(segID)
		if seg == nil {
			report(i, 0, CodeSegmentOrder, "dead segment %v in measure", segID)
			continue
		}
		if seg.Measure != m.ID || seg.Tick.Less(m.Tick) || seg.Tick.Greater(m.EndTick()) {
			report(i, 0, CodeSegmentOrder, "segment %v at %v outside its measure", segID, seg.Tick)
		}
		if prev != nil {
			c := prev.Tick.Cmp(seg.Tick)
			if c > 0 || (c == 0 && prev.Type.Precedence() >= seg.Type.Precedence()) {
				report(i, 0, CodeSegmentOrder, "segment %v (%v at %v) out of order after %v (%v at %v)", segID, seg.Type, seg.Tick, prev.ID, prev.Type, prev.Tick)
			}
		}
		prev = seg
		if seg.Empty() {
			warnings = append(warnings, Diagnostic{
				Measure:  i + 1,
				Severity: SeverityWarning,
				Code:     CodeEmptySegment,
				Message:  fmt.Sprintf("Measure %d: empty %v segment at %v", i+1, seg.Type, seg.Tick),
			})
		}
		for _, track := range seg.Tracks() {
			id := seg.Element(track)
			e := s.Element(id)
			switch {
			case e == nil:
				report(i, track.Staff()+1, CodeSlot, "dead element %v in %v segment at %v track %v", id, seg.Type, seg.Tick, track)
			case e.Parent != segID || e.Track != track:
				report(i, track.Staff()+1, CodeSlot, "element %v sits in the slot of track %v at %v but belongs to %v track %v", id, track, seg.Tick, e.Parent, e.Track)
			case !belongsTo(e.Kind, seg.Type):
				report(i, track.Staff()+1, CodeSlot, "%v in a %v segment at %v", e.Kind, seg.Type, seg.Tick)
			}
		}
	}
	return warnings
}

func belongsTo(kind partitur.ElementKind, typ partitur.SegmentType) bool {
	switch {
	case kind.IsChordRest():
		return typ == partitur.SegChordRest
	case kind == partitur.BarLine:
		return typ.Matches(partitur.SegBeginBarLine | partitur.SegStartRepeatBarLine | partitur.SegBarLine | partitur.SegEndBarLine)
	case kind == partitur.Clef:
		return typ.Matches(partitur.SegHeaderClef | partitur.SegClef)
	}
	return partitur.SegmentTypeFor(kind) == typ
}

func checkMMRest(s *score.Score, m *score.Measure, i int, report reportFunc) {
	mm := s.Measure(m.MMRest)
	if mm == nil || !mm.IsMMRest {
		report(i, 0, CodeMMRest, "measure links to %v which is not a multi-measure rest", m.MMRest)
		return
	}
	if m.No+mm.MMRestCount > s.NumMeasures() {
		report(i, 0, CodeMMRest, "multi-measure rest of %d measures runs past the last measure", mm.MMRestCount)
		return
	}
	var ticks partitur.Fraction
	for j := m.No; j < m.No+mm.MMRestCount; j++ {
		ticks = ticks.Add(s.Measure(s.MeasureByIndex(j)).Ticks)
	}
	if !mm.Tick.Equal(m.Tick) || !mm.Ticks.Equal(ticks) {
		report(i, 0, CodeMMRest, "multi-measure rest at %v length %v, expected %v length %v", mm.Tick, mm.Ticks, m.Tick, ticks)
	}
}

func checkSpanner(s *score.Score, sp score.Spanner, i int, report reportFunc) {
	staff := sp.Track.Staff() + 1
	if sp.Tick2.Less(sp.Tick) || (sp.Tick2.Equal(sp.Tick) && !partitur.AllowsZeroLength(sp.Kind)) {
		report(i, staff, CodeSpannerRange, "%v from %v to %v", sp.Kind, sp.Tick, sp.Tick2)
	}
	switch sp.Anchor {
	case score.AnchorChord:
		for _, a := range []struct {
			id    score.ElementID
			tick  partitur.Fraction
			track partitur.Track
		}{{sp.StartElement, sp.Tick, sp.Track}, {sp.EndElement, sp.Tick2, sp.EffectiveTrack2()}} {
			e := s.Element(a.id)
			if e == nil || e.Track != a.track || !s.Tick(a.id).Equal(a.tick) {
				report(i, staff, CodeAnchor, "%v %v has no chord-rest at %v track %v", sp.Kind, sp.ID, a.tick, a.track)
			}
		}
	case score.AnchorMeasure:
		if m := s.Measure(s.MeasureAt(sp.Tick)); m == nil || !m.Tick.Equal(sp.Tick) {
			report(i, staff, CodeAnchor, "%v %v does not start at a measure", sp.Kind, sp.ID)
		}
		if !isMeasureEnd(s, sp.Tick2) {
			report(i, staff, CodeAnchor, "%v %v does not end at a measure end", sp.Kind, sp.ID)
		}
	default:
		if s.SegmentAt(sp.Tick, partitur.SegChordRest) == score.NoElement {
			report(i, staff, CodeAnchor, "%v %v has no segment at %v", sp.Kind, sp.ID, sp.Tick)
		}
		if s.SegmentAt(sp.Tick2, partitur.SegChordRest) == score.NoElement && !isMeasureEnd(s, sp.Tick2) {
			report(i, staff, CodeAnchor, "%v %v has no segment at %v", sp.Kind, sp.ID, sp.Tick2)
		}
	}
}

func isMeasureEnd(s *score.Score, tick partitur.Fraction) bool {
	if s.NumMeasures() > 0 && tick.Equal(s.EndTick()) {
		return true
	}
	m := s.Measure(s.MeasureAt(tick))
	return m != nil && m.No > 0 && m.Tick.Equal(tick)
}
