package check

import (
	"fmt"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/score"
)

// Sanity checks that voice 0 of every staff fills each measure exactly and
// that the other voices do not exceed it. With repair set, a full measure
// rest that is the only content of an incomplete voice 0 is resized to the
// measure.
func (c *Checker) Sanity(s *score.Score, repair bool) []Diagnostic {
	var ret []Diagnostic
	for i, mid := range s.Measures() {
		m := s.Measure(mid)
		mLen := m.Ticks
		for staff := 0; staff < s.NumStaves(); staff++ {
			var voices [partitur.VOICES]partitur.Fraction
			for v := range voices {
				voices[v] = s.OccupiedDuration(mid, staff, v)
			}
			if !voices[0].Equal(mLen) {
				ret = append(ret, Diagnostic{
					Measure:  i + 1,
					Staff:    staff + 1,
					Voice:    1,
					Severity: SeverityError,
					Code:     CodeIncomplete,
					Message:  fmt.Sprintf("Measure %d, staff %d incomplete. Expected: %v; Found: %v", i+1, staff+1, mLen, voices[0]),
				})
				if repair {
					c.repairMeasureRest(s, m, staff)
				}
			}
			for v := 1; v < partitur.VOICES; v++ {
				if voices[v].Greater(mLen) {
					ret = append(ret, Diagnostic{
						Measure:  i + 1,
						Staff:    staff + 1,
						Voice:    v + 1,
						Severity: SeverityError,
						Code:     CodeTooLong,
						Message:  fmt.Sprintf("Measure %d, staff %d, voice %d too long. Expected: %v; Found: %v", i+1, staff+1, v+1, mLen, voices[v]),
					})
				}
			}
		}
	}
	return ret
}

func (c *Checker) repairMeasureRest(s *score.Score, m *score.Measure, staff int) {
	var steps []score.ElementID
	for id := range s.VoiceSteps(m.ID, partitur.MakeTrack(staff, 0)) {
		steps = append(steps, id)
	}
	if len(steps) != 1 {
		return
	}
	e := s.Element(steps[0])
	if e.Kind != partitur.Rest || !s.ChordRest(e.ID).Type.IsMeasure() || !s.Tick(e.ID).Equal(m.Tick) {
		return
	}
	d := s.MeasureLen(m.ID, staff)
	c.logger().Printf("resize measure rest in measure %d, staff %d to %v", m.No+1, staff+1, d)
	if err := s.SetDuration(e.ID, d); err != nil {
		c.logger().Printf("cannot resize measure rest: %v", err)
	}
}
