// Package check keeps the voices of a score consistent with the measure
// chain. The measure check fills gaps left by loading, pasting or editing;
// the sanity check and the structural validation report what cannot be
// repaired safely.
package check

import (
	"fmt"
	"io"
	"log"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/score"
)

type (
	// Checker runs the consistency checks. Fills and repairs are logged to
	// Logger; a nil Logger discards them.
	Checker struct {
		// UseGapRests makes gap fills generated gap rests, which are not
		// written to streams. Otherwise gaps are filled with plain rests.
		UseGapRests bool
		Logger      *log.Logger
	}

	fill struct {
		tick   partitur.Fraction
		length partitur.Fraction
		track  partitur.Track
	}
)

var discard = log.New(io.Discard, "", 0)

// New returns a checker logging to the discard logger.
func New(useGapRests bool) *Checker {
	return &Checker{UseGapRests: useGapRests}
}

func (c *Checker) logger() *log.Logger {
	if c.Logger == nil {
		return discard
	}
	return c.Logger
}

// CheckMeasure walks every voice of staff in a measure and fills the gaps
// between chord-rests, and the gap at the end of a voice that has content,
// with rests of the exact gap length. Overlaps and overruns are reported
// but not repaired. Fills are inserted after the walk. Multi-measure rests
// are not checked.
func (c *Checker) CheckMeasure(s *score.Score, measure score.ElementID, staff int) []Diagnostic {
	m := s.Measure(measure)
	if m == nil || m.IsMMRest {
		return nil
	}
	diags, fills := c.walk(s, m, staff)
	for _, f := range fills {
		if err := c.fill(s, f); err != nil {
			diags = append(diags, Diagnostic{
				Measure:  m.No + 1,
				Staff:    staff + 1,
				Voice:    f.track.Voice() + 1,
				Severity: SeverityError,
				Code:     CodeFill,
				Message:  fmt.Sprintf("Measure %d, staff %d, voice %d: cannot fill gap at %v: %v", m.No+1, staff+1, f.track.Voice()+1, f.tick, err),
			})
		}
	}
	return diags
}

// walk runs the measure check without touching the score. Positions are in
// the local time of the staff: rticks are scaled by the time stretch and
// chord-rests advance by their written length.
func (c *Checker) walk(s *score.Score, m *score.Measure, staff int) ([]Diagnostic, []fill) {
	var diags []Diagnostic
	var fills []fill
	stretch := s.TimeStretch(staff, m.Tick)
	end := m.Ticks.Mul(stretch)
	for voice := 0; voice < partitur.VOICES; voice++ {
		track := partitur.MakeTrack(staff, voice)
		var expected partitur.Fraction
		overlap := false
		skipTo := score.NoElement
		for segID := range m.Segs(partitur.SegChordRest) {
			if skipTo != score.NoElement {
				if segID == skipTo {
					skipTo = score.NoElement
				}
				continue
			}
			seg := s.Segment(segID)
			id := seg.Element(track)
			if id == score.NoElement {
				continue
			}
			current := seg.Rtick().Mul(stretch)
			if current.Less(expected) {
				diags = append(diags, Diagnostic{
					Measure:  m.No + 1,
					Staff:    staff + 1,
					Voice:    voice + 1,
					Severity: SeverityError,
					Code:     CodeOverlap,
					Message: fmt.Sprintf("Measure %d, staff %d, voice %d overlaps at %v. Expected: %v",
						m.No+1, staff+1, voice+1, current.Div(stretch).Add(m.Tick), expected.Div(stretch).Add(m.Tick)),
				})
				overlap = true
				break
			}
			if current.Greater(expected) {
				fills = append(fills, fill{tick: expected.Div(stretch).Add(m.Tick), length: current.Sub(expected), track: track})
			}
			de := id
			if top := s.TopTuplet(id); top != score.NoElement {
				if last := s.SkipTuplet(top); last != segID {
					skipTo = last
				}
				de = top
			}
			expected = current.Add(s.Ticks(de))
		}
		switch {
		case overlap:
		case end.Greater(expected):
			// empty voices stay empty
			if !expected.IsZero() {
				fills = append(fills, fill{tick: expected.Div(stretch).Add(m.Tick), length: end.Sub(expected), track: track})
			}
		case end.Less(expected):
			diags = append(diags, Diagnostic{
				Measure:  m.No + 1,
				Staff:    staff + 1,
				Voice:    voice + 1,
				Severity: SeverityError,
				Code:     CodeOverrun,
				Message:  fmt.Sprintf("Measure %d, staff %d, voice %d overruns the measure. Expected: %v; Found: %v", m.No+1, staff+1, voice+1, end, expected),
			})
		}
	}
	return diags, fills
}

func (c *Checker) fill(s *score.Score, f fill) error {
	c.logger().Printf("fill gap at %v, length %v, track %v", f.tick, f.length, f.track)
	var err error
	if c.UseGapRests {
		_, err = s.AddGapRest(f.tick, f.track, f.length)
	} else {
		_, err = s.AddRest(f.tick, f.track, f.length)
	}
	return err
}

// CheckScore runs CheckMeasure on every measure and staff of the chain.
func (c *Checker) CheckScore(s *score.Score) []Diagnostic {
	var ret []Diagnostic
	for _, mid := range s.Measures() {
		for staff := 0; staff < s.NumStaves(); staff++ {
			ret = append(ret, c.CheckMeasure(s, mid, staff)...)
		}
	}
	return ret
}

// RunConsistencyCheck repairs what can be repaired and then verifies the
// score. The repair phase fixes broken full measure rests and fills gaps,
// logging every change and reporting fills that failed. The verify phase reports overlaps, voice length
// mismatches and structural defects to sink, which may be nil, and returns
// them as a Report. A second run without mutations in between repairs
// nothing and returns the same report.
func (c *Checker) RunConsistencyCheck(s *score.Score, sink ReportSink) Report {
	c.Sanity(s, true)
	repairs := c.CheckScore(s)

	report := Report{OK: true}
	emit := func(d Diagnostic) {
		report.add(d)
		if sink != nil {
			sink.Report(d)
		}
	}
	for _, d := range repairs {
		// overlaps and overruns are reported by the verify walk below
		if d.Code == CodeFill {
			emit(d)
		}
	}
	for _, mid := range s.Measures() {
		m := s.Measure(mid)
		for staff := 0; staff < s.NumStaves(); staff++ {
			diags, _ := c.walk(s, m, staff)
			for _, d := range diags {
				// voice lengths are reported by the sanity check
				if d.Code != CodeOverrun {
					emit(d)
				}
			}
		}
	}
	for _, d := range c.Sanity(s, false) {
		emit(d)
	}
	for _, d := range Structure(s) {
		emit(d)
	}
	return report
}

// RunConsistencyCheck runs a checker filling gaps with gap rests.
func RunConsistencyCheck(s *score.Score, sink ReportSink) Report {
	return New(true).RunConsistencyCheck(s, sink)
}
