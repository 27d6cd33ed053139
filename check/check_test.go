package check_test

import (
	"bytes"
	"errors"
	"log"
	"reflect"
	"strings"
	"testing"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/check"
	"github.com/vsariola/partitur/score"
)

func frac(n, d int64) partitur.Fraction { return partitur.NewFraction(n, d) }

func newScore(staves, measures int) *score.Score {
	s := score.NewScore(staves)
	s.AppendMeasures(measures, partitur.CommonTime)
	return s
}

// mustID fails the test if the returned error is not nil, e.g.
// mustID(t)(s.AddChord(...)).
func mustID(t *testing.T) func(score.ElementID, error) score.ElementID {
	return func(id score.ElementID, err error) score.ElementID {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return id
	}
}

func elementAt(s *score.Score, tick partitur.Fraction, track partitur.Track) *score.Element {
	seg := s.Segment(s.SegmentAt(tick, partitur.SegChordRest))
	if seg == nil {
		return nil
	}
	return s.Element(seg.Element(track))
}

func rests(s *score.Score) int {
	n := 0
	for e := range s.Elements() {
		if e.Kind == partitur.Rest {
			n++
		}
	}
	return n
}

func codes(diags []check.Diagnostic) []string {
	ret := []string{}
	for _, d := range diags {
		ret = append(ret, d.Code)
	}
	return ret
}

func TestGapAfterQuarterRestIsFilled(t *testing.T) {
	s := newScore(1, 1)
	mustID(t)(s.AddRest(frac(0, 1), 0, frac(1, 4)))
	report := check.RunConsistencyCheck(s, nil)
	if !report.OK || len(report.Diagnostics) != 0 {
		t.Fatalf("report got %v, expected a clean pass", report)
	}
	e := elementAt(s, frac(1, 4), 0)
	if e == nil || e.Kind != partitur.Rest {
		t.Fatalf("no rest filled at 1/4")
	}
	cr := s.ChordRest(e.ID)
	if !cr.Duration.Equal(frac(3, 4)) || !cr.Gap || !e.Generated {
		t.Fatalf("fill got duration %v gap %v generated %v, expected 3/4 gap rest", cr.Duration, cr.Gap, e.Generated)
	}
	if cr.Type != (partitur.DurationType{Value: partitur.DurHalf, Dots: 1}) {
		t.Fatalf("fill duration type got %v, expected half.", cr.Type)
	}
	if got := s.OccupiedDuration(s.MeasureByIndex(0), 0, 0); !got.Equal(frac(1, 1)) {
		t.Fatalf("occupied duration got %v, expected 1/1", got)
	}
}

func TestGapsBetweenChordRests(t *testing.T) {
	s := newScore(1, 1)
	mustID(t)(s.AddChord(frac(1, 4), 0, frac(1, 8), 60))
	mustID(t)(s.AddChord(frac(5, 8), 0, frac(1, 8), 62))
	c := check.New(false)
	if diags := c.CheckScore(s); len(diags) != 0 {
		t.Fatalf("CheckScore got %v, expected no diagnostics", diags)
	}
	cases := []struct {
		tick     partitur.Fraction
		duration partitur.Fraction
	}{
		{frac(0, 1), frac(1, 4)},
		{frac(3, 8), frac(1, 4)},
		{frac(3, 4), frac(1, 4)},
	}
	for _, c := range cases {
		e := elementAt(s, c.tick, 0)
		if e == nil || e.Kind != partitur.Rest {
			t.Fatalf("no rest filled at %v", c.tick)
		}
		if cr := s.ChordRest(e.ID); !cr.Duration.Equal(c.duration) || cr.Gap || e.Generated {
			t.Fatalf("fill at %v got %v (gap %v), expected a plain rest of %v", c.tick, cr.Duration, cr.Gap, c.duration)
		}
	}
}

func TestEmptyVoiceIsLeftAlone(t *testing.T) {
	s := newScore(1, 2)
	mustID(t)(s.AddMeasureRest(s.MeasureByIndex(0), 0))
	mustID(t)(s.AddMeasureRest(s.MeasureByIndex(1), 0))
	mustID(t)(s.AddChord(frac(1, 1), 1, frac(1, 2), 67))
	before := rests(s)
	check.RunConsistencyCheck(s, nil)
	if got := rests(s); got != before+1 {
		t.Fatalf("rest count got %v, expected %v", got, before+1)
	}
	if got := s.OccupiedDuration(s.MeasureByIndex(0), 0, 1); !got.IsZero() {
		t.Fatalf("empty voice got %v of content, expected none", got)
	}
	if got := s.OccupiedDuration(s.MeasureByIndex(1), 0, 1); !got.Equal(frac(1, 1)) {
		t.Fatalf("voice 2 of measure 2 got %v, expected 1/1", got)
	}
}

func TestTupletIsSkippedAsUnit(t *testing.T) {
	s := newScore(1, 1)
	tup := mustID(t)(s.AddTuplet(frac(0, 1), 0, frac(3, 2), frac(1, 2)))
	for i := int64(0); i < 3; i++ {
		mustID(t)(s.InsertElement(partitur.Chord, frac(i, 6), 0, &score.ChordRest{Duration: frac(1, 4), Pitches: []int{60}, Tuplet: tup}))
	}
	before := rests(s)
	if diags := check.New(true).CheckScore(s); len(diags) != 0 {
		t.Fatalf("CheckScore got %v, expected no diagnostics", diags)
	}
	if got := rests(s); got != before+1 {
		t.Fatalf("rest count got %v, expected %v", got, before+1)
	}
	if e := elementAt(s, frac(1, 2), 0); e == nil || !s.ChordRest(e.ID).Duration.Equal(frac(1, 2)) {
		t.Fatalf("expected a half rest after the tuplet")
	}
}

func TestFillInStretchedStaff(t *testing.T) {
	s := newScore(2, 1)
	if err := s.SetTimeStretch(1, frac(0, 1), frac(3, 4)); err != nil {
		t.Fatalf("SetTimeStretch failed: %v", err)
	}
	track := partitur.MakeTrack(1, 0)
	mustID(t)(s.AddRest(frac(0, 1), track, frac(1, 4)))
	check.New(true).CheckScore(s)
	e := elementAt(s, frac(1, 3), track)
	if e == nil {
		t.Fatalf("no fill at 1/3")
	}
	if got := s.ChordRest(e.ID).Duration; !got.Equal(frac(1, 2)) {
		t.Fatalf("fill duration got %v, expected 1/2", got)
	}
	if got := s.OccupiedDuration(s.MeasureByIndex(0), 1, 0); !got.Equal(frac(1, 1)) {
		t.Fatalf("occupied duration got %v, expected 1/1", got)
	}
}

func TestOverrunsAreReportedNotRepaired(t *testing.T) {
	s := newScore(1, 1)
	mustID(t)(s.AddMeasureRest(s.MeasureByIndex(0), 0))
	mustID(t)(s.AddRest(frac(1, 2), 1, frac(1, 1)))
	diags := check.New(true).CheckMeasure(s, s.MeasureByIndex(0), 0)
	if !reflect.DeepEqual(codes(diags), []string{check.CodeOverrun}) {
		t.Fatalf("CheckMeasure got %v, expected one overrun", diags)
	}
	if diags[0].Voice != 2 || diags[0].Measure != 1 || diags[0].Staff != 1 {
		t.Fatalf("overrun located at measure %v staff %v voice %v", diags[0].Measure, diags[0].Staff, diags[0].Voice)
	}
	report := check.RunConsistencyCheck(s, nil)
	if report.OK || !reflect.DeepEqual(codes(report.Diagnostics), []string{check.CodeTooLong}) {
		t.Fatalf("report got %v, expected a too-long failure", report)
	}
	if got := s.OccupiedDuration(s.MeasureByIndex(0), 0, 1); !got.Equal(frac(3, 2)) {
		t.Fatalf("overrunning voice got %v, expected 3/2", got)
	}
}

func TestOverlapStopsTheWalk(t *testing.T) {
	s := newScore(1, 1)
	mustID(t)(s.AddRest(frac(0, 1), 0, frac(1, 2)))
	mustID(t)(s.AddRest(frac(1, 4), 0, frac(1, 4)))
	before := s.NumElements()
	report := check.RunConsistencyCheck(s, nil)
	if got := s.NumElements(); got != before {
		t.Fatalf("overlapping voice was modified: %v elements, expected %v", got, before)
	}
	expected := []string{check.CodeOverlap, check.CodeIncomplete}
	if !reflect.DeepEqual(codes(report.Diagnostics), expected) {
		t.Fatalf("report codes got %v, expected %v", codes(report.Diagnostics), expected)
	}
}

func TestRepeatedCheckIsIdempotent(t *testing.T) {
	s := newScore(2, 3)
	mustID(t)(s.AddRest(frac(0, 1), 0, frac(1, 4)))
	mustID(t)(s.AddRest(frac(1, 1), 0, frac(1, 2)))
	mustID(t)(s.AddRest(frac(5, 4), 0, frac(1, 4)))
	mustID(t)(s.AddChord(frac(9, 4), partitur.MakeTrack(1, 2), frac(1, 8), 48))
	first := check.RunConsistencyCheck(s, nil)
	n := s.NumElements()
	second := check.RunConsistencyCheck(s, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second report got %v, expected %v", second, first)
	}
	if s.NumElements() != n {
		t.Fatalf("second run changed the element count from %v to %v", n, s.NumElements())
	}
}

func TestMeasureRestRepair(t *testing.T) {
	s := newScore(1, 1)
	id := mustID(t)(s.AddMeasureRest(s.MeasureByIndex(0), 0))
	if err := s.SetDuration(id, frac(1, 2)); err != nil {
		t.Fatalf("SetDuration failed: %v", err)
	}
	var buf bytes.Buffer
	c := &check.Checker{UseGapRests: true, Logger: log.New(&buf, "", 0)}
	diags := c.Sanity(s, false)
	if !reflect.DeepEqual(codes(diags), []string{check.CodeIncomplete}) {
		t.Fatalf("Sanity got %v, expected incomplete", diags)
	}
	report := c.RunConsistencyCheck(s, nil)
	if !report.OK {
		t.Fatalf("report got %v, expected a pass after repair", report)
	}
	if got := s.ChordRest(id).Duration; !got.Equal(frac(1, 1)) {
		t.Fatalf("measure rest got %v, expected 1/1", got)
	}
	if !strings.Contains(buf.String(), "resize measure rest") {
		t.Fatalf("repair was not logged: %q", buf.String())
	}
}

func TestFailedFillIsReported(t *testing.T) {
	s := newScore(1, 1)
	// the tuplet covers [0, 1/4) but its last member sits at 1/2, so the walk
	// skips the chord at 1/4 and the trailing fill collides with it
	tup := mustID(t)(s.AddTuplet(frac(0, 1), 0, frac(3, 2), frac(1, 4)))
	for _, tick := range []partitur.Fraction{frac(0, 1), frac(1, 2)} {
		mustID(t)(s.InsertElement(partitur.Chord, tick, 0, &score.ChordRest{Duration: frac(1, 8), Pitches: []int{60}, Tuplet: tup}))
	}
	mustID(t)(s.AddChord(frac(1, 4), 0, frac(1, 4), 64))
	var seen []string
	report := check.RunConsistencyCheck(s, check.SinkFunc(func(d check.Diagnostic) {
		seen = append(seen, d.Code)
	}))
	if report.OK {
		t.Fatalf("report got a pass, expected a failed fill")
	}
	if got := codes(report.Diagnostics); len(got) == 0 || got[0] != check.CodeFill {
		t.Fatalf("report codes got %v, expected %v first", got, check.CodeFill)
	}
	if !reflect.DeepEqual(seen, codes(report.Diagnostics)) {
		t.Fatalf("sink got %v, expected %v", seen, codes(report.Diagnostics))
	}
	if again := check.RunConsistencyCheck(s, nil); !reflect.DeepEqual(again, report) {
		t.Fatalf("second run got %v, expected %v", again, report)
	}
}

func TestSinkSeesEveryDiagnostic(t *testing.T) {
	s := newScore(1, 1)
	mustID(t)(s.AddRest(frac(0, 1), 1, frac(1, 1)))
	mustID(t)(s.AddRest(frac(1, 2), 1, frac(1, 1)))
	var got []check.Diagnostic
	report := check.RunConsistencyCheck(s, check.SinkFunc(func(d check.Diagnostic) {
		got = append(got, d)
	}))
	if len(got) == 0 || !reflect.DeepEqual(got, report.Diagnostics) {
		t.Fatalf("sink got %v, report has %v", got, report.Diagnostics)
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	ok := check.Report{OK: true}
	if err := ok.WriteSummary(&buf); err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}
	if buf.String() != `{"result":0}` {
		t.Fatalf("summary got %v, expected {\"result\":0}", buf.String())
	}
	failed := check.Report{Diagnostics: []check.Diagnostic{
		{Severity: check.SeverityWarning, Message: "ignored"},
		{Severity: check.SeverityError, Message: "a"},
		{Severity: check.SeverityError, Message: "b"},
	}}
	if got := failed.Summary(); got != (check.Summary{Result: 1, Error: "a\nb"}) {
		t.Fatalf("summary got %v, expected result 1 with two messages", got)
	}
}

func TestStructure(t *testing.T) {
	s := newScore(1, 1)
	for i := int64(0); i < 4; i++ {
		mustID(t)(s.AddRest(frac(i, 4), 0, frac(1, 4)))
	}
	if _, err := s.AddSpanner(score.Spanner{Kind: partitur.Pedal, Tick: frac(1, 4), Tick2: frac(1, 2), Track2: partitur.NoTrack}); err != nil {
		t.Fatalf("cannot add pedal: %v", err)
	}
	if diags := check.Structure(s); len(diags) != 0 {
		t.Fatalf("Structure got %v on a valid score", diags)
	}
	if err := s.RemoveElement(elementAt(s, frac(1, 4), 0).ID); !errors.Is(err, partitur.ErrAnchored) {
		t.Fatalf("detaching the pedal got %v, expected %v", err, partitur.ErrAnchored)
	}
	if diags := check.Structure(s); len(diags) != 0 {
		t.Fatalf("Structure got %v after a refused removal", diags)
	}
}
