package score_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/score"
)

func frac(n, d int64) partitur.Fraction { return partitur.NewFraction(n, d) }

func newScore(t *testing.T, staves, measures int) *score.Score {
	t.Helper()
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

func TestMeasureChain(t *testing.T) {
	s := score.NewScore(1)
	s.AppendIrregularMeasure(partitur.CommonTime, frac(1, 4))
	s.AppendMeasures(2, partitur.TimeSig{Numerator: 3, Denominator: 4})
	if got := s.EndTick(); !got.Equal(frac(7, 4)) {
		t.Fatalf("end tick got %v, expected 7/4", got)
	}
	cases := []struct {
		tick     partitur.Fraction
		expected int
	}{
		{frac(0, 1), 0},
		{frac(1, 8), 0},
		{frac(1, 4), 1},
		{frac(3, 4), 1},
		{frac(1, 1), 2},
		{frac(7, 4), -1},
	}
	for _, c := range cases {
		got := s.MeasureIndex(s.MeasureAt(c.tick))
		if got != c.expected {
			t.Fatalf("MeasureAt(%v) got measure %v, expected %v", c.tick, got, c.expected)
		}
	}
	first := s.Measure(s.MeasureByIndex(0))
	if !first.Irregular || !first.Nominal().Equal(frac(1, 1)) {
		t.Fatalf("pickup measure should be irregular 4/4")
	}
}

func TestGetSegmentIsLookupOrCreate(t *testing.T) {
	s := newScore(t, 1, 1)
	m := s.MeasureByIndex(0)
	a := mustID(t)(s.GetSegment(m, partitur.SegChordRest, frac(1, 4)))
	b := mustID(t)(s.GetSegment(m, partitur.SegChordRest, frac(1, 4)))
	if a != b {
		t.Fatalf("second GetSegment created a duplicate: %v != %v", a, b)
	}
	mustID(t)(s.GetSegment(m, partitur.SegChordRest, frac(0, 1)))
	mustID(t)(s.GetSegment(m, partitur.SegKeySig, frac(0, 1)))
	mustID(t)(s.GetSegment(m, partitur.SegHeaderClef, frac(0, 1)))
	mustID(t)(s.GetSegment(m, partitur.SegBreath, frac(1, 4)))
	var got []string
	for _, id := range s.Measure(m).Segments {
		seg := s.Segment(id)
		got = append(got, seg.Tick.String()+" "+seg.Type.String())
	}
	expected := []string{"0/1 headerclef", "0/1 keysig", "0/1 chordrest", "1/4 breath", "1/4 chordrest"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("segment order got %v, expected %v", got, expected)
	}
	if _, err := s.GetSegment(m, partitur.SegChordRest, frac(2, 1)); err == nil {
		t.Fatalf("segment outside measure should be rejected")
	}
}

func TestSegmentNavigation(t *testing.T) {
	s := newScore(t, 1, 2)
	for _, tick := range []partitur.Fraction{frac(0, 1), frac(1, 2), frac(1, 1), frac(3, 2)} {
		mustID(t)(s.AddRest(tick, 0, frac(1, 2)))
	}
	mustID(t)(s.AddClef(frac(1, 2), 0, partitur.ClefBass))
	var ticks []string
	for id := s.FirstSegment(partitur.SegChordRest); id != score.NoElement; id = s.NextSegment(id, partitur.SegChordRest) {
		ticks = append(ticks, s.Segment(id).Tick.String())
	}
	if !reflect.DeepEqual(ticks, []string{"0/1", "1/2", "1/1", "3/2"}) {
		t.Fatalf("chord-rest walk got %v", ticks)
	}
	last := s.SegmentAt(frac(3, 2), partitur.SegChordRest)
	if prev := s.PrevSegment(last, partitur.SegClef); s.Segment(prev).Tick.String() != "1/2" {
		t.Fatalf("PrevSegment did not find the clef segment")
	}
	if s.Segment(last).Rtick().String() != "1/2" {
		t.Fatalf("Rtick got %v, expected 1/2", s.Segment(last).Rtick())
	}
	n := 0
	for range s.Segments(partitur.SegAll) {
		n++
	}
	if n != 5 {
		t.Fatalf("segment count got %v, expected 5", n)
	}
}

func TestSlotCollisionIsRejected(t *testing.T) {
	s := newScore(t, 2, 1)
	mustID(t)(s.AddChord(frac(0, 1), 0, frac(1, 4), 60))
	_, err := s.AddRest(frac(0, 1), 0, frac(1, 4))
	if !errors.Is(err, partitur.ErrSlotOccupied) {
		t.Fatalf("second chord-rest on the slot got %v, expected %v", err, partitur.ErrSlotOccupied)
	}
	var serr *partitur.StructuralError
	if !errors.As(err, &serr) || serr.Track != 0 {
		t.Fatalf("expected a structural error on track 0, got %v", err)
	}
	mustID(t)(s.AddRest(frac(0, 1), 1, frac(1, 4)))
	mustID(t)(s.AddRest(frac(0, 1), partitur.MakeTrack(1, 0), frac(1, 4)))
	seg := s.Segment(s.SegmentAt(frac(0, 1), partitur.SegChordRest))
	if !reflect.DeepEqual(seg.Tracks(), []partitur.Track{0, 1, 4}) {
		t.Fatalf("tracks got %v", seg.Tracks())
	}
}

func TestInsertConstraints(t *testing.T) {
	s := newScore(t, 1, 2)
	cases := []struct {
		name     string
		err      error
		expected error
	}{
		{"keysig mid measure", second(s.AddKeySig(frac(1, 4), 0, 2)), partitur.ErrNotMeasureStart},
		{"keysig on voice 1", second(s.InsertElement(partitur.KeySig, frac(0, 1), 1, &score.KeySig{Key: 1})), partitur.ErrWrongVoice},
		{"timesig mismatch", second(s.AddTimeSig(frac(1, 1), 0, partitur.TimeSig{Numerator: 3, Denominator: 4})), partitur.ErrTimeSigMismatch},
		{"outside score", second(s.AddRest(frac(3, 1), 0, frac(1, 4))), partitur.ErrNoMeasure},
		{"no such staff", second(s.AddRest(frac(0, 1), 4, frac(1, 4))), partitur.ErrNoStaff},
		{"zero duration", second(s.AddRest(frac(0, 1), 0, frac(0, 1))), partitur.ErrBadDuration},
		{"wrong payload", second(s.InsertElement(partitur.Chord, frac(0, 1), 0, &score.Text{})), partitur.ErrBadPayload},
		{"spanner kind", second(s.InsertElement(partitur.Slur, frac(0, 1), 0, &score.Text{})), partitur.ErrUnknownKind},
		{"timesig match", second(s.AddTimeSig(frac(1, 1), 0, partitur.TimeSig{Numerator: 2, Denominator: 2})), nil},
	}
	for _, c := range cases {
		if !errors.Is(c.err, c.expected) {
			t.Fatalf("%v: got %v, expected %v", c.name, c.err, c.expected)
		}
	}
}

func second(_ score.ElementID, err error) error { return err }

func TestRemoveElement(t *testing.T) {
	s := newScore(t, 1, 1)
	a := mustID(t)(s.AddChord(frac(0, 1), 0, frac(1, 2), 60))
	b := mustID(t)(s.AddChord(frac(1, 2), 0, frac(1, 2), 62))
	sp, err := s.AddSpanner(score.Spanner{Kind: partitur.Tie, Tick: frac(0, 1), Tick2: frac(1, 2), Track: 0, Track2: partitur.NoTrack, Anchor: score.AnchorChord})
	if err != nil {
		t.Fatalf("cannot add tie: %v", err)
	}
	if err := s.RemoveElement(a); !errors.Is(err, partitur.ErrAnchored) {
		t.Fatalf("removing an anchor got %v, expected %v", err, partitur.ErrAnchored)
	}
	if err := s.RemoveSpanner(sp); err != nil {
		t.Fatalf("cannot remove spanner: %v", err)
	}
	segs := len(s.Measure(s.MeasureByIndex(0)).Segments)
	if err := s.RemoveElement(a); err != nil {
		t.Fatalf("cannot remove chord: %v", err)
	}
	if s.Element(a) != nil {
		t.Fatalf("removed element still alive")
	}
	if got := len(s.Measure(s.MeasureByIndex(0)).Segments); got != segs-1 {
		t.Fatalf("empty segment was not removed, %v segments left", got)
	}
	if err := s.RemoveElement(a); !errors.Is(err, partitur.ErrUnknownElement) {
		t.Fatalf("removing twice got %v, expected %v", err, partitur.ErrUnknownElement)
	}
	if err := s.RemoveElement(s.MeasureByIndex(0)); !errors.Is(err, partitur.ErrNotRemovable) {
		t.Fatalf("removing a measure got %v, expected %v", err, partitur.ErrNotRemovable)
	}
	c := mustID(t)(s.AddRest(frac(0, 1), 0, frac(1, 2)))
	if c == a {
		t.Fatalf("element ID was reused")
	}
	if s.NumElements() != 5 {
		t.Fatalf("live element count got %v, expected 5", s.NumElements())
	}
	_ = b
}

func TestRemoveKeepsSpannerSegments(t *testing.T) {
	s := newScore(t, 1, 1)
	mustID(t)(s.AddChord(frac(0, 1), 0, frac(1, 2), 60))
	b := mustID(t)(s.AddChord(frac(1, 2), 0, frac(1, 2), 62))
	if _, err := s.AddSpanner(score.Spanner{Kind: partitur.Hairpin, Tick: frac(0, 1), Tick2: frac(1, 2), Track: 0, Track2: partitur.NoTrack}); err != nil {
		t.Fatalf("cannot add hairpin: %v", err)
	}
	if err := s.RemoveElement(b); !errors.Is(err, partitur.ErrAnchored) {
		t.Fatalf("removing the last element of an anchor segment got %v, expected %v", err, partitur.ErrAnchored)
	}
	if s.SegmentAt(frac(1, 2), partitur.SegChordRest) == score.NoElement {
		t.Fatalf("anchor segment at 1/2 was removed")
	}
	mustID(t)(s.AddChord(frac(1, 2), 1, frac(1, 2), 67))
	if err := s.RemoveElement(b); err != nil {
		t.Fatalf("removing from a segment that stays got %v, expected nil", err)
	}
	if s.SegmentAt(frac(1, 2), partitur.SegChordRest) == score.NoElement {
		t.Fatalf("anchor segment at 1/2 was removed")
	}
}

func TestSetDuration(t *testing.T) {
	s := newScore(t, 1, 1)
	id := mustID(t)(s.AddChord(frac(0, 1), 0, frac(1, 4), 60))
	if err := s.SetDuration(id, frac(3, 8)); err != nil {
		t.Fatalf("SetDuration failed: %v", err)
	}
	cr := s.ChordRest(id)
	if !cr.Duration.Equal(frac(3, 8)) || cr.Type.String() != "quarter." {
		t.Fatalf("SetDuration got %v (%v), expected 3/8 (quarter.)", cr.Duration, cr.Type)
	}
	if err := s.SetDuration(id, frac(0, 1)); !errors.Is(err, partitur.ErrBadDuration) {
		t.Fatalf("zero duration got %v, expected %v", err, partitur.ErrBadDuration)
	}
	ks := mustID(t)(s.AddKeySig(frac(0, 1), 0, 1))
	if err := s.SetDuration(ks, frac(1, 4)); !errors.Is(err, partitur.ErrNotDurationElement) {
		t.Fatalf("keysig duration got %v, expected %v", err, partitur.ErrNotDurationElement)
	}
}

func TestKeyAndClefAreDerived(t *testing.T) {
	s := newScore(t, 2, 4)
	s.Staff(1).Clef = partitur.ClefBass
	mustID(t)(s.AddKeySig(frac(1, 1), 0, 2))
	mustID(t)(s.AddKeySig(frac(3, 1), 0, -1))
	mustID(t)(s.AddClef(frac(5, 2), 1, partitur.ClefTenor))
	cases := []struct {
		tick     partitur.Fraction
		key      partitur.Key
		clef     partitur.ClefType
		staffKey partitur.Key
	}{
		{frac(0, 1), 0, partitur.ClefBass, 0},
		{frac(3, 2), 2, partitur.ClefBass, 0},
		{frac(5, 2), 2, partitur.ClefTenor, 0},
		{frac(7, 2), -1, partitur.ClefTenor, 0},
	}
	for _, c := range cases {
		if got := s.KeyAt(0, c.tick); got != c.key {
			t.Fatalf("KeyAt(0, %v) got %v, expected %v", c.tick, got, c.key)
		}
		if got := s.ClefAt(1, c.tick); got != c.clef {
			t.Fatalf("ClefAt(1, %v) got %v, expected %v", c.tick, got, c.clef)
		}
		if got := s.KeyAt(1, c.tick); got != c.staffKey {
			t.Fatalf("KeyAt(1, %v) got %v, expected %v", c.tick, got, c.staffKey)
		}
	}
}

func TestCursor(t *testing.T) {
	s := score.NewScore(2)
	c := s.NewCursor()
	if err := c.AddTimeSig(partitur.TimeSig{Numerator: 3, Denominator: 4}); err != nil {
		t.Fatalf("AddTimeSig failed: %v", err)
	}
	if err := c.AddKeySig(3); err != nil {
		t.Fatalf("AddKeySig failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := c.AddChord([]int{60 + i}, frac(1, 2)); err != nil {
			t.Fatalf("AddChord failed: %v", err)
		}
	}
	if s.NumMeasures() != 3 {
		t.Fatalf("measure count got %v, expected 3", s.NumMeasures())
	}
	if got := c.Tick(); !got.Equal(frac(2, 1)) {
		t.Fatalf("cursor tick got %v, expected 2/1", got)
	}
	c.Move(0, frac(0, 1))
	id, err := c.AddChord([]int{64}, frac(1, 2))
	if err != nil {
		t.Fatalf("AddChord failed: %v", err)
	}
	if got := s.ChordRest(id).Pitches; !reflect.DeepEqual(got, []int{60, 64}) {
		t.Fatalf("merged chord pitches got %v, expected [60 64]", got)
	}
	if s.KeyAt(1, frac(1, 1)) != 3 || s.TimeSigAt(frac(1, 1)).Numerator != 3 {
		t.Fatalf("key or time signature not applied to every staff")
	}
}
