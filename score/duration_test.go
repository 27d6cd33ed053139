package score_test

import (
	"testing"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/score"
)

// addTriplet adds a quarter note triplet (three quarters in the time of a
// half) at tick on track.
func addTriplet(t *testing.T, s *score.Score, tick partitur.Fraction, track partitur.Track) score.ElementID {
	t.Helper()
	tup := mustID(t)(s.AddTuplet(tick, track, frac(3, 2), frac(1, 2)))
	for i := int64(0); i < 3; i++ {
		mustID(t)(s.InsertElement(partitur.Chord, tick.Add(frac(i, 6)), track, &score.ChordRest{
			Duration: frac(1, 4),
			Pitches:  []int{60},
			Tuplet:   tup,
		}))
	}
	return tup
}

func TestTupletCountsOnce(t *testing.T) {
	s := newScore(t, 1, 1)
	tup := addTriplet(t, s, frac(0, 1), 0)
	m := s.MeasureByIndex(0)
	if got := s.OccupiedDuration(m, 0, 0); !got.Equal(frac(1, 2)) {
		t.Fatalf("occupied duration got %v, expected 1/2", got)
	}
	if got := s.ActualTicks(tup); !got.Equal(frac(1, 2)) {
		t.Fatalf("tuplet actual ticks got %v, expected 1/2", got)
	}
	var sum partitur.Fraction
	for _, id := range s.TupletMembers(tup) {
		if got := s.ActualTicks(id); !got.Equal(frac(1, 6)) {
			t.Fatalf("member actual ticks got %v, expected 1/6", got)
		}
		sum = sum.Add(s.ActualTicks(id))
		if s.TopTuplet(id) != tup {
			t.Fatalf("TopTuplet of a member got %v, expected %v", s.TopTuplet(id), tup)
		}
	}
	if !sum.Equal(s.ActualTicks(tup)) {
		t.Fatalf("members sum to %v, tuplet lasts %v", sum, s.ActualTicks(tup))
	}
	members := s.TupletMembers(tup)
	if got := s.SkipTuplet(tup); got != s.Element(members[2]).Parent {
		t.Fatalf("SkipTuplet got %v, expected the segment of the last member", got)
	}
}

func TestNestedTuplet(t *testing.T) {
	s := newScore(t, 1, 1)
	outer := mustID(t)(s.AddTuplet(frac(0, 1), 0, frac(3, 2), frac(1, 2)))
	inner := mustID(t)(s.InsertElement(partitur.Tuplet, frac(0, 1), 0, &score.Tuplet{Ratio: frac(5, 4), Ticks: frac(1, 4), Tuplet: outer}))
	for i := int64(0); i < 5; i++ {
		mustID(t)(s.InsertElement(partitur.Rest, frac(i, 30), 0, &score.ChordRest{Duration: frac(1, 16), Tuplet: inner}))
	}
	mustID(t)(s.InsertElement(partitur.Chord, frac(1, 6), 0, &score.ChordRest{Duration: frac(1, 4), Tuplet: outer}))
	mustID(t)(s.InsertElement(partitur.Chord, frac(1, 3), 0, &score.ChordRest{Duration: frac(1, 4), Tuplet: outer}))
	if got := s.ActualTicks(inner); !got.Equal(frac(1, 6)) {
		t.Fatalf("inner tuplet actual ticks got %v, expected 1/6", got)
	}
	var sum partitur.Fraction
	for _, id := range s.TupletMembers(inner) {
		sum = sum.Add(s.ActualTicks(id))
	}
	if !sum.Equal(s.ActualTicks(inner)) {
		t.Fatalf("inner members sum to %v, expected %v", sum, s.ActualTicks(inner))
	}
	if got := s.OccupiedDuration(s.MeasureByIndex(0), 0, 0); !got.Equal(frac(1, 2)) {
		t.Fatalf("occupied duration got %v, expected 1/2", got)
	}
	if s.TopTuplet(s.TupletMembers(inner)[0]) != outer {
		t.Fatalf("TopTuplet should return the outermost tuplet")
	}
}

func TestTimeStretch(t *testing.T) {
	s := newScore(t, 2, 2)
	if err := s.SetTimeStretch(1, frac(0, 1), frac(3, 4)); err != nil {
		t.Fatalf("SetTimeStretch failed: %v", err)
	}
	if err := s.SetTimeStretch(1, frac(1, 1), frac(1, 1)); err != nil {
		t.Fatalf("SetTimeStretch failed: %v", err)
	}
	id := mustID(t)(s.AddRest(frac(0, 1), partitur.MakeTrack(1, 0), frac(3, 4)))
	if got := s.ActualTicks(id); !got.Equal(frac(1, 1)) {
		t.Fatalf("stretched rest actual ticks got %v, expected 1/1", got)
	}
	if got := s.MeasureLen(s.MeasureByIndex(0), 1); !got.Equal(frac(3, 4)) {
		t.Fatalf("local measure length got %v, expected 3/4", got)
	}
	if got := s.TimeStretch(1, frac(3, 2)); !got.Equal(frac(1, 1)) {
		t.Fatalf("stretch after reset got %v, expected 1/1", got)
	}
	if _, err := s.AddTimeSig(frac(0, 1), 1, partitur.TimeSig{Numerator: 3, Denominator: 4}); err != nil {
		t.Fatalf("local time signature rejected: %v", err)
	}
}

func TestDurationElements(t *testing.T) {
	s := newScore(t, 1, 2)
	for i := int64(0); i < 8; i++ {
		mustID(t)(s.AddRest(frac(i, 4), 0, frac(1, 4)))
	}
	mustID(t)(s.AddRest(frac(0, 1), 1, frac(1, 1)))
	n := 0
	for id := range s.DurationElements(0, frac(3, 4), frac(3, 2)) {
		tick := s.Tick(id)
		if tick.Less(frac(3, 4)) || tick.GreaterEq(frac(3, 2)) {
			t.Fatalf("element at %v outside the window", tick)
		}
		n++
	}
	if n != 3 {
		t.Fatalf("element count got %v, expected 3", n)
	}
}

func TestMeasureRestTakesMeasureLength(t *testing.T) {
	s := score.NewScore(1)
	m := s.AppendMeasure(partitur.TimeSig{Numerator: 6, Denominator: 8})
	id := mustID(t)(s.AddMeasureRest(m, 0))
	cr := s.ChordRest(id)
	if !cr.Type.IsMeasure() || !cr.Duration.Equal(frac(3, 4)) {
		t.Fatalf("measure rest got %v (%v), expected 3/4 (measure)", cr.Duration, cr.Type)
	}
}
