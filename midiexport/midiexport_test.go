package midiexport_test

import (
	"bytes"
	"reflect"
	"testing"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/midiexport"
	"github.com/vsariola/partitur/score"
)

func frac(n, d int64) partitur.Fraction { return partitur.NewFraction(n, d) }

func TestTiedChordsSoundOnce(t *testing.T) {
	s := score.NewScore(1)
	s.AppendMeasures(2, partitur.CommonTime)
	for _, c := range []struct {
		tick, d partitur.Fraction
		pitches []int
	}{
		{frac(0, 1), frac(1, 4), []int{60, 64}},
		{frac(1, 4), frac(1, 4), []int{60}},
		{frac(1, 2), frac(1, 2), []int{67}},
	} {
		if _, err := s.AddChord(c.tick, 0, c.d, c.pitches...); err != nil {
			t.Fatalf("AddChord failed: %v", err)
		}
	}
	if _, err := s.AddRest(frac(1, 1), 0, frac(1, 1)); err != nil {
		t.Fatalf("AddRest failed: %v", err)
	}
	if _, err := s.AddSpanner(score.Spanner{Kind: partitur.Tie, Tick: frac(0, 1), Tick2: frac(1, 4), Track2: partitur.NoTrack, Anchor: score.AnchorChord}); err != nil {
		t.Fatalf("cannot add tie: %v", err)
	}
	var buf bytes.Buffer
	if err := midiexport.Write(s, &buf, midiexport.Options{Resolution: 480}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	f, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}
	if len(f.Tracks) != 2 {
		t.Fatalf("track count got %v, expected 2", len(f.Tracks))
	}
	var meter [][2]uint8
	var abs int64
	for _, ev := range f.Tracks[0] {
		abs += int64(ev.Delta)
		var num, denom uint8
		if ev.Message.GetMetaMeter(&num, &denom) {
			meter = append(meter, [2]uint8{num, denom})
		}
	}
	if !reflect.DeepEqual(meter, [][2]uint8{{4, 4}}) {
		t.Fatalf("meters got %v, expected one 4/4", meter)
	}
	if abs != 2*4*480 {
		t.Fatalf("conductor track length got %v, expected %v", abs, 2*4*480)
	}
	type span struct {
		key        uint8
		start, end int64
	}
	var got []span
	open := map[uint8]int64{}
	abs = 0
	for _, ev := range f.Tracks[1] {
		abs += int64(ev.Delta)
		var ch, key, vel uint8
		switch {
		case ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0:
			open[key] = abs
		case ev.Message.GetNoteOff(&ch, &key, &vel):
			got = append(got, span{key, open[key], abs})
		}
	}
	expected := []span{{64, 0, 480}, {60, 0, 960}, {67, 960, 1920}}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("notes got %v, expected %v", got, expected)
	}
}

func TestStaffChannels(t *testing.T) {
	s := score.NewScore(11)
	s.AppendMeasures(1, partitur.CommonTime)
	for staff := 0; staff < 11; staff++ {
		if _, err := s.AddChord(frac(0, 1), partitur.MakeTrack(staff, 0), frac(1, 1), 60); err != nil {
			t.Fatalf("AddChord failed: %v", err)
		}
	}
	f, err := midiexport.Export(s, midiexport.Options{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	var channels []uint8
	for _, tr := range f.Tracks[1:] {
		for _, ev := range tr {
			var ch, key, vel uint8
			if ev.Message.GetNoteOn(&ch, &key, &vel) {
				channels = append(channels, ch)
			}
		}
	}
	expected := []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 10, 11}
	if !reflect.DeepEqual(channels, expected) {
		t.Fatalf("channels got %v, expected %v", channels, expected)
	}
}
