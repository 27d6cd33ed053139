// Package midiexport renders a score as a Standard MIDI File. It uses only the
// query interface of the score, so the export sees the same durations as the
// consistency checker.
package midiexport

import (
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/score"
)

type (
	// Options of the export. Zero fields take the defaults.
	Options struct {
		Resolution int     // ticks per quarter note, 480 if zero
		Tempo      float64 // quarter notes per minute, 120 if zero
		Velocity   uint8   // note on velocity, 80 if zero
	}

	event struct {
		tick int64
		off  bool
		msg  []byte
	}

	note struct {
		start, end int64
		pitch      uint8
	}
)

const (
	DefaultResolution = 480
	DefaultTempo      = 120
	DefaultVelocity   = 80
)

func (o Options) withDefaults() Options {
	if o.Resolution <= 0 {
		o.Resolution = DefaultResolution
	}
	if o.Tempo <= 0 {
		o.Tempo = DefaultTempo
	}
	if o.Velocity == 0 {
		o.Velocity = DefaultVelocity
	}
	return o
}

// Export builds a format 1 SMF: a conductor track with the tempo, meter and
// key changes, and one track per staff. Tied chords sound as one note.
func Export(s *score.Score, opts Options) (*smf.SMF, error) {
	opts = opts.withDefaults()
	ret := smf.New()
	ret.TimeFormat = smf.MetricTicks(opts.Resolution)
	if err := ret.Add(conductor(s, opts)); err != nil {
		return nil, fmt.Errorf("conductor track: %w", err)
	}
	for staff := 0; staff < s.NumStaves(); staff++ {
		if err := ret.Add(staffTrack(s, staff, opts)); err != nil {
			return nil, fmt.Errorf("staff %d: %w", staff, err)
		}
	}
	return ret, nil
}

// Write exports a score and writes the file to w.
func Write(s *score.Score, w io.Writer, opts Options) error {
	f, err := Export(s, opts)
	if err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("could not write midi: %w", err)
	}
	return nil
}

func conductor(s *score.Score, opts Options) smf.Track {
	events := []event{{tick: 0, msg: smf.MetaTempo(opts.Tempo)}}
	var sig partitur.TimeSig
	for i, mid := range s.Measures() {
		m := s.Measure(mid)
		if i == 0 || m.TimeSig != sig {
			sig = m.TimeSig
			events = append(events, event{tick: toTicks(m.Tick, opts), msg: smf.MetaMeter(uint8(sig.Numerator), uint8(sig.Denominator))})
		}
	}
	if s.NumStaves() > 0 {
		key := s.Staff(0).Key
		events = append(events, event{tick: 0, msg: keyMessage(key)})
		for segID := range s.Segments(partitur.SegKeySig) {
			seg := s.Segment(segID)
			e := s.Element(seg.Element(0))
			if e == nil {
				continue
			}
			if k := e.Payload.(*score.KeySig).Key; k != key {
				key = k
				events = append(events, event{tick: toTicks(seg.Tick, opts), msg: keyMessage(k)})
			}
		}
	}
	return track(events, toTicks(s.EndTick(), opts))
}

func keyMessage(k partitur.Key) smf.Message {
	tonic := uint8((int(k)*7%12 + 12) % 12)
	if k < 0 {
		return smf.MetaKey(tonic, true, uint8(k.Flats()), true)
	}
	return smf.MetaKey(tonic, true, uint8(k.Sharps()), false)
}

func staffTrack(s *score.Score, staff int, opts Options) smf.Track {
	name := s.Staff(staff).Name
	if name == "" {
		name = fmt.Sprintf("Staff %d", staff+1)
	}
	events := []event{{tick: 0, msg: smf.MetaTrackSequenceName(name)}}
	ch := channel(staff)
	for _, n := range notes(s, staff, opts) {
		events = append(events,
			event{tick: n.start, msg: midi.NoteOn(ch, n.pitch, opts.Velocity)},
			event{tick: n.end, off: true, msg: midi.NoteOff(ch, n.pitch)},
		)
	}
	return track(events, toTicks(s.EndTick(), opts))
}

// channel skips the percussion channel 10.
func channel(staff int) uint8 {
	ch := staff % 15
	if ch >= 9 {
		ch++
	}
	return uint8(ch)
}

// notes collects the sounding notes of every voice of a staff. A chord at the
// end of a tie extends the notes of the chord the tie starts from instead of
// striking its pitches again.
func notes(s *score.Score, staff int, opts Options) []note {
	tiedFrom := map[score.ElementID]score.ElementID{}
	for _, sp := range s.Spanners() {
		if sp.Kind == partitur.Tie && sp.Track.Staff() == staff {
			tiedFrom[sp.EndElement] = sp.StartElement
		}
	}
	type key struct {
		chord score.ElementID
		pitch int
	}
	index := map[key]int{}
	var ret []note
	for voice := 0; voice < partitur.VOICES; voice++ {
		track := partitur.MakeTrack(staff, voice)
		for id := range s.DurationElements(track, partitur.Fraction{}, s.EndTick()) {
			e := s.Element(id)
			if e.Kind != partitur.Chord {
				continue
			}
			tick := s.Tick(id)
			start, end := toTicks(tick, opts), toTicks(tick.Add(s.ActualTicks(id)), opts)
			from, tied := tiedFrom[id]
			for _, p := range s.ChordRest(id).Pitches {
				if p < 0 || p > 127 {
					continue
				}
				if i, ok := index[key{from, p}]; tied && ok {
					ret[i].end = end
					index[key{id, p}] = i
					continue
				}
				index[key{id, p}] = len(ret)
				ret = append(ret, note{start: start, end: end, pitch: uint8(p)})
			}
		}
	}
	return ret
}

// track sorts events by tick, note offs first, and encodes them with delta
// times.
func track(events []event, end int64) smf.Track {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})
	var tr smf.Track
	var last int64
	for _, ev := range events {
		tr.Add(uint32(ev.tick-last), ev.msg)
		last = ev.tick
	}
	tr.Close(uint32(max(end-last, 0)))
	return tr
}

func toTicks(f partitur.Fraction, opts Options) int64 {
	return int64(f.Ticks(opts.Resolution))
}
