package score

import (
	"github.com/vsariola/partitur"
)

// Cursor builds a score sequentially. It keeps a (track, tick) position,
// appends measures on demand and advances past every chord or rest it adds.
type Cursor struct {
	s     *Score
	tick  partitur.Fraction
	track partitur.Track
	sig   partitur.TimeSig
}

// NewCursor returns a cursor at tick 0 of track 0 creating 4/4 measures.
func (s *Score) NewCursor() *Cursor {
	return &Cursor{s: s, sig: partitur.CommonTime}
}

// Move positions the cursor.
func (c *Cursor) Move(track partitur.Track, tick partitur.Fraction) {
	c.track = track
	c.tick = tick
}

func (c *Cursor) Tick() partitur.Fraction { return c.tick }
func (c *Cursor) Track() partitur.Track   { return c.track }

// createMeasures appends measures until one contains the cursor tick.
func (c *Cursor) createMeasures() {
	for !c.s.EndTick().Greater(c.tick) {
		c.s.AppendMeasure(c.sig)
	}
}

// AddChord adds a chord at the cursor and advances the cursor. If a chord
// already sits in the slot the pitches are added to it.
func (c *Cursor) AddChord(pitches []int, d partitur.Fraction) (ElementID, error) {
	c.createMeasures()
	if seg := c.s.Segment(c.s.SegmentAt(c.tick, partitur.SegChordRest)); seg != nil {
		if id := seg.Element(c.track); id != NoElement && c.s.elems[id].Kind == partitur.Chord {
			cr := c.s.elems[id].Payload.(*ChordRest)
			cr.Pitches = append(cr.Pitches, pitches...)
			c.tick = c.tick.Add(d)
			return id, nil
		}
	}
	id, err := c.s.AddChord(c.tick, c.track, d, pitches...)
	if err != nil {
		return NoElement, err
	}
	c.tick = c.tick.Add(d)
	return id, nil
}

// AddRest adds a rest at the cursor and advances the cursor.
func (c *Cursor) AddRest(d partitur.Fraction) (ElementID, error) {
	c.createMeasures()
	id, err := c.s.AddRest(c.tick, c.track, d)
	if err != nil {
		return NoElement, err
	}
	c.tick = c.tick.Add(d)
	return id, nil
}

// AddKeySig adds a key signature at the cursor on every staff.
func (c *Cursor) AddKeySig(key partitur.Key) error {
	c.createMeasures()
	for staff := 0; staff < c.s.NumStaves(); staff++ {
		if _, err := c.s.AddKeySig(c.tick, staff, key); err != nil {
			return err
		}
	}
	return nil
}

// AddTimeSig makes measures created from now on use sig and adds a time
// signature at the cursor on every staff. A measure already existing at the
// cursor must have the same signature.
func (c *Cursor) AddTimeSig(sig partitur.TimeSig) error {
	c.sig = sig
	c.createMeasures()
	for staff := 0; staff < c.s.NumStaves(); staff++ {
		if _, err := c.s.AddTimeSig(c.tick, staff, sig); err != nil {
			return err
		}
	}
	return nil
}
