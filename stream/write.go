package stream

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/score"
)

type (
	// Options controls Write.
	Options struct {
		// Selection limits the output to a range of staves and ticks. Nil
		// writes the whole score.
		Selection *Selection
		// WriteMMRests marks the multi-measure rests of the score so the
		// reader can rebuild them.
		WriteMMRests bool
		// IncludeGapRests writes generated elements and spanners, gap rests
		// included.
		IncludeGapRests bool
	}

	// Selection is the staves [StaffStart, StaffEnd) in the ticks
	// [StartTick, EndTick).
	Selection struct {
		StaffStart int
		StaffEnd   int
		StartTick  partitur.Fraction
		EndTick    partitur.Fraction
	}

	voiceState int

	// writerState is the position of the stream written so far. It is a
	// plain value: every step of the walk takes the state and returns the
	// new one.
	writerState struct {
		origin  partitur.Fraction // start of the measure being written
		tick    partitur.Fraction
		track   partitur.Track
		marked  partitur.Track // next track without a voice marker
		voice   voiceState
		tuplets []score.ElementID
	}

	writer struct {
		s          *score.Score
		opts       Options
		staffStart int
		staffEnd   int
		start      partitur.Fraction
		end        partitur.Fraction
		measures   []score.ElementID
		spanners   []score.Spanner
		ids        map[score.SpannerID]int
		records    []Record
	}
)

const (
	noVoiceOpen voiceState = iota
	voiceOpen
	voiceClosed
)

// Write linearizes a score, or a selection of it, into a document. The score
// is not modified. If the selection does not start at tick 0, the key and
// time signatures in effect are written at the start of every staff even if
// no element holds them there. Write fails without output if the selection
// start has no segment or a written spanner has lost an anchor.
func Write(s *score.Score, opts Options) (*Document, error) {
	w, err := newWriter(s, opts)
	if err != nil {
		return nil, &partitur.ExportError{Op: "write", Err: err}
	}
	doc := &Document{Version: Version, Staves: []StaffHeader{}}
	for staff := w.staffStart; staff < w.staffEnd; staff++ {
		doc.Staves = append(doc.Staves, w.header(staff))
		w.writeStaff(staff)
	}
	doc.Records = w.records
	return doc, nil
}

func newWriter(s *score.Score, opts Options) (*writer, error) {
	w := &writer{s: s, opts: opts, staffEnd: s.NumStaves(), end: s.EndTick(), ids: map[score.SpannerID]int{}}
	if sel := opts.Selection; sel != nil {
		if sel.StaffStart < 0 || sel.StaffEnd > s.NumStaves() || sel.StaffStart >= sel.StaffEnd {
			return nil, fmt.Errorf("%w: staves %d-%d", partitur.ErrNoStaff, sel.StaffStart, sel.StaffEnd)
		}
		if s.SegmentAt(sel.StartTick, partitur.SegAll) == score.NoElement || sel.EndTick.LessEq(sel.StartTick) {
			return nil, fmt.Errorf("%w: %v", partitur.ErrNoStartSegment, sel.StartTick)
		}
		w.staffStart, w.staffEnd = sel.StaffStart, sel.StaffEnd
		w.start, w.end = sel.StartTick, sel.EndTick.Min(s.EndTick())
	}
	for _, mid := range s.Measures() {
		m := s.Measure(mid)
		if m.Tick.Less(w.end) && m.EndTick().Greater(w.start) {
			w.measures = append(w.measures, mid)
		}
	}
	for _, sp := range s.FindOverlapping(w.start, w.end) {
		if !w.selects(sp) || (sp.Generated && !opts.IncludeGapRests) {
			continue
		}
		if err := w.checkAnchors(sp); err != nil {
			return nil, err
		}
		w.spanners = append(w.spanners, sp)
		w.ids[sp.ID] = len(w.spanners)
	}
	return w, nil
}

// selects reports if a spanner lies completely inside the written range.
func (w *writer) selects(sp score.Spanner) bool {
	for _, t := range []partitur.Track{sp.Track, sp.EffectiveTrack2()} {
		if t.Staff() < w.staffStart || t.Staff() >= w.staffEnd {
			return false
		}
	}
	return sp.Tick.GreaterEq(w.start) && sp.Tick.Less(w.end) && sp.Tick2.LessEq(w.end)
}

func (w *writer) checkAnchors(sp score.Spanner) error {
	detached := func(tick partitur.Fraction) error {
		return fmt.Errorf("%w: %v %d at %v", partitur.ErrDetachedAnchor, sp.Kind, sp.ID, tick)
	}
	switch sp.Anchor {
	case score.AnchorChord:
		for _, a := range []struct {
			id    score.ElementID
			tick  partitur.Fraction
			track partitur.Track
		}{{sp.StartElement, sp.Tick, sp.Track}, {sp.EndElement, sp.Tick2, sp.EffectiveTrack2()}} {
			if e := w.s.Element(a.id); e == nil || e.Track != a.track || !w.s.Tick(a.id).Equal(a.tick) {
				return detached(a.tick)
			}
		}
	case score.AnchorMeasure:
		if m := w.s.Measure(w.s.MeasureAt(sp.Tick)); m == nil || !m.Tick.Equal(sp.Tick) {
			return detached(sp.Tick)
		}
		if !w.isMeasureEnd(sp.Tick2) {
			return detached(sp.Tick2)
		}
	default:
		if w.s.SegmentAt(sp.Tick, partitur.SegChordRest) == score.NoElement {
			return detached(sp.Tick)
		}
		if w.s.SegmentAt(sp.Tick2, partitur.SegChordRest) == score.NoElement && !w.isMeasureEnd(sp.Tick2) {
			return detached(sp.Tick2)
		}
	}
	return nil
}

func (w *writer) isMeasureEnd(tick partitur.Fraction) bool {
	if tick.Equal(w.s.EndTick()) {
		return true
	}
	m := w.s.Measure(w.s.MeasureAt(tick))
	return m != nil && m.Tick.Equal(tick)
}

func (w *writer) header(staff int) StaffHeader {
	st := w.s.Staff(staff)
	h := StaffHeader{Name: st.Name, Key: st.Key, Clef: st.Clef}
	if w.start.Sign() > 0 {
		h.Key = w.s.KeyAt(staff, w.start)
		h.Clef = w.s.ClefAt(staff, w.start)
	}
	ticks, stretches := w.s.StretchEvents(staff)
	if len(ticks) == 0 || len(w.measures) == 0 {
		return h
	}
	offset := w.s.Measure(w.measures[0]).Tick
	h.Stretch = append(h.Stretch, StretchEvent{Stretch: w.s.TimeStretch(staff, offset)})
	for i, t := range ticks {
		if t.Greater(offset) && t.Less(w.end) {
			h.Stretch = append(h.Stretch, StretchEvent{Tick: t.Sub(offset), Stretch: stretches[i]})
		}
	}
	return h
}

func (w *writer) emit(r Record) {
	w.records = append(w.records, r)
}

func (w *writer) writeStaff(staff int) {
	w.emit(Record{Op: OpStaff, Staff: staff - w.staffStart})
	var sig partitur.TimeSig
	for i, mid := range w.measures {
		m := w.s.Measure(mid)
		rec := Record{Op: OpMeasure}
		if i == 0 || m.TimeSig != sig {
			rec.TimeSig = ptr(m.TimeSig)
		}
		if m.Irregular {
			rec.Ticks = ptr(m.Ticks)
		}
		w.emit(rec)
		sig = m.TimeSig
		if staff == w.staffStart {
			w.writeMeasureMarks(i, m)
		}
		st := writerState{origin: m.Tick, marked: partitur.MakeTrack(staff, 0)}
		for voice := 0; voice < partitur.VOICES; voice++ {
			st = w.writeTrack(st, m, partitur.MakeTrack(staff, voice), i == 0 && voice == 0)
		}
		w.emit(Record{Op: OpMeasureEnd})
	}
	w.emit(Record{Op: OpStaffEnd})
}

// writeMeasureMarks writes the layout breaks and the multi-measure rest of
// the i-th written measure.
func (w *writer) writeMeasureMarks(i int, m *score.Measure) {
	for _, id := range m.Breaks {
		if e := w.s.Element(id); e != nil && (w.opts.IncludeGapRests || !e.Generated) {
			w.emit(Record{Op: OpBreak, Break: ptr(e.Payload.(*score.Break).Type)})
		}
	}
	if !w.opts.WriteMMRests || m.MMRest == score.NoElement {
		return
	}
	if mm := w.s.Measure(m.MMRest); i+mm.MMRestCount <= len(w.measures) {
		w.emit(Record{Op: OpMMRest, Count: mm.MMRestCount})
	}
}

// writeTrack writes the voice block of one track in a measure. first marks
// voice 0 of the first written measure of a staff, which carries the forced
// key and time signatures of a selection.
func (w *writer) writeTrack(st writerState, m *score.Measure, track partitur.Track, first bool) writerState {
	st.voice = noVoiceOpen
	st.tick, st.track = m.Tick, track
	if first && w.start.Sign() > 0 {
		st = w.forceState(st, m, track)
	}
	if w.s.SegmentAt(m.Tick, partitur.SegChordRest) == score.NoElement {
		st = w.spannerStarts(st, m.Tick, track)
	}
	for _, segID := range m.Segments {
		seg := w.s.Segment(segID)
		if seg.Tick.Less(w.start) || seg.Tick.Greater(w.end) || (seg.Tick.Equal(w.end) && seg.Type != partitur.SegEndBarLine) {
			continue
		}
		if seg.Type == partitur.SegChordRest {
			st = w.spannerEnds(st, seg.Tick, track)
			st = w.spannerStarts(st, seg.Tick, track)
			for _, id := range seg.Annotations() {
				if e := w.s.Element(id); e.Track == track && w.keep(e) {
					st = w.content(st, seg.Tick, track, Record{Op: OpAnnotation, Kind: e.Kind, Text: e.Payload.(*score.Text).Text})
				}
			}
		}
		if e := w.s.Element(seg.Element(track)); e != nil && w.keep(e) {
			st = w.element(st, seg, e)
		}
	}
	if end := m.EndTick(); end.Less(w.end) && w.s.SegmentAt(end, partitur.SegChordRest) == score.NoElement {
		st = w.spannerEnds(st, end, track)
	}
	if w.end.Greater(m.Tick) && w.end.LessEq(m.EndTick()) {
		st = w.spannerEnds(st, w.end, track)
	}
	return w.closeVoice(st)
}

// forceState writes the key and time signature in effect at the selection
// start, unless elements at the start already hold them.
func (w *writer) forceState(st writerState, m *score.Measure, track partitur.Track) writerState {
	staff := track.Staff()
	explicit := func(typ partitur.SegmentType) bool {
		seg := w.s.Segment(w.s.SegmentAt(w.start, typ))
		return seg != nil && seg.Element(track) != score.NoElement
	}
	if !explicit(partitur.SegKeySig) {
		st = w.content(st, m.Tick, track, Record{Op: OpKeySig, Key: ptr(w.s.KeyAt(staff, w.start))})
	}
	if !explicit(partitur.SegTimeSig) {
		st = w.content(st, m.Tick, track, Record{Op: OpTimeSig, TimeSig: ptr(w.s.LocalTimeSigAt(staff, w.start))})
	}
	return st
}

func (w *writer) keep(e *score.Element) bool {
	return w.opts.IncludeGapRests || !e.Generated
}

func (w *writer) element(st writerState, seg *score.Segment, e *score.Element) writerState {
	switch p := e.Payload.(type) {
	case *score.ChordRest:
		st = w.openTuplets(st, seg.Tick, e.Track, p.Tuplet)
		rec := Record{Duration: ptr(p.Duration)}
		switch e.Kind {
		case partitur.Chord:
			rec.Op = OpChord
			rec.Pitches = slices.Clone(p.Pitches)
		case partitur.Rest:
			rec.Op = OpRest
			rec.Measure = p.Type.IsMeasure()
			rec.Gap = p.Gap
		default:
			rec.Op = OpMeasureRepeat
			rec.Count = p.Count
		}
		st = w.content(st, seg.Tick, e.Track, rec)
		st.tick = seg.Tick.Add(w.s.ActualTicks(e.ID))
		return w.closeTuplets(st, e.ID)
	case *score.Clef:
		return w.content(st, seg.Tick, e.Track, Record{Op: OpClef, Clef: ptr(p.Type)})
	case *score.KeySig:
		return w.content(st, seg.Tick, e.Track, Record{Op: OpKeySig, Key: ptr(p.Key)})
	case *score.TimeSigMark:
		return w.content(st, seg.Tick, e.Track, Record{Op: OpTimeSig, TimeSig: ptr(p.Sig)})
	case *score.BarLine:
		return w.content(st, seg.Tick, e.Track, Record{Op: OpBarLine, Subtype: p.Subtype})
	case *score.Breath:
		return w.content(st, seg.Tick, e.Track, Record{Op: OpBreath, Subtype: p.Symbol})
	}
	return st
}

// openTuplets writes a tuplet record for every tuplet enclosing a chord-rest
// that is not open yet, outermost first.
func (w *writer) openTuplets(st writerState, tick partitur.Fraction, track partitur.Track, inner score.ElementID) writerState {
	var chain []score.ElementID
	for t := inner; t != score.NoElement; t = w.s.Tuplet(t).Tuplet {
		chain = append(chain, t)
	}
	slices.Reverse(chain)
	for _, t := range chain {
		if slices.Contains(st.tuplets, t) {
			continue
		}
		tup := w.s.Tuplet(t)
		st = w.content(st, tick, track, Record{Op: OpTuplet, Ratio: ptr(tup.Ratio), Ticks: ptr(tup.Ticks)})
		st.tuplets = append(slices.Clone(st.tuplets), t)
	}
	return st
}

// closeTuplets ends the innermost open tuplets whose last member is id,
// walking outwards.
func (w *writer) closeTuplets(st writerState, id score.ElementID) writerState {
	for len(st.tuplets) > 0 {
		top := st.tuplets[len(st.tuplets)-1]
		members := w.s.TupletMembers(top)
		if len(members) == 0 || members[len(members)-1] != id {
			break
		}
		w.emit(Record{Op: OpTupletEnd})
		st.tuplets = st.tuplets[:len(st.tuplets)-1:len(st.tuplets)-1]
		id = top
	}
	return st
}

func (w *writer) spannerStarts(st writerState, tick partitur.Fraction, track partitur.Track) writerState {
	for _, sp := range w.spanners {
		if sp.Tick.Equal(tick) && sp.Track == track {
			st = w.content(st, tick, track, Record{Op: OpSpanner, Kind: sp.Kind, ID: w.ids[sp.ID], Anchor: sp.Anchor, Text: sp.Text})
		}
	}
	return st
}

// spannerEnds writes the end markers at tick. The end track of a spanner is
// its own end track, which differs from the start track for cross-staff
// spanners.
func (w *writer) spannerEnds(st writerState, tick partitur.Fraction, track partitur.Track) writerState {
	for _, sp := range w.spanners {
		if sp.Tick2.Equal(tick) && sp.EffectiveTrack2() == track {
			st = w.content(st, tick, track, Record{Op: OpSpannerEnd, ID: w.ids[sp.ID]})
		}
	}
	return st
}

// content writes a record of a voice block at (tick, track), opening the
// voice and moving there first if needed.
func (w *writer) content(st writerState, tick partitur.Fraction, track partitur.Track, r Record) writerState {
	st = w.openVoice(st)
	st = w.moveTo(st, tick, track)
	w.emit(r)
	return st
}

func (w *writer) openVoice(st writerState) writerState {
	if st.voice == voiceOpen {
		return st
	}
	for ; st.marked < st.track; st.marked++ {
		w.emit(Record{Op: OpVoiceEmpty})
	}
	w.emit(Record{Op: OpVoice})
	st.marked = st.track + 1
	st.voice = voiceOpen
	st.tick = st.origin
	return st
}

func (w *writer) moveTo(st writerState, tick partitur.Fraction, track partitur.Track) writerState {
	if st.tick.Equal(tick) && st.track == track {
		return st
	}
	r := Record{Op: OpMove, DTrack: int(track - st.track)}
	if d := tick.Sub(st.tick); !d.IsZero() {
		r.DTick = ptr(d)
	}
	w.emit(r)
	st.tick, st.track = tick, track
	return st
}

// closeVoice ends the voice block. Tuplets cut by the selection end are
// closed first.
func (w *writer) closeVoice(st writerState) writerState {
	if st.voice == voiceOpen {
		for range st.tuplets {
			w.emit(Record{Op: OpTupletEnd})
		}
		w.emit(Record{Op: OpVoiceEnd})
	}
	st.voice = voiceClosed
	st.tuplets = nil
	return st
}
