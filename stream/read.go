package stream

import (
	"fmt"
	"io"
	"log"

	"golang.org/x/exp/slices"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/check"
	"github.com/vsariola/partitur/score"
)

type (
	// ReadOptions controls Read.
	ReadOptions struct {
		// UseGapRests makes the measure check fill the gaps of the read
		// voices with generated gap rests instead of plain rests.
		UseGapRests bool
		// Logger receives the fills of the measure check. Nil discards them.
		Logger *log.Logger
	}

	reader struct {
		s       *score.Score
		checker *check.Checker
		logger  *log.Logger

		staff     int // index of the staff being read, -1 before the first
		measure   int // index of the measure being read in the staff
		m         *score.Measure
		nextTrack partitur.Track // track of the next voice marker
		track     partitur.Track
		pos       partitur.Fraction
		inVoice   bool
		sig       partitur.TimeSig
		tuplets   []score.ElementID
		spanners  map[int]*pendingSpanner
		mmrests   []pendingMMRest
	}

	pendingSpanner struct {
		sp         score.Spanner
		start, end bool
	}

	pendingMMRest struct {
		measure score.ElementID
		count   int
	}
)

// Read builds a score from a document. The voices of every measure are
// checked when the measure ends, so gaps left by a selection or by skipped
// gap rests are filled again.
func Read(doc *Document, opts ReadOptions) (*score.Score, error) {
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %d", partitur.ErrBadVersion, doc.Version)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	r := &reader{
		s:        score.NewScore(len(doc.Staves)),
		checker:  &check.Checker{UseGapRests: opts.UseGapRests, Logger: logger},
		logger:   logger,
		staff:    -1,
		spanners: map[int]*pendingSpanner{},
	}
	for i, h := range doc.Staves {
		st := r.s.Staff(i)
		st.Name, st.Key, st.Clef = h.Name, h.Key, h.Clef
		for _, ev := range h.Stretch {
			if err := r.s.SetTimeStretch(i, ev.Tick, ev.Stretch); err != nil {
				return nil, fmt.Errorf("staff %d: %w", i, err)
			}
		}
	}
	for i, rec := range doc.Records {
		if err := r.record(rec); err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, rec.Op, err)
		}
	}
	if r.m != nil || r.staff != len(doc.Staves)-1 {
		return nil, fmt.Errorf("%w: document ends inside staff %d", partitur.ErrBadStream, r.staff)
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return r.s, nil
}

func (r *reader) record(rec Record) error {
	switch {
	case !rec.Op.Valid():
		return fmt.Errorf("%w: %q", partitur.ErrUnknownOp, rec.Op)
	case rec.Op == OpVoiceEnd && !r.inVoice:
		return fmt.Errorf("%w: no open voice block", partitur.ErrBadStream)
	case rec.Op != OpVoiceEnd && !rec.Op.Content() && r.inVoice:
		return fmt.Errorf("%w: voice block not closed", partitur.ErrBadStream)
	case rec.Op.Content() && !r.inVoice:
		return fmt.Errorf("%w: outside a voice block", partitur.ErrBadStream)
	}
	switch rec.Op {
	case OpStaff:
		return r.beginStaff(rec)
	case OpStaffEnd:
		if r.m != nil || r.staff < 0 {
			return fmt.Errorf("%w: unexpected staff end", partitur.ErrBadStream)
		}
		if r.staff > 0 && r.measure != r.s.NumMeasures() {
			return fmt.Errorf("%w: staff %d has %d measures, expected %d", partitur.ErrBadStream, r.staff, r.measure, r.s.NumMeasures())
		}
		return nil
	case OpMeasure:
		return r.beginMeasure(rec)
	case OpMeasureEnd:
		return r.endMeasure()
	case OpVoice, OpVoiceEmpty:
		if r.m == nil || r.nextTrack >= partitur.MakeTrack(r.staff+1, 0) {
			return fmt.Errorf("%w: too many voices", partitur.ErrBadStream)
		}
		if rec.Op == OpVoice {
			r.track, r.pos, r.inVoice = r.nextTrack, r.m.Tick, true
		}
		r.nextTrack++
		return nil
	case OpVoiceEnd:
		if len(r.tuplets) > 0 {
			return fmt.Errorf("%w: %d tuplets left open", partitur.ErrBadStream, len(r.tuplets))
		}
		r.inVoice = false
		return nil
	case OpMMRest:
		if r.m == nil || r.staff != 0 || rec.Count < 1 {
			return fmt.Errorf("%w: misplaced multi-measure rest", partitur.ErrBadStream)
		}
		r.mmrests = append(r.mmrests, pendingMMRest{measure: r.m.ID, count: rec.Count})
		return nil
	case OpBreak:
		if r.m == nil || rec.Break == nil {
			return fmt.Errorf("%w: misplaced break", partitur.ErrBadStream)
		}
		_, err := r.s.AddBreak(r.m.ID, *rec.Break)
		return err
	case OpMove:
		if rec.DTick != nil {
			r.pos = r.pos.Add(*rec.DTick)
		}
		r.track += partitur.Track(rec.DTrack)
		if !r.track.Valid(r.s.NumStaves()) {
			return fmt.Errorf("%w: move to track %v", partitur.ErrNoStaff, r.track)
		}
		return nil
	}
	return r.content(rec)
}

func (r *reader) beginStaff(rec Record) error {
	if r.m != nil || rec.Staff != r.staff+1 || rec.Staff >= r.s.NumStaves() {
		return fmt.Errorf("%w: staff %d after staff %d", partitur.ErrBadStream, rec.Staff, r.staff)
	}
	r.staff, r.measure = rec.Staff, 0
	return nil
}

func (r *reader) beginMeasure(rec Record) error {
	if r.staff < 0 || r.m != nil {
		return fmt.Errorf("%w: measure outside a staff", partitur.ErrBadStream)
	}
	if rec.TimeSig != nil {
		if !rec.TimeSig.Valid() {
			return fmt.Errorf("%w: time signature %v", partitur.ErrBadStream, *rec.TimeSig)
		}
		r.sig = *rec.TimeSig
	}
	if r.sig.IsZero() {
		return fmt.Errorf("%w: measure without a time signature", partitur.ErrBadStream)
	}
	mid := r.s.MeasureByIndex(r.measure)
	switch {
	case r.staff > 0 && mid == score.NoElement:
		return fmt.Errorf("%w: measure %d is missing from the first staff", partitur.ErrBadStream, r.measure+1)
	case mid != score.NoElement:
	case rec.Ticks != nil:
		mid = r.s.AppendIrregularMeasure(r.sig, *rec.Ticks)
	default:
		mid = r.s.AppendMeasure(r.sig)
	}
	r.m = r.s.Measure(mid)
	r.nextTrack = partitur.MakeTrack(r.staff, 0)
	return nil
}

func (r *reader) endMeasure() error {
	if r.m == nil {
		return fmt.Errorf("%w: unexpected measure end", partitur.ErrBadStream)
	}
	for _, d := range r.checker.CheckMeasure(r.s, r.m.ID, r.staff) {
		r.logger.Printf("%s: %s", d.Code, d.Message)
	}
	r.m = nil
	r.measure++
	return nil
}

func (r *reader) topTuplet() score.ElementID {
	if len(r.tuplets) == 0 {
		return score.NoElement
	}
	return r.tuplets[len(r.tuplets)-1]
}

func (r *reader) content(rec Record) error {
	var id score.ElementID
	var err error
	switch rec.Op {
	case OpChord, OpRest, OpMeasureRepeat:
		return r.chordRest(rec)
	case OpTuplet:
		if rec.Ratio == nil || rec.Ticks == nil {
			return fmt.Errorf("%w: tuplet without ratio or ticks", partitur.ErrBadStream)
		}
		id, err = r.s.InsertElement(partitur.Tuplet, r.pos, r.track, &score.Tuplet{Ratio: *rec.Ratio, Ticks: *rec.Ticks, Tuplet: r.topTuplet()})
		if err == nil {
			r.tuplets = append(r.tuplets, id)
		}
		return err
	case OpTupletEnd:
		if len(r.tuplets) == 0 {
			return fmt.Errorf("%w: no open tuplet", partitur.ErrBadStream)
		}
		r.tuplets = r.tuplets[:len(r.tuplets)-1]
		return nil
	case OpClef:
		if rec.Clef == nil {
			return fmt.Errorf("%w: clef without type", partitur.ErrBadStream)
		}
		_, err = r.s.InsertElement(partitur.Clef, r.pos, r.track, &score.Clef{Type: *rec.Clef})
	case OpKeySig:
		if rec.Key == nil {
			return fmt.Errorf("%w: key signature without key", partitur.ErrBadStream)
		}
		_, err = r.s.InsertElement(partitur.KeySig, r.pos, r.track, &score.KeySig{Key: *rec.Key})
	case OpTimeSig:
		if rec.TimeSig == nil {
			return fmt.Errorf("%w: time signature mark without signature", partitur.ErrBadStream)
		}
		_, err = r.s.InsertElement(partitur.TimeSigKind, r.pos, r.track, &score.TimeSigMark{Sig: *rec.TimeSig})
	case OpBarLine:
		_, err = r.s.InsertElement(partitur.BarLine, r.pos, r.track, &score.BarLine{Subtype: rec.Subtype})
	case OpBreath:
		_, err = r.s.InsertElement(partitur.Breath, r.pos, r.track, &score.Breath{Symbol: rec.Subtype})
	case OpAnnotation:
		if !rec.Kind.IsAnnotation() {
			return fmt.Errorf("%w: %v is not an annotation", partitur.ErrUnknownKind, rec.Kind)
		}
		_, err = r.s.AddAnnotation(rec.Kind, r.pos, r.track, rec.Text)
	case OpSpanner:
		return r.spannerStart(rec)
	case OpSpannerEnd:
		return r.spannerEnd(rec)
	default:
		return fmt.Errorf("%w: %q", partitur.ErrUnknownOp, rec.Op)
	}
	return err
}

func (r *reader) chordRest(rec Record) error {
	cr := &score.ChordRest{Tuplet: r.topTuplet(), Gap: rec.Gap, Count: rec.Count}
	if rec.Duration != nil {
		cr.Duration = *rec.Duration
	}
	kind := partitur.Rest
	switch rec.Op {
	case OpChord:
		kind = partitur.Chord
		cr.Pitches = slices.Clone(rec.Pitches)
	case OpMeasureRepeat:
		kind = partitur.MeasureRepeat
		cr.Type = partitur.DurationType{Value: partitur.DurMeasure}
	default:
		if rec.Measure {
			cr.Type = partitur.DurationType{Value: partitur.DurMeasure}
		}
	}
	id, err := r.s.InsertElement(kind, r.pos, r.track, cr)
	if err != nil {
		return err
	}
	if rec.Gap {
		r.s.Element(id).Generated = true
	}
	r.pos = r.pos.Add(r.s.ActualTicks(id))
	return nil
}

func (r *reader) spannerStart(rec Record) error {
	if !rec.Kind.IsSpanner() {
		return fmt.Errorf("%w: %v is not a spanner", partitur.ErrUnknownKind, rec.Kind)
	}
	p := r.spanners[rec.ID]
	if p == nil {
		p = &pendingSpanner{}
		r.spanners[rec.ID] = p
	}
	if p.start {
		return fmt.Errorf("%w: spanner %d starts twice", partitur.ErrBadStream, rec.ID)
	}
	p.start = true
	p.sp.Kind, p.sp.Anchor, p.sp.Text = rec.Kind, rec.Anchor, rec.Text
	p.sp.Tick, p.sp.Track = r.pos, r.track
	return nil
}

func (r *reader) spannerEnd(rec Record) error {
	p := r.spanners[rec.ID]
	if p == nil {
		p = &pendingSpanner{}
		r.spanners[rec.ID] = p
	}
	if p.end {
		return fmt.Errorf("%w: spanner %d ends twice", partitur.ErrBadStream, rec.ID)
	}
	p.end = true
	p.sp.Tick2, p.sp.Track2 = r.pos, r.track
	return nil
}

// finish adds the spanners once every chord-rest they may anchor to exists,
// then rebuilds the multi-measure rests.
func (r *reader) finish() error {
	ids := make([]int, 0, len(r.spanners))
	for id := range r.spanners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		p := r.spanners[id]
		if !p.start || !p.end {
			return fmt.Errorf("%w: spanner %d has no start or end marker", partitur.ErrBadStream, id)
		}
		if p.sp.Track2 == p.sp.Track {
			p.sp.Track2 = partitur.NoTrack
		}
		if _, err := r.s.AddSpanner(p.sp); err != nil {
			return fmt.Errorf("spanner %d: %w", id, err)
		}
	}
	for _, mm := range r.mmrests {
		if _, err := r.s.AddMMRest(mm.measure, mm.count); err != nil {
			return err
		}
	}
	return nil
}
