// Package stream linearizes a score into a flat, track ordered sequence of
// records and reads such a sequence back into a score.
//
// A document is written staff by staff and measure by measure. Inside a
// measure block every track of the staff with content gets a voice block;
// tracks without content before it get an empty voice marker, so a reader
// recovers the track of a block from its position. Inside a voice block the
// records follow the segments in tick order. The reader keeps a current
// position; chords and rests advance it by the time they occupy, and a move
// record shifts it whenever the next content is elsewhere.
package stream

import (
	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/score"
)

// Version is the document version written by Write and accepted by Read.
const Version = 1

type (
	// Op is the type of a record.
	Op string

	// Record is one entry of the stream. Only the fields used by its Op are
	// set.
	Record struct {
		Op       Op                   `yaml:"op" json:"op"`
		Staff    int                  `yaml:"staff,omitempty" json:"staff,omitempty"`
		DTick    *partitur.Fraction   `yaml:"dtick,omitempty" json:"dtick,omitempty"`
		DTrack   int                  `yaml:"dtrack,omitempty" json:"dtrack,omitempty"`
		Duration *partitur.Fraction   `yaml:"duration,omitempty" json:"duration,omitempty"`
		Pitches  []int                `yaml:"pitches,flow,omitempty" json:"pitches,omitempty"`
		Measure  bool                 `yaml:"measure,omitempty" json:"measure,omitempty"`
		Gap      bool                 `yaml:"gap,omitempty" json:"gap,omitempty"`
		Count    int                  `yaml:"count,omitempty" json:"count,omitempty"`
		Ratio    *partitur.Fraction   `yaml:"ratio,omitempty" json:"ratio,omitempty"`
		Ticks    *partitur.Fraction   `yaml:"ticks,omitempty" json:"ticks,omitempty"`
		TimeSig  *partitur.TimeSig    `yaml:"timesig,omitempty" json:"timesig,omitempty"`
		Key      *partitur.Key        `yaml:"key,omitempty" json:"key,omitempty"`
		Clef     *partitur.ClefType   `yaml:"clef,omitempty" json:"clef,omitempty"`
		Break    *partitur.BreakType  `yaml:"break,omitempty" json:"break,omitempty"`
		Kind     partitur.ElementKind `yaml:"kind,omitempty" json:"kind,omitempty"`
		Subtype  string               `yaml:"subtype,omitempty" json:"subtype,omitempty"`
		Text     string               `yaml:"text,omitempty" json:"text,omitempty"`
		ID       int                  `yaml:"id,omitempty" json:"id,omitempty"`
		Anchor   score.Anchor         `yaml:"anchor,omitempty" json:"anchor,omitempty"`
	}

	// StaffHeader holds the staff state that is not expressed as records.
	StaffHeader struct {
		Name    string            `yaml:"name,omitempty" json:"name,omitempty"`
		Key     partitur.Key      `yaml:"key" json:"key"`
		Clef    partitur.ClefType `yaml:"clef" json:"clef"`
		Stretch []StretchEvent    `yaml:"stretch,omitempty" json:"stretch,omitempty"`
	}

	// StretchEvent sets the time stretch of a staff from Tick on.
	StretchEvent struct {
		Tick    partitur.Fraction `yaml:"tick" json:"tick"`
		Stretch partitur.Fraction `yaml:"stretch" json:"stretch"`
	}

	// Document is a serialized score or selection.
	Document struct {
		Version int           `yaml:"version" json:"version"`
		Staves  []StaffHeader `yaml:"staves" json:"staves"`
		Records []Record      `yaml:"records" json:"records"`
	}
)

const (
	OpStaff         Op = "staff"
	OpStaffEnd      Op = "staff-end"
	OpMeasure       Op = "measure"
	OpMeasureEnd    Op = "measure-end"
	OpVoice         Op = "voice"
	OpVoiceEmpty    Op = "voice-empty"
	OpVoiceEnd      Op = "voice-end"
	OpMove          Op = "move"
	OpChord         Op = "chord"
	OpRest          Op = "rest"
	OpMeasureRepeat Op = "measure-repeat"
	OpMMRest        Op = "mmrest"
	OpTuplet        Op = "tuplet"
	OpTupletEnd     Op = "tuplet-end"
	OpClef          Op = "clef"
	OpKeySig        Op = "keysig"
	OpTimeSig       Op = "timesig"
	OpBarLine       Op = "barline"
	OpBreath        Op = "breath"
	OpAnnotation    Op = "annotation"
	OpBreak         Op = "break"
	OpSpanner       Op = "spanner"
	OpSpannerEnd    Op = "spanner-end"
)

// Valid reports if o is a known op.
func (o Op) Valid() bool {
	switch o {
	case OpStaff, OpStaffEnd, OpMeasure, OpMeasureEnd, OpVoice, OpVoiceEmpty, OpVoiceEnd, OpMove,
		OpChord, OpRest, OpMeasureRepeat, OpMMRest, OpTuplet, OpTupletEnd, OpClef, OpKeySig,
		OpTimeSig, OpBarLine, OpBreath, OpAnnotation, OpBreak, OpSpanner, OpSpannerEnd:
		return true
	}
	return false
}

// Content reports if the record belongs to a voice block.
func (o Op) Content() bool {
	switch o {
	case OpStaff, OpStaffEnd, OpMeasure, OpMeasureEnd, OpVoice, OpVoiceEmpty, OpVoiceEnd, OpMMRest, OpBreak:
		return false
	}
	return true
}

func ptr[T any](v T) *T { return &v }
