package partitur

import "fmt"

// ElementKind tags every element of a score. The set is closed: all the
// capability predicates below are pure functions of the kind.
type ElementKind int

const (
	Invalid ElementKind = iota
	Measure
	Segment
	Chord
	Rest
	MMRest
	MeasureRepeat
	Tuplet
	Clef
	KeySig
	TimeSigKind // the TimeSig type holds the value
	BarLine
	Breath
	Fermata
	Dynamic
	StaffText
	SystemText
	TempoText
	RehearsalMark
	Harmony
	Lyrics
	LayoutBreak
	Tie
	Slur
	Hairpin
	Ottava
	Pedal
	Volta
	Trill
	TextLine
	NoteLine
	LetRing
	PalmMute
	Vibrato
	Glissando
	LyricsLine
	TieSegment
	SlurSegment
	HairpinSegment
	OttavaSegment
	PedalSegment
	VoltaSegment
	TrillSegment
	TextLineSegment
	LetRingSegment
	PalmMuteSegment
	VibratoSegment
	GlissandoSegment
	LyricsLineSegment
	numKinds
)

var kindNames = [numKinds]string{
	Invalid:           "invalid",
	Measure:           "measure",
	Segment:           "segment",
	Chord:             "chord",
	Rest:              "rest",
	MMRest:            "mmrest",
	MeasureRepeat:     "measurerepeat",
	Tuplet:            "tuplet",
	Clef:              "clef",
	KeySig:            "keysig",
	TimeSigKind:       "timesig",
	BarLine:           "barline",
	Breath:            "breath",
	Fermata:           "fermata",
	Dynamic:           "dynamic",
	StaffText:         "stafftext",
	SystemText:        "systemtext",
	TempoText:         "tempotext",
	RehearsalMark:     "rehearsalmark",
	Harmony:           "harmony",
	Lyrics:            "lyrics",
	LayoutBreak:       "layoutbreak",
	Tie:               "tie",
	Slur:              "slur",
	Hairpin:           "hairpin",
	Ottava:            "ottava",
	Pedal:             "pedal",
	Volta:             "volta",
	Trill:             "trill",
	TextLine:          "textline",
	NoteLine:          "noteline",
	LetRing:           "letring",
	PalmMute:          "palmmute",
	Vibrato:           "vibrato",
	Glissando:         "glissando",
	LyricsLine:        "lyricsline",
	TieSegment:        "tiesegment",
	SlurSegment:       "slursegment",
	HairpinSegment:    "hairpinsegment",
	OttavaSegment:     "ottavasegment",
	PedalSegment:      "pedalsegment",
	VoltaSegment:      "voltasegment",
	TrillSegment:      "trillsegment",
	TextLineSegment:   "textlinesegment",
	LetRingSegment:    "letringsegment",
	PalmMuteSegment:   "palmmutesegment",
	VibratoSegment:    "vibratosegment",
	GlissandoSegment:  "glissandosegment",
	LyricsLineSegment: "lyricslinesegment",
}

// Kinds returns every valid kind in declaration order.
func Kinds() []ElementKind {
	ret := make([]ElementKind, 0, numKinds-1)
	for k := Invalid + 1; k < numKinds; k++ {
		ret = append(ret, k)
	}
	return ret
}

func (k ElementKind) Valid() bool { return k > Invalid && k < numKinds }

func (k ElementKind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseElementKind is the inverse of ElementKind.String.
func ParseElementKind(s string) (ElementKind, error) {
	for k := Invalid + 1; k < numKinds; k++ {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return Invalid, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k ElementKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *ElementKind) UnmarshalText(text []byte) error {
	v, err := ParseElementKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func (k ElementKind) IsRestFamily() bool {
	return k == Rest || k == MMRest || k == MeasureRepeat
}

func (k ElementKind) IsChordRest() bool {
	return k.IsRestFamily() || k == Chord
}

// IsDurationElement reports the kinds that occupy a measured span of time:
// chords, rests, multi-measure rests, measure repeats and tuplets.
func (k ElementKind) IsDurationElement() bool {
	return k.IsChordRest() || k == Tuplet
}

func (k ElementKind) IsSlurTieSegment() bool {
	return k == SlurSegment || k == TieSegment
}

func (k ElementKind) IsTextLineBaseSegment() bool {
	switch k {
	case HairpinSegment, LetRingSegment, TextLineSegment, OttavaSegment,
		PalmMuteSegment, PedalSegment, VoltaSegment:
		return true
	}
	return false
}

func (k ElementKind) IsLineSegment() bool {
	switch k {
	case GlissandoSegment, LyricsLineSegment, TrillSegment, VibratoSegment:
		return true
	}
	return k.IsTextLineBaseSegment()
}

func (k ElementKind) IsSpannerSegment() bool {
	return k.IsLineSegment() || k.IsSlurTieSegment()
}

func (k ElementKind) IsTextLineBase() bool {
	switch k {
	case Hairpin, LetRing, NoteLine, Ottava, PalmMute, Pedal, TextLine, Volta:
		return true
	}
	return false
}

func (k ElementKind) IsSLine() bool {
	return k.IsTextLineBase() || k == Trill || k == Glissando || k == Vibrato || k == LyricsLine
}

// IsSpanner reports the range kinds stored in the spanner set rather than in
// segments.
func (k ElementKind) IsSpanner() bool {
	return k == Slur || k == Tie || k.IsSLine()
}

// IsAnnotation reports the kinds that attach to a segment without taking
// its per-track slot.
func (k ElementKind) IsAnnotation() bool {
	switch k {
	case Fermata, Dynamic, StaffText, SystemText, TempoText, RehearsalMark, Harmony, Lyrics:
		return true
	}
	return false
}

// IsSystemElement reports kinds that apply to all staves and are written
// only with the top staff.
func (k ElementKind) IsSystemElement() bool {
	switch k {
	case SystemText, TempoText, RehearsalMark, Volta:
		return true
	}
	return false
}

// IsText reports the kinds whose payload is a plain text.
func (k ElementKind) IsText() bool {
	return k.IsAnnotation()
}

// SegmentTypeFor returns the segment type that holds a principal element of
// this kind, or 0 when the kind does not live in a segment slot.
func SegmentTypeFor(k ElementKind) SegmentType {
	switch {
	case k.IsChordRest():
		return SegChordRest
	case k.IsAnnotation():
		return SegChordRest
	}
	switch k {
	case Clef:
		return SegClef
	case KeySig:
		return SegKeySig
	case TimeSigKind:
		return SegTimeSig
	case BarLine:
		return SegEndBarLine
	case Breath:
		return SegBreath
	}
	return 0
}

// FragmentKind returns the layout fragment kind of a spanner kind, or
// Invalid when the kind is not a spanner.
func FragmentKind(k ElementKind) ElementKind {
	switch k {
	case Tie:
		return TieSegment
	case Slur:
		return SlurSegment
	case Hairpin:
		return HairpinSegment
	case Ottava:
		return OttavaSegment
	case Pedal:
		return PedalSegment
	case Volta:
		return VoltaSegment
	case Trill:
		return TrillSegment
	case TextLine, NoteLine:
		return TextLineSegment
	case LetRing:
		return LetRingSegment
	case PalmMute:
		return PalmMuteSegment
	case Vibrato:
		return VibratoSegment
	case Glissando:
		return GlissandoSegment
	case LyricsLine:
		return LyricsLineSegment
	}
	return Invalid
}

// AllowsZeroLength lists spanner kinds that may start and end at the same
// tick, e.g. a melisma line or a glissando between grace notes.
func AllowsZeroLength(k ElementKind) bool {
	switch k {
	case LyricsLine, Glissando, NoteLine:
		return true
	}
	return false
}
