package score

import (
	"fmt"

	"github.com/vsariola/partitur"
)

type (
	// ElementID is a handle into the element arena of a Score. IDs are never
	// reused; a removed element leaves a tombstone behind.
	ElementID int

	// Element is a node of the score tree. Parent is always a live element
	// once the element is inserted, except for measures whose owner is the
	// score itself.
	Element struct {
		ID        ElementID
		Kind      partitur.ElementKind
		Parent    ElementID
		Track     partitur.Track
		Generated bool
		Payload   Payload
		dead      bool
	}

	// Payload is the kind specific part of an element. The set of payload
	// types is closed.
	Payload interface {
		payload()
	}

	// ChordRest is the payload of chords, rests, multi-measure rests and
	// measure repeats. Duration is the written length; the length the
	// element actually occupies also depends on the enclosing tuplets and
	// the staff time stretch.
	ChordRest struct {
		Duration partitur.Fraction
		Type     partitur.DurationType
		Pitches  []int
		Tuplet   ElementID // innermost enclosing tuplet or NoElement
		Gap      bool      // rest inserted by gap filling
		Count    int       // measures covered by mmrests and measure repeats
	}

	// Tuplet groups duration elements into a time span scaled by Ratio, the
	// number of actual notes per normal notes (3/2 for a triplet). Ticks is
	// the written length of the span the tuplet occupies.
	Tuplet struct {
		Tick    partitur.Fraction
		Ticks   partitur.Fraction
		Ratio   partitur.Fraction
		Members []ElementID
		Tuplet  ElementID
	}

	KeySig struct {
		Key partitur.Key
	}

	// TimeSigMark is the payload of a time signature element. The nominal
	// measure lengths are held by the measures, the mark only displays them.
	TimeSigMark struct {
		Sig partitur.TimeSig
	}

	Clef struct {
		Type partitur.ClefType
	}

	BarLine struct {
		Subtype string
	}

	Breath struct {
		Symbol string
	}

	// Text is the payload of every annotation kind.
	Text struct {
		Text string
	}

	Break struct {
		Type partitur.BreakType
	}
)

// NoElement is the null handle. It is the zero value, so payload fields
// referring to other elements default to none.
const NoElement ElementID = 0

func (*Measure) payload()     {}
func (*Segment) payload()     {}
func (*ChordRest) payload()   {}
func (*Tuplet) payload()      {}
func (*KeySig) payload()      {}
func (*TimeSigMark) payload() {}
func (*Clef) payload()        {}
func (*BarLine) payload()     {}
func (*Breath) payload()      {}
func (*Text) payload()        {}
func (*Break) payload()       {}

func (id ElementID) String() string {
	if id == NoElement {
		return "none"
	}
	return fmt.Sprintf("#%d", int(id))
}

// Alive reports if the element has not been removed.
func (e *Element) Alive() bool { return e != nil && !e.dead }

// payloadMatches reports if p is the payload type required by kind.
func payloadMatches(kind partitur.ElementKind, p Payload) bool {
	switch p.(type) {
	case *Measure:
		return kind == partitur.Measure
	case *Segment:
		return kind == partitur.Segment
	case *ChordRest:
		return kind.IsChordRest()
	case *Tuplet:
		return kind == partitur.Tuplet
	case *KeySig:
		return kind == partitur.KeySig
	case *TimeSigMark:
		return kind == partitur.TimeSigKind
	case *Clef:
		return kind == partitur.Clef
	case *BarLine:
		return kind == partitur.BarLine
	case *Breath:
		return kind == partitur.Breath
	case *Text:
		return kind.IsAnnotation()
	case *Break:
		return kind == partitur.LayoutBreak
	}
	return false
}
