package partitur

import "fmt"

type (
	// ClefType selects the clef of a staff.
	ClefType int

	// BreakType is the kind of a layout break attached to a measure. Spanners
	// are split into fragments at every measure carrying a break.
	BreakType int
)

const (
	ClefTreble ClefType = iota
	ClefBass
	ClefAlto
	ClefTenor
	ClefTreble8vb
	ClefPercussion
	ClefTab
	numClefTypes
)

const (
	BreakLine BreakType = iota
	BreakPage
	BreakSection
	numBreakTypes
)

var clefNames = [numClefTypes]string{"treble", "bass", "alto", "tenor", "treble8vb", "percussion", "tab"}

var breakNames = [numBreakTypes]string{"line", "page", "section"}

func (c ClefType) String() string {
	if c < 0 || c >= numClefTypes {
		return fmt.Sprintf("clef(%d)", int(c))
	}
	return clefNames[c]
}

func (c ClefType) MarshalText() ([]byte, error) {
	if c < 0 || c >= numClefTypes {
		return nil, fmt.Errorf("invalid clef %d", int(c))
	}
	return []byte(clefNames[c]), nil
}

func (c *ClefType) UnmarshalText(text []byte) error {
	for i, n := range clefNames {
		if n == string(text) {
			*c = ClefType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown clef %q", string(text))
}

func (b BreakType) String() string {
	if b < 0 || b >= numBreakTypes {
		return fmt.Sprintf("break(%d)", int(b))
	}
	return breakNames[b]
}

func (b BreakType) MarshalText() ([]byte, error) {
	if b < 0 || b >= numBreakTypes {
		return nil, fmt.Errorf("invalid break %d", int(b))
	}
	return []byte(breakNames[b]), nil
}

func (b *BreakType) UnmarshalText(text []byte) error {
	for i, n := range breakNames {
		if n == string(text) {
			*b = BreakType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown break %q", string(text))
}
