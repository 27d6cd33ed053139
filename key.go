package partitur

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is a key signature as the number of sharps (positive) or flats
// (negative), -7..7. Mode is not tracked; String names the major key.
type Key int

const (
	KeyMin Key = -7
	KeyC   Key = 0
	KeyMax Key = 7
)

var majorKeyNames = [...]string{
	"Cb", "Gb", "Db", "Ab", "Eb", "Bb", "F", "C", "G", "D", "A", "E", "B", "F#", "C#",
}

func (k Key) Valid() bool { return k >= KeyMin && k <= KeyMax }

// Sharps returns the number of sharps, 0 if the key has flats.
func (k Key) Sharps() int { return max(int(k), 0) }

// Flats returns the number of flats, 0 if the key has sharps.
func (k Key) Flats() int { return max(-int(k), 0) }

func (k Key) String() string {
	if !k.Valid() {
		return fmt.Sprintf("key(%d)", int(k))
	}
	return majorKeyNames[k-KeyMin] + " major"
}

// MarshalText writes the key as a signed accidental count, e.g. "2" or "-3".
func (k Key) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid key %d", int(k))
	}
	return []byte(strconv.Itoa(int(k))), nil
}

// UnmarshalText accepts a signed accidental count or a major key name such as
// "D" or "Bb major".
func (k *Key) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if n, err := strconv.Atoi(s); err == nil {
		if !Key(n).Valid() {
			return fmt.Errorf("key %d out of range", n)
		}
		*k = Key(n)
		return nil
	}
	s = strings.TrimSuffix(s, " major")
	for i, name := range majorKeyNames {
		if name == s {
			*k = KeyMin + Key(i)
			return nil
		}
	}
	return fmt.Errorf("unknown key %q", string(text))
}
