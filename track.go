package partitur

import "fmt"

// VOICES is the number of voices every staff has. Tracks are numbered so that
// staff s owns tracks s*VOICES .. s*VOICES+VOICES-1.
const VOICES = 4

// Track identifies one voice of one staff; it is the channel used both for
// storing elements and for spanner endpoints.
type Track int

// NoTrack is used as a spanner end track meaning "same as the start track".
const NoTrack Track = -1

// MakeTrack returns the track for the given staff and voice. For example,
// MakeTrack(1, 2) is 6 when VOICES is 4.
func MakeTrack(staff, voice int) Track {
	return Track(staff*VOICES + voice)
}

// StaffTracks returns the first track of a staff and the first track after it.
func StaffTracks(staff int) (Track, Track) {
	return MakeTrack(staff, 0), MakeTrack(staff+1, 0)
}

func (t Track) Staff() int { return int(t) / VOICES }
func (t Track) Voice() int { return int(t) % VOICES }

// Valid reports if the track is non-negative and belongs to one of nstaves
// staves.
func (t Track) Valid(nstaves int) bool {
	return t >= 0 && int(t) < nstaves*VOICES
}

// StaffTrack returns the voice 0 track of the staff this track belongs to.
func (t Track) StaffTrack() Track {
	return MakeTrack(t.Staff(), 0)
}

func (t Track) String() string {
	if t == NoTrack {
		return "-"
	}
	return fmt.Sprintf("%d.%d", t.Staff(), t.Voice())
}
