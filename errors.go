package partitur

import (
	"errors"
	"fmt"
)

// Structural errors. A mutation that would violate the containment model is
// rejected with one of these, wrapped in a StructuralError.
var (
	ErrSlotOccupied       = errors.New("track slot already occupied")
	ErrNoMeasure          = errors.New("no measure at tick")
	ErrNotMeasureStart    = errors.New("element must be at the start of a measure")
	ErrWrongVoice         = errors.New("element must be on voice 0")
	ErrTimeSigMismatch    = errors.New("time signature does not match measure")
	ErrUnknownElement     = errors.New("unknown element")
	ErrUnknownKind        = errors.New("unknown element kind")
	ErrBadPayload         = errors.New("payload does not match element kind")
	ErrAnchored           = errors.New("element anchors a spanner")
	ErrTupletNotEmpty     = errors.New("tuplet still has members")
	ErrBadSpannerRange    = errors.New("spanner ends before it starts")
	ErrMissingAnchor      = errors.New("spanner anchor not found")
	ErrNotDurationElement = errors.New("not a duration element")
	ErrBadDuration        = errors.New("duration must be positive")
	ErrNoStaff            = errors.New("no such staff")
	ErrNotRemovable       = errors.New("element cannot be removed directly")
	ErrNotMMRest          = errors.New("measures cannot form a multi-measure rest")
)

// Export errors, wrapped in an ExportError.
var (
	ErrNoStartSegment = errors.New("selection start has no segment")
	ErrDetachedAnchor = errors.New("spanner anchor is detached")
)

// Stream errors.
var (
	ErrBadStream  = errors.New("malformed stream")
	ErrUnknownOp  = errors.New("unknown stream op")
	ErrBadVersion = errors.New("unsupported stream version")
)

type (
	// StructuralError is returned by the mutation interface when a call would
	// leave the score structurally invalid. The score is unchanged.
	StructuralError struct {
		Op    string
		Tick  Fraction
		Track Track
		Err   error
	}

	// ExportError is returned when a score or selection cannot be serialized.
	// No partial output is produced.
	ExportError struct {
		Op  string
		Err error
	}
)

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s at %v track %v: %v", e.Op, e.Tick, e.Track, e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }

func (e *ExportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ExportError) Unwrap() error { return e.Err }
