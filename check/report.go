package check

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type (
	// Severity tells if a diagnostic fails the check.
	Severity int

	// Diagnostic is one finding of a check pass. Measure and Staff are
	// 1-based; Voice is 1-based or 0 if the finding is not about a single
	// voice. Staff is 0 for findings about the whole score.
	Diagnostic struct {
		Measure  int      `json:"measure"`
		Staff    int      `json:"staff"`
		Voice    int      `json:"voice,omitempty"`
		Severity Severity `json:"severity"`
		Code     string   `json:"code"`
		Message  string   `json:"message"`
	}

	// Report is the result of RunConsistencyCheck.
	Report struct {
		OK          bool         `json:"ok"`
		Diagnostics []Diagnostic `json:"diagnostics"`
	}

	// Summary is the machine readable pass/fail record of a report.
	Summary struct {
		Result int    `json:"result"`
		Error  string `json:"error,omitempty"`
	}

	// ReportSink receives diagnostics as the verify phase finds them.
	ReportSink interface {
		Report(d Diagnostic)
	}

	// SinkFunc adapts a function to a ReportSink.
	SinkFunc func(d Diagnostic)
)

const (
	SeverityWarning Severity = iota
	SeverityError
)

// Diagnostic codes.
const (
	CodeOverlap      = "overlap"
	CodeOverrun      = "overrun"
	CodeFill         = "fill"
	CodeIncomplete   = "incomplete"
	CodeTooLong      = "too-long"
	CodeChain        = "chain"
	CodeSegmentOrder = "segment-order"
	CodeEmptySegment = "empty-segment"
	CodeSlot         = "slot"
	CodeAnchor       = "dangling-anchor"
	CodeSpannerRange = "spanner-range"
	CodeTuplet       = "tuplet"
	CodeMMRest       = "mmrest"
)

var severityNames = [...]string{"warning", "error"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	for i, n := range severityNames {
		if n == string(text) {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", string(text))
}

func (d Diagnostic) String() string {
	return d.Message
}

func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Errors returns the diagnostics of error severity.
func (r *Report) Errors() []Diagnostic {
	var ret []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			ret = append(ret, d)
		}
	}
	return ret
}

// Summary returns result 0 for a passing report, otherwise result 1 and
// the error messages separated by newlines.
func (r *Report) Summary() Summary {
	if r.OK {
		return Summary{Result: 0}
	}
	msgs := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Errors() {
		msgs = append(msgs, d.Message)
	}
	return Summary{Result: 1, Error: strings.Join(msgs, "\n")}
}

// WriteSummary writes the summary as compact JSON.
func (r *Report) WriteSummary(w io.Writer) error {
	b, err := json.Marshal(r.Summary())
	if err != nil {
		return fmt.Errorf("could not marshal summary: %w", err)
	}
	_, err = w.Write(b)
	return err
}

func (r *Report) add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
	if d.Severity == SeverityError {
		r.OK = false
	}
}
