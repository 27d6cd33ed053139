package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/check"
	"github.com/vsariola/partitur/report"
	"github.com/vsariola/partitur/score"
)

func TestDiagnostics(t *testing.T) {
	r, err := report.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var buf bytes.Buffer
	rep := check.Report{Diagnostics: []check.Diagnostic{{
		Measure:  2,
		Staff:    1,
		Severity: check.SeverityError,
		Code:     check.CodeIncomplete,
		Message:  "Measure 2, staff 1 incomplete. Expected: 1/1; Found: 1/2",
	}}}
	if err := r.Diagnostics(&buf, rep); err != nil {
		t.Fatalf("Diagnostics failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "FAILED: 1 diagnostic" {
		t.Fatalf("output got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "ERROR") || !strings.HasSuffix(lines[1], rep.Diagnostics[0].Message) {
		t.Fatalf("diagnostic line got %q", lines[1])
	}
	buf.Reset()
	if err := r.Diagnostics(&buf, check.Report{OK: true}); err != nil {
		t.Fatalf("Diagnostics failed: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "OK: 0 diagnostics" {
		t.Fatalf("output got %q, expected %q", got, "OK: 0 diagnostics")
	}
}

func TestListing(t *testing.T) {
	r, err := report.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s := score.NewScore(1)
	s.Staff(0).Name = "Flute"
	s.AppendMeasures(1, partitur.CommonTime)
	if _, err := s.AddChord(partitur.NewFraction(0, 1), 0, partitur.NewFraction(1, 1), 72); err != nil {
		t.Fatalf("AddChord failed: %v", err)
	}
	if _, err := s.AddAnnotation(partitur.StaffText, partitur.NewFraction(0, 1), 0, "dolce"); err != nil {
		t.Fatalf("AddAnnotation failed: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Listing(&buf, s); err != nil {
		t.Fatalf("Listing failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`Staff 1 "Flute"`, "Measure 1 at 0/1, 4/4", "Chord", " 72", `Stafftext "dolce"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("listing does not contain %q:\n%s", want, out)
		}
	}
}
