package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/score"
	"github.com/vsariola/partitur/stream"
)

func writeDocument(t *testing.T, complete bool) string {
	t.Helper()
	s := score.NewScore(1)
	s.AppendMeasures(2, partitur.CommonTime)
	if _, err := s.AddChord(partitur.NewFraction(0, 1), 0, partitur.NewFraction(1, 2), 60); err != nil {
		t.Fatalf("AddChord failed: %v", err)
	}
	if complete {
		if _, err := s.AddChord(partitur.NewFraction(1, 1), 0, partitur.NewFraction(1, 1), 64); err != nil {
			t.Fatalf("AddChord failed: %v", err)
		}
	}
	doc, err := stream.Write(s, stream.Options{})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := stream.MarshalYAML(doc)
	if err != nil {
		t.Fatalf("MarshalYAML failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "song.yml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", path}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConvertSelection(t *testing.T) {
	path := writeDocument(t, true)
	out, err := run(t, "debug: false\n", "convert", "--stdout", "--json", "--from", "1", path)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	doc, err := stream.UnmarshalJSON([]byte(out))
	if err != nil {
		t.Fatalf("convert output is not a json document: %v", err)
	}
	s, err := stream.Read(doc, stream.ReadOptions{UseGapRests: true})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if s.NumMeasures() != 1 {
		t.Fatalf("selected measures got %v, expected 1", s.NumMeasures())
	}
}

func TestCheckFails(t *testing.T) {
	path := writeDocument(t, false)
	// the gap of the first measure is filled, the empty second one is not
	out, err := run(t, "", "check", path)
	if !errors.Is(err, errCheckFailed) {
		t.Fatalf("check got %v, expected %v\n%v", err, errCheckFailed, out)
	}
	if !strings.HasPrefix(out, "FAILED") {
		t.Fatalf("check output got %q", out)
	}
	path = writeDocument(t, true)
	if out, err := run(t, "", "check", path); err != nil || !strings.HasPrefix(out, "OK") {
		t.Fatalf("check of a complete document got %v %q", err, out)
	}
}
