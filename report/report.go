// Package report renders check reports and score listings as text through
// the templates embedded in the package.
package report

import (
	"embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vsariola/partitur"
	"github.com/vsariola/partitur/check"
	"github.com/vsariola/partitur/score"
)

type (
	Reporter struct {
		Template *template.Template
	}

	staffView struct {
		No   int
		Name string
		Key  partitur.Key
		Clef partitur.ClefType
	}

	measureView struct {
		No        int
		Tick      partitur.Fraction
		Ticks     partitur.Fraction
		TimeSig   partitur.TimeSig
		Irregular bool
		MMRest    int
		Segments  []segmentView
	}

	segmentView struct {
		Tick     partitur.Fraction
		Type     partitur.SegmentType
		Elements []elementView
	}

	elementView struct {
		Track  partitur.Track
		Kind   partitur.ElementKind
		Detail string
	}

	spannerView struct {
		Kind   partitur.ElementKind
		Tick   partitur.Fraction
		Tick2  partitur.Fraction
		Tracks string
		Anchor score.Anchor
		Text   string
	}

	listingData struct {
		Staves   []staffView
		Measures []measureView
		Spanners []spannerView
	}
)

//go:embed templates/*.txt
var templateFS embed.FS

// New parses the embedded templates.
func New() (*Reporter, error) {
	caser := cases.Title(language.English)
	funcs := sprig.TxtFuncMap()
	funcs["kind"] = func(k partitur.ElementKind) string { return caser.String(k.String()) }
	tmpl, err := template.New("base").Funcs(funcs).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("could not parse report templates: %v", err)
	}
	return &Reporter{Template: tmpl}, nil
}

// Diagnostics writes a check report, one diagnostic per line.
func (r *Reporter) Diagnostics(w io.Writer, rep check.Report) error {
	return r.execute(w, "diagnostics.txt", rep)
}

// Listing writes the measures of a score with their segments and elements,
// followed by the spanners.
func (r *Reporter) Listing(w io.Writer, s *score.Score) error {
	return r.execute(w, "listing.txt", listing(s))
}

func (r *Reporter) execute(w io.Writer, name string, data any) error {
	if err := r.Template.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf(`could not execute template "%v": %v`, name, err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func listing(s *score.Score) listingData {
	var ret listingData
	for i := 0; i < s.NumStaves(); i++ {
		st := s.Staff(i)
		ret.Staves = append(ret.Staves, staffView{No: i + 1, Name: st.Name, Key: st.Key, Clef: st.Clef})
	}
	for _, mid := range s.Measures() {
		m := s.Measure(mid)
		mv := measureView{No: m.No + 1, Tick: m.Tick, Ticks: m.Ticks, TimeSig: m.TimeSig, Irregular: m.Irregular}
		if mm := s.Measure(m.MMRest); mm != nil {
			mv.MMRest = mm.MMRestCount
		}
		for _, segID := range m.Segments {
			seg := s.Segment(segID)
			sv := segmentView{Tick: seg.Tick, Type: seg.Type}
			for _, track := range seg.Tracks() {
				sv.Elements = append(sv.Elements, element(s, seg.Element(track)))
			}
			for _, id := range seg.Annotations() {
				sv.Elements = append(sv.Elements, element(s, id))
			}
			mv.Segments = append(mv.Segments, sv)
		}
		ret.Measures = append(ret.Measures, mv)
	}
	for _, sp := range s.Spanners() {
		tracks := sp.Track.String()
		if t2 := sp.EffectiveTrack2(); t2 != sp.Track {
			tracks += "-" + t2.String()
		}
		ret.Spanners = append(ret.Spanners, spannerView{Kind: sp.Kind, Tick: sp.Tick, Tick2: sp.Tick2, Tracks: tracks, Anchor: sp.Anchor, Text: sp.Text})
	}
	return ret
}

func element(s *score.Score, id score.ElementID) elementView {
	e := s.Element(id)
	ev := elementView{Track: e.Track, Kind: e.Kind}
	switch p := e.Payload.(type) {
	case *score.ChordRest:
		var b strings.Builder
		b.WriteString(p.Type.String())
		if !p.Type.IsMeasure() && !p.Duration.Equal(s.ActualTicks(id)) {
			fmt.Fprintf(&b, " (%v)", s.ActualTicks(id))
		}
		for _, pitch := range p.Pitches {
			fmt.Fprintf(&b, " %d", pitch)
		}
		if p.Gap {
			b.WriteString(" gap")
		}
		ev.Detail = b.String()
	case *score.KeySig:
		ev.Detail = p.Key.String()
	case *score.TimeSigMark:
		ev.Detail = p.Sig.String()
	case *score.Clef:
		ev.Detail = p.Type.String()
	case *score.BarLine:
		ev.Detail = p.Subtype
	case *score.Breath:
		ev.Detail = p.Symbol
	case *score.Text:
		ev.Detail = fmt.Sprintf("%q", p.Text)
	}
	return ev
}
