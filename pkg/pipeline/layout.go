package pipeline

import (
	"encoding/json"

	"github.com/matzehuels/engrave/pkg/score"
)

// Layout builds and formats every measure of doc.
func Layout(doc *score.Document, opts Options) (*score.Score, error) {
	return score.Build(doc,
		score.WithProfile(opts.Profile),
		score.WithMeasurer(opts.Measurer),
		score.WithLogger(opts.Logger),
	)
}

// Report summarizes a laid out score, one entry per measure.
type Report struct {
	Title    string          `json:"title,omitempty"`
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
	Measures []MeasureReport `json:"measures"`
}

// MeasureReport is the layout outcome of one measure.
type MeasureReport struct {
	Number     int     `json:"number"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	MinWidth   float64 `json:"min_width"`
	Loss       float64 `json:"loss"`
	Iterations int     `json:"iterations"`
	Voices     int     `json:"voices"`
	Beams      int     `json:"beams"`
	Tuplets    int     `json:"tuplets"`
}

// NewReport collects the layout metrics of s.
func NewReport(s *score.Score) Report {
	r := Report{Title: s.Title, Width: s.Width, Height: s.Height}
	for i, m := range s.Measures {
		r.Measures = append(r.Measures, MeasureReport{
			Number:     i + 1,
			X:          m.Stave.X(),
			Y:          m.Stave.Y(),
			Width:      m.Stave.Width(),
			MinWidth:   m.MinWidth,
			Loss:       m.Loss,
			Iterations: m.Iterations,
			Voices:     len(m.Voices),
			Beams:      len(m.Beams),
			Tuplets:    len(m.Tuplets),
		})
	}
	return r
}

// Iterations sums formatter passes over all measures.
func (r Report) Iterations() int {
	n := 0
	for _, m := range r.Measures {
		n += m.Iterations
	}
	return n
}

func marshalReport(s *score.Score) ([]byte, error) {
	return json.MarshalIndent(NewReport(s), "", "  ")
}
