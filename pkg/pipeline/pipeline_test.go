package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/engrave/pkg/cache"
	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/observability"
	"github.com/matzehuels/engrave/pkg/tables"
	"github.com/matzehuels/engrave/pkg/text"
)

const waltz = `
title = "Waltz"

[[measure]]
clef = "treble"
time = "3/4"
show_time = true

[[measure.voice]]
notes = "D5/q, G4/8, A4, B4, C5"
auto_beam = true

[[measure]]
time = "3/4"
barline = "end"

[[measure.voice]]
notes = "D5/q, G4, G4"
`

func quiet() *log.Logger { return log.NewWithOptions(io.Discard, log.Options{}) }

func newRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, quiet())
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"SVG", true},
		{"midi", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s, want INVALID_FORMAT", tt.format, errors.GetCode(err))
		}
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("ValidateFormats(nil) error = %v", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	o := Options{Notes: "C4/w"}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if len(o.Formats) != 1 || o.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", o.Formats)
	}
	if o.Scale != DefaultScale || o.Clef != DefaultClef {
		t.Errorf("Scale, Clef = %v, %q, want %v, %q", o.Scale, o.Clef, DefaultScale, DefaultClef)
	}
	if o.Profile == nil || o.Measurer == nil || o.Logger == nil {
		t.Error("profile, measurer and logger must be defaulted")
	}

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no source", Options{}, errors.ErrCodeBadArguments},
		{"two sources", Options{Notes: "C4/w", ScorePath: "a.toml"}, errors.ErrCodeBadArguments},
		{"bad format", Options{Notes: "C4/w", Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"negative scale", Options{Notes: "C4/w", Scale: -1}, errors.ErrCodeBadArguments},
		{"negative width", Options{Notes: "C4/w", Width: -5}, errors.ErrCodeBadArguments},
		{"missing profile", Options{Notes: "C4/w", ProfilePath: "/no/such/profile.toml"}, errors.ErrCodeBadArguments},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	o := Options{Notes: "C4/w", Scale: 3}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if got := o.ArtifactKeyOpts(FormatSVG).Scale; got != 0 {
		t.Errorf("svg key scale = %v, want 0", got)
	}
	if got := o.ArtifactKeyOpts(FormatPNG).Scale; got != 3 {
		t.Errorf("png key scale = %v, want 3", got)
	}

	wide := tables.DefaultProfile()
	wide.StaveSpace = 12
	other := Options{Notes: "C4/w", Profile: &wide}
	if err := other.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if o.ArtifactKeyOpts(FormatSVG).Profile == other.ArtifactKeyOpts(FormatSVG).Profile {
		t.Error("profile change did not change the key")
	}
}

func TestExecuteNotes(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)
	defer r.Close()

	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	opts := Options{
		Notes:    "C#5/q, B4, A4, G#4",
		Time:     "4/4",
		Formats:  []string{FormatSVG, FormatJSON},
		Measurer: text.EstimateMeasurer{},
	}
	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if first.CacheInfo.RenderHit || first.Score == nil {
		t.Fatal("first run should format the score")
	}
	if !bytes.HasPrefix(first.Artifacts[FormatSVG], []byte("<svg")) {
		t.Errorf("svg artifact = %.40q", first.Artifacts[FormatSVG])
	}
	var report Report
	if err := json.Unmarshal(first.Artifacts[FormatJSON], &report); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if len(report.Measures) != 1 || report.Measures[0].MinWidth <= 0 {
		t.Errorf("report = %+v", report)
	}
	if hooks.parsed != 1 || hooks.laidOut != 1 || hooks.rendered != 1 {
		t.Errorf("hooks = %+v, want one event per stage", hooks)
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !second.CacheInfo.RenderHit || second.Score != nil {
		t.Error("second run should be served from the cache")
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs from rendered svg")
	}
	if hooks.laidOut != 1 {
		t.Errorf("layout ran %d times, want 1", hooks.laidOut)
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestExecuteScoreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waltz.toml")
	if err := os.WriteFile(path, []byte(waltz), 0644); err != nil {
		t.Fatal(err)
	}
	res, err := newRunner(t).Execute(context.Background(), Options{
		ScorePath: path,
		Formats:   []string{FormatJSON},
		Measurer:  text.EstimateMeasurer{},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Stats.Measures != 2 || res.Stats.Iterations < 2 {
		t.Errorf("Stats = %+v, want 2 measures", res.Stats)
	}
	var report Report
	if err := json.Unmarshal(res.Artifacts[FormatJSON], &report); err != nil {
		t.Fatal(err)
	}
	if report.Title != "Waltz" || report.Measures[1].X <= report.Measures[0].X {
		t.Errorf("report = %+v", report)
	}
	if report.Measures[0].Beams == 0 {
		t.Error("auto_beam produced no beams")
	}
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"bad notes", Options{Notes: "C4/q, Z9"}, errors.ErrCodeParse},
		{"bad document", Options{Source: []byte("[[measure]\n")}, errors.ErrCodeParse},
		{"missing file", Options{ScorePath: "/no/such/score.toml"}, errors.ErrCodeBadArguments},
		{"incomplete voice", Options{Notes: "C4/q", Time: "4/4"}, errors.ErrCodeIncompleteVoice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Measurer = text.EstimateMeasurer{}
			_, err := newRunner(t).Execute(context.Background(), tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want %s", err, tt.code)
			}
		})
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	parsed, laidOut, rendered int
}

func (h *recordingHooks) OnParseComplete(context.Context, string, int, time.Duration, error) {
	h.parsed++
}

func (h *recordingHooks) OnLayoutComplete(context.Context, int, int, time.Duration, error) {
	h.laidOut++
}

func (h *recordingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.rendered++
}
