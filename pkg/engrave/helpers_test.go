package engrave

import (
	"fmt"
	"math"
	"testing"

	"github.com/matzehuels/engrave/pkg/tables"
	"github.com/matzehuels/engrave/pkg/text"
)

// drawCall is one recorded Context operation.
type drawCall struct {
	op   string
	args []float64
	text string
}

// recorder is a Context that records every call.
type recorder struct {
	calls []drawCall
	font  tables.FontInfo
	depth int
}

func (r *recorder) rec(op string, args ...float64) {
	r.calls = append(r.calls, drawCall{op: op, args: args})
}

func (r *recorder) Save()                   { r.rec("save") }
func (r *recorder) Restore()                { r.rec("restore") }
func (r *recorder) BeginPath()              { r.rec("beginPath") }
func (r *recorder) MoveTo(x, y float64)     { r.rec("moveTo", x, y) }
func (r *recorder) LineTo(x, y float64)     { r.rec("lineTo", x, y) }
func (r *recorder) ClosePath()              { r.rec("closePath") }
func (r *recorder) Stroke()                 { r.rec("stroke") }
func (r *recorder) Fill()                   { r.rec("fill") }
func (r *recorder) SetLineWidth(w float64)  { r.rec("lineWidth", w) }
func (r *recorder) SetStrokeStyle(s string) { r.calls = append(r.calls, drawCall{op: "strokeStyle", text: s}) }
func (r *recorder) SetFillStyle(s string)   { r.calls = append(r.calls, drawCall{op: "fillStyle", text: s}) }
func (r *recorder) SetFont(f tables.FontInfo) {
	r.font = f
	r.calls = append(r.calls, drawCall{op: "font", text: f.Family})
}

func (r *recorder) BezierCurveTo(a, b, c, d, x, y float64) { r.rec("bezierCurveTo", a, b, c, d, x, y) }
func (r *recorder) QuadraticCurveTo(a, b, x, y float64)    { r.rec("quadraticCurveTo", a, b, x, y) }
func (r *recorder) Arc(x, y, radius, start, end float64, ccw bool) {
	r.rec("arc", x, y, radius, start, end)
}
func (r *recorder) FillRect(x, y, w, h float64) { r.rec("fillRect", x, y, w, h) }
func (r *recorder) FillText(s string, x, y float64) {
	r.calls = append(r.calls, drawCall{op: "fillText", args: []float64{x, y}, text: s})
}
func (r *recorder) MeasureText(s string) text.Metrics {
	return text.EstimateMeasurer{}.Measure(s, r.font)
}
func (r *recorder) OpenGroup(class, id string) {
	r.depth++
	r.calls = append(r.calls, drawCall{op: "openGroup", text: class})
}
func (r *recorder) CloseGroup() {
	r.depth--
	r.rec("closeGroup")
}

// count returns how many calls of op were recorded.
func (r *recorder) count(op string) int {
	n := 0
	for _, c := range r.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

// groups returns the classes of every opened group in order.
func (r *recorder) groups() []string {
	var out []string
	for _, c := range r.calls {
		if c.op == "openGroup" {
			out = append(out, c.text)
		}
	}
	return out
}

func mustNote(t *testing.T, duration string, keys ...string) *Note {
	t.Helper()
	n, err := NewStaveNote(NoteOptions{Keys: keys, Duration: duration})
	if err != nil {
		t.Fatalf("NewStaveNote(%v, %q) error = %v", keys, duration, err)
	}
	n.SetMeasurer(text.EstimateMeasurer{})
	return n
}

func mustStemNote(t *testing.T, duration string, dir Direction, keys ...string) *Note {
	t.Helper()
	n, err := NewStaveNote(NoteOptions{Keys: keys, Duration: duration, StemDirection: dir})
	if err != nil {
		t.Fatalf("NewStaveNote(%v, %q) error = %v", keys, duration, err)
	}
	return n
}

func mustVoice(t *testing.T, meter string, ts ...Tickable) *Voice {
	t.Helper()
	v, err := NewVoiceFromString(meter)
	if err != nil {
		t.Fatalf("NewVoiceFromString(%q) error = %v", meter, err)
	}
	if err := v.AddTickables(ts...); err != nil {
		t.Fatalf("AddTickables() error = %v", err)
	}
	return v
}

func mustStave(t *testing.T, width float64) *Stave {
	t.Helper()
	s, err := NewStave(10, 40, width, StaveOptions{})
	if err != nil {
		t.Fatalf("NewStave() error = %v", err)
	}
	return s
}

func tickables(notes ...*Note) []Tickable {
	out := make([]Tickable, len(notes))
	for i, n := range notes {
		out[i] = n
	}
	return out
}

func newTestFormatter() *Formatter {
	return NewFormatter(WithMeasurer(text.EstimateMeasurer{}))
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func xs(f *Formatter) string {
	out := ""
	for _, tc := range f.TickContexts() {
		out += fmt.Sprintf("%.4f ", tc.X())
	}
	return out
}
