package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/engrave/pkg/tables"
	"github.com/matzehuels/engrave/pkg/text"
)

// SVGOption configures an SVG context.
type SVGOption func(*SVG)

// WithSize sets the document size in pixels.
func WithSize(width, height float64) SVGOption {
	return func(s *SVG) { s.width, s.height = width, height }
}

// WithBackground fills the page with the given colour before any drawing.
func WithBackground(color string) SVGOption {
	return func(s *SVG) { s.background = color }
}

// WithMeasurer sets the text measurer answering MeasureText.
func WithMeasurer(m text.Measurer) SVGOption {
	return func(s *SVG) { s.measurer = m }
}

// WithPrecision sets the number of decimals written for coordinates.
func WithPrecision(digits int) SVGOption {
	return func(s *SVG) {
		if digits >= 0 {
			s.precision = digits
		}
	}
}

type paintState struct {
	fill      string
	stroke    string
	lineWidth float64
	font      tables.FontInfo
}

// SVG is a drawing context that serialises every call into an SVG document.
// It is not safe for concurrent use.
type SVG struct {
	width, height float64
	background    string
	measurer      text.Measurer
	precision     int

	body   bytes.Buffer
	path   strings.Builder
	state  paintState
	stack  []paintState
	groups int
	// current point of the open path, needed to start arcs
	cx, cy  float64
	hasPath bool
}

// NewSVG returns an empty SVG context.
func NewSVG(opts ...SVGOption) *SVG {
	s := &SVG{
		width:     800,
		height:    200,
		measurer:  text.Default(),
		precision: 2,
		state: paintState{
			fill:      "#000",
			stroke:    "#000",
			lineWidth: 1,
			font:      tables.FontInfo{Family: "Arial", Size: 10},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SVG) num(v float64) string {
	out := fmt.Sprintf("%.*f", s.precision, v)
	if strings.Contains(out, ".") {
		out = strings.TrimRight(strings.TrimRight(out, "0"), ".")
	}
	if out == "-0" {
		return "0"
	}
	return out
}

func (s *SVG) Save() { s.stack = append(s.stack, s.state) }

func (s *SVG) Restore() {
	if len(s.stack) == 0 {
		return
	}
	s.state = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *SVG) BeginPath() {
	s.path.Reset()
	s.hasPath = false
}

func (s *SVG) MoveTo(x, y float64) {
	fmt.Fprintf(&s.path, "M%s %s", s.num(x), s.num(y))
	s.cx, s.cy, s.hasPath = x, y, true
}

func (s *SVG) LineTo(x, y float64) {
	fmt.Fprintf(&s.path, "L%s %s", s.num(x), s.num(y))
	s.cx, s.cy, s.hasPath = x, y, true
}

func (s *SVG) BezierCurveTo(cp1x, cp1y, cp2x, cp2y, x, y float64) {
	fmt.Fprintf(&s.path, "C%s %s %s %s %s %s",
		s.num(cp1x), s.num(cp1y), s.num(cp2x), s.num(cp2y), s.num(x), s.num(y))
	s.cx, s.cy, s.hasPath = x, y, true
}

func (s *SVG) QuadraticCurveTo(cpx, cpy, x, y float64) {
	fmt.Fprintf(&s.path, "Q%s %s %s %s", s.num(cpx), s.num(cpy), s.num(x), s.num(y))
	s.cx, s.cy, s.hasPath = x, y, true
}

// Arc follows canvas semantics. A sweep of 2π or more is split into two
// half circles because a single SVG arc cannot close on itself.
func (s *SVG) Arc(x, y, radius, startAngle, endAngle float64, counterClockwise bool) {
	sweep := endAngle - startAngle
	if counterClockwise {
		sweep = -sweep
	}
	for sweep < 0 {
		sweep += 2 * math.Pi
	}
	full := math.Abs(endAngle-startAngle) >= 2*math.Pi
	if full {
		sweep = 2 * math.Pi
	}

	sx := x + radius*math.Cos(startAngle)
	sy := y + radius*math.Sin(startAngle)
	if s.hasPath {
		s.LineTo(sx, sy)
	} else {
		s.MoveTo(sx, sy)
	}

	sweepFlag := 1
	dir := 1.0
	if counterClockwise {
		sweepFlag, dir = 0, -1
	}
	if full {
		mx := x - radius*math.Cos(startAngle)
		my := y - radius*math.Sin(startAngle)
		s.arcSegment(radius, 0, sweepFlag, mx, my)
		s.arcSegment(radius, 0, sweepFlag, sx, sy)
		return
	}
	large := 0
	if sweep > math.Pi {
		large = 1
	}
	end := startAngle + dir*sweep
	s.arcSegment(radius, large, sweepFlag, x+radius*math.Cos(end), y+radius*math.Sin(end))
}

func (s *SVG) arcSegment(r float64, large, sweep int, x, y float64) {
	fmt.Fprintf(&s.path, "A%s %s 0 %d %d %s %s", s.num(r), s.num(r), large, sweep, s.num(x), s.num(y))
	s.cx, s.cy, s.hasPath = x, y, true
}

func (s *SVG) ClosePath() { s.path.WriteString("Z") }

func (s *SVG) Stroke() {
	if s.path.Len() == 0 {
		return
	}
	fmt.Fprintf(&s.body, `<path d="%s" fill="none" stroke="%s" stroke-width="%s"/>`+"\n",
		s.path.String(), attr(s.state.stroke), s.num(s.state.lineWidth))
}

func (s *SVG) Fill() {
	if s.path.Len() == 0 {
		return
	}
	fmt.Fprintf(&s.body, `<path d="%s" fill="%s" stroke="none"/>`+"\n", s.path.String(), attr(s.state.fill))
}

func (s *SVG) FillRect(x, y, width, height float64) {
	if height < 0 {
		y, height = y+height, -height
	}
	if width < 0 {
		x, width = x+width, -width
	}
	fmt.Fprintf(&s.body, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
		s.num(x), s.num(y), s.num(width), s.num(height), attr(s.state.fill))
}

func (s *SVG) FillText(str string, x, y float64) {
	f := s.state.font
	fmt.Fprintf(&s.body, `<text x="%s" y="%s" font-family="%s" font-size="%spt"`,
		s.num(x), s.num(y), attr(f.Family), s.num(f.Size))
	if f.Weight != "" && f.Weight != "normal" {
		fmt.Fprintf(&s.body, ` font-weight="%s"`, attr(f.Weight))
	}
	if f.Style != "" && f.Style != "normal" {
		fmt.Fprintf(&s.body, ` font-style="%s"`, attr(f.Style))
	}
	fmt.Fprintf(&s.body, ` fill="%s">%s</text>`+"\n", attr(s.state.fill), attr(str))
}

func (s *SVG) MeasureText(str string) text.Metrics {
	return s.measurer.Measure(str, s.state.font)
}

func (s *SVG) SetFont(f tables.FontInfo) { s.state.font = f }
func (s *SVG) SetLineWidth(w float64)    { s.state.lineWidth = w }
func (s *SVG) SetStrokeStyle(style string) {
	s.state.stroke = style
}
func (s *SVG) SetFillStyle(style string) { s.state.fill = style }

// OpenGroup starts a <g> element. Classes are prefixed with "vf-".
func (s *SVG) OpenGroup(class, id string) {
	s.body.WriteString("<g")
	if class != "" {
		fmt.Fprintf(&s.body, ` class="vf-%s"`, attr(class))
	}
	if id != "" {
		fmt.Fprintf(&s.body, ` id="vf-%s"`, attr(id))
	}
	s.body.WriteString(">\n")
	s.groups++
}

func (s *SVG) CloseGroup() {
	if s.groups == 0 {
		return
	}
	s.body.WriteString("</g>\n")
	s.groups--
}

// Bytes returns the complete document. Groups still open are closed.
// The context stays usable; later calls append to the same body.
func (s *SVG) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s">`+"\n",
		s.num(s.width), s.num(s.height), s.num(s.width), s.num(s.height))
	if s.background != "" {
		fmt.Fprintf(&buf, `<rect x="0" y="0" width="100%%" height="100%%" fill="%s"/>`+"\n", attr(s.background))
	}
	buf.Write(s.body.Bytes())
	for range s.groups {
		buf.WriteString("</g>\n")
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func attr(v string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(v))
	return b.String()
}
