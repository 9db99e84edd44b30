package engrave

import (
	"github.com/matzehuels/engrave/pkg/tables"
	"github.com/matzehuels/engrave/pkg/text"
)

// Context is the drawing sink. Layout never calls it except for
// MeasureText; everything else happens during Draw.
type Context interface {
	Save()
	Restore()

	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	BezierCurveTo(cp1x, cp1y, cp2x, cp2y, x, y float64)
	QuadraticCurveTo(cpx, cpy, x, y float64)
	Arc(x, y, radius, startAngle, endAngle float64, counterClockwise bool)
	ClosePath()
	Stroke()
	Fill()

	FillRect(x, y, width, height float64)
	FillText(s string, x, y float64)
	MeasureText(s string) text.Metrics

	SetFont(f tables.FontInfo)
	SetLineWidth(w float64)
	SetStrokeStyle(style string)
	SetFillStyle(style string)

	OpenGroup(class, id string)
	CloseGroup()
}

// Style is an optional per-element paint override.
type Style struct {
	FillStyle   string
	StrokeStyle string
	LineWidth   float64
}

func applyStyle(ctx Context, s *Style) {
	if s == nil {
		return
	}
	if s.FillStyle != "" {
		ctx.SetFillStyle(s.FillStyle)
	}
	if s.StrokeStyle != "" {
		ctx.SetStrokeStyle(s.StrokeStyle)
	}
	if s.LineWidth > 0 {
		ctx.SetLineWidth(s.LineWidth)
	}
}

// drawGlyph sets the notation font and draws g with its origin at (x, y).
func drawGlyph(ctx Context, p *tables.Profile, g tables.Glyph, x, y float64) {
	drawGlyphScaled(ctx, p, g, x, y, 1)
}

func drawGlyphScaled(ctx Context, p *tables.Profile, g tables.Glyph, x, y, scale float64) {
	ctx.SetFont(tables.FontInfo{Family: p.NotationFont, Size: p.FontScale * scale})
	ctx.FillText(string(g.Code), x, y)
}
