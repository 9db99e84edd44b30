package engrave

// Direction is a stem or placement direction. Up is +1, Down is -1, so it
// can be used directly as a y multiplier: tips sit at y - dir*length.
type Direction int

const (
	Up   Direction = 1
	Down Direction = -1
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// Stem is the vertical line attached to one or more noteheads.
type Stem struct {
	X         float64 // x of the stem line
	YTop      float64 // highest notehead y
	YBottom   float64 // lowest notehead y
	Height    float64 // natural length beyond the outer notehead
	Extension float64 // additional length, set by beams
	Direction Direction
	Width     float64
	Hide      bool

	// Stemlets draw only the part of the stem nearest the beam, for rests
	// inside beams.
	IsStemlet     bool
	StemletHeight float64
}

// Extents returns the y of the stem tip and of the notehead it starts from.
func (s *Stem) Extents() (tipY, baseY float64) {
	length := s.Height + s.Extension
	if s.Direction == Down {
		return s.YBottom + length, s.YTop
	}
	return s.YTop - length, s.YBottom
}

// Length returns the distance from base to tip.
func (s *Stem) Length() float64 {
	tip, base := s.Extents()
	if tip > base {
		return tip - base
	}
	return base - tip
}

// Draw draws the stem line.
func (s *Stem) Draw(ctx Context, style *Style) {
	if s.Hide {
		return
	}
	tip, base := s.Extents()
	if s.IsStemlet {
		base = tip + float64(s.Direction)*s.StemletHeight
	}
	ctx.Save()
	applyStyle(ctx, style)
	ctx.SetLineWidth(s.Width)
	ctx.BeginPath()
	ctx.MoveTo(s.X, base)
	ctx.LineTo(s.X, tip)
	ctx.Stroke()
	ctx.Restore()
}
