package engrave

// VibratoOptions shapes the vibrato wave.
type VibratoOptions struct {
	Harsh      bool
	Width      float64
	WaveHeight float64
	WaveWidth  float64
	WaveGirth  float64
}

// DefaultVibratoOptions returns the standard wave.
func DefaultVibratoOptions() VibratoOptions {
	return VibratoOptions{Width: 20, WaveHeight: 6, WaveWidth: 4, WaveGirth: 2}
}

// Vibrato is a wavy line drawn above and right of a note.
type Vibrato struct {
	ModifierBase
	opts VibratoOptions
}

// NewVibrato returns a vibrato with the default wave.
func NewVibrato() *Vibrato {
	return NewVibratoWithOptions(DefaultVibratoOptions())
}

// NewVibratoWithOptions returns a vibrato with a custom wave.
func NewVibratoWithOptions(opts VibratoOptions) *Vibrato {
	v := &Vibrato{opts: opts}
	v.position = PositionRight
	v.width = opts.Width
	return v
}

// Category implements Modifier.
func (*Vibrato) Category() Category { return CategoryVibrato }

// formatVibratos chains vibratos rightwards on the top text line, starting
// just inside the space already claimed on the right.
func formatVibratos(mods []Modifier, st *State, _ *ModifierContext) (bool, error) {
	shift := st.RightShift - 7
	width := 0.0
	for _, m := range mods {
		v := m.(*Vibrato)
		if _, err := v.attachedNote(); err != nil {
			return false, err
		}
		v.width = v.opts.Width
		v.xShift = shift
		v.textLine = st.TopTextLine
		width += v.width
		shift += v.width
	}
	st.RightShift += width
	st.TopTextLine++
	return true, nil
}

// Draw draws the wave.
func (v *Vibrato) Draw(ctx Context) error {
	n, err := v.attachedNote()
	if err != nil {
		return err
	}
	stave, err := n.Stave()
	if err != nil {
		return err
	}
	x, _, err := v.startXY()
	if err != nil {
		return err
	}
	x += v.xShift
	y := stave.GetYForTopText(v.textLine) + 2 + v.yShift

	ctx.OpenGroup("vibrato", "")
	defer ctx.CloseGroup()
	ctx.Save()
	defer ctx.Restore()
	applyStyle(ctx, v.style)
	drawVibrato(ctx, x, y, v.opts)
	return nil
}

func drawVibrato(ctx Context, x, y float64, o VibratoOptions) {
	waves := int(o.Width / o.WaveWidth)
	if waves < 2 {
		waves = 2
	}
	ww, wh, wg := o.WaveWidth, o.WaveHeight, o.WaveGirth

	ctx.BeginPath()
	if o.Harsh {
		ctx.MoveTo(x, y+wg+1)
		for i := 0; i < waves/2; i++ {
			ctx.LineTo(x+ww, y-wh/2)
			x += ww
			ctx.LineTo(x+ww, y+wh/2)
			x += ww
		}
		for i := 0; i < waves/2; i++ {
			ctx.LineTo(x-ww, y-wh/2+wg+1)
			x -= ww
			ctx.LineTo(x-ww, y+wh/2+wg+1)
			x -= ww
		}
	} else {
		ctx.MoveTo(x, y+wg)
		for i := 0; i < waves/2; i++ {
			ctx.QuadraticCurveTo(x+ww/2, y-wh/2, x+ww, y)
			x += ww
			ctx.QuadraticCurveTo(x+ww/2, y+wh/2, x+ww, y)
			x += ww
		}
		for i := 0; i < waves/2; i++ {
			ctx.QuadraticCurveTo(x-ww/2, y+wh/2+wg, x-ww, y+wg)
			x -= ww
			ctx.QuadraticCurveTo(x-ww/2, y-wh/2+wg, x-ww, y+wg)
			x -= ww
		}
	}
	ctx.ClosePath()
	ctx.Fill()
}
