package engrave

import "github.com/matzehuels/engrave/pkg/tables"

// SymbolModifier is the script position of a chord symbol block.
type SymbolModifier int

const (
	SymbolNone SymbolModifier = iota
	SymbolSuperscript
	SymbolSubscript
)

const chordScriptScale = 0.66

// ChordBlock is one run of text in a chord symbol. Offsets are assigned by
// formatting.
type ChordBlock struct {
	Text     string
	Modifier SymbolModifier
	XShift   float64
	YShift   float64
	Width    float64
}

// ChordSymbol is a chord name such as "C7♭9" built from text blocks.
type ChordSymbol struct {
	ModifierBase
	blocks   []ChordBlock
	justify  Justify
	vertical VerticalJustify
	font     tables.FontInfo
	height   float64
}

// NewChordSymbol returns an empty chord symbol centred above the note.
func NewChordSymbol() *ChordSymbol {
	c := &ChordSymbol{}
	c.position = PositionAbove
	c.font, _ = tables.FontInfoFor("ChordSymbol")
	return c
}

// Category implements Modifier.
func (*ChordSymbol) Category() Category { return CategoryChordSymbol }

// AddText appends a block.
func (c *ChordSymbol) AddText(text string, mod SymbolModifier) *ChordSymbol {
	c.blocks = append(c.blocks, ChordBlock{Text: text, Modifier: mod})
	return c
}

// AddSuperscript appends a superscript block.
func (c *ChordSymbol) AddSuperscript(text string) *ChordSymbol {
	return c.AddText(text, SymbolSuperscript)
}

// AddSubscript appends a subscript block.
func (c *ChordSymbol) AddSubscript(text string) *ChordSymbol {
	return c.AddText(text, SymbolSubscript)
}

// Blocks returns the text blocks with their formatted offsets.
func (c *ChordSymbol) Blocks() []ChordBlock { return c.blocks }

// SetJustification sets the horizontal alignment.
func (c *ChordSymbol) SetJustification(j Justify) *ChordSymbol {
	c.justify = j
	return c
}

// SetVerticalJustification sets the vertical placement.
func (c *ChordSymbol) SetVerticalJustification(v VerticalJustify) *ChordSymbol {
	c.vertical = v
	if v == VerticalBottom {
		c.position = PositionBelow
	} else {
		c.position = PositionAbove
	}
	return c
}

func (c *ChordSymbol) blockFont(b ChordBlock) tables.FontInfo {
	f := c.font
	if b.Modifier != SymbolNone {
		f.Size *= chordScriptScale
	}
	return f
}

// layout measures the blocks and assigns their offsets. A subscript that
// follows superscripts slides back under them.
func (c *ChordSymbol) layout(mc *ModifierContext) {
	var cursor, width float64
	runStart := -1.0
	c.height = 0
	for i := range c.blocks {
		b := &c.blocks[i]
		m := mc.measurer.Measure(b.Text, c.blockFont(*b))
		b.Width = m.Width
		c.height = max(c.height, m.Height)

		switch b.Modifier {
		case SymbolSuperscript:
			if runStart < 0 {
				runStart = cursor
			}
			b.YShift = -c.font.Size * 0.5
		case SymbolSubscript:
			if runStart >= 0 {
				cursor = runStart
				runStart = -1
			}
			b.YShift = c.font.Size * 0.25
		default:
			runStart = -1
			cursor = width
			b.YShift = 0
		}
		b.XShift = cursor
		cursor += b.Width
		width = max(width, cursor)
	}
	c.width = width
}

func formatChordSymbols(mods []Modifier, st *State, mc *ModifierContext) (bool, error) {
	var ov textOverlap
	for _, m := range mods {
		c := m.(*ChordSymbol)
		n, err := c.attachedNote()
		if err != nil {
			return false, err
		}
		if f, err := mc.profile.FontFor("ChordSymbol"); err == nil {
			c.font = f
		}
		c.layout(mc)
		ov.add(c.justify, c.width, n.glyphWidth())
		lines := (2 + c.height + c.font.Size*0.5) / mc.profile.TextLineHeight
		c.textLine = stackText(n, c.vertical, lines, st)
	}
	ov.apply(st)
	return true, nil
}

// Draw draws every block.
func (c *ChordSymbol) Draw(ctx Context) error {
	n, err := c.attachedNote()
	if err != nil {
		return err
	}
	x, err := textX(n, c.justify, c.index, c.width)
	if err != nil {
		return err
	}
	y, err := textY(n, c.vertical, c.textLine, c.height)
	if err != nil {
		return err
	}
	ctx.OpenGroup("chordsymbol", "")
	applyStyle(ctx, c.style)
	for _, b := range c.blocks {
		ctx.SetFont(c.blockFont(b))
		ctx.FillText(b.Text, x+c.xShift+b.XShift, y+c.yShift+b.YShift)
	}
	ctx.CloseGroup()
	return nil
}
