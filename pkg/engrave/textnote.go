package engrave

import (
	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/tables"
	"github.com/matzehuels/engrave/pkg/text"
)

const textScriptScale = 0.6

// TextNoteOptions configures a text note.
type TextNoteOptions struct {
	Text        string
	Duration    string
	Line        float64 // stave line of the baseline, counted from the top
	Justify     Justify // the zero value centers the text on its tick
	Superscript string
	Subscript   string
	Font        *tables.FontInfo
	Profile     *tables.Profile
}

// TextNote is text that occupies time in a voice, such as a lyric or a
// dynamic spelled out in words.
type TextNote struct {
	Tick
	text     string
	sup, sub string
	line     float64
	justify  Justify
	font     tables.FontInfo
	measurer text.Measurer
}

// NewTextNote returns a text note.
func NewTextNote(opts TextNoteOptions) (*TextNote, error) {
	if opts.Text == "" {
		return nil, errors.New(errors.ErrCodeBadArguments, "text note requires text")
	}
	ns, err := tables.ParseNoteStruct(opts.Duration, 0, "")
	if err != nil {
		return nil, err
	}
	t := &TextNote{
		Tick:     newTick(ns.Ticks, opts.Profile),
		text:     opts.Text,
		sup:      opts.Superscript,
		sub:      opts.Subscript,
		line:     opts.Line,
		justify:  opts.Justify,
		measurer: text.Default(),
	}
	t.duration = ns.Duration
	if opts.Font != nil {
		t.font = *opts.Font
	} else if t.font, err = t.profile.FontFor("TextNote"); err != nil {
		return nil, err
	}
	return t, nil
}

// Text returns the main text.
func (t *TextNote) Text() string { return t.text }

// SetMeasurer replaces the text measurer.
func (t *TextNote) SetMeasurer(m text.Measurer) { t.measurer = m }

func (t *TextNote) scriptFont() tables.FontInfo {
	f := t.font
	f.Size *= textScriptScale
	return f
}

// PreFormat measures the text, including any super- or subscript.
func (t *TextNote) PreFormat() error {
	w := t.measurer.Measure(t.text, t.font).Width
	script := max(t.measurer.Measure(t.sup, t.scriptFont()).Width,
		t.measurer.Measure(t.sub, t.scriptFont()).Width)
	t.width = w + script
	t.preFormatted = true
	return nil
}

// Metrics implements Tickable.
func (t *TextNote) Metrics() Metrics {
	return Metrics{Width: t.width, NotePx: t.width}
}

// Draw draws the text on its line.
func (t *TextNote) Draw(ctx Context) error {
	stave, err := t.Stave()
	if err != nil {
		return err
	}
	if !t.preFormatted {
		return errors.New(errors.ErrCodeUnformattedNote, "text note drawn before formatting")
	}
	x, err := t.AbsoluteX()
	if err != nil {
		return err
	}
	switch t.justify {
	case JustifyCenter:
		x -= t.width / 2
	case JustifyRight:
		x -= t.width
	}
	y := stave.GetYForLine(t.line)

	ctx.OpenGroup("textnote", "")
	defer ctx.CloseGroup()
	ctx.Save()
	defer ctx.Restore()
	applyStyle(ctx, t.style)
	ctx.SetFont(t.font)
	ctx.FillText(t.text, x, y)
	if t.sup == "" && t.sub == "" {
		return nil
	}
	sx := x + t.measurer.Measure(t.text, t.font).Width
	height := t.measurer.Measure(t.text, t.font).Height
	ctx.SetFont(t.scriptFont())
	if t.sup != "" {
		ctx.FillText(t.sup, sx, y-height/2.2)
	}
	if t.sub != "" {
		ctx.FillText(t.sub, sx, y+height/2.2-1)
	}
	return nil
}
