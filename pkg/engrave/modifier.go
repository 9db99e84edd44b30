package engrave

import (
	"github.com/matzehuels/engrave/pkg/errors"
)

// Position is where a modifier sits relative to its note.
type Position int

const (
	PositionCenter Position = iota
	PositionLeft
	PositionRight
	PositionAbove
	PositionBelow
)

func (p Position) String() string {
	switch p {
	case PositionLeft:
		return "left"
	case PositionRight:
		return "right"
	case PositionAbove:
		return "above"
	case PositionBelow:
		return "below"
	}
	return "center"
}

// Category identifies a modifier type. Modifiers of one category are laid
// out together by a single format function.
type Category string

const (
	CategoryNotes          Category = "notes"
	CategoryParenthesis    Category = "parentheses"
	CategoryDot            Category = "dots"
	CategoryFretHandFinger Category = "frethandfingers"
	CategoryAccidental     Category = "accidentals"
	CategoryStroke         Category = "strokes"
	CategoryGraceNoteGroup Category = "gracenotegroups"
	CategoryStringNumber   Category = "stringnumbers"
	CategoryArticulation   Category = "articulations"
	CategoryOrnament       Category = "ornaments"
	CategoryAnnotation     Category = "annotations"
	CategoryChordSymbol    Category = "chordsymbols"
	CategoryBend           Category = "bends"
	CategoryVibrato        Category = "vibratos"
)

// formatOrder is the precedence in which categories claim space. Notes
// resolve their own collisions first; horizontal claimants come before the
// categories stacked above and below.
var formatOrder = []Category{
	CategoryNotes,
	CategoryParenthesis,
	CategoryDot,
	CategoryFretHandFinger,
	CategoryAccidental,
	CategoryStroke,
	CategoryGraceNoteGroup,
	CategoryStringNumber,
	CategoryArticulation,
	CategoryOrnament,
	CategoryAnnotation,
	CategoryChordSymbol,
	CategoryBend,
	CategoryVibrato,
}

// FormatOrder returns the category precedence used by ModifierContext.
func FormatOrder() []Category {
	return append([]Category(nil), formatOrder...)
}

// Modifier is a notational attachment to a note: accidental, dot,
// articulation and so on. Concrete types embed [ModifierBase].
type Modifier interface {
	Category() Category
	Note() *Note
	Index() int
	Position() Position
	SetPosition(p Position)
	XShift() float64
	SetXShift(x float64)
	YShift() float64
	SetYShift(y float64)
	Width() float64
	TextLine() float64
	Draw(ctx Context) error

	attach(n *Note, index int)
}

// ModifierBase implements the bookkeeping shared by all modifiers.
type ModifierBase struct {
	note     *Note
	index    int
	position Position
	xShift   float64
	yShift   float64
	width    float64
	textLine float64
	style    *Style
}

func (m *ModifierBase) attach(n *Note, index int) {
	m.note = n
	m.index = index
}

// Note returns the attached note, or nil.
func (m *ModifierBase) Note() *Note { return m.note }

// Index returns the key index within the attached note.
func (m *ModifierBase) Index() int { return m.index }

// Position returns the placement.
func (m *ModifierBase) Position() Position { return m.position }

// SetPosition sets the placement.
func (m *ModifierBase) SetPosition(p Position) { m.position = p }

// XShift returns the horizontal offset, measured away from the note in
// the direction of the modifier's position.
func (m *ModifierBase) XShift() float64 { return m.xShift }

// SetXShift sets the horizontal offset.
func (m *ModifierBase) SetXShift(x float64) { m.xShift = x }

// YShift returns the vertical offset.
func (m *ModifierBase) YShift() float64 { return m.yShift }

// SetYShift sets the vertical offset.
func (m *ModifierBase) SetYShift(y float64) { m.yShift = y }

// Width returns the horizontal space the modifier occupies.
func (m *ModifierBase) Width() float64 { return m.width }

// TextLine returns the text line assigned during formatting.
func (m *ModifierBase) TextLine() float64 { return m.textLine }

// SetStyle sets the paint override.
func (m *ModifierBase) SetStyle(s *Style) { m.style = s }

// attachedNote returns the note or fails with NO_NOTE.
func (m *ModifierBase) attachedNote() (*Note, error) {
	if m.note == nil {
		return nil, errors.New(errors.ErrCodeNoNote, "modifier is not attached to a note")
	}
	if m.index < 0 || m.index >= len(m.note.heads) {
		return nil, errors.New(errors.ErrCodeBadArguments, "modifier index %d out of range", m.index)
	}
	return m.note, nil
}

// startXY returns the attachment point for this modifier's position.
func (m *ModifierBase) startXY() (x, y float64, err error) {
	n, err := m.attachedNote()
	if err != nil {
		return 0, 0, err
	}
	return n.ModifierStartXY(m.position, m.index)
}
