package engrave

import (
	"github.com/matzehuels/engrave/pkg/tables"
	"github.com/matzehuels/engrave/pkg/text"
)

// State is the space claimed around one tick position. Format functions
// only ever grow it during a pass.
type State struct {
	LeftShift   float64 // pixels claimed left of the noteheads
	RightShift  float64 // pixels claimed right of the noteheads
	TextLine    float64 // text lines claimed below the stave
	TopTextLine float64 // text lines claimed above the stave
}

type formatFunc func(mods []Modifier, st *State, mc *ModifierContext) (bool, error)

// formatters is filled in init: grace note groups format nested voices,
// which reach back into PreFormat.
var formatters map[Category]formatFunc

func init() {
	formatters = map[Category]formatFunc{
		CategoryParenthesis:    formatParentheses,
		CategoryDot:            formatDots,
		CategoryFretHandFinger: formatFretHandFingers,
		CategoryAccidental:     formatAccidentals,
		CategoryStroke:         formatStrokes,
		CategoryGraceNoteGroup: formatGraceNoteGroups,
		CategoryStringNumber:   formatStringNumbers,
		CategoryArticulation:   formatArticulations,
		CategoryOrnament:       formatOrnaments,
		CategoryAnnotation:     formatAnnotations,
		CategoryChordSymbol:    formatChordSymbols,
		CategoryBend:           formatBends,
		CategoryVibrato:        formatVibratos,
	}
}

// ModifierContext is the layout arena for all notes at one tick position
// on one stave, together with their modifiers.
type ModifierContext struct {
	notes     []*Note
	members   map[Category][]Modifier
	state     State
	formatted bool
	profile   *tables.Profile
	measurer  text.Measurer
}

// NewModifierContext returns an empty context. Nil arguments select the
// default profile and measurer.
func NewModifierContext(p *tables.Profile, m text.Measurer) *ModifierContext {
	if m == nil {
		m = text.Default()
	}
	return &ModifierContext{
		members:  make(map[Category][]Modifier),
		profile:  resolveProfile(p),
		measurer: m,
	}
}

// AddNote adds n and all of its modifiers.
func (mc *ModifierContext) AddNote(n *Note) {
	n.modifierContext = mc
	mc.notes = append(mc.notes, n)
	for _, m := range n.modifiers {
		mc.addModifier(m)
	}
	mc.formatted = false
}

func (mc *ModifierContext) addModifier(m Modifier) {
	c := m.Category()
	mc.members[c] = append(mc.members[c], m)
	mc.formatted = false
}

// Notes returns the member notes.
func (mc *ModifierContext) Notes() []*Note { return mc.notes }

// Members returns the modifiers of one category.
func (mc *ModifierContext) Members(c Category) []Modifier { return mc.members[c] }

// State returns the claimed space after the last pass.
func (mc *ModifierContext) State() State { return mc.state }

// Width returns the total horizontal space claimed by modifiers.
func (mc *ModifierContext) Width() float64 {
	return mc.state.LeftShift + mc.state.RightShift
}

// Profile returns the engraving profile.
func (mc *ModifierContext) Profile() *tables.Profile { return mc.profile }

// Measurer returns the text measurer.
func (mc *ModifierContext) Measurer() text.Measurer { return mc.measurer }

// Invalidate forces the next PreFormat to run again.
func (mc *ModifierContext) Invalidate() { mc.formatted = false }

// PreFormat runs every category's format function in FormatOrder. It starts
// from an empty state and from each note's unformatted layout, so calling
// it again after Invalidate gives the same result.
func (mc *ModifierContext) PreFormat() error {
	if mc.formatted {
		return nil
	}
	mc.formatted = true
	mc.state = State{}
	for _, n := range mc.notes {
		n.resetFormatState()
	}

	for _, c := range formatOrder {
		if c == CategoryNotes {
			if err := formatNotes(mc.notes, &mc.state, mc); err != nil {
				return err
			}
			continue
		}
		mods := mc.members[c]
		if len(mods) == 0 {
			continue
		}
		if _, err := formatters[c](mods, &mc.state, mc); err != nil {
			return err
		}
	}
	return nil
}
