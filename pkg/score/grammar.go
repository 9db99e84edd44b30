package score

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/tables"
)

// Pitch is one notehead of an event.
type Pitch struct {
	Letter     string // lower case a..g
	Accidental string // "", "#", "##", "b", "bb" or "n"
	Octave     int
}

// Key returns the pitch in key notation, e.g. "c#/5".
func (p Pitch) Key() string {
	return p.Letter + p.Accidental + "/" + strconv.Itoa(p.Octave)
}

// Event is one parsed entry of a note list: a note, chord, rest or ghost.
type Event struct {
	Pitches  []Pitch
	Duration string // canonical duration code, e.g. "4"
	Dots     int
	Type     string // tables note type; "n" for a plain note
}

// IsRest reports whether the event is a rest.
func (e Event) IsRest() bool { return e.Type == "r" }

// IsGhost reports whether the event only occupies time.
func (e Event) IsGhost() bool { return e.Type == "g" }

// Keys returns the key strings of every pitch.
func (e Event) Keys() []string {
	keys := make([]string, len(e.Pitches))
	for i, p := range e.Pitches {
		keys[i] = p.Key()
	}
	return keys
}

// Ticks returns the event's intrinsic ticks.
func (e Event) Ticks() (int64, error) {
	ns, err := tables.ParseNoteStruct(e.Duration, e.Dots, e.Type)
	if err != nil {
		return 0, err
	}
	return ns.Ticks, nil
}

const (
	defaultOctave   = 4
	defaultDuration = "4"
)

// ParseNotes parses a comma separated note list such as
//
//	C#5/q, (C4 E4 G4)/h, B4/8/r
//
// An entry is a pitch or a parenthesised chord, then an optional duration
// and an optional note type, separated by slashes. Dots follow the
// duration as "." or "d". Omitted octaves and durations repeat the
// previous entry's.
func ParseNotes(src string) ([]Event, error) {
	p := &parser{src: src, octave: defaultOctave, duration: defaultDuration}
	var events []Event
	for {
		p.skipSpace()
		if p.done() {
			break
		}
		e, err := p.event()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
		p.skipSpace()
		if p.done() {
			break
		}
		if p.peek() != ',' {
			return nil, p.errorf("expected ',' got %q", p.peek())
		}
		p.pos++
	}
	if len(events) == 0 {
		return nil, errors.New(errors.ErrCodeParse, "empty note list")
	}
	return events, nil
}

type parser struct {
	src      string
	pos      int
	octave   int
	duration string
	dots     int
}

func (p *parser) done() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.done() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return errors.New(errors.ErrCodeParse, "column %d: %s", p.pos+1, fmt.Sprintf(format, args...))
}

func (p *parser) event() (Event, error) {
	var e Event
	if p.peek() == '(' {
		p.pos++
		for {
			p.skipSpace()
			if p.peek() == ')' {
				p.pos++
				break
			}
			if p.done() {
				return Event{}, p.errorf("unterminated chord")
			}
			pitch, err := p.pitch()
			if err != nil {
				return Event{}, err
			}
			e.Pitches = append(e.Pitches, pitch)
		}
		if len(e.Pitches) == 0 {
			return Event{}, p.errorf("empty chord")
		}
	} else {
		pitch, err := p.pitch()
		if err != nil {
			return Event{}, err
		}
		e.Pitches = []Pitch{pitch}
	}

	e.Duration, e.Dots, e.Type = p.duration, p.dots, "n"
	if p.peek() == '/' {
		p.pos++
		d, dots, err := p.durationToken()
		if err != nil {
			return Event{}, err
		}
		e.Duration, e.Dots = d, dots
		p.duration, p.dots = d, dots
		// "8r" spells the type without a separator
		if isLetter(p.peek()) && (p.pos+1 >= len(p.src) || !isLetter(p.src[p.pos+1])) {
			e.Type = strings.ToLower(p.src[p.pos : p.pos+1])
			p.pos++
		}
	}
	if p.peek() == '/' {
		p.pos++
		start := p.pos
		for !p.done() && isLetter(p.peek()) {
			p.pos++
		}
		typ := strings.ToLower(p.src[start:p.pos])
		if typ == "" {
			return Event{}, p.errorf("missing note type")
		}
		e.Type = typ
	}
	if _, err := tables.ParseNoteStruct(e.Duration, e.Dots, e.Type); err != nil {
		return Event{}, errors.Wrap(errors.ErrCodeParse, err, "column %d: %s", p.pos, errors.UserMessage(err))
	}
	return e, nil
}

func (p *parser) pitch() (Pitch, error) {
	c := p.peek() | 0x20
	if c < 'a' || c > 'g' {
		return Pitch{}, p.errorf("expected note name, got %q", p.peek())
	}
	letter := string(c)
	p.pos++

	acc := ""
	for _, a := range []string{"##", "#", "bb", "b", "n"} {
		if strings.HasPrefix(p.src[p.pos:], a) {
			acc = a
			p.pos += len(a)
			break
		}
	}

	start := p.pos
	for !p.done() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
	}
	octave := p.octave
	if p.pos > start {
		n, err := strconv.Atoi(p.src[start:p.pos])
		if err != nil || n > 9 {
			return Pitch{}, p.errorf("bad octave %q", p.src[start:p.pos])
		}
		octave = n
		p.octave = n
	}
	return Pitch{Letter: letter, Accidental: acc, Octave: octave}, nil
}

func (p *parser) durationToken() (string, int, error) {
	start := p.pos
	for !p.done() && (isDigit(p.peek()) || p.peek() == '/' && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1]) && p.pos > start) {
		p.pos++
	}
	if p.pos == start && !p.done() && strings.IndexByte("whqb", p.peek()) >= 0 {
		p.pos++
	}
	code := p.src[start:p.pos]
	if code == "" {
		return "", 0, p.errorf("missing duration")
	}
	d, err := tables.SanitizeDuration(code)
	if err != nil {
		return "", 0, errors.Wrap(errors.ErrCodeParse, err, "column %d: unknown duration %q", start+1, code)
	}
	dots := 0
	for !p.done() && (p.peek() == '.' || p.peek() == 'd') {
		dots++
		p.pos++
	}
	return d, dots, nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
