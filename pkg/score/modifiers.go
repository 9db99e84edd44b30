package score

import (
	"strings"

	"github.com/matzehuels/engrave/pkg/engrave"
	"github.com/matzehuels/engrave/pkg/errors"
)

var positions = map[string]engrave.Position{
	"left":   engrave.PositionLeft,
	"right":  engrave.PositionRight,
	"above":  engrave.PositionAbove,
	"below":  engrave.PositionBelow,
	"center": engrave.PositionCenter,
}

var strokes = map[string]engrave.StrokeType{
	"brush-down":     engrave.BrushDown,
	"brush-up":       engrave.BrushUp,
	"roll-down":      engrave.RollDown,
	"roll-up":        engrave.RollUp,
	"rasgueado-down": engrave.RasgueadoDown,
	"rasgueado-up":   engrave.RasgueadoUp,
	"arpeggio":       engrave.ArpeggioDirectionless,
}

func (b *builder) modifier(n *engrave.Note, ms ModifierSpec) error {
	var m engrave.Modifier
	switch ms.Kind {
	case "accidental":
		code := strings.Trim(ms.Value, "()")
		acc, err := engrave.NewAccidental(code)
		if err != nil {
			return err
		}
		acc.SetCautionary(code != ms.Value)
		m = acc
	case "annotation":
		a := engrave.NewAnnotation(ms.Value)
		switch ms.Position {
		case "below":
			a.SetVerticalJustification(engrave.VerticalBottom)
		case "center":
			a.SetVerticalJustification(engrave.VerticalCenter)
		}
		return n.AddModifier(a, ms.Key)
	case "articulation":
		a, err := engrave.NewArticulation(ms.Value)
		if err != nil {
			return err
		}
		m = a
	case "bend":
		m = engrave.NewBend(ms.Value, ms.Position == "release")
		return n.AddModifier(m, ms.Key)
	case "chord":
		m = engrave.NewChordSymbol().AddText(ms.Value, engrave.SymbolNone)
	case "fingering":
		m = engrave.NewFretHandFinger(ms.Value)
	case "ornament":
		o, err := engrave.NewOrnament(ms.Value)
		if err != nil {
			return err
		}
		if ms.Position == "delayed" {
			o.SetDelayed(true)
			return n.AddModifier(o, ms.Key)
		}
		m = o
	case "parenthesis":
		return engrave.AddParentheses(n, ms.Key)
	case "string":
		m = engrave.NewStringNumber(ms.Value)
	case "stroke":
		t, ok := strokes[ms.Value]
		if !ok {
			return errors.New(errors.ErrCodeBadArguments, "unknown stroke %q", ms.Value)
		}
		s, err := engrave.NewStroke(t)
		if err != nil {
			return err
		}
		m = s
	case "vibrato":
		m = engrave.NewVibrato()
	default:
		return errors.New(errors.ErrCodeBadArguments, "unknown modifier kind %q", ms.Kind)
	}

	if ms.Position != "" {
		p, ok := positions[ms.Position]
		if !ok {
			return errors.New(errors.ErrCodeBadArguments, "unknown %s position %q", ms.Kind, ms.Position)
		}
		m.SetPosition(p)
	}
	return n.AddModifier(m, ms.Key)
}
