package tables

import (
	"strconv"
	"strings"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/fraction"
)

// TimeSignature is a parsed meter such as "3/4" or "C".
type TimeSignature struct {
	Beats     int
	BeatValue int
	Symbol    string // "C", "C|" or empty for numeric meters
}

// ParseTimeSignature accepts "n/d", "C" (common time) and "C|" (cut time).
func ParseTimeSignature(s string) (TimeSignature, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "C":
		return TimeSignature{Beats: 4, BeatValue: 4, Symbol: "C"}, nil
	case "C|":
		return TimeSignature{Beats: 2, BeatValue: 2, Symbol: "C|"}, nil
	}
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return TimeSignature{}, errors.New(errors.ErrCodeBadArguments, "invalid time signature: %q", s)
	}
	beats, err := strconv.Atoi(num)
	if err != nil || beats <= 0 {
		return TimeSignature{}, errors.New(errors.ErrCodeBadArguments, "invalid time signature beats: %q", s)
	}
	value, err := strconv.Atoi(den)
	if err != nil || value <= 0 || value&(value-1) != 0 {
		return TimeSignature{}, errors.New(errors.ErrCodeBadArguments, "invalid time signature beat value: %q", s)
	}
	return TimeSignature{Beats: beats, BeatValue: value}, nil
}

// String formats the meter the way it was parsed.
func (t TimeSignature) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return strconv.Itoa(t.Beats) + "/" + strconv.Itoa(t.BeatValue)
}

// TotalTicks is the voice capacity for one measure of this meter.
func (t TimeSignature) TotalTicks() fraction.Fraction {
	return fraction.Int(int64(t.Beats) * (Resolution / int64(t.BeatValue)))
}

var defaultBeamGroups = map[string][]string{
	"1/2":  {"1/2"},
	"2/2":  {"1/2"},
	"3/2":  {"1/2"},
	"4/2":  {"1/2"},
	"1/4":  {"1/4"},
	"2/4":  {"1/4"},
	"3/4":  {"1/4"},
	"4/4":  {"1/4"},
	"1/8":  {"1/8"},
	"2/8":  {"2/8"},
	"3/8":  {"3/8"},
	"4/8":  {"2/8"},
	"1/16": {"1/16"},
	"2/16": {"2/16"},
	"3/16": {"3/16"},
	"4/16": {"2/16"},
}

// DefaultBeamGroups returns the beat groupings automatic beaming uses for a
// meter. Unlisted meters group compound time in threes, short beat values in
// pairs, and everything else by single beats.
func DefaultBeamGroups(timeSig string) ([]fraction.Fraction, error) {
	ts, err := ParseTimeSignature(timeSig)
	if err != nil {
		return nil, err
	}
	key := strconv.Itoa(ts.Beats) + "/" + strconv.Itoa(ts.BeatValue)
	if names, ok := defaultBeamGroups[key]; ok {
		groups := make([]fraction.Fraction, 0, len(names))
		for _, n := range names {
			f, err := fraction.Parse(n)
			if err != nil {
				return nil, err
			}
			groups = append(groups, f)
		}
		return groups, nil
	}

	den := int64(ts.BeatValue)
	switch {
	case ts.Beats%3 == 0:
		return []fraction.Fraction{fraction.MustNew(3, den)}, nil
	case ts.BeatValue > 4:
		return []fraction.Fraction{fraction.MustNew(2, den)}, nil
	}
	return []fraction.Fraction{fraction.MustNew(1, den)}, nil
}
