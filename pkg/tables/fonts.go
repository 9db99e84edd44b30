package tables

import "github.com/matzehuels/engrave/pkg/errors"

// FontInfo describes the text font used for a category of element.
type FontInfo struct {
	Family string  `toml:"family"`
	Size   float64 `toml:"size"` // points
	Weight string  `toml:"weight"`
	Style  string  `toml:"style"`
}

// Bold reports whether the weight requests a bold face.
func (f FontInfo) Bold() bool { return f.Weight == "bold" || f.Weight == "700" }

// Italic reports whether the style requests an italic face.
func (f FontInfo) Italic() bool { return f.Style == "italic" }

const defaultTextFamily = "Go, Arial, sans-serif"

var fontInfo = map[string]FontInfo{
	"Annotation":     {defaultTextFamily, 10, "normal", "normal"},
	"ChordSymbol":    {defaultTextFamily, 12, "normal", "normal"},
	"FretHandFinger": {defaultTextFamily, 9, "bold", "normal"},
	"StringNumber":   {defaultTextFamily, 10, "bold", "normal"},
	"Bend":           {defaultTextFamily, 10, "normal", "normal"},
	"TabNote":        {defaultTextFamily, 9, "normal", "normal"},
	"TextNote":       {defaultTextFamily, 12, "normal", "normal"},
	"Stroke":         {defaultTextFamily, 10, "bold", "italic"},
	"Tuplet":         {defaultTextFamily, 10, "normal", "normal"},
	"StaveText":      {defaultTextFamily, 16, "normal", "normal"},
}

// FontInfoFor returns the text font for category, for example "Annotation".
func FontInfoFor(category string) (FontInfo, error) {
	f, ok := fontInfo[category]
	if !ok {
		return FontInfo{}, errors.New(errors.ErrCodeBadArguments, "no font for category %q", category)
	}
	return f, nil
}
