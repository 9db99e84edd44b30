package tables

// Accidental column layouts keyed by group size and pattern name. Each entry
// assigns a column (1 is nearest the notehead) to each accidental in the
// group, ordered from the top note down.
var accidentalColumns = map[int]map[string][]int{
	1: {
		"a": {1},
		"b": {1},
	},
	2: {
		"a": {1, 2},
	},
	3: {
		"a":                {1, 3, 2},
		"b":                {1, 2, 1},
		"second_on_bottom": {1, 2, 3},
	},
	4: {
		"a":                     {1, 3, 4, 2},
		"b":                     {1, 2, 3, 1},
		"spaced_out_tetrachord": {1, 2, 1, 2},
	},
	5: {
		"a":                          {1, 3, 5, 4, 2},
		"b":                          {1, 2, 4, 3, 1},
		"spaced_out_pentachord":      {1, 2, 3, 2, 1},
		"very_spaced_out_pentachord": {1, 2, 1, 2, 1},
	},
	6: {
		"a":                         {1, 3, 5, 6, 4, 2},
		"b":                         {1, 2, 4, 5, 3, 1},
		"spaced_out_hexachord":      {1, 3, 2, 1, 3, 2},
		"very_spaced_out_hexachord": {1, 2, 1, 2, 1, 2},
	},
}

// AccidentalColumns returns the column pattern for a group of size n, or
// false when no layout is defined for that size or pattern.
func AccidentalColumns(n int, pattern string) ([]int, bool) {
	byName, ok := accidentalColumns[n]
	if !ok {
		return nil, false
	}
	cols, ok := byName[pattern]
	if !ok {
		return nil, false
	}
	return append([]int(nil), cols...), true
}
