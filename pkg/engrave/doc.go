// Package engrave lays out and draws music notation.
//
// A score is built from [Tickable] events (notes, rests, bar lines, text)
// grouped into a [Voice] per musical line. A [Formatter] joins voices that
// share a stave, groups simultaneous events into tick contexts, and then
// distributes horizontal space by duration so that every event sharing a
// tick position shares an x coordinate.
//
// # Pipeline
//
// Layout runs in a fixed order:
//
//  1. Build: create notes, attach modifiers, group into voices, tuplets
//  2. Format: [Formatter.Format] or [Formatter.FormatToStave] assigns x
//  3. Post-format: beams compute slope and stem extensions
//  4. Draw: every element issues draw calls against a [Context]
//
// Geometry queries made before the pass that produces them fail with
// NO_Y_VALUES or UNFORMATTED_NOTE rather than returning zero values.
//
// # Modifiers
//
// Accidentals, dots, articulations and the other [Modifier] types share a
// [ModifierContext] per tick position. Each category claims space on a
// shared [State] in the order given by [FormatOrder]. Re-running a format
// pass yields the same layout: state is rebuilt from scratch each pass and
// collision shifts are assigned, not accumulated.
//
// # Configuration
//
// All tunable constants live in [tables.Profile]. Notes and formatters take
// a profile pointer; nil selects the built-in default.
package engrave
