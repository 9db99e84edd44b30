// Package pkg holds the libraries behind the engrave music notation engine.
//
// # Overview
//
// Engraving turns rhythm and pitch into positions on a page. Notes are
// spaced by duration, decorations such as accidentals, dots, articulations
// and fingerings are stacked around their notes without colliding, beams are
// sloped across stems and tuplets are bracketed. The packages are layered:
//
//  1. [fraction], [tables], [text]: exact tick arithmetic, glyph and
//     duration tables, the engraving profile and text measurement
//  2. [engrave]: notes, voices, tick and modifier contexts, the formatter,
//     beams and tuplets
//  3. [render], [score]: drawing backends and the score document façade
//  4. [pipeline], [cache], [observability]: orchestration with caching
//
// # Data flow
//
//	TOML score or inline notes
//	         ↓
//	    [score] (parse, build staves and voices)
//	         ↓
//	    [engrave] (tick contexts, modifier layout, justification)
//	         ↓
//	    [render] (SVG, then PNG/PDF)
//
// # Quick start
//
// Build and format one measure by hand:
//
//	stave, _ := engrave.NewStave(10, 40, 400, engrave.StaveOptions{Clef: "treble", TimeSignature: "4/4"})
//	voice, _ := engrave.NewVoiceFromString("4/4")
//	for _, key := range []string{"c/4", "e/4", "g/4", "c/5"} {
//	    n, _ := engrave.NewStaveNote(engrave.NoteOptions{Keys: []string{key}, Duration: "q"})
//	    _ = voice.AddTickables(n)
//	}
//	voice.SetStave(stave)
//	_ = engrave.NewFormatter().FormatToStave([]*engrave.Voice{voice}, stave)
//
//	svg := render.NewSVG(render.WithSize(420, 160))
//	_ = stave.Draw(svg)
//	_ = voice.Draw(svg)
//
// Or let [score] and [pipeline] do it:
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	res, _ := runner.Execute(ctx, pipeline.Options{Notes: "C4/q, E4, G4, C5", Time: "4/4"})
//
// [fraction]: https://pkg.go.dev/github.com/matzehuels/engrave/pkg/fraction
// [tables]: https://pkg.go.dev/github.com/matzehuels/engrave/pkg/tables
// [text]: https://pkg.go.dev/github.com/matzehuels/engrave/pkg/text
// [engrave]: https://pkg.go.dev/github.com/matzehuels/engrave/pkg/engrave
// [render]: https://pkg.go.dev/github.com/matzehuels/engrave/pkg/render
// [score]: https://pkg.go.dev/github.com/matzehuels/engrave/pkg/score
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/engrave/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/engrave/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/engrave/pkg/observability
package pkg
