// Package render provides drawing backends for engraved music.
//
// # SVG
//
// [SVG] implements the engrave drawing context and serialises every call
// into an SVG document. Glyphs are emitted as text in the notation font, so
// the viewer needs that font (Bravura by default) installed or embedded.
//
//	ctx := render.NewSVG(render.WithSize(500, 150))
//	_ = stave.Draw(ctx)
//	_ = voice.Draw(ctx)
//	svg := ctx.Bytes()
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert an SVG document using the external
// rsvg-convert tool from librsvg. [Convert] picks the conversion by format
// name.
//
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
package render
