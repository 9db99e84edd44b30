package pipeline

import (
	"context"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/render"
	"github.com/matzehuels/engrave/pkg/score"
)

// Render draws s once and produces every requested format from it.
func Render(ctx context.Context, s *score.Score, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svg []byte
	for _, format := range opts.Formats {
		if format == FormatJSON {
			data, err := marshalReport(s)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode layout report")
			}
			artifacts[format] = data
			continue
		}
		if svg == nil {
			var err error
			if svg, err = drawSVG(s, opts); err != nil {
				return nil, err
			}
		}
		data, err := render.Convert(ctx, svg, format, opts.Scale)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func drawSVG(s *score.Score, opts Options) ([]byte, error) {
	svg := render.NewSVG(
		render.WithSize(s.Width, s.Height),
		render.WithMeasurer(opts.Measurer),
	)
	if err := s.Draw(svg); err != nil {
		return nil, err
	}
	return svg.Bytes(), nil
}
