package pipeline

import (
	"fmt"
	"os"

	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/score"
)

// source is the canonical input of a run: the bytes its cache keys hash
// and a name for logs.
type source struct {
	name string
	data []byte
}

// readSource resolves the music named by opts without parsing it.
func readSource(opts Options) (source, error) {
	switch {
	case len(opts.Source) > 0:
		return source{name: "<source>", data: opts.Source}, nil
	case opts.ScorePath != "":
		data, err := os.ReadFile(opts.ScorePath)
		if err != nil {
			return source{}, errors.Wrap(errors.ErrCodeBadArguments, err, "read score %s", opts.ScorePath)
		}
		return source{name: opts.ScorePath, data: data}, nil
	default:
		canon := fmt.Sprintf("notes=%q\nclef=%q\ntime=%q\n", opts.Notes, opts.Clef, opts.Time)
		return source{name: "<notes>", data: []byte(canon)}, nil
	}
}

// Parse turns the music named by opts into a score document. The
// document's page width is replaced when opts.Width is set.
func Parse(opts Options) (*score.Document, error) {
	src, err := readSource(opts)
	if err != nil {
		return nil, err
	}
	return parseSource(src, opts)
}

func parseSource(src source, opts Options) (*score.Document, error) {
	var doc *score.Document
	if opts.Notes != "" {
		doc = score.FromNotes(opts.Notes, opts.Clef, opts.Time)
		if _, err := score.ParseNotes(opts.Notes); err != nil {
			return nil, err
		}
	} else {
		var err error
		if doc, err = score.Parse(src.data); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "%s", src.name)
		}
	}
	if opts.Width > 0 {
		doc.Width = opts.Width
	}
	return doc, nil
}
