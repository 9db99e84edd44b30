package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/engrave/pkg/pipeline"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output  string
	formats []string
	notes   string
	clef    string
	time    string
	width   float64
	scale   float64
	profile string
	refresh bool
	cache   cacheFlags
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [score.toml]",
		Short: "Engrave a score to SVG, PNG, PDF or a JSON layout report",
		Long: `Engrave a TOML score document, or an inline note string given with --notes.

Notes are comma separated: a pitch (or a parenthesized chord) with an
optional /duration, dots and /type. Octave and duration carry over from the
previous entry:

  engrave render --notes "C#5/q, B4, (A4 C5 E5)/8, G#4/8., A4/16" --time 4/4`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runRender(cmd.Context(), input, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.notes, "notes", "n", "", "inline notes instead of a score file")
	cmd.Flags().StringVar(&opts.clef, "clef", "", "clef for --notes (default treble)")
	cmd.Flags().StringVar(&opts.time, "time", "", "time signature for --notes, e.g. 3/4")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "page width; measures wrap onto new systems past it")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG pixel density")
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "engraving profile TOML")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-engrave even if cached")
	opts.cache.register(cmd)
	return cmd
}

// pipelineOptions maps CLI flags onto pipeline options.
func (o *renderOpts) pipelineOptions(input string) pipeline.Options {
	return pipeline.Options{
		ScorePath:   input,
		Notes:       o.notes,
		Clef:        o.clef,
		Time:        o.time,
		Width:       o.width,
		Formats:     o.formats,
		Scale:       o.scale,
		Refresh:     o.refresh,
		ProfilePath: o.profile,
	}
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	spin := newSpinnerWithContext(ctx, "Engraving...")
	spin.Start()
	result, err := runner.Execute(ctx, opts.pipelineOptions(input))
	if err != nil {
		spin.StopWithError("Engraving failed")
		return err
	}
	spin.Stop()
	prog.lap("pipeline")

	paths := outputPaths(opts.output, input, opts.formats)
	printSuccess("Engraved %s", displayName(input))
	printStats(result.Stats.Measures, result.Stats.Iterations, result.CacheInfo.RenderHit)
	for _, format := range opts.formats {
		path := paths[format]
		if err := writeOutput(path, result.Artifacts[format]); err != nil {
			return err
		}
		logger.Debug("wrote artifact", "path", path, "bytes", len(result.Artifacts[format]))
		printFile(path)
	}
	prog.done("Engraved score", "measures", result.Stats.Measures, "cached", result.CacheInfo.RenderHit)
	return nil
}

// outputPaths names the file for each format. A single format with an
// explicit output uses it verbatim; otherwise the base path gets the
// format as extension.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

// basePath strips a known format extension from output, or derives the
// base from input. Inline notes without an output go to "score".
func basePath(output, input string) string {
	if output == "" {
		if input == "" {
			return "score"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func displayName(input string) string {
	if input == "" {
		return "inline notes"
	}
	return filepath.Base(input)
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
