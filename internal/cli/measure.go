package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/engrave/pkg/pipeline"
)

// measureCommand creates the measure command, which formats a score and
// prints how each measure was laid out.
func (c *CLI) measureCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "measure [score.toml]",
		Short: "Print per-measure widths, spacing loss and formatter passes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			opts.formats = []string{pipeline.FormatJSON}
			opts.cache.noCache = true
			report, err := c.runMeasure(cmd.Context(), input, &opts)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVarP(&opts.notes, "notes", "n", "", "inline notes instead of a score file")
	cmd.Flags().StringVar(&opts.clef, "clef", "", "clef for --notes (default treble)")
	cmd.Flags().StringVar(&opts.time, "time", "", "time signature for --notes")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "page width")
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "engraving profile TOML")
	return cmd
}

func (c *CLI) runMeasure(ctx context.Context, input string, opts *renderOpts) (pipeline.Report, error) {
	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return pipeline.Report{}, err
	}
	defer runner.Close()

	result, err := runner.Execute(ctx, opts.pipelineOptions(input))
	if err != nil {
		return pipeline.Report{}, err
	}
	var report pipeline.Report
	if err := json.Unmarshal(result.Artifacts[pipeline.FormatJSON], &report); err != nil {
		return pipeline.Report{}, fmt.Errorf("decode layout report: %w", err)
	}
	return report, nil
}

func printReport(w io.Writer, r pipeline.Report) error {
	if r.Title != "" {
		fmt.Fprintln(w, StyleTitle.Render(r.Title))
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("#", "x", "y", "width", "min width", "loss", "passes", "voices", "beams", "tuplets").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		})
	for _, m := range r.Measures {
		t.Row(
			strconv.Itoa(m.Number),
			num(m.X), num(m.Y), num(m.Width), num(m.MinWidth),
			strconv.FormatFloat(m.Loss, 'f', 3, 64),
			strconv.Itoa(m.Iterations),
			strconv.Itoa(m.Voices), strconv.Itoa(m.Beams), strconv.Itoa(m.Tuplets),
		)
	}
	fmt.Fprintln(w, t.Render())
	printKeyValue(w, "page", fmt.Sprintf("%s × %s", num(r.Width), num(r.Height)))
	printKeyValue(w, "passes", StyleNumber.Render(strconv.Itoa(r.Iterations())))
	return nil
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
