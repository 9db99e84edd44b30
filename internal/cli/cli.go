// Package cli implements the engrave command-line interface.
//
// # Commands
//
//   - render: engrave a score file or inline notes to SVG, PNG, PDF or JSON
//   - measure: print per-measure layout metrics as a table
//   - profile: print or check an engraving profile
//   - cache: manage the rendered artifact cache
//
// All commands accept --verbose (-v) for debug logging and --log-format
// (text, json or logfmt). The logger travels through the command context;
// see withLogger and loggerFromContext.
package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/engrave/pkg/buildinfo"
	"github.com/matzehuels/engrave/pkg/cache"
	"github.com/matzehuels/engrave/pkg/errors"
	"github.com/matzehuels/engrave/pkg/pipeline"
)

const (
	// appName is used for the cache directory and display.
	appName = "engrave"

	// redisPrefix scopes artifact keys in a shared Redis database.
	redisPrefix = appName + ":"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbose   bool
	logFormat string
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root command with every subcommand registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Engrave lays out and renders music notation",
		Long:         `Engrave formats music notation: it spaces notes by duration, stacks accidentals and articulations without collisions, slopes beams and brackets tuplets, then draws the result as SVG, PNG or PDF.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := parseLogFormat(c.logFormat)
			if err != nil {
				return errors.Wrap(errors.ErrCodeBadArguments, err, "--log-format")
			}
			c.Logger.SetFormatter(formatter)
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(withLogger(ctx, c.Logger))
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", logFormatText, "log output format: text, json or logfmt")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.measureCommand())
	root.AddCommand(c.profileCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	return root
}

// cacheFlags selects the artifact cache backend.
type cacheFlags struct {
	noCache bool
	redis   string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().StringVar(&f.redis, "redis", os.Getenv("ENGRAVE_REDIS_URL"), "cache artifacts in Redis at this URL instead of on disk")
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, f cacheFlags) (*pipeline.Runner, error) {
	ch, keyer, err := openCache(ctx, f)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

func openCache(ctx context.Context, f cacheFlags) (cache.Cache, cache.Keyer, error) {
	switch {
	case f.noCache:
		return cache.NewNullCache(), nil, nil
	case f.redis != "":
		rc, err := cache.NewRedisCache(ctx, f.redis)
		if err != nil {
			return nil, nil, err
		}
		return rc, cache.NewScopedKeyer(nil, redisPrefix), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, nil, err
	}
	return fc, nil, nil
}

// cacheDir returns the cache directory, $XDG_CACHE_HOME/engrave or
// ~/.cache/engrave.
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// parseFormats splits a comma-separated format list.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ExitCode maps a command error to a process exit status: 0 on success, 130
// when interrupted, 2 for unusable input and 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, context.Canceled):
		return 130
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeBadArguments, errors.ErrCodeParse, errors.ErrCodeInvalidFormat:
		return 2
	}
	return 1
}
