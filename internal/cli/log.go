package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Log output formats accepted by --log-format.
const (
	logFormatText   = "text"
	logFormatJSON   = "json"
	logFormatLogfmt = "logfmt"
)

var logFormatters = map[string]log.Formatter{
	logFormatText:   log.TextFormatter,
	logFormatJSON:   log.JSONFormatter,
	logFormatLogfmt: log.LogfmtFormatter,
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// parseLogFormat maps a --log-format value to a formatter. Empty means text.
func parseLogFormat(s string) (log.Formatter, error) {
	if s == "" {
		return log.TextFormatter, nil
	}
	f, ok := logFormatters[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown log format %q (want text, json or logfmt)", s)
	}
	return f, nil
}

// progress times one command. Each lap logs the time since the previous lap
// at debug level; done logs the total at info level with any extra fields.
type progress struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
}

func newProgress(l *log.Logger) *progress {
	now := time.Now()
	return &progress{logger: l, start: now, last: now}
}

func (p *progress) lap(stage string) {
	now := time.Now()
	p.logger.Debug("stage done", "stage", stage, "took", now.Sub(p.last).Round(time.Millisecond))
	p.last = now
}

func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the attached logger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
