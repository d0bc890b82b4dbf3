// Package logging provides the structured logger used across the pipeline
// engine. It wraps log/slog rather than defining a logging abstraction of
// its own.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with chainable With* builders for attaching
// pipeline/run/node context to subsequent log lines.
type Logger struct {
	logger *slog.Logger
}

// Config holds construction-time logging options.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string
	// Output is where logs are written. Defaults to os.Stdout.
	Output io.Writer
	// Pretty enables human-readable text output instead of JSON.
	Pretty bool
	// IncludeCaller adds source file:line to each log line.
	IncludeCaller bool
}

// DefaultConfig returns the engine's default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Output: os.Stdout,
	}
}

// New constructs a Logger from cfg.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.IncludeCaller,
	}

	var handler slog.Handler
	if cfg.Pretty {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	return &Logger{logger: slog.New(handler)}
}

// NoOp returns a Logger that discards everything, for callers who never
// configure one explicitly (Pipeline's default).
func NoOp() *Logger {
	return &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithPipelineName attaches the owning pipeline's name to the logger context.
func (l *Logger) WithPipelineName(name string) *Logger {
	return &Logger{logger: l.logger.With(slog.String("pipeline", name))}
}

// WithRunID attaches a run's correlation ID.
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{logger: l.logger.With(slog.String("run_id", runID))}
}

// WithNodeName attaches the node currently being evaluated.
func (l *Logger) WithNodeName(name string) *Logger {
	return &Logger{logger: l.logger.With(slog.String("node", name))}
}

// WithField attaches an arbitrary key/value pair.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With(slog.Any(key, value))}
}

// WithFields attaches multiple key/value pairs at once.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return &Logger{logger: l.logger.With(args...)}
}

// WithError attaches an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With(slog.Any("error", err))}
}

func (l *Logger) Debug(msg string) { l.logger.Debug(msg) }
func (l *Logger) Info(msg string)  { l.logger.Info(msg) }
func (l *Logger) Warn(msg string)  { l.logger.Warn(msg) }
func (l *Logger) Error(msg string) { l.logger.Error(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.logger.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...interface{})  { l.logger.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.logger.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.logger.Error(fmt.Sprintf(format, args...)) }

// Slog returns the underlying slog.Logger for advanced use cases (e.g.
// wiring into a library that wants one directly).
func (l *Logger) Slog() *slog.Logger { return l.logger }
