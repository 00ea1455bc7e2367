// Package log defines the logging contract used across the harvester.
// Components receive a Logger instead of logging directly so the sink can
// be swapped without touching the engine.

package log

import "context"

type Logger interface {
	Debug(ctx context.Context, format string, args ...interface{})
	Info(ctx context.Context, format string, args ...interface{})
	Warn(ctx context.Context, format string, args ...interface{})
	Error(ctx context.Context, format string, args ...interface{})
}

func NewLogger(logger Logger) (Logger, error) {
	return logger, nil
}
