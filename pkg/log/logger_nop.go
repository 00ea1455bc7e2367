package log

import "context"

// NopLogger discards everything. Used by tests.
type NopLogger struct{}

func NewNopLogger() (*NopLogger, error) {
	return &NopLogger{}, nil
}

func (l *NopLogger) Debug(ctx context.Context, format string, args ...interface{}) {}
func (l *NopLogger) Info(ctx context.Context, format string, args ...interface{})  {}
func (l *NopLogger) Warn(ctx context.Context, format string, args ...interface{})  {}
func (l *NopLogger) Error(ctx context.Context, format string, args ...interface{}) {}
