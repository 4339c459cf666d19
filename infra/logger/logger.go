package logger

import corelogger "github.com/gridscope/gridscope/core/logger"

// Logger is an alias of the core logging interface so callers in infra
// packages do not need a second import.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger for the given component. Output format follows the
// APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}
