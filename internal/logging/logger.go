package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Severity orders log messages. A Logger drops everything below its threshold.
type Severity int8

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityNotice
	SeverityWarn
	SeverityError
	// SeveritySilent suppresses all output when used as a threshold.
	SeveritySilent
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityNotice:
		return "notice"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	case SeveritySilent:
		return "silent"
	}
	return "unknown"
}

// ThresholdFor returns the threshold used by the CLI for the debug toggle.
func ThresholdFor(debug bool) Severity {
	if debug {
		return SeverityDebug
	}
	return SeverityInfo
}

// Logger provides a thin wrapper around logr.Logger with convenience helpers.
type Logger struct {
	log       logr.Logger
	threshold Severity
}

// New returns a Logger based on the provided logr.Logger. When the base logger
// is uninitialized it falls back to the module default.
func New(base logr.Logger) Logger {
	if base.GetSink() == nil {
		base = DefaultLogger()
	}
	return Logger{log: base, threshold: SeverityInfo}
}

// Discard returns a Logger that drops every message.
func Discard() Logger {
	return Logger{log: logr.Discard(), threshold: SeveritySilent}
}

// DefaultLogger returns the module's default structured logger.
func DefaultLogger() logr.Logger {
	return NewConsoleLogger(SeverityInfo)
}

// NewConsoleLogger builds a colored console logger on stderr whose zap level
// matches threshold.
func NewConsoleLogger(threshold Severity) logr.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(threshold))
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.TimeKey = ""
	zapLogger, err := cfg.Build()
	if err != nil {
		zapLogger = zap.NewNop()
	}
	return zapr.NewLogger(zapLogger)
}

func zapLevel(s Severity) zapcore.Level {
	switch {
	case s <= SeverityDebug:
		return zapcore.DebugLevel
	case s <= SeverityNotice:
		return zapcore.InfoLevel
	case s == SeverityWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// WithThreshold returns a copy of the Logger that drops messages below s.
func (l Logger) WithThreshold(s Severity) Logger {
	return Logger{log: l.log, threshold: s}
}

// Threshold reports the lowest severity the Logger emits.
func (l Logger) Threshold() Severity {
	return l.threshold
}

// Enabled reports whether messages at severity s are emitted.
func (l Logger) Enabled(s Severity) bool {
	return s >= l.threshold
}

// WithValues returns a new Logger with additional key-value pairs attached.
func (l Logger) WithValues(keysAndValues ...any) Logger {
	return Logger{log: l.log.WithValues(keysAndValues...), threshold: l.threshold}
}

// WithName scopes the logger with the supplied name.
func (l Logger) WithName(name string) Logger {
	return Logger{log: l.log.WithName(name), threshold: l.threshold}
}

// Debug logs a verbose message when V(1) is enabled on the underlying logger.
func (l Logger) Debug(msg string, keysAndValues ...any) {
	if !l.Enabled(SeverityDebug) {
		return
	}
	if l.log.V(1).Enabled() {
		l.log.V(1).Info(msg, keysAndValues...)
	}
}

// Info logs an informational message.
func (l Logger) Info(msg string, keysAndValues ...any) {
	if l.Enabled(SeverityInfo) {
		l.log.Info(msg, keysAndValues...)
	}
}

// Notice logs an expected but noteworthy outcome, such as an empty result.
func (l Logger) Notice(msg string, keysAndValues ...any) {
	if l.Enabled(SeverityNotice) {
		l.log.Info(msg, keysAndValues...)
	}
}

// Warn logs a recoverable problem. logr has no warning level, so the zap
// logger underneath is used directly when there is one.
func (l Logger) Warn(msg string, keysAndValues ...any) {
	if !l.Enabled(SeverityWarn) {
		return
	}
	if u, ok := l.log.GetSink().(zapr.Underlier); ok {
		u.GetUnderlying().Sugar().Warnw(msg, keysAndValues...)
		return
	}
	l.log.Info(msg, append([]any{"severity", SeverityWarn.String()}, keysAndValues...)...)
}

// Error logs an error message.
func (l Logger) Error(err error, msg string, keysAndValues ...any) {
	if l.Enabled(SeverityError) {
		l.log.Error(err, msg, keysAndValues...)
	}
}

// Logr exposes the underlying logr.Logger.
func (l Logger) Logr() logr.Logger {
	return l.log
}
