package logger

import (
	"io"
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelDebug
	LevelTrace
)

type Logger struct {
	out       io.Writer
	prefix    string
	flags     int
	level     LogLevel
	isVerbose bool
	sugar     *zap.SugaredLogger
}

type Option func(*Logger)

func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.out = w
	}
}

func WithPrefix(prefix string) Option {
	return func(l *Logger) {
		l.prefix = prefix
	}
}

// WithFlags follows the standard log flags; 0 drops the timestamp.
func WithFlags(flags int) Option {
	return func(l *Logger) {
		l.flags = flags
	}
}

func New(options ...Option) *Logger {
	l := &Logger{
		out:       os.Stdout,
		flags:     log.LstdFlags,
		level:     LevelInfo,
		isVerbose: false,
	}

	for _, opt := range options {
		opt(l)
	}

	l.sugar = zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(l.encoderConfig()),
		zapcore.AddSync(l.out),
		zapcore.DebugLevel,
	)).Sugar()

	return l
}

// Nop discards everything.
func Nop() *Logger {
	return New(WithOutput(io.Discard), WithFlags(0))
}

func (l *Logger) encoderConfig() zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if l.flags != 0 {
		cfg.TimeKey = "time"
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	}
	return cfg
}

func (l *Logger) SetVerbose(verbose bool) {
	l.isVerbose = verbose
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.printf(LevelInfo, format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.isVerbose {
		l.printf(LevelDebug, format, args...)
	}
}

func (l *Logger) Trace(format string, args ...interface{}) {
	if l.level >= LevelTrace {
		l.printf(LevelTrace, format, args...)
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(l.prefix+"WARN: "+format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(l.prefix+"ERROR: "+format, args...)
}

func (l *Logger) printf(level LogLevel, format string, args ...interface{}) {
	var prefix string
	switch level {
	case LevelInfo:
		prefix = "INFO: "
	case LevelDebug:
		prefix = "DEBUG: "
	case LevelTrace:
		prefix = "TRACE: "
	}
	l.sugar.Infof(l.prefix+prefix+format, args...)
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.sugar.Fatalf(l.prefix+"FATAL: "+format, args...)
}

// Sync flushes any buffered output.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
