// Package logging provides the framework's logging primitives: the
// minimal Logger interface test output flows through, a capturing
// logger for per-test debug output, and a leveled diagnostic logger for
// framework-internal messages.
package logging

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timestampFormat = "2006-01-02 15:04:05.000"

type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

type writerLogger struct {
	w io.Writer
}

func (l writerLogger) Printf(message string, args ...interface{}) {
	fmt.Fprintf(l.w, message, args...)
}

// NewWriterLogger returns a Logger writing directly to w.
func NewWriterLogger(w io.Writer) Logger { return writerLogger{w: w} }

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger accumulates messages in memory so a test's debug
// output can be replayed after the test finishes.
type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		fmt.Fprintf(dest, "%s[%s] %s\n",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
}

// Level is the diagnostic logger's severity scale.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarning:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var label string
	switch l {
	case zapcore.DebugLevel:
		label = LevelDebug.String()
	case zapcore.InfoLevel:
		label = LevelInfo.String()
	case zapcore.WarnLevel:
		label = LevelWarning.String()
	case zapcore.ErrorLevel:
		label = LevelError.String()
	default:
		label = LevelFatal.String()
	}
	enc.AppendString("[" + label + "]")
}

// NewDiagnostic builds a leveled logger writing "[LEVEL] message" lines
// to w. It carries framework-internal diagnostics, not test output.
func NewDiagnostic(w io.Writer, level Level) *zap.SugaredLogger {
	cfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		EncodeLevel:      encodeLevel,
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), level.zapLevel())
	return zap.New(core).Sugar()
}
