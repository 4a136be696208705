package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger writes structured entries through zerolog and optionally feeds
// warn/error entries to a LogCollector.
type Logger struct {
	zl        zerolog.Logger
	collector *LogCollector
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
	Service    string // added to every entry when set
}

// callerSkip covers user code -> Info/Warn/... -> write -> zerolog.
const callerSkip = 4

func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	lvl := cfg.Level
	if lvl == "" {
		lvl = "info"
	}
	level, err := zerolog.ParseLevel(lvl)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}

	zctx := zerolog.New(out).Level(level).With().Timestamp().CallerWithSkipFrameCount(callerSkip)
	if cfg.Service != "" {
		zctx = zctx.Str("service", cfg.Service)
	}
	return &Logger{zl: zctx.Logger()}, nil
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// NewWithWriter builds a JSON logger over w at debug level, mainly for tests.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{zl: zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger that adds fields to every entry. The child
// shares the parent's collector.
func (l *Logger) With(fields ...Field) *Logger {
	zctx := l.zl.With()
	for _, f := range fields {
		zctx = zctx.Interface(f.Key, f.Value())
	}
	return &Logger{zl: zctx.Logger(), collector: l.collector}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.write(zerolog.DebugLevel, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.write(zerolog.InfoLevel, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.write(zerolog.WarnLevel, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.write(zerolog.ErrorLevel, msg, fields) }

func (l *Logger) write(level zerolog.Level, msg string, fields []Field) {
	ev := l.zl.WithLevel(level)
	if ev != nil {
		for _, f := range fields {
			f.addTo(ev)
		}
		ev.Msg(msg)
	}

	if c := l.collector; c != nil && c.accepts(level) {
		c.AddLog(level.String(), msg, fieldMap(fields), callerOf(3))
	}
}

// callerOf returns file:line relative to the module root.
func callerOf(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	if i := strings.LastIndex(file, "TrendPulse/"); i >= 0 {
		file = file[i+len("TrendPulse/"):]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

func fieldMap(fields []Field) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}
	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value()
	}
	return m
}

// AddCollector aggregates warn/error entries and ships them through
// config.Publisher. A previous collector is flushed and replaced.
func (l *Logger) AddCollector(config *CollectionConfig) {
	if config == nil || config.Publisher == nil {
		return
	}
	if l.collector != nil {
		l.collector.Close()
	}
	c := NewLogCollector(config)
	c.onError = func(err error) {
		// Logged without the collector so a failing sink cannot loop.
		l.zl.Warn().Err(err).Str("topic", config.Topic).Msg("log collector publish failed")
	}
	l.collector = c
}

// RemoveCollector flushes pending entries and detaches the collector.
func (l *Logger) RemoveCollector() {
	if l.collector != nil {
		l.collector.Close()
		l.collector = nil
	}
}

type fieldKind uint8

const (
	kindAny fieldKind = iota
	kindString
	kindStrings
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindError
)

// Field is a typed key/value attached to an entry.
type Field struct {
	Key  string
	kind fieldKind
	str  string
	strs []string
	num  int64
	flt  float64
	err  error
	any  interface{}
}

// Value returns the field as a plain Go value; errors become their message
// and durations whole milliseconds.
func (f Field) Value() interface{} {
	switch f.kind {
	case kindString:
		return f.str
	case kindStrings:
		return f.strs
	case kindInt:
		return f.num
	case kindFloat:
		return f.flt
	case kindBool:
		return f.num == 1
	case kindDuration:
		return time.Duration(f.num).Milliseconds()
	case kindError:
		if f.err == nil {
			return nil
		}
		return f.err.Error()
	default:
		return f.any
	}
}

func (f Field) addTo(ev *zerolog.Event) {
	switch f.kind {
	case kindString:
		ev.Str(f.Key, f.str)
	case kindStrings:
		ev.Strs(f.Key, f.strs)
	case kindInt:
		ev.Int64(f.Key, f.num)
	case kindFloat:
		ev.Float64(f.Key, f.flt)
	case kindBool:
		ev.Bool(f.Key, f.num == 1)
	case kindDuration:
		ev.Dur(f.Key, time.Duration(f.num))
	case kindError:
		ev.AnErr(f.Key, f.err)
	default:
		ev.Interface(f.Key, f.any)
	}
}

func String(key, value string) Field { return Field{Key: key, kind: kindString, str: value} }

func Strings(key string, value []string) Field { return Field{Key: key, kind: kindStrings, strs: value} }

func Int(key string, value int) Field { return Field{Key: key, kind: kindInt, num: int64(value)} }

func Int64(key string, value int64) Field { return Field{Key: key, kind: kindInt, num: value} }

func Float64(key string, value float64) Field { return Field{Key: key, kind: kindFloat, flt: value} }

func Bool(key string, value bool) Field {
	f := Field{Key: key, kind: kindBool}
	if value {
		f.num = 1
	}
	return f
}

// Duration logs value in milliseconds.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, kind: kindDuration, num: int64(value)}
}

func Error(err error) Field { return Field{Key: "error", kind: kindError, err: err} }

func Any(key string, value interface{}) Field { return Field{Key: key, kind: kindAny, any: value} }
