// Package logger writes leveled, structured log lines as JSON or text.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level is the severity of an entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel accepts debug, info, warn/warning and error in any case.
// Anything else is info.
func ParseLevel(s string) Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return LevelWarn
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i)
		}
	}
	return LevelInfo
}

// Format selects the output encoding.
type Format int

const (
	// FormatJSON writes one LogEntry object per line.
	FormatJSON Format = iota
	// FormatText writes "timestamp LEVEL message key=value ..." with sorted keys.
	FormatText
)

// ParseFormat returns FormatText for "text" and FormatJSON otherwise.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "text") {
		return FormatText
	}
	return FormatJSON
}

// Field is one key/value pair of an entry.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field { return Field{key, value} }
func Int(key string, value int) Field { return Field{key, value} }
func Any(key string, value any) Field { return Field{key, value} }

// Duration is rendered with time.Duration.String.
func Duration(key string, value time.Duration) Field { return Field{key, value.String()} }

// Err stores err.Error() under "error"; a nil err is stored as null.
func Err(err error) Field {
	if err == nil {
		return Field{"error", nil}
	}
	return Field{"error", err.Error()}
}

// Directory fields.
func StudentName(name string) Field   { return String("student_name", name) }
func Identity(id uint64) Field        { return Any("identity", id) }
func CorrelationID(id string) Field   { return String("correlation_id", id) }
func QueryWords(words []string) Field { return String("query_words", strings.Join(words, " ")) }
func ResultCount(n int) Field         { return Int("result_count", n) }
func Component(name string) Field     { return String("component", name) }
func Latency(d time.Duration) Field   { return Duration("latency", d) }

// LogEntry is the JSON shape of one line.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Options configures New. A nil Output means stderr.
type Options struct {
	Output io.Writer
	Level  Level
	Format Format
}

// Logger is safe for concurrent use. Loggers derived through With share
// the writer and its lock.
type Logger struct {
	mu     *sync.Mutex
	out    io.Writer
	min    Level
	format Format
	fields []Field
	now    func() time.Time
}

func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		mu:     new(sync.Mutex),
		out:    out,
		min:    opts.Level,
		format: opts.Format,
		now:    time.Now,
	}
}

// Nop discards everything.
func Nop() *Logger {
	return New(Options{Output: io.Discard, Level: LevelError + 1})
}

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields ...Field) *Logger {
	child := *l
	child.fields = append(append(make([]Field, 0, len(l.fields)+len(fields)), l.fields...), fields...)
	return &child
}

func (l *Logger) Debug(msg string, fields ...Field) { l.write(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.write(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.write(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.write(LevelError, msg, fields) }

func (l *Logger) write(level Level, msg string, fields []Field) {
	if level < l.min {
		return
	}

	entry := LogEntry{
		Timestamp: l.now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
	}
	if n := len(l.fields) + len(fields); n > 0 {
		entry.Fields = make(map[string]any, n)
		for _, f := range append(l.fields[:len(l.fields):len(l.fields)], fields...) {
			entry.Fields[f.Key] = f.Value
		}
	}

	var line []byte
	if l.format == FormatText {
		line = entry.text()
	} else if data, err := json.Marshal(entry); err == nil {
		line = append(data, '\n')
	} else {
		line = fmt.Appendf(nil, "%s [%s] %s\n", entry.Timestamp, entry.Level, msg)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(line)
}

func (e LogEntry) text() []byte {
	b := fmt.Appendf(nil, "%s %s %s", e.Timestamp, e.Level, e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b = fmt.Appendf(b, " %s=%v", k, e.Fields[k])
	}
	return append(b, '\n')
}
