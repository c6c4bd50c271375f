package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"my-pet/internal/platform/ledger"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var levelNames = map[Level]string{
	Debug: "debug",
	Info:  "info",
	Warn:  "warn",
	Error: "error",
}

func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "info"
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}

// Fields son los pares clave/valor de una entrada. Los error y fmt.Stringer
// (p. ej. identity.ID) se escriben como texto.
type Fields = map[string]any

type Logger interface {
	With(fields Fields) Logger

	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)
}

// StdLogger escribe una línea por entrada, key=value o JSON.
type StdLogger struct {
	sink   *sink
	level  Level
	format Format
	fields Fields
	now    func() time.Time
}

// sink lo comparten un logger y sus hijos para no intercalar líneas.
type sink struct {
	mu  sync.Mutex
	out io.Writer
}

func (s *sink) writeLine(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.out.Write(append(line, '\n'))
}

type Options struct {
	Level  Level
	Format Format
	App    string
	Output io.Writer // default os.Stdout
}

func New(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	fields := Fields{}
	if app := strings.TrimSpace(opts.App); app != "" {
		fields["app"] = app
	}

	format := opts.Format
	if format == "" {
		format = FormatText
	}

	return &StdLogger{
		sink:   &sink{out: out},
		level:  opts.Level,
		format: format,
		fields: fields,
		now:    time.Now,
	}
}

// NewFromEnv crea logger desde env:
// - LOG_LEVEL=debug|info|warn|error (default info)
// - LOG_FORMAT=text|json (default text)
// - APP_NAME=my-pet (opcional)
func NewFromEnv() Logger {
	return New(Options{
		Level:  ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: ParseFormat(os.Getenv("LOG_FORMAT")),
		App:    os.Getenv("APP_NAME"),
	})
}

// Nop descarta todo; para tests y wiring opcional.
func Nop() Logger {
	return New(Options{Level: Error + 1, Output: io.Discard})
}

// WithTx agrega el tx_id del ledger si el ctx está dentro de un Update.
func WithTx(ctx context.Context, l Logger) Logger {
	if id := ledger.TxID(ctx); id != "" {
		return l.With(Fields{"tx_id": id})
	}
	return l
}

func (l *StdLogger) With(fields Fields) Logger {
	if len(fields) == 0 {
		return l
	}

	child := *l
	child.fields = merge(l.fields, fields)
	return &child
}

func (l *StdLogger) Debug(msg string, fields Fields) { l.log(Debug, msg, fields) }
func (l *StdLogger) Info(msg string, fields Fields)  { l.log(Info, msg, fields) }
func (l *StdLogger) Warn(msg string, fields Fields)  { l.log(Warn, msg, fields) }
func (l *StdLogger) Error(msg string, fields Fields) { l.log(Error, msg, fields) }

func (l *StdLogger) log(lvl Level, msg string, fields Fields) {
	if lvl < l.level {
		return
	}

	entry := merge(l.fields, fields)
	entry["ts"] = l.now().UTC().Format(time.RFC3339Nano)
	entry["level"] = lvl.String()
	entry["msg"] = msg

	if l.format == FormatJSON {
		if b, err := json.Marshal(entry); err == nil {
			l.sink.writeLine(b)
			return
		}
	}
	l.sink.writeLine([]byte(formatText(entry)))
}

// merge copia base y agrega extra; claves vacías se ignoran.
func merge(base, extra Fields) Fields {
	out := make(Fields, len(base)+len(extra)+3)
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		if strings.TrimSpace(k) == "" {
			continue
		}
		out[k] = plain(v)
	}
	return out
}

func plain(v any) any {
	switch x := v.(type) {
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return v
	}
}

func formatText(m Fields) string {
	// keys ordenadas: salida estable para tests
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		s := fmt.Sprint(m[k])
		if s == "" || strings.ContainsAny(s, " \t\"=") {
			s = strconv.Quote(s)
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s)
	}
	return b.String()
}
