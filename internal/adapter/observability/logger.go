// Package observability provides the application-level structured logger.
package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	backendhttp "github.com/smartreview/detection/internal/adapter/backend/http"
)

// Logger writes leveled key/value log lines in human or JSON format. It
// satisfies the orchestrator's logging port.
type Logger struct {
	level  backendhttp.LogLevel
	format backendhttp.LogFormat
	out    *log.Logger
}

// NewLogger creates a logger writing to stderr.
func NewLogger(level backendhttp.LogLevel, format backendhttp.LogFormat) *Logger {
	return NewLoggerTo(os.Stderr, level, format)
}

// NewLoggerTo creates a logger writing to the given writer (for tests).
func NewLoggerTo(w io.Writer, level backendhttp.LogLevel, format backendhttp.LogFormat) *Logger {
	return &Logger{
		level:  level,
		format: format,
		out:    log.New(w, "", 0),
	}
}

// ParseLevel maps a config string to a log level. Unknown values map to info.
func ParseLevel(s string) backendhttp.LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return backendhttp.LogLevelDebug
	case "error":
		return backendhttp.LogLevelError
	default:
		return backendhttp.LogLevelInfo
	}
}

// ParseFormat maps a config string to a log format. Unknown values map to
// human.
func ParseFormat(s string) backendhttp.LogFormat {
	if strings.EqualFold(s, "json") {
		return backendhttp.LogFormatJSON
	}
	return backendhttp.LogFormatHuman
}

func (l *Logger) Debug(msg string, fields ...any) {
	if l.level > backendhttp.LogLevelDebug {
		return
	}
	l.write("debug", msg, fields)
}

func (l *Logger) Info(msg string, fields ...any) {
	if l.level > backendhttp.LogLevelInfo {
		return
	}
	l.write("info", msg, fields)
}

func (l *Logger) Warn(msg string, fields ...any) {
	// Warnings are never filtered; they signal degraded but continuing runs.
	l.write("warn", msg, fields)
}

func (l *Logger) write(level, msg string, fields []any) {
	if l.format == backendhttp.LogFormatJSON {
		entry := make(map[string]any, len(fields)/2+3)
		entry["level"] = level
		entry["msg"] = msg
		entry["timestamp"] = time.Now().Format(time.RFC3339)
		for i := 0; i+1 < len(fields); i += 2 {
			key := fmt.Sprint(fields[i])
			entry[key] = normalize(fields[i+1])
		}
		data, err := json.Marshal(entry)
		if err != nil {
			l.out.Printf(`{"level":"error","msg":"log entry not serializable: %v"}`, err)
			return
		}
		l.out.Print(string(data))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(level), msg)
	pairs := make([]string, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		pairs = append(pairs, fmt.Sprintf("%v=%v", fields[i], fields[i+1]))
	}
	if len(pairs) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(pairs, ", "))
		b.WriteString(")")
	}
	l.out.Print(b.String())
}

// normalize converts values json.Marshal cannot represent natively.
func normalize(v any) any {
	switch val := v.(type) {
	case error:
		return val.Error()
	case time.Duration:
		return val.String()
	default:
		return v
	}
}
