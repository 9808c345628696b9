// Package logger provides console and JSON-lines logging with verbosity control.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Level represents logging verbosity.
type Level int

// Log levels.
const (
	LevelInfo Level = iota
	LevelDebug
)

// OutputFormat represents the output format.
type OutputFormat int

// Output formats.
const (
	FormatText OutputFormat = iota
	FormatJSON
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// LogEntry represents a structured log entry for JSON output.
type LogEntry struct {
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
}

// Logger writes human-readable or JSON log lines.
type Logger struct {
	out     io.Writer
	errOut  io.Writer
	level   Level
	format  OutputFormat
	dryRun  bool
	noColor bool
}

// Options configures the logger.
type Options struct {
	// Out receives info, warning and debug lines; defaults to stdout.
	Out io.Writer
	// ErrOut receives error lines; defaults to stderr.
	ErrOut  io.Writer
	Verbose bool
	JSON    bool
	NoColor bool
}

// New creates a new logger with options.
func New(opts Options) *Logger {
	l := &Logger{
		out:     opts.Out,
		errOut:  opts.ErrOut,
		level:   LevelInfo,
		format:  FormatText,
		noColor: opts.NoColor || opts.JSON, // No color in JSON mode
	}
	if opts.Verbose {
		l.level = LevelDebug
	}
	if opts.JSON {
		l.format = FormatJSON
	}
	if l.out == nil {
		l.out = os.Stdout
	}
	if l.errOut == nil {
		l.errOut = os.Stderr
	}
	return l
}

// Discard returns a logger that writes nothing.
func Discard() *Logger {
	return New(Options{Out: io.Discard, ErrOut: io.Discard, NoColor: true})
}

// SetDryRun sets dry-run mode for log prefix.
func (l *Logger) SetDryRun(dryRun bool) {
	l.dryRun = dryRun
}

// Info logs informational messages (always shown).
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(LevelInfo, "info", fmt.Sprintf(format, args...), nil)
}

// InfoWithData logs informational messages with additional structured data (for JSON output).
func (l *Logger) InfoWithData(message string, data map[string]interface{}) {
	l.emit(LevelInfo, "info", message, data)
}

// Debug logs debug messages (only in verbose mode).
func (l *Logger) Debug(format string, args ...interface{}) {
	l.emit(LevelDebug, "debug", fmt.Sprintf(format, args...), nil)
}

// Warn logs warning messages (yellow in text mode).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit(LevelInfo, "warn", fmt.Sprintf(format, args...), nil)
}

// Error logs error messages to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(LevelInfo, "error", fmt.Sprintf(format, args...), nil)
}

// emit writes one entry. In text mode data is rendered as trailing key=value pairs.
func (l *Logger) emit(level Level, severity, msg string, data map[string]interface{}) {
	if level > l.level {
		return
	}

	out := l.out
	if severity == "error" {
		out = l.errOut
	}

	if l.format == FormatJSON {
		l.writeJSON(out, severity, msg, data)
		return
	}

	line := msg
	if len(data) > 0 {
		line += " " + formatFields(data)
	}

	switch severity {
	case "error":
		line = l.colorize(colorRed, "ERROR") + " " + line
	case "warn":
		line = l.colorize(colorYellow, "! "+line)
	case "debug":
		line = l.colorize(colorGray, line)
	}
	fmt.Fprintf(out, "%s%s\n", l.getPrefix(), line)
}

// HTTPRequest logs an HTTP request (debug level).
func (l *Logger) HTTPRequest(method, url string) {
	if l.level < LevelDebug {
		return
	}
	if l.format == FormatJSON {
		l.writeJSON(l.out, "debug", "HTTP request", map[string]interface{}{
			"type":   "request",
			"method": method,
			"url":    url,
		})
		return
	}
	label := l.colorize(colorCyan, "REQUEST")
	fmt.Fprintf(l.out, "%s%s %s %s\n", l.getPrefix(), label, l.colorize(colorBold, method), url)
}

// HTTPResponse logs an HTTP response (debug level).
func (l *Logger) HTTPResponse(method, url string, statusCode int, elapsed time.Duration) {
	if l.level < LevelDebug {
		return
	}
	if l.format == FormatJSON {
		l.writeJSON(l.out, "debug", "HTTP response", map[string]interface{}{
			"type":       "response",
			"method":     method,
			"url":        url,
			"statusCode": statusCode,
			"elapsedMs":  elapsed.Milliseconds(),
		})
		return
	}
	label := l.colorize(colorCyan, "RESPONSE")
	fmt.Fprintf(l.out, "%s%s %s %s -> %s (%s)\n",
		l.getPrefix(), label, l.colorize(colorBold, method), url,
		l.colorizeStatus(statusCode), elapsed.Round(time.Millisecond))
}

// Progress logs an import progress line with a bar in text mode.
func (l *Logger) Progress(percent float64, imported, total int) {
	if l.format == FormatJSON {
		l.writeJSON(l.out, "info", "progress", map[string]interface{}{
			"percent":  percent,
			"imported": imported,
			"total":    total,
		})
		return
	}

	const width = 30
	filled := int(percent / 100 * width)
	if filled > width {
		filled = width
	}
	bar := l.colorize(colorGreen, strings.Repeat("#", filled)) + strings.Repeat(".", width-filled)
	fmt.Fprintf(l.out, "%s[%s] %5.1f%% (%d/%d)\n", l.getPrefix(), bar, percent, imported, total)
}

// Table prints a table with headers and rows.
func (l *Logger) Table(title string, headers []string, rows [][]string) {
	if l.format == FormatJSON {
		data := make([]map[string]string, len(rows))
		for i, row := range rows {
			rowMap := make(map[string]string)
			for j, header := range headers {
				if j < len(row) {
					rowMap[header] = row[j]
				}
			}
			data[i] = rowMap
		}
		l.writeJSON(l.out, "info", title, map[string]interface{}{"records": data})
		return
	}

	if len(rows) == 0 {
		fmt.Fprintf(l.out, "%s%s: (none)\n", l.getPrefix(), title)
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	fmt.Fprintf(l.out, "%s%s\n", l.getPrefix(), l.colorize(colorBold, title+":"))

	var header strings.Builder
	header.WriteString(l.getPrefix() + "  ")
	for i, h := range headers {
		header.WriteString(l.colorize(colorGray, fmt.Sprintf("%-*s", widths[i]+2, h)))
	}
	fmt.Fprintln(l.out, strings.TrimRight(header.String(), " "))

	for _, row := range rows {
		var line strings.Builder
		line.WriteString(l.getPrefix() + "  ")
		for i, cell := range row {
			if i < len(widths) {
				line.WriteString(fmt.Sprintf("%-*s", widths[i]+2, cell))
			}
		}
		fmt.Fprintln(l.out, strings.TrimRight(line.String(), " "))
	}
}

// Diff logs a change line with appropriate coloring.
func (l *Logger) Diff(op, content string) {
	if l.format == FormatJSON {
		l.writeJSON(l.out, "info", "change", map[string]interface{}{
			"operation": op,
			"content":   content,
		})
		return
	}

	prefix := l.getPrefix() + "  "
	switch op {
	case "+":
		fmt.Fprintf(l.out, "%s%s\n", prefix, l.colorize(colorGreen, "+ "+content))
	case "-":
		fmt.Fprintf(l.out, "%s%s\n", prefix, l.colorize(colorRed, "- "+content))
	default:
		fmt.Fprintf(l.out, "%s  %s\n", prefix, content)
	}
}

func (l *Logger) getPrefix() string {
	if l.dryRun {
		return l.colorize(colorYellow, "[DRY RUN] ")
	}
	return ""
}

func (l *Logger) colorize(color, text string) string {
	if l.noColor {
		return text
	}
	return color + text + colorReset
}

func (l *Logger) colorizeStatus(statusCode int) string {
	status := fmt.Sprintf("%d", statusCode)
	switch {
	case statusCode >= 200 && statusCode < 300:
		return l.colorize(colorGreen, status)
	case statusCode >= 300 && statusCode < 400:
		return l.colorize(colorYellow, status)
	default:
		return l.colorize(colorRed, status)
	}
}

func (l *Logger) writeJSON(out io.Writer, level, message string, data map[string]interface{}) {
	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Message:   message,
		Data:      data,
	}
	if l.dryRun {
		if entry.Data == nil {
			entry.Data = make(map[string]interface{})
		}
		entry.Data["dryRun"] = true
	}
	jsonData, err := json.Marshal(entry)
	if err != nil {
		// Fallback to simple format if JSON marshaling fails
		fmt.Fprintf(out, "{\"level\":%q,\"message\":%q}\n", level, message)
		return
	}
	fmt.Fprintln(out, string(jsonData))
}

// MaskSecret masks sensitive data, showing only first and last 2 chars.
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
