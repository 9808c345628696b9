package logger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-logr/logr"
)

// SeverityKey is the key/value pair key that lifts an Info call to a warning
// when its value is "warning".
const SeverityKey = "severity"

// Logr returns a logr.Logger writing through l.
// V(0) maps to Info, V(1) and above to Debug, Error to Error.
func (l *Logger) Logr() logr.Logger {
	return logr.New(&sink{log: l})
}

type sink struct {
	log    *Logger
	name   string
	values []interface{}
}

func (s *sink) Init(logr.RuntimeInfo) {}

func (s *sink) Enabled(level int) bool {
	return level <= 0 || s.log.level >= LevelDebug
}

func (s *sink) Info(level int, msg string, keysAndValues ...interface{}) {
	data := s.fields(keysAndValues)

	severity := "info"
	lvl := LevelInfo
	if level > 0 {
		severity = "debug"
		lvl = LevelDebug
	}
	if v, ok := data[SeverityKey]; ok {
		if v == "warning" || v == "warn" {
			severity = "warn"
		}
		delete(data, SeverityKey)
	}

	s.log.emit(lvl, severity, s.qualify(msg), data)
}

func (s *sink) Error(err error, msg string, keysAndValues ...interface{}) {
	data := s.fields(keysAndValues)
	delete(data, SeverityKey)
	if err != nil {
		data["error"] = err.Error()
	}
	s.log.emit(LevelInfo, "error", s.qualify(msg), data)
}

func (s *sink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	values := make([]interface{}, 0, len(s.values)+len(keysAndValues))
	values = append(values, s.values...)
	values = append(values, keysAndValues...)
	return &sink{log: s.log, name: s.name, values: values}
}

func (s *sink) WithName(name string) logr.LogSink {
	if s.name != "" {
		name = s.name + "/" + name
	}
	return &sink{log: s.log, name: name, values: s.values}
}

func (s *sink) qualify(msg string) string {
	if s.name == "" {
		return msg
	}
	return s.name + ": " + msg
}

// fields merges the sink's values with keysAndValues into a map.
// Errors and Stringers are flattened so JSON output stays readable.
func (s *sink) fields(keysAndValues []interface{}) map[string]interface{} {
	all := make([]interface{}, 0, len(s.values)+len(keysAndValues))
	all = append(all, s.values...)
	all = append(all, keysAndValues...)

	data := make(map[string]interface{}, len(all)/2)
	for i := 0; i < len(all); i += 2 {
		key := fmt.Sprint(all[i])
		var value interface{} = "(MISSING)"
		if i+1 < len(all) {
			value = all[i+1]
		}
		switch v := value.(type) {
		case error:
			value = v.Error()
		case fmt.Stringer:
			value = v.String()
		}
		data[key] = value
	}
	return data
}

// formatFields renders data as sorted key=value pairs.
func formatFields(data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprint(data[k])
		if strings.ContainsAny(v, " \t") {
			v = fmt.Sprintf("%q", v)
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}
