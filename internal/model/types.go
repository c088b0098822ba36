package model

import "strings"

// MaxEntries is the default capacity of the log buffer.
const MaxEntries = 100_000

// LogRecord is one admitted log line. Records are immutable once created.
type LogRecord struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// Key is the identity triple used for deduplication. Two records with the
// same key are the same event even when received independently.
type Key struct {
	Timestamp string
	Level     string
	Message   string
}

func (r LogRecord) Key() Key {
	return Key{Timestamp: r.Timestamp, Level: r.Level, Message: r.Message}
}

// Valid reports whether all three fields are present. Malformed records are
// dropped before they reach the dedup window.
func (r LogRecord) Valid() bool {
	return strings.TrimSpace(r.Timestamp) != "" &&
		strings.TrimSpace(r.Level) != "" &&
		strings.TrimSpace(r.Message) != ""
}

// Levels lists the normalized levels in display order.
var Levels = []string{"ERROR", "WARNING", "INFO", "DEBUG", "TRACE"}

// NormalizeLevel folds level spellings onto the display set (WARN -> WARNING,
// ERROR404 -> ERROR). Unknown levels are returned upper-cased.
func NormalizeLevel(level string) string {
	l := strings.ToUpper(strings.TrimSpace(level))
	switch {
	case strings.HasPrefix(l, "WARN"):
		return "WARNING"
	case strings.HasPrefix(l, "TRACE"):
		return "TRACE"
	case strings.HasPrefix(l, "DEBUG"):
		return "DEBUG"
	case strings.HasPrefix(l, "ERROR"):
		return "ERROR"
	case strings.HasPrefix(l, "INFO"):
		return "INFO"
	}
	return l
}
