package parse

import (
	"regexp"
	"strings"
)

var levelRe = regexp.MustCompile(`\b(ERROR|WARNING|WARN|INFO|DEBUG|TRACE|CRIT|FATAL|ALERT|EMERG|PANIC|NOTICE)\b` +
	`|trace[\d\-_]+|warn[\d\-_]+|error[\d\-_]+|debug[\d\-_]+|crit[\d\-_]+` +
	`|fatal[\d\-_]+|emerg[\d\-_]+|alert[\d\-_]+|panic[\d\-_]+`)

// Level finds the severity of a raw line. Upper-case keywords and
// lower-case keywords with a numeric suffix (error404) are recognised first;
// otherwise a case-insensitive substring guess is made, defaulting to INFO.
func Level(line string) string {
	if m := levelRe.FindString(line); m != "" {
		return severity(m)
	}
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error"):
		return "ERROR"
	case strings.Contains(lower, "warn"), strings.Contains(lower, "alert"):
		return "WARNING"
	case strings.Contains(lower, "debug"):
		return "DEBUG"
	case strings.Contains(lower, "trace"):
		return "TRACE"
	}
	return "INFO"
}

// severity maps syslog-style severities onto TRACE, DEBUG, INFO,
// WARNING and ERROR.
func severity(level string) string {
	l := strings.ToLower(level)
	for _, p := range []struct{ prefix, level string }{
		{"trace", "TRACE"},
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARNING"},
		{"error", "ERROR"},
		{"crit", "ERROR"},
		{"fatal", "ERROR"},
		{"emerg", "ERROR"},
		{"panic", "ERROR"},
		{"alert", "WARNING"},
		{"notice", "WARNING"},
	} {
		if strings.HasPrefix(l, p.prefix) {
			return p.level
		}
	}
	return strings.ToUpper(level)
}
