package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	}
	return "ERROR"
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, true
	case "info":
		return Info, true
	case "warn", "warning":
		return Warn, true
	case "error":
		return Error, true
	}
	return Info, false
}

const maxLines = 500

var (
	mu    sync.Mutex
	level = Info
	ring  [maxLines]string
	next  int
	count int
	// nil keeps logs in memory only, so the TUI is not disturbed
	out io.Writer
)

func SetLevel(l Level) { mu.Lock(); level = l; mu.Unlock() }

// SetOutput mirrors every line to w; nil disables mirroring.
func SetOutput(w io.Writer) { mu.Lock(); out = w; mu.Unlock() }

// SetLevelFromEnv reads LOGTRAIL_LOG_LEVEL and LOGTRAIL_LOG_STDERR.
func SetLevelFromEnv() {
	if l, ok := ParseLevel(os.Getenv("LOGTRAIL_LOG_LEVEL")); ok {
		SetLevel(l)
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("LOGTRAIL_LOG_STDERR"))); v != "" {
		if v != "0" && v != "false" && v != "no" {
			SetOutput(os.Stderr)
		} else {
			SetOutput(nil)
		}
	}
}

func Debugf(format string, a ...any) { logf(Debug, format, a...) }
func Infof(format string, a ...any)  { logf(Info, format, a...) }
func Warnf(format string, a ...any)  { logf(Warn, format, a...) }
func Errorf(format string, a ...any) { logf(Error, format, a...) }

func logf(l Level, format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	ts := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	line := fmt.Sprintf("%s %-5s %s", ts, l, fmt.Sprintf(format, a...))
	ring[next] = line
	next = (next + 1) % maxLines
	if count < maxLines {
		count++
	}
	if out != nil {
		fmt.Fprintln(out, line)
	}
}

// Lines returns the retained lines, oldest first.
func Lines() []string {
	mu.Lock()
	defer mu.Unlock()
	lines := make([]string, count)
	start := (next - count + maxLines) % maxLines
	for i := range lines {
		lines[i] = ring[(start+i)%maxLines]
	}
	return lines
}

func Dump() string { return strings.Join(Lines(), "\n") }

// Writer adapts the logger to an io.Writer at the given level, one line per
// Write, for libraries that want a writer.
func Writer(l Level) io.Writer { return levelWriter(l) }

type levelWriter Level

func (w levelWriter) Write(p []byte) (int, error) {
	logf(Level(w), "%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func reset() {
	mu.Lock()
	defer mu.Unlock()
	next, count = 0, 0
	level = Info
	out = nil
}
