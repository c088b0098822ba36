// Package parse turns raw log lines into LogRecords: decoding, leading
// timestamp extraction and severity detection. The message is always the
// whole trimmed line.
package parse

import (
	"strings"
	"time"

	"logtrail/internal/model"
)

// Line parses one decoded line. Blank lines yield ok == false.
func Line(line string, received time.Time) (model.LogRecord, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return model.LogRecord{}, false
	}
	return model.LogRecord{
		Timestamp: Timestamp(line, received),
		Level:     Level(line),
		Message:   line,
	}, true
}

// Bytes decodes and parses a raw line.
func Bytes(raw []byte, received time.Time) (model.LogRecord, bool) {
	return Line(Decode(raw), received)
}
