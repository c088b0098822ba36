package logx

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	reset()
	Debugf("hidden")
	Infof("shown %d", 1)
	lines := Lines()
	if len(lines) != 1 || !strings.Contains(lines[0], "INFO  shown 1") {
		t.Fatalf("unexpected lines %q", lines)
	}
	SetLevel(Debug)
	Debugf("now visible")
	if n := len(Lines()); n != 2 {
		t.Fatalf("lines = %d, want 2", n)
	}
}

func TestRingKeepsNewest(t *testing.T) {
	reset()
	for i := 0; i < maxLines+10; i++ {
		Infof("line %d", i)
	}
	lines := Lines()
	if len(lines) != maxLines {
		t.Fatalf("lines = %d, want %d", len(lines), maxLines)
	}
	if !strings.HasSuffix(lines[0], "line 10") {
		t.Fatalf("oldest = %q", lines[0])
	}
	if !strings.HasSuffix(lines[len(lines)-1], fmt.Sprintf("line %d", maxLines+9)) {
		t.Fatalf("newest = %q", lines[len(lines)-1])
	}
}

func TestOutputAndEnv(t *testing.T) {
	reset()
	var buf bytes.Buffer
	SetOutput(&buf)
	Warnf("careful")
	if !strings.Contains(buf.String(), "WARN  careful") {
		t.Fatalf("output = %q", buf.String())
	}

	t.Setenv("LOGTRAIL_LOG_LEVEL", "error")
	t.Setenv("LOGTRAIL_LOG_STDERR", "0")
	SetLevelFromEnv()
	buf.Reset()
	Warnf("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("output not disabled")
	}
	Errorf("kept")
	if !strings.HasSuffix(Dump(), "kept") {
		t.Fatalf("dump = %q", Dump())
	}
	reset()
}

func TestWriter(t *testing.T) {
	reset()
	fmt.Fprintln(Writer(Warn), "from writer")
	lines := Lines()
	if len(lines) != 1 || !strings.HasSuffix(lines[0], "WARN  from writer") {
		t.Fatalf("lines = %q", lines)
	}
}
