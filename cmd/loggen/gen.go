package main

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	styleISO     = "iso"
	styleSyslog  = "syslog"
	styleBracket = "bracket"
	stylePlain   = "plain"
)

func isStyle(s string) bool {
	switch s {
	case styleISO, styleSyslog, styleBracket, stylePlain:
		return true
	}
	return false
}

type generator struct {
	style string
	rnd   *rand.Rand
	seq   int
}

func newGenerator(style string, rnd *rand.Rand) *generator {
	return &generator{style: style, rnd: rnd}
}

// line renders one log line. Every line carries a sequence number so that
// identical messages in the same second stay distinct records.
func (g *generator) line(now time.Time) string {
	g.seq++
	level := g.level()
	msg := fmt.Sprintf("%s %s (seq=%d)", g.pick(services), g.pick(messages), g.seq)
	switch g.style {
	case styleSyslog:
		return fmt.Sprintf("%s host %s[%d]: %s %s", now.Format(time.Stamp), g.pick(services), 1000+g.rnd.Intn(9000), level, msg)
	case styleBracket:
		return fmt.Sprintf("[%s] [%s] %s", now.Format("15:04:05"), level, msg)
	case stylePlain:
		return fmt.Sprintf("%s: %s", level, msg)
	}
	return fmt.Sprintf("%s %s %s", now.UTC().Format("2006-01-02T15:04:05.000Z"), level, msg)
}

func (g *generator) level() string {
	r := g.rnd.Float64()
	switch {
	case r < 0.55:
		return "INFO"
	case r < 0.75:
		return "DEBUG"
	case r < 0.85:
		return "TRACE"
	case r < 0.95:
		return "WARN"
	}
	return "ERROR"
}

func (g *generator) pick(from []string) string { return from[g.rnd.Intn(len(from))] }

var services = []string{"api", "worker", "auth", "gateway", "billing"}

var messages = []string{
	"user authenticated",
	"request completed",
	"cache miss",
	"cache hit",
	"db query executed",
	"rate limit exceeded",
	"background job started",
	"background job finished",
	"invalid credentials",
	"payload validated",
}
