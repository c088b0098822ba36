package parse

import (
	"regexp"
	"strings"
	"time"
)

// Layout is the normalized timestamp form. Fractional seconds, when the
// source had them, are appended as .000.
const Layout = "2006-01-02 15:04:05"

var (
	isoRe    = regexp.MustCompile(`^\[?(\d{4}-\d{2}-\d{2})[T ](\d{2}:\d{2}:\d{2})(?:[.,](\d{1,9}))?(?:Z|[+-]\d{2}:?\d{2})?\]?`)
	syslogRe = regexp.MustCompile(`^([A-Z][a-z]{2}) +(\d{1,2}) (\d{2}:\d{2}:\d{2})`)
	clockRe  = regexp.MustCompile(`^\[(\d{2}:\d{2}:\d{2})(?:[.,](\d{1,9}))?\]`)
)

// Timestamp extracts a leading timestamp from line and normalizes it. When
// the line does not start with one, received is used. Zone offsets are
// dropped; the wall clock as written is kept.
func Timestamp(line string, received time.Time) string {
	if m := isoRe.FindStringSubmatch(line); m != nil {
		return m[1] + " " + m[2] + millis(m[3])
	}
	if m := syslogRe.FindStringSubmatch(line); m != nil {
		t, err := time.Parse("Jan 2 15:04:05", m[1]+" "+m[2]+" "+m[3])
		if err == nil {
			t = t.AddDate(received.Year(), 0, 0)
			return t.Format(Layout)
		}
	}
	if m := clockRe.FindStringSubmatch(line); m != nil {
		return received.Format("2006-01-02") + " " + m[1] + millis(m[2])
	}
	return received.Format(Layout + ".000")
}

func millis(frac string) string {
	if frac == "" {
		return ""
	}
	if len(frac) > 3 {
		frac = frac[:3]
	}
	return "." + frac + strings.Repeat("0", 3-len(frac))
}
