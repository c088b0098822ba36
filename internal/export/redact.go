package export

import (
	"regexp"

	"logtrail/internal/model"
)

var (
	reEmail  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	reSecret = regexp.MustCompile(`(?i)\b(api[_-]?key|secret|token|password|passwd|key)(\s*[=:]\s*)([A-Za-z0-9\-_.]{8,})`)
)

// Redact masks e-mail addresses and key=value secrets in s.
func Redact(s string) string {
	s = reEmail.ReplaceAllString(s, "[redacted-email]")
	return reSecret.ReplaceAllString(s, "$1$2[redacted]")
}

// RedactRecords returns copies of recs with their messages redacted.
func RedactRecords(recs []model.LogRecord) []model.LogRecord {
	out := make([]model.LogRecord, len(recs))
	for i, r := range recs {
		r.Message = Redact(r.Message)
		out[i] = r
	}
	return out
}
