package filter

import (
	"regexp"
	"strings"

	"github.com/Knetic/govaluate"

	"logtrail/internal/model"
)

type Criteria struct {
	Query    string // plain contains or regex if /.../
	UseRegex bool
	Levels   map[string]bool // normalized level names
	Expr     string          // govaluate expression over timestamp, level, message
	Field    string          // when set, apply Query only to this field
}

// ParseQuery turns the raw search box text into a Criteria query. Text
// wrapped in slashes is treated as a regular expression.
func ParseQuery(raw string) (query string, regex bool) {
	q := strings.TrimSpace(raw)
	if len(q) >= 2 && strings.HasPrefix(q, "/") && strings.HasSuffix(q, "/") {
		return q[1 : len(q)-1], true
	}
	return q, false
}

type Evaluator struct {
	c     Criteria
	lower string
	re    *regexp.Regexp
	expr  *govaluate.EvaluableExpression
}

func NewEvaluator(c Criteria) (*Evaluator, error) {
	e := &Evaluator{c: c, lower: strings.ToLower(c.Query)}
	var err error
	if c.UseRegex && c.Query != "" {
		if e.re, err = regexp.Compile(c.Query); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(c.Expr) != "" {
		if e.expr, err = govaluate.NewEvaluableExpression(c.Expr); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Active reports whether the evaluator rejects anything at all.
func (e *Evaluator) Active() bool {
	return len(e.c.Levels) > 0 || e.c.Query != "" || e.expr != nil
}

func (e *Evaluator) Match(r model.LogRecord) bool {
	if len(e.c.Levels) > 0 && !e.c.Levels[model.NormalizeLevel(r.Level)] {
		return false
	}
	if e.c.Query != "" && !e.matchQuery(r) {
		return false
	}
	if e.expr != nil {
		result, err := e.expr.Evaluate(map[string]any{
			"timestamp": r.Timestamp,
			"level":     model.NormalizeLevel(r.Level),
			"message":   r.Message,
		})
		if err != nil {
			return false
		}
		if b, ok := result.(bool); !ok || !b {
			return false
		}
	}
	return true
}

func (e *Evaluator) matchQuery(r model.LogRecord) bool {
	var fields []string
	switch e.c.Field {
	case "timestamp":
		fields = []string{r.Timestamp}
	case "level":
		fields = []string{r.Level}
	case "message":
		fields = []string{r.Message}
	default:
		fields = []string{r.Message, r.Timestamp}
	}
	for _, f := range fields {
		if e.re != nil {
			if e.re.MatchString(f) {
				return true
			}
		} else if strings.Contains(strings.ToLower(f), e.lower) {
			return true
		}
	}
	return false
}

// Levels builds a level set from names, normalizing each one. Empty input
// yields nil, which matches every level.
func Levels(names ...string) map[string]bool {
	var out map[string]bool
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if out == nil {
			out = map[string]bool{}
		}
		out[model.NormalizeLevel(n)] = true
	}
	return out
}
