package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"logtrail/internal/model"
)

type Format string

const (
	FormatText   Format = "text"
	FormatCSV    Format = "csv"
	FormatNDJSON Format = "ndjson"
	FormatJSON   Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatText, FormatCSV, FormatNDJSON, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType is the HTTP media type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatNDJSON:
		return "application/x-ndjson"
	case FormatJSON:
		return "application/json; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

func Write(w io.Writer, f Format, records []model.LogRecord) error {
	switch f {
	case FormatText:
		return ToText(w, records)
	case FormatCSV:
		return ToCSV(w, records)
	case FormatNDJSON:
		return ToNDJSON(w, records)
	case FormatJSON:
		if records == nil {
			records = []model.LogRecord{}
		}
		return json.NewEncoder(w).Encode(records)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// Line renders one record the way it is copied to the clipboard.
func Line(r model.LogRecord) string {
	return fmt.Sprintf("[%s] [%s] %s", r.Timestamp, r.Level, r.Message)
}

func ToText(w io.Writer, records []model.LogRecord) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := bw.WriteString(Line(r) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Text is ToText into a string.
func Text(records []model.LogRecord) string {
	var sb strings.Builder
	_ = ToText(&sb, records)
	return sb.String()
}

func ToCSV(w io.Writer, records []model.LogRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "level", "message"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Timestamp, r.Level, r.Message}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ToNDJSON(w io.Writer, records []model.LogRecord) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := bw.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return bw.Flush()
}
