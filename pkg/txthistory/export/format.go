// Package export serializes ordered message sequences as delimited text,
// CSV tables or JSON arrays.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/txthistory/pkg/txthistory/internalerr"
)

// TimestampLayout renders timestamps as e.g. "Mar 04, 2024 09:15:00 PM".
const TimestampLayout = "Jan 02, 2006 03:04:05 PM"

// Format is one of the supported output encodings.
type Format int

const (
	FormatText Format = iota
	FormatCSV
	FormatJSON
)

// Formats lists every supported format in canonical order.
var Formats = []Format{FormatText, FormatCSV, FormatJSON}

func (f Format) String() string {
	switch f {
	case FormatText:
		return "txt"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return "." + f.String()
}

// ParseFormat maps a name such as "txt", "text", "csv" or "json" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return 0, fmt.Errorf("%w: unknown export format %q", internalerr.ErrInvalidInput, s)
}

// ParseFormats parses a comma-separated list, dropping duplicates.
// "all" selects every format.
func ParseFormats(s string) ([]Format, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return append([]Format(nil), Formats...), nil
	}
	seen := make(map[Format]bool)
	var out []Format
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no export format selected", internalerr.ErrInvalidInput)
	}
	return out, nil
}

// Entry is the exported projection of one message.
type Entry struct {
	Sender    string
	Timestamp time.Time
	Content   string
}

// FormatTimestamp renders t with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
