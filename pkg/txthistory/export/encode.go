package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"ID", "Sender", "Datetime", "Message"}

// Encode writes entries to w in the given format.
func Encode(w io.Writer, entries []Entry, format Format) error {
	switch format {
	case FormatText:
		return encodeText(w, entries)
	case FormatCSV:
		return encodeCSV(w, entries)
	case FormatJSON:
		return encodeJSON(w, entries)
	}
	return fmt.Errorf("unsupported format %v", format)
}

// WriteFile encodes entries into path, creating parent directories.
// A partially written file is left in place when an error is returned.
func WriteFile(path string, entries []Entry, format Format) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Encode(bw, entries, format); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// encodeText writes one "sender, timestamp, content" line per entry,
// each followed by a blank line.
func encodeText(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s, %s, %s\n\n", e.Sender, FormatTimestamp(e.Timestamp), e.Content); err != nil {
			return err
		}
	}
	return nil
}

func encodeCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for i, e := range entries {
		row := []string{strconv.Itoa(i + 1), e.Sender, FormatTimestamp(e.Timestamp), e.Content}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// jsonEntry fixes the key order of exported objects.
type jsonEntry struct {
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
}

// encodeJSON streams an indented array one object at a time.
func encodeJSON(w io.Writer, entries []Entry) error {
	if len(entries) == 0 {
		_, err := io.WriteString(w, "[]\n")
		return err
	}
	if _, err := io.WriteString(w, "[\n"); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("  ", "  ")
	for i, e := range entries {
		buf.Reset()
		buf.WriteString("  ")
		if err := enc.Encode(jsonEntry{
			Sender:    e.Sender,
			Timestamp: FormatTimestamp(e.Timestamp),
			Content:   e.Content,
		}); err != nil {
			return err
		}
		out := bytes.TrimRight(buf.Bytes(), "\n")
		if i < len(entries)-1 {
			out = append(out, ',')
		}
		out = append(out, '\n')
		if _, err := w.Write(out); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "]\n")
	return err
}
