package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/cognicore/txthistory/pkg/txthistory/store"
)

// Record is one line of a chat archive export
type Record struct {
	GUID           string    `json:"guid"`
	Sender         string    `json:"sender"`
	IsFromMe       bool      `json:"is_from_me"`
	Timestamp      time.Time `json:"timestamp"`
	Text           *string   `json:"text"`
	HTML           string    `json:"html"`
	Conversation   string    `json:"conversation"`
	Service        string    `json:"service"`
	HasAttachments bool      `json:"has_attachments"`
}

// Message converts the record into a store message. Records without a GUID
// get a random one; HTML bodies are reduced to their text when no plain text
// is present.
func (r Record) Message() store.Message {
	m := store.Message{
		GUID:           r.GUID,
		Sender:         r.Sender,
		IsFromMe:       r.IsFromMe,
		Timestamp:      r.Timestamp.In(time.Local),
		Text:           r.Text,
		Conversation:   r.Conversation,
		Service:        r.Service,
		HasAttachments: r.HasAttachments,
	}
	if m.GUID == "" {
		m.GUID = uuid.NewString()
	}
	if m.Text == nil && strings.TrimSpace(r.HTML) != "" {
		if body, err := HTMLText(r.HTML); err == nil && body != "" {
			m.Text = &body
		}
	}
	if m.Conversation == "" && !m.IsFromMe {
		m.Conversation = m.Sender
	}
	if m.Sender == "" && m.IsFromMe {
		m.Sender = "Me"
	}
	return m
}

// HTMLText extracts the visible text of an HTML fragment. Line breaks and
// block boundaries become single spaces.
func HTMLText(fragment string) (string, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(parts, " "), nil
}

// LoadFromJSONL loads records from a JSONL file with proper error handling
func LoadFromJSONL(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var records []Record
	lines := strings.Split(string(data), "\n")

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			log.Printf("Warning: skipping malformed JSON at line %d in %s: %v", i+1, path, err)
			continue
		}
		if rec.Timestamp.IsZero() {
			log.Printf("Warning: skipping record without timestamp at line %d in %s", i+1, path)
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no valid records found in %s", path)
	}

	return records, nil
}

// Ingester stores messages; *txthistory.Engine satisfies it.
type Ingester interface {
	Ingest(ctx context.Context, m store.Message) (int64, error)
}

// ImportStats reports the outcome of Import
type ImportStats struct {
	Records  int
	WithText int
}

// Import loads path and stores every record through ing.
func Import(ctx context.Context, path string, ing Ingester) (ImportStats, error) {
	records, err := LoadFromJSONL(path)
	if err != nil {
		return ImportStats{}, err
	}

	var stats ImportStats
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		m := rec.Message()
		if _, err := ing.Ingest(ctx, m); err != nil {
			return stats, fmt.Errorf("import %s: %w", m.GUID, err)
		}
		stats.Records++
		if m.HasText() {
			stats.WithText++
		}
	}
	return stats, nil
}
