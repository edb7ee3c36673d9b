package store

import (
	"context"
	"time"
)

// Store is the main interface for persisting messages and their analyses
type Store interface {
	Close() error

	// Messages
	UpsertMessage(ctx context.Context, m Message) (int64, error)
	GetMessage(ctx context.Context, id int64) (Message, error)
	MessagesByConversation(ctx context.Context, conversation string, r DateRange) ([]Message, error)

	// Analyses, at most one per (message, version)
	GetAnalysis(ctx context.Context, messageID int64, version string) (Analysis, bool, error)
	PutAnalysis(ctx context.Context, a Analysis) (Analysis, error)
	DeleteAnalysis(ctx context.Context, messageID int64, version string) error
	AnalysesByVersion(ctx context.Context, version string) ([]Analysis, error)
	UnprocessedMessageIDs(ctx context.Context, version string, limit int) ([]int64, error)

	Stats(ctx context.Context) (Stats, error)
}

// Message represents a stored chat message
type Message struct {
	ID             int64
	GUID           string // archive-level unique id
	Sender         string
	IsFromMe       bool
	Timestamp      time.Time
	Text           *string // nil when the message carries no text
	Conversation   string
	Service        string
	HasAttachments bool
}

// HasText reports whether the message carries body text.
func (m Message) HasText() bool {
	return m.Text != nil
}

// Body returns the message text, or "" when absent.
func (m Message) Body() string {
	if m.Text == nil {
		return ""
	}
	return *m.Text
}

// Entity is an entity mention. Start and End are rune offsets into
// Analysis.ProcessedText.
type Entity struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// Analysis is the annotation record of one message under one processing version
type Analysis struct {
	ID            int64
	MessageID     int64
	ProcessedText string
	Tokens        []string
	StemmedText   string
	Entities      []Entity
	Sentiment     *float64 // nil when not scored
	Language      string   // ISO 639-3, "" when unknown
	Version       string
	ProcessedAt   time.Time
}

// DateRange bounds message timestamps. Start is inclusive, End exclusive;
// a zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && !t.Before(r.End) {
		return false
	}
	return true
}

// Stats summarizes store contents
type Stats struct {
	Messages         int64
	MessagesWithText int64
	Analyses         map[string]int64 // per processing version
}

// CopyStrings returns an independent copy of in.
func CopyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// CopyAnalysis returns a deep copy of a.
func CopyAnalysis(a Analysis) Analysis {
	out := a
	out.Tokens = CopyStrings(a.Tokens)
	out.Entities = make([]Entity, len(a.Entities))
	copy(out.Entities, a.Entities)
	if a.Sentiment != nil {
		s := *a.Sentiment
		out.Sentiment = &s
	}
	return out
}
