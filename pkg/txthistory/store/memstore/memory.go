package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/txthistory/pkg/txthistory/internalerr"
	"github.com/cognicore/txthistory/pkg/txthistory/store"
)

type analysisKey struct {
	messageID int64
	version   string
}

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu             sync.RWMutex
	nextMessageID  int64
	nextAnalysisID int64
	messages       map[int64]store.Message
	guidIndex      map[string]int64
	analyses       map[analysisKey]store.Analysis
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextMessageID:  1,
		nextAnalysisID: 1,
		messages:       make(map[int64]store.Message),
		guidIndex:      make(map[string]int64),
		analyses:       make(map[analysisKey]store.Analysis),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertMessage inserts or updates a message, keyed by GUID.
func (s *Store) UpsertMessage(ctx context.Context, m store.Message) (int64, error) {
	if m.GUID == "" {
		return 0, fmt.Errorf("%w: message guid is required", internalerr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.guidIndex[m.GUID]
	if !ok {
		id = s.nextMessageID
		s.nextMessageID++
		s.guidIndex[m.GUID] = id
	}
	m.ID = id
	s.messages[id] = copyMessage(m)
	return id, nil
}

// GetMessage returns a message by ID.
func (s *Store) GetMessage(ctx context.Context, id int64) (store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.messages[id]; ok {
		return copyMessage(m), nil
	}
	return store.Message{}, fmt.Errorf("message %d: %w", id, internalerr.ErrNotFound)
}

// MessagesByConversation returns the conversation's messages inside r,
// ordered by timestamp then ID.
func (s *Store) MessagesByConversation(ctx context.Context, conversation string, r store.DateRange) ([]store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Message
	for _, m := range s.messages {
		if m.Conversation != conversation || !r.Contains(m.Timestamp) {
			continue
		}
		out = append(out, copyMessage(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetAnalysis returns the analysis of a message under version.
func (s *Store) GetAnalysis(ctx context.Context, messageID int64, version string) (store.Analysis, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.analyses[analysisKey{messageID, version}]
	if !ok {
		return store.Analysis{}, false, nil
	}
	return store.CopyAnalysis(a), true, nil
}

// PutAnalysis stores a new analysis. If one already exists for the same
// message and version it is returned unchanged.
func (s *Store) PutAnalysis(ctx context.Context, a store.Analysis) (store.Analysis, error) {
	if a.Version == "" {
		return store.Analysis{}, fmt.Errorf("%w: analysis version is required", internalerr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[a.MessageID]; !ok {
		return store.Analysis{}, fmt.Errorf("message %d: %w", a.MessageID, internalerr.ErrNotFound)
	}
	key := analysisKey{a.MessageID, a.Version}
	if existing, ok := s.analyses[key]; ok {
		return store.CopyAnalysis(existing), nil
	}

	a.ID = s.nextAnalysisID
	s.nextAnalysisID++
	if a.ProcessedAt.IsZero() {
		a.ProcessedAt = time.Now().UTC()
	}
	s.analyses[key] = store.CopyAnalysis(a)
	return store.CopyAnalysis(a), nil
}

// DeleteAnalysis removes the analysis of a message under version.
func (s *Store) DeleteAnalysis(ctx context.Context, messageID int64, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := analysisKey{messageID, version}
	if _, ok := s.analyses[key]; !ok {
		return fmt.Errorf("analysis %d/%s: %w", messageID, version, internalerr.ErrNotFound)
	}
	delete(s.analyses, key)
	return nil
}

// AnalysesByVersion returns every analysis under version ordered by message ID.
func (s *Store) AnalysesByVersion(ctx context.Context, version string) ([]store.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Analysis
	for key, a := range s.analyses {
		if key.version == version {
			out = append(out, store.CopyAnalysis(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageID < out[j].MessageID })
	return out, nil
}

// UnprocessedMessageIDs lists messages with text that have no analysis under
// version, lowest ID first. limit <= 0 means no limit.
func (s *Store) UnprocessedMessageIDs(ctx context.Context, version string, limit int) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for id, m := range s.messages {
		if !m.HasText() {
			continue
		}
		if _, done := s.analyses[analysisKey{id, version}]; done {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// Stats implements store.Store.
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := store.Stats{
		Messages: int64(len(s.messages)),
		Analyses: make(map[string]int64),
	}
	for _, m := range s.messages {
		if m.HasText() {
			st.MessagesWithText++
		}
	}
	for key := range s.analyses {
		st.Analyses[key.version]++
	}
	return st, nil
}

func copyMessage(m store.Message) store.Message {
	out := m
	if m.Text != nil {
		text := *m.Text
		out.Text = &text
	}
	return out
}
