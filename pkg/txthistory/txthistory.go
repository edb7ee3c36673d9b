// Package txthistory analyzes chat message history and exports it in chunks.
package txthistory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cognicore/txthistory/pkg/txthistory/analytics"
	"github.com/cognicore/txthistory/pkg/txthistory/cache"
	"github.com/cognicore/txthistory/pkg/txthistory/chunk"
	"github.com/cognicore/txthistory/pkg/txthistory/config"
	"github.com/cognicore/txthistory/pkg/txthistory/export"
	"github.com/cognicore/txthistory/pkg/txthistory/ingest"
	"github.com/cognicore/txthistory/pkg/txthistory/internalerr"
	"github.com/cognicore/txthistory/pkg/txthistory/store"
)

// ErrNoText is returned by Analyze for messages without body text.
var ErrNoText = internalerr.ErrNoText

// Engine is the analysis and export facade
type Engine struct {
	store    store.Store
	pipeline *ingest.Pipeline
	cache    *cache.MessageCache
	logger   *log.Logger
	now      func() time.Time
}

// Options configures an Engine instance
type Options struct {
	Store    store.Store
	Pipeline *ingest.Pipeline
	// Cache is optional; without it Conversation always reads the store.
	Cache *cache.MessageCache
	// Logger receives batch progress lines; nil is silent.
	Logger *log.Logger
	// Now stamps new analyses; defaults to time.Now.
	Now func() time.Time
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	e := &Engine{
		store:    opts.Store,
		pipeline: opts.Pipeline,
		cache:    opts.Cache,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if e.pipeline == nil {
		e.pipeline = ingest.NewPipeline(nil, nil, nil, nil)
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Close cleanly shuts down the engine and its store
func (e *Engine) Close() error {
	return e.store.Close()
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

// Ingest stores a message and drops cached slices of its conversation.
func (e *Engine) Ingest(ctx context.Context, m store.Message) (int64, error) {
	id, err := e.store.UpsertMessage(ctx, m)
	if err != nil {
		return 0, err
	}
	if e.cache != nil {
		e.cache.Invalidate(m.Conversation)
	}
	return id, nil
}

// Analyze returns the analysis of a message under version, computing and
// storing it on first use. An existing record is returned unchanged.
func (e *Engine) Analyze(ctx context.Context, messageID int64, version string) (store.Analysis, error) {
	a, _, err := e.analyze(ctx, messageID, version)
	return a, err
}

// analyze reports whether the record was newly created.
func (e *Engine) analyze(ctx context.Context, messageID int64, version string) (store.Analysis, bool, error) {
	if err := config.ValidateVersion(version); err != nil {
		return store.Analysis{}, false, err
	}

	existing, found, err := e.store.GetAnalysis(ctx, messageID, version)
	if err != nil {
		return store.Analysis{}, false, err
	}
	if found {
		return existing, false, nil
	}

	msg, err := e.store.GetMessage(ctx, messageID)
	if err != nil {
		return store.Analysis{}, false, err
	}
	if !msg.HasText() {
		return store.Analysis{}, false, fmt.Errorf("message %d: %w", messageID, ErrNoText)
	}

	processed := e.pipeline.Process(*msg.Text)

	// Convert ingest.Entity to store.Entity
	entities := make([]store.Entity, len(processed.Entities))
	for i, ent := range processed.Entities {
		entities[i] = store.Entity{
			Text:     ent.Text,
			Category: ent.Category,
			Start:    ent.Start,
			End:      ent.End,
		}
	}

	stored, err := e.store.PutAnalysis(ctx, store.Analysis{
		MessageID:     messageID,
		ProcessedText: processed.ProcessedText,
		Tokens:        processed.Tokens,
		StemmedText:   processed.StemmedText,
		Entities:      entities,
		Sentiment:     processed.Sentiment,
		Language:      processed.Language.Code,
		Version:       version,
		ProcessedAt:   e.now().UTC(),
	})
	if err != nil {
		return store.Analysis{}, false, err
	}
	return stored, true, nil
}

// BatchResult is the outcome of AnalyzeBatch
type BatchResult struct {
	// Records holds one record per resolvable message with text, in input order.
	Records       []store.Analysis
	Created       int
	Existing      int
	SkippedNoText int
	Missing       int
}

// AnalyzeBatch analyzes ids in order. Missing messages and messages without
// text are counted and omitted. Any other error aborts the batch; records
// stored before the failure are kept.
func (e *Engine) AnalyzeBatch(ctx context.Context, ids []int64, version string) (BatchResult, error) {
	if err := config.ValidateVersion(version); err != nil {
		return BatchResult{}, err
	}

	var res BatchResult
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		a, created, err := e.analyze(ctx, id, version)
		switch {
		case errors.Is(err, internalerr.ErrNotFound):
			res.Missing++
			continue
		case errors.Is(err, ErrNoText):
			res.SkippedNoText++
			continue
		case err != nil:
			return res, fmt.Errorf("analyze message %d: %w", id, err)
		}

		if created {
			res.Created++
		} else {
			res.Existing++
		}
		res.Records = append(res.Records, a)
	}

	e.logf("analyzed %d messages under %s: %d new, %d existing, %d without text, %d missing",
		len(ids), version, res.Created, res.Existing, res.SkippedNoText, res.Missing)
	return res, nil
}

// AnalyzePending analyzes every message that has text but no record under
// version, batchSize messages at a time.
func (e *Engine) AnalyzePending(ctx context.Context, version string, batchSize int) (BatchResult, error) {
	if batchSize <= 0 {
		return BatchResult{}, fmt.Errorf("%w: batch size must be positive", internalerr.ErrInvalidInput)
	}

	var total BatchResult
	for {
		ids, err := e.store.UnprocessedMessageIDs(ctx, version, batchSize)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}

		res, err := e.AnalyzeBatch(ctx, ids, version)
		total.Created += res.Created
		total.Existing += res.Existing
		total.SkippedNoText += res.SkippedNoText
		total.Missing += res.Missing
		total.Records = append(total.Records, res.Records...)
		if err != nil {
			return total, err
		}
		if res.Created == 0 {
			// Nothing new was stored, so the next query would return the same ids.
			return total, nil
		}
	}
}

// Conversation returns the messages of contact inside r in timestamp order,
// consulting the cache first when one is configured.
func (e *Engine) Conversation(ctx context.Context, contact string, r store.DateRange) ([]store.Message, error) {
	key := cache.NewKey(contact, r)
	if e.cache != nil {
		if msgs, ok := e.cache.Get(key); ok {
			return msgs, nil
		}
	}

	msgs, err := e.store.MessagesByConversation(ctx, contact, r)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Put(key, msgs)
	}
	return msgs, nil
}

// Entries projects messages into export entries. Absent text exports as empty content.
func Entries(msgs []store.Message) []export.Entry {
	out := make([]export.Entry, len(msgs))
	for i, m := range msgs {
		out[i] = export.Entry{
			Sender:    m.Sender,
			Timestamp: m.Timestamp,
			Content:   m.Body(),
		}
	}
	return out
}

// EntrySize estimates the serialized size of an entry for size-based chunking.
func EntrySize(e export.Entry) int {
	return chunk.EstimateSize(e.Sender, e.Content)
}

// Chunks loads a conversation and splits it with strategy.
func (e *Engine) Chunks(ctx context.Context, contact string, r store.DateRange, strategy chunk.Strategy) ([]chunk.Chunk[export.Entry], error) {
	msgs, err := e.Conversation(ctx, contact, r)
	if err != nil {
		return nil, err
	}
	return chunk.Split(Entries(msgs), strategy, EntrySize)
}

// Stats summarizes the underlying store.
func (e *Engine) Stats(ctx context.Context) (store.Stats, error) {
	return e.store.Stats(ctx)
}

// Report aggregates every analysis stored under version.
func (e *Engine) Report(ctx context.Context, version string) (analytics.Stats, error) {
	if err := config.ValidateVersion(version); err != nil {
		return analytics.Stats{}, err
	}
	recs, err := e.store.AnalysesByVersion(ctx, version)
	if err != nil {
		return analytics.Stats{}, fmt.Errorf("load analyses: %w", err)
	}
	return analytics.FromAnalyses(recs), nil
}
