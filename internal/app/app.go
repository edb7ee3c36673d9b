// Package app wires configuration, storage and the analysis engine for the CLIs.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cognicore/txthistory/pkg/txthistory"
	"github.com/cognicore/txthistory/pkg/txthistory/cache"
	"github.com/cognicore/txthistory/pkg/txthistory/chunk"
	"github.com/cognicore/txthistory/pkg/txthistory/config"
	"github.com/cognicore/txthistory/pkg/txthistory/internalerr"
	"github.com/cognicore/txthistory/pkg/txthistory/store"
	"github.com/cognicore/txthistory/pkg/txthistory/store/sqlite"
)

// DateLayout is the format of -start and -end flags.
const DateLayout = "2006-01-02"

// LoadConfig loads the application config and applies a -db override.
func LoadConfig(path, dbPath string) (config.AppConfig, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

// BuildEngine opens the store and constructs the engine described by cfg.
// verbose routes batch progress to stderr.
func BuildEngine(ctx context.Context, cfg config.AppConfig, verbose bool) (*txthistory.Engine, func(), error) {
	loader := config.Loader{NLP: cfg.NLP}
	components, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load components: %w", err)
	}

	mc, err := cache.New(cfg.Cache.Size)
	if err != nil {
		return nil, nil, err
	}

	st, err := sqlite.OpenSQLite(ctx, cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	var logger *log.Logger
	if verbose {
		logger = log.New(os.Stderr, "txthistory: ", log.LstdFlags)
	}

	engine := txthistory.New(txthistory.Options{
		Store:    st,
		Pipeline: components.Pipeline,
		Cache:    mc,
		Logger:   logger,
	})

	cleanup := func() {
		engine.Close()
	}

	return engine, cleanup, nil
}

// ParseDateRange parses inclusive YYYY-MM-DD bounds in the local time zone.
// Either bound may be empty.
func ParseDateRange(start, end string) (store.DateRange, error) {
	var r store.DateRange
	if start != "" {
		t, err := time.ParseInLocation(DateLayout, start, time.Local)
		if err != nil {
			return r, fmt.Errorf("%w: start date %q: %v", internalerr.ErrInvalidInput, start, err)
		}
		r.Start = t
	}
	if end != "" {
		t, err := time.ParseInLocation(DateLayout, end, time.Local)
		if err != nil {
			return r, fmt.Errorf("%w: end date %q: %v", internalerr.ErrInvalidInput, end, err)
		}
		r.End = t.AddDate(0, 0, 1)
	}
	if !r.Start.IsZero() && !r.End.IsZero() && !r.Start.Before(r.End) {
		return r, fmt.Errorf("%w: start date %s is after end date %s", internalerr.ErrInvalidInput, start, end)
	}
	return r, nil
}

// Strategy picks the chunking strategy from flags, falling back to cfg.
// size and lines are mutually exclusive.
func Strategy(size string, lines int, cfg config.Export) (chunk.Strategy, error) {
	if lines < 0 {
		return chunk.Strategy{}, fmt.Errorf("%w: -lines must be positive, got %d", internalerr.ErrInvalidInput, lines)
	}
	if size != "" && lines > 0 {
		return chunk.Strategy{}, fmt.Errorf("%w: -size and -lines are mutually exclusive", internalerr.ErrInvalidInput)
	}
	if lines > 0 {
		return chunk.ByCount(lines), nil
	}
	if strings.TrimSpace(size) != "" {
		cfg = config.Export{ChunkSize: size}
	}
	n, err := cfg.ChunkBytes()
	if err != nil {
		return chunk.Strategy{}, err
	}
	if n > 0 {
		return chunk.BySize(n), nil
	}
	if cfg.LinesPerChunk > 0 {
		return chunk.ByCount(cfg.LinesPerChunk), nil
	}
	return chunk.Whole(), nil
}
