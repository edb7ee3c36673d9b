package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cognicore/txthistory/internal/app"
	"github.com/cognicore/txthistory/pkg/txthistory/config"
	"github.com/cognicore/txthistory/pkg/txthistory/store"
)

func TestRunExportsChunks(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")

	engine, cleanup, err := app.BuildEngine(ctx, cfg, false)
	if err != nil {
		t.Fatalf("BuildEngine: %v", err)
	}
	defer cleanup()

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		body := strings.Repeat("hi ", i+1)
		if _, err := engine.Ingest(ctx, store.Message{
			GUID:         string(rune('a' + i)),
			Sender:       "alice",
			Conversation: "alice",
			Timestamp:    base.Add(time.Duration(i) * 24 * time.Hour),
			Text:         &body,
		}); err != nil {
			t.Fatal(err)
		}
	}

	out := t.TempDir()
	m, err := run(ctx, engine, cfg.Export, options{
		contact: "alice",
		start:   "2024-03-02",
		end:     "2024-03-04",
		lines:   2,
		formats: "txt,json",
		outDir:  out,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// Three messages in range, two per chunk, two formats.
	if len(m.Files) != 4 {
		t.Fatalf("expected 4 files, got %d", len(m.Files))
	}
	data, err := os.ReadFile(filepath.Join(m.Dir, "chunks_txt", "chunk_1.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "alice, Mar 02, 2024 09:00:00 AM, hi hi \n\n") {
		t.Errorf("chunk_1.txt = %q", data)
	}

	if _, err := run(ctx, engine, cfg.Export, options{contact: "nobody", outDir: out}); err == nil {
		t.Error("expected error for empty conversation")
	}
	if _, err := run(ctx, engine, cfg.Export, options{contact: "alice", formats: "pdf", outDir: out}); err == nil {
		t.Error("expected error for unknown format")
	}
}
