package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/cognicore/txthistory/internal/app"
	"github.com/cognicore/txthistory/internal/archive"
)

func main() {
	var (
		configPath = flag.String("config", "txthistory.yaml", "Config file (optional)")
		dbPath     = flag.String("db", "", "Database path (overrides config)")
		inPath     = flag.String("in", "", "Chat archive JSONL file (required)")
	)
	flag.Parse()

	if *inPath == "" {
		log.Fatal("--in required")
	}

	cfg, err := app.LoadConfig(*configPath, *dbPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	engine, cleanup, err := app.BuildEngine(ctx, cfg, false)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	stats, err := archive.Import(ctx, *inPath, engine)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Imported %d messages (%d with text) into %s\n", stats.Records, stats.WithText, cfg.Database.Path)
}
