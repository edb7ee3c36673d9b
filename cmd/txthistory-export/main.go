package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/cognicore/txthistory/internal/app"
	"github.com/cognicore/txthistory/pkg/txthistory"
	"github.com/cognicore/txthistory/pkg/txthistory/config"
	"github.com/cognicore/txthistory/pkg/txthistory/export"
)

func main() {
	var (
		configPath = flag.String("config", "txthistory.yaml", "Config file (optional)")
		dbPath     = flag.String("db", "", "Database path (overrides config)")
		contact    = flag.String("contact", "", "Conversation to export (required)")
		start      = flag.String("start", "", "Start date YYYY-MM-DD")
		end        = flag.String("end", "", "End date YYYY-MM-DD, inclusive")
		size       = flag.String("size", "", "Chunk size budget, e.g. 5MiB")
		lines      = flag.Int("lines", 0, "Messages per chunk")
		formats    = flag.String("format", "", "Comma-separated formats: txt,csv,json or all (defaults to export.default_format)")
		outDir     = flag.String("out", "", "Output directory (defaults to export.output_directory)")
	)
	flag.Parse()

	if *contact == "" {
		log.Fatal("--contact required")
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

	m, err := run(ctx, engine, cfg.Export, options{
		contact: *contact,
		start:   *start,
		end:     *end,
		size:    *size,
		lines:   *lines,
		formats: *formats,
		outDir:  *outDir,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(m.Summary())
	for _, f := range m.Files {
		fmt.Printf("  %s (%d messages)\n", f.Path, f.Entries)
	}
}

type options struct {
	contact, start, end string
	size                string
	lines               int
	formats             string
	outDir              string
}

func run(ctx context.Context, engine *txthistory.Engine, cfg config.Export, opts options) (export.Manifest, error) {
	r, err := app.ParseDateRange(opts.start, opts.end)
	if err != nil {
		return export.Manifest{}, err
	}
	strategy, err := app.Strategy(opts.size, opts.lines, cfg)
	if err != nil {
		return export.Manifest{}, err
	}
	if opts.formats == "" {
		opts.formats = cfg.DefaultFormat
	}
	formats, err := export.ParseFormats(opts.formats)
	if err != nil {
		return export.Manifest{}, err
	}
	if opts.outDir == "" {
		opts.outDir = cfg.OutputDirectory
	}

	chunks, err := engine.Chunks(ctx, opts.contact, r, strategy)
	if err != nil {
		return export.Manifest{}, err
	}
	if len(chunks) == 0 {
		return export.Manifest{}, fmt.Errorf("no messages for %s in the selected range", opts.contact)
	}

	return export.WriteRun(ctx, opts.outDir, chunks, formats...)
}
