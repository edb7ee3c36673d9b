package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/cognicore/txthistory/internal/app"
	"github.com/cognicore/txthistory/pkg/txthistory"
	"github.com/cognicore/txthistory/pkg/txthistory/config"
)

func main() {
	var (
		configPath = flag.String("config", "txthistory.yaml", "Config file (optional)")
		dbPath     = flag.String("db", "", "Database path (overrides config)")
		version    = flag.String("version", "", "Processing version (defaults to nlp.version)")
		contact    = flag.String("contact", "", "Only analyze this conversation")
		start      = flag.String("start", "", "Start date YYYY-MM-DD (with -contact)")
		end        = flag.String("end", "", "End date YYYY-MM-DD, inclusive (with -contact)")
		batch      = flag.Int("batch", 0, "Batch size (defaults to nlp.batch_size)")
		showStats  = flag.Bool("stats", false, "Print store statistics and exit")
		report     = flag.Bool("report", false, "Print token, phrase and sentiment report for -version and exit")
		topN       = flag.Int("top", 10, "Rows per report section")
		verbose    = flag.Bool("v", false, "Log batch progress")
	)
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath, *dbPath)
	if err != nil {
		log.Fatal(err)
	}
	if *version == "" {
		*version = cfg.NLP.Version
	}
	if err := config.ValidateVersion(*version); err != nil {
		log.Fatal(err)
	}
	if *batch <= 0 {
		*batch = cfg.NLP.BatchSize
	}
	if *contact == "" && (*start != "" || *end != "") {
		log.Fatal("--start/--end require --contact")
	}

	ctx := context.Background()
	engine, cleanup, err := app.BuildEngine(ctx, cfg, *verbose)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	if *showStats {
		if err := printStats(ctx, engine); err != nil {
			log.Fatal(err)
		}
		return
	}
	if *report {
		if err := printReport(ctx, engine, *version, *topN); err != nil {
			log.Fatal(err)
		}
		return
	}

	var res txthistory.BatchResult
	if *contact != "" {
		res, err = analyzeConversation(ctx, engine, *contact, *start, *end, *version, *batch)
	} else {
		res, err = engine.AnalyzePending(ctx, *version, *batch)
	}
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Version %s: %d analyzed, %d already done, %d without text, %d missing\n",
		*version, res.Created, res.Existing, res.SkippedNoText, res.Missing)
}

func analyzeConversation(ctx context.Context, engine *txthistory.Engine, contact, start, end, version string, batch int) (txthistory.BatchResult, error) {
	r, err := app.ParseDateRange(start, end)
	if err != nil {
		return txthistory.BatchResult{}, err
	}
	msgs, err := engine.Conversation(ctx, contact, r)
	if err != nil {
		return txthistory.BatchResult{}, fmt.Errorf("load conversation: %w", err)
	}

	var total txthistory.BatchResult
	for i := 0; i < len(msgs); i += batch {
		j := min(i+batch, len(msgs))
		ids := make([]int64, 0, j-i)
		for _, m := range msgs[i:j] {
			ids = append(ids, m.ID)
		}
		res, err := engine.AnalyzeBatch(ctx, ids, version)
		total.Created += res.Created
		total.Existing += res.Existing
		total.SkippedNoText += res.SkippedNoText
		total.Missing += res.Missing
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func printStats(ctx context.Context, engine *txthistory.Engine) error {
	stats, err := engine.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Messages:           %d\n", stats.Messages)
	fmt.Printf("Messages with text: %d\n", stats.MessagesWithText)

	versions := make([]string, 0, len(stats.Analyses))
	for v := range stats.Analyses {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	for _, v := range versions {
		fmt.Printf("Analyses %-10s %d\n", v+":", stats.Analyses[v])
	}
	return nil
}

func printReport(ctx context.Context, engine *txthistory.Engine, version string, limit int) error {
	stats, err := engine.Report(ctx, version)
	if err != nil {
		return err
	}

	fmt.Printf("Version %s: %d analyzed messages\n", version, stats.TotalMessages)
	s := stats.Sentiment
	if s.Scored > 0 {
		fmt.Printf("Sentiment: mean %.3f, min %.2f, max %.2f (%d positive, %d negative, %d neutral)\n",
			s.Mean, s.Min, s.Max, s.Positive, s.Negative, s.Neutral)
	}

	fmt.Println("\nLanguages:")
	for _, c := range stats.TopLanguages() {
		fmt.Printf("  %-6s %d\n", c.Key, c.Count)
	}
	fmt.Println("\nTop tokens:")
	for _, c := range stats.TopTokens(limit) {
		fmt.Printf("  %-20s %d\n", c.Key, c.Count)
	}
	fmt.Println("\nTop entities:")
	for _, c := range stats.TopEntities(limit) {
		fmt.Printf("  %-20s %d\n", c.Key, c.Count)
	}
	fmt.Println("\nRecurring phrases:")
	for _, p := range stats.TopPairs(limit, 0) {
		fmt.Printf("  %-30s freq=%d pmi=%.2f\n", p.A+" "+p.B, p.BigramFreq, p.PMI)
	}
	return nil
}
