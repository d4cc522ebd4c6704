package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"unisync/core/catalog"
	"unisync/core/config"
	"unisync/core/source"
	"unisync/feature/institutions"

	"go.uber.org/zap"
)

func main() {
	code := flag.String("institution", "ualberta", "institution code")
	category := flag.String("category", "faculty", "category to fetch")
	out := flag.String("out", "debug_fetch.json", "output file")
	flag.Parse()

	// Load config
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	cat, err := catalog.ParseCategory(*category)
	if err != nil {
		log.Fatal(err)
	}

	// Build adapters without touching the database
	registry, err := institutions.NewRegistry(cfg.Institutions, zap.NewNop())
	if err != nil {
		log.Fatal(err)
	}
	adapter, err := registry.Lookup(*code)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("=== Fetching %s from %s ===\n", cat, *code)
	batch, err := source.Drain(context.Background(), adapter.Fetch(context.Background(), cat, source.FullHint()))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Records: %d\n", len(batch.Records))
	fmt.Printf("Parse errors: %d\n", len(batch.ParseErrors))
	for i, perr := range batch.ParseErrors {
		if i == 10 {
			fmt.Printf("  ... %d more\n", len(batch.ParseErrors)-i)
			break
		}
		fmt.Printf("  %v\n", perr)
	}

	// Save detailed output
	output := map[string]interface{}{
		"institution": *code,
		"category":    cat,
		"records":     batch.Records,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	if err := os.WriteFile(*out, data, 0644); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("\nDebug complete. Check %s for details.\n", *out)
}
