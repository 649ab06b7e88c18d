// Command process standardizes a single catalog file from the command line.
// Oracle provider and cache selection come from the environment, same as the
// server.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/avforge/catalogstd/internal/cache"
	"github.com/avforge/catalogstd/internal/config"
	"github.com/avforge/catalogstd/internal/logging"
	"github.com/avforge/catalogstd/internal/oracle"
	"github.com/avforge/catalogstd/internal/pipeline"
	"github.com/avforge/catalogstd/internal/schema"
)

func main() {
	in := flag.String("in", "", "catalog file to process (csv, xlsx, xls or pdf)")
	out := flag.String("out", "", "output file (default: stdout)")
	format := flag.String("format", "csv", "output format: csv or json")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: process -in catalog.csv [-out result.csv] [-format csv|json]")
		os.Exit(2)
	}
	if *format != "csv" && *format != "json" {
		fmt.Fprintf(os.Stderr, "unknown format %q; use csv or json\n", *format)
		os.Exit(2)
	}

	godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := slog.Default()

	ctx := context.Background()

	var cacheStore cache.Store
	switch cfg.Cache.Backend {
	case "memory":
		cacheStore = cache.NewMemoryStore()
	case "redis":
		cacheStore, err = cache.NewRedisStore(ctx, cfg.Cache.RedisAddr,
			cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.TTL)
	default:
		cacheStore, err = cache.NewFileStore(cfg.Cache.Dir)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "cache error: %v\n", err)
		os.Exit(1)
	}

	var gen oracle.Generator
	if cfg.Oracle.Provider == "gemini" {
		g, err := oracle.NewGeminiGenerator(ctx, cfg.Oracle.APIKey, cfg.Oracle.Model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gemini error: %v\n", err)
			os.Exit(1)
		}
		defer g.Close()
		gen = g
	} else {
		gen = &oracle.MockGenerator{}
	}

	client := oracle.NewClient(gen, cacheStore, log,
		oracle.WithMaxAttempts(cfg.Oracle.MaxAttempts))
	processor := pipeline.NewProcessor(client, log)

	outcome, err := processor.ProcessCatalog(ctx, *in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "processing error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprint(os.Stderr, pipeline.Summary(outcome.Report))

	dst := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "output error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		dst = f
	}

	if *format == "json" {
		enc := json.NewEncoder(dst)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome.Records); err != nil {
			fmt.Fprintf(os.Stderr, "output error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cw := csv.NewWriter(dst)
	cw.Write(schema.Fields)
	row := make([]string, len(schema.Fields))
	for _, rec := range outcome.Records {
		for i, field := range schema.Fields {
			row[i] = cell(rec[field])
		}
		cw.Write(row)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "output error: %v\n", err)
		os.Exit(1)
	}
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}
