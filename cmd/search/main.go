package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"bookharvest/config"
	"bookharvest/harvest"
	"bookharvest/models"
	"bookharvest/output"
	"bookharvest/sites"
)

func main() {
	site := flag.String("site", "", "Target site: "+strings.Join(sites.IDs(), ", "))
	query := flag.String("query", "", "Book title or keywords")
	isbn := flag.String("isbn", "", "Optional ISBN (used preferentially when well-formed)")
	author := flag.String("author", "", "Optional author")
	limit := flag.Int("limit", config.DefaultConfig().ResultLimit, "Maximum candidates to return")
	outFile := flag.String("output", "", "Optional output file")
	format := flag.String("format", "csv", "Output format when -output is set: csv or json")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if *site == "" || *query == "" {
		fmt.Fprintln(os.Stderr, "usage: search -site <site> -query <title> [-isbn ...] [-author ...]")
		os.Exit(2)
	}

	cfg := config.DefaultConfig()
	cfg.ResultLimit = *limit
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	harvester, err := harvest.New(cfg)
	if err != nil {
		slog.Error("initialising harvester", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	task := models.SearchTask{Site: *site, Query: *query, ISBN: *isbn, Author: *author}
	candidates, err := harvester.Harvest(ctx, task)
	if err != nil {
		slog.Error("harvest rejected", slog.Any("error", err))
		os.Exit(1)
	}

	printCandidates(candidates)

	if *outFile != "" {
		writer, err := output.NewWriter(strings.ToLower(*format), *outFile)
		if err != nil {
			slog.Error("creating writer", slog.Any("error", err))
			os.Exit(1)
		}
		if err := writer.Write(candidates); err != nil {
			slog.Error("writing results", slog.Any("error", err))
			os.Exit(1)
		}
		if err := writer.Close(); err != nil {
			slog.Error("closing writer", slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("results written", slog.String("file", *outFile), slog.Int("count", len(candidates)))
	}
}

func printCandidates(candidates []models.Candidate) {
	if len(candidates) == 0 {
		fmt.Println("no results")
		return
	}
	for i, c := range candidates {
		fmt.Printf("%d. [%d] %s (%s)\n", i+1, c.Relevance, c.Title, c.Site)
		fmt.Printf("   detail:   %s\n", c.DetailURL)
		if c.DownloadURL != "" {
			fmt.Printf("   download: %s\n", c.DownloadURL)
		}
	}
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelWarn)
	}

	opts := &slog.HandlerOptions{Level: level}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), level
}
