package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/walkies/internal/adapters/osmimport"
	"github.com/samirrijal/walkies/internal/adapters/postgres"
	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/pkg/config"
	"github.com/samirrijal/walkies/internal/pkg/logging"
)

const upsertChunk = 500

func main() {
	bboxFlag := flag.String("bbox", "51.28,51.70,-0.51,0.34", "minLat,maxLat,minLng,maxLng; empty keeps everything")
	dryRun := flag.Bool("dry-run", false, "print the parsed spaces as JSON instead of writing them")
	workers := flag.Int("workers", 2, "extracts parsed concurrently")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: ingestor [flags] <extract.osm.pbf>...")
	}

	// Structured logging
	logging.Setup(logging.FromEnv("walkies-ingestor"))

	bbox, err := parseBBox(*bboxFlag)
	if err != nil {
		log.Fatalf("bbox: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	spaces, err := parseAll(ctx, flag.Args(), bbox, *workers)
	if err != nil {
		log.Fatalf("parse: %v", err)
	}
	slog.Info("extracts parsed", "files", flag.NArg(), "spaces", len(spaces), "elapsed", time.Since(start).Round(time.Millisecond))

	if *dryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(spaces); err != nil {
			log.Fatalf("encode: %v", err)
		}
		return
	}

	cfg, err := config.Load("walkies-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	repo := postgres.NewReferenceSpaceRepo(db)
	for i := 0; i < len(spaces); i += upsertChunk {
		end := min(i+upsertChunk, len(spaces))
		if err := repo.UpsertBatch(ctx, spaces[i:end]); err != nil {
			log.Fatalf("upsert %d-%d: %v", i, end, err)
		}
	}
	slog.Info("reference spaces upserted", "count", len(spaces))
}

// parseAll parses every extract concurrently and merges the results in
// argument order.
func parseAll(ctx context.Context, paths []string, bbox osmimport.BBox, workers int) ([]domain.Space, error) {
	results := make([][]domain.Space, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, path := range paths {
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			spaces, err := osmimport.Parse(ctx, f, bbox)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			slog.Info("extract parsed", "file", path, "spaces", len(spaces))

			results[i] = spaces
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.Space
	for _, r := range results {
		all = append(all, r...)
	}
	return osmimport.Dedupe(all), nil
}

func parseBBox(s string) (osmimport.BBox, error) {
	if strings.TrimSpace(s) == "" {
		return osmimport.BBox{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return osmimport.BBox{}, fmt.Errorf("want 4 comma-separated values, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return osmimport.BBox{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		v[i] = f
	}
	return osmimport.BBox{MinLat: v[0], MaxLat: v[1], MinLng: v[2], MaxLng: v[3]}, nil
}
