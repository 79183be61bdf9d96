// Seed fills the configured storage backend with demo tasks. Run from project
// root: go run ./scripts/seed [count]
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"taskstore/internal/config"
	"taskstore/internal/models"
	"taskstore/internal/storage"
	"taskstore/internal/store"
)

func main() {
	count := 20
	if len(os.Args) > 1 {
		if n, err := strconv.Atoi(os.Args[1]); err == nil && n > 0 {
			count = n
		}
	}

	ctx := context.Background()
	cfg := config.Get()
	backend, err := storage.Open(ctx, cfg.StorageDSN, cfg.StorageKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, "storage backend unavailable:", err)
		os.Exit(1)
	}
	defer backend.Close()

	s := store.New(backend)
	if err := s.Load(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "load failed:", err)
		os.Exit(1)
	}

	priorities := []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}
	for i := 1; i <= count; i++ {
		text := fmt.Sprintf("Demo task %d", i)
		if _, err := s.Add(ctx, text, priorities[i%len(priorities)]); err != nil {
			fmt.Fprintln(os.Stderr, "add failed:", err)
			os.Exit(1)
		}
	}

	stats := s.Stats()
	fmt.Printf("seeded %d tasks (%d total in %s)\n", count, stats.Total, cfg.StorageDSN)
}
