// Command seedcache fills the result cache from a labelled dataset file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Skufu/glucorisk/internal/cache"
	"github.com/Skufu/glucorisk/internal/config"
	"github.com/Skufu/glucorisk/internal/database"
	"github.com/Skufu/glucorisk/internal/dataset"
	"github.com/Skufu/glucorisk/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "seedcache: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("seedcache", flag.ContinueOnError)
	source := fs.String("dataset", cfg.DatasetPath, "labelled CSV to import")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := logger.Init(cfg.LogLevel, cfg.Production); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	n, total, err := seed(ctx, cfg.Database, *source)
	if err != nil {
		return err
	}
	logger.Info("cache seeded", zap.String("dataset", *source), zap.Int("inserted", n), zap.Int64("total", total))
	return nil
}

// seed inserts the rows of source and returns how many were inserted and how many the
// table now holds.
func seed(ctx context.Context, dbCfg database.Config, source string) (int, int64, error) {
	tbl, err := dataset.Load(source)
	if err != nil {
		return 0, 0, err
	}
	rows, err := cache.RowsFromTable(tbl)
	if err != nil {
		return 0, 0, err
	}

	db, err := database.Open(dbCfg)
	if err != nil {
		return 0, 0, err
	}
	store := cache.NewGormStore(db)
	defer store.Close()

	if err := store.Insert(ctx, rows); err != nil {
		return 0, 0, fmt.Errorf("insert rows: %w", err)
	}
	total, err := store.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	return len(rows), total, nil
}
