package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kerem-kaynak/japanese-lookup/internal/config"
	"github.com/kerem-kaynak/japanese-lookup/pkg/deinflect"
	"github.com/kerem-kaynak/japanese-lookup/pkg/lookup"
	"github.com/kerem-kaynak/japanese-lookup/pkg/termstore"
	"github.com/kerem-kaynak/japanese-lookup/pkg/yomitan"
)

// Components are the long-lived objects shared by the binaries.
type Components struct {
	Store       *termstore.Store
	Deinflector *deinflect.Deinflector
	Engine      *lookup.Engine
	Scanner     *lookup.Scanner
	Importer    *yomitan.Importer
}

// Build wires the components described by cfg.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Components, error) {
	if log == nil {
		log = slog.Default()
	}

	table, err := loadRules(cfg.Lookup.RulesPath)
	if err != nil {
		return nil, err
	}
	d := deinflect.New(table,
		deinflect.WithMaxCandidates(cfg.Lookup.MaxCandidates),
		deinflect.WithLogger(log),
	)

	dir := cfg.Store.Dir
	if cfg.Store.Memory {
		dir = ""
	}
	store := termstore.Open(dir, termstore.WithLogger(log))
	if cfg.Store.Preload {
		if _, err := store.Stats(ctx); err != nil {
			return nil, err
		}
	}

	engineOpts := []lookup.EngineOption{
		lookup.WithCacheSize(cfg.Lookup.CacheSize),
		lookup.WithLogger(log),
	}
	if cfg.Lookup.RawQueries {
		engineOpts = append(engineOpts, lookup.WithNormalizer(nil))
	}
	engine := lookup.NewEngine(store, d, engineOpts...)

	scanOpts := []lookup.ScannerOption{
		lookup.WithMaxWindow(cfg.Scan.MaxWindow),
		lookup.WithScannerLogger(log),
	}
	if cfg.Scan.ProbeAll {
		scanOpts = append(scanOpts, lookup.WithScriptFilter(nil))
	}

	mode, err := yomitan.ParseMode(strings.ToLower(cfg.Import.Mode))
	if err != nil {
		return nil, err
	}

	return &Components{
		Store:       store,
		Deinflector: d,
		Engine:      engine,
		Scanner:     lookup.NewScanner(engine, scanOpts...),
		Importer:    yomitan.NewImporter(store, yomitan.WithMode(mode), yomitan.WithLogger(log)),
	}, nil
}

// Close releases the store.
func (c *Components) Close() error {
	return c.Store.Close()
}

func loadRules(path string) (*deinflect.Table, error) {
	if path == "" {
		return deinflect.DefaultTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()

	table, err := deinflect.LoadTable(f)
	if err != nil {
		return nil, fmt.Errorf("load rules %s: %w", path, err)
	}
	return table, nil
}
