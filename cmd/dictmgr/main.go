package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kerem-kaynak/japanese-lookup/internal/app"
	"github.com/kerem-kaynak/japanese-lookup/internal/config"
	"github.com/kerem-kaynak/japanese-lookup/pkg/term"
	"github.com/kerem-kaynak/japanese-lookup/pkg/yomitan"
)

func main() {
	if len(os.Args) < 3 {
		printUsage()
		os.Exit(1)
	}

	storeDir := os.Args[1]
	command := os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Store.Dir = storeDir
	cfg.Store.Memory = false

	ctx := context.Background()
	c, err := app.Build(ctx, cfg, app.NewLogger(cfg.Log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	switch command {
	case "import":
		if len(os.Args) < 4 {
			fmt.Println("Error: import requires at least one archive")
			os.Exit(1)
		}
		mode := yomitan.ModeSkipExisting
		paths := os.Args[3:]
		if paths[0] == "--refresh" {
			mode = yomitan.ModeRefresh
			paths = paths[1:]
		}
		im := yomitan.NewImporter(c.Store,
			yomitan.WithMode(mode),
			yomitan.WithProgress(progressPrinter()),
		)
		for _, path := range paths {
			res, err := im.ImportFile(ctx, path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "\nError importing '%s': %v\n", path, err)
				os.Exit(1)
			}
			fmt.Printf("%s: %s (revision %s), %s terms, %s tags in %v\n",
				res.Status, res.Title, res.Revision,
				humanize.Comma(int64(res.Terms)), humanize.Comma(int64(res.Tags)),
				res.Duration.Round(time.Millisecond))
			if res.Cleared {
				fmt.Println("  store was cleared before import")
			}
		}

	case "clear":
		if err := c.Store.Clear(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing store: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Store cleared")

	case "contains":
		if len(os.Args) < 4 {
			fmt.Println("Error: contains requires a key")
			os.Exit(1)
		}
		key := os.Args[3]
		ok, err := c.Store.Contains(ctx, key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if ok {
			fmt.Printf("'%s' exists in store\n", key)
		} else {
			fmt.Printf("'%s' NOT in store\n", key)
			os.Exit(1)
		}

	case "dictionaries":
		dicts, err := c.Store.Dictionaries(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, d := range dicts {
			fmt.Printf("%s\trevision %s\tformat %d\n", d.Title, d.Revision, d.Format)
		}

	case "tags":
		tags, err := c.Store.Tags(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, t := range tags {
			fmt.Printf("%-12s %-12s %s\n", t.Name, t.Category, t.Notes)
		}

	case "search":
		if len(os.Args) < 4 {
			fmt.Println("Error: search requires a word")
			os.Exit(1)
		}
		entries, err := c.Store.SearchGlossary(ctx, os.Args[3])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, e := range entries {
			fmt.Printf("%s [%s] %s\n", e.Headword(), e.Reading, glossLine(e))
		}

	case "stats":
		st, err := c.Store.Stats(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Store: %s\n", storeDir)
		fmt.Printf("Dictionaries: %d\n", len(st.Titles))
		fmt.Printf("Terms: %s\n", humanize.Comma(int64(st.Terms)))
		fmt.Printf("Tags: %s\n", humanize.Comma(int64(st.Tags)))
		fmt.Printf("Index keys: %s\n", humanize.Comma(int64(st.Keys)))
		fmt.Printf("Size: %s\n", humanize.Bytes(uint64(st.Size)))

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func progressPrinter() func(done, total int) {
	return func(done, total int) {
		fmt.Printf("\r  reading %d/%d", done, total)
		if done == total {
			fmt.Println()
		}
	}
}

func glossLine(e term.Entry) string {
	parts := make([]string, 0, len(e.Glossary))
	for _, g := range e.Glossary {
		parts = append(parts, g.PlainText())
	}
	return strings.Join(parts, "; ")
}

func printUsage() {
	fmt.Println("Usage: dictmgr <store_dir> <command> [args...]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  import [--refresh] <archive.zip> [...]  Import Yomitan dictionaries")
	fmt.Println("  clear                                   Remove all dictionaries")
	fmt.Println("  contains <key>                          Check if an expression or reading exists")
	fmt.Println("  dictionaries                            List imported dictionaries")
	fmt.Println("  tags                                    List tag definitions")
	fmt.Println("  search <word>                           Find entries by English definition word")
	fmt.Println("  stats                                   Show store statistics")
}
