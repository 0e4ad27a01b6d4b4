package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kerem-kaynak/japanese-lookup/pkg/deinflect"
	"github.com/kerem-kaynak/japanese-lookup/pkg/lookup"
	"github.com/kerem-kaynak/japanese-lookup/pkg/term"
	"github.com/kerem-kaynak/japanese-lookup/pkg/termstore"
	"github.com/kerem-kaynak/japanese-lookup/pkg/yomitan"
)

const (
	iterations = 100000
	warmup     = 1000
	boxWidth   = 62

	// ANSI color codes
	colorReset  = "\033[0m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

var line = strings.Repeat("─", boxWidth)

func main() {
	ctx := context.Background()
	store := termstore.Open("")

	// Load terms
	start := time.Now()
	if len(os.Args) > 1 {
		fmt.Printf("Importing %s... ", os.Args[1])
		if _, err := yomitan.NewImporter(store).ImportFile(ctx, os.Args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Print("Loading built-in sample terms... ")
		if _, err := store.Import(ctx, sampleBatch()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	st, _ := store.Stats(ctx)
	fmt.Printf("done (%d terms in %v)\n", st.Terms, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Iterations: %d (warmup: %d)\n", iterations, warmup)
	fmt.Println("Reference: 1 second = 1,000,000,000 ns")
	fmt.Println()

	d := deinflect.New(nil)
	engine := lookup.NewEngine(store, d)
	scanner := lookup.NewScanner(engine)

	// Test data
	plain := "見る"
	inflected := "食べさせられた"
	sentence := "昨日は友達と映画を見に行って、とても楽しかったです。"

	// Full pipeline benchmarks
	printHeader("SCAN THROUGHPUT")
	bench("Dictionary form", func() { scanner.Scan(ctx, plain, 0, 0) })
	bench("Inflected verb", func() { scanner.Scan(ctx, inflected, 0, 0) })
	bench("Sentence (offset 6)", func() { scanner.Scan(ctx, sentence, 6, 0) })
	printFooter()
	fmt.Println()

	// Component breakdown
	printHeader("COMPONENT BREAKDOWN")

	bench("Store expression lookup", func() {
		store.FindByExpression(ctx, plain)
	})

	bench("Deinflect (plain)", func() {
		d.Deinflect(plain)
	})

	bench("Deinflect (inflected)", func() {
		d.Deinflect(inflected)
	})

	engine.ClearCache()
	engine.Lookup(ctx, inflected)
	bench("Lookup (cache hit)", func() {
		engine.Lookup(ctx, inflected)
	})

	bench("Lookup (cache miss)", func() {
		engine.ClearCache()
		engine.Lookup(ctx, inflected)
	})
	printFooter()
	fmt.Println()

	// Normalizer steps
	printHeader("NORMALIZER STEPS BREAKDOWN")
	norm := lookup.NewNormalizer()
	bench("Normalizer (full)", func() {
		norm.Normalize("ﾃﾚﾋﾞを見る")
	})
	bench("Remove control chars", func() {
		lookup.RemoveControlChars("見る\u200b")
	})
	bench("Fold width", func() {
		lookup.FoldWidth("ﾃﾚﾋﾞ")
	})
	bench("Combine sound marks", func() {
		lookup.CombineSoundMarks("か\u309b")
	})
	bench("NFC compose", func() {
		lookup.NFCCompose("か\u3099")
	})
	printFooter()
}

func sampleBatch() *termstore.Batch {
	gloss := func(s string) []term.Glossary { return []term.Glossary{term.Text(s)} }
	return &termstore.Batch{
		Info: term.DictionaryInfo{Title: "sample", Format: 3, Revision: "1"},
		Terms: []term.Entry{
			{Expression: "見る", Reading: "みる", Rules: []string{"v1"}, Score: 100, Glossary: gloss("to see")},
			{Expression: "食べる", Reading: "たべる", Rules: []string{"v1"}, Score: 90, Glossary: gloss("to eat")},
			{Expression: "行く", Reading: "いく", Rules: []string{"v5"}, Score: 90, Glossary: gloss("to go")},
			{Expression: "楽しい", Reading: "たのしい", Rules: []string{"adj-i"}, Score: 80, Glossary: gloss("enjoyable")},
			{Expression: "映画", Reading: "えいが", Score: 70, Glossary: gloss("movie")},
			{Expression: "友達", Reading: "ともだち", Score: 70, Glossary: gloss("friend")},
			{Expression: "昨日", Reading: "きのう", Score: 60, Glossary: gloss("yesterday")},
		},
	}
}

func bench(name string, fn func()) {
	for i := 0; i < warmup; i++ {
		fn()
	}

	start := time.Now()
	for i := 0; i < iterations; i++ {
		fn()
	}
	elapsed := time.Since(start)

	opsPerSec := float64(iterations) / elapsed.Seconds()
	nsPerOp := float64(elapsed.Nanoseconds()) / float64(iterations)

	// Truncate name if too long
	displayName := name
	if len(displayName) > 26 {
		displayName = displayName[:26]
	}

	// Format with colors - build plain string for padding, colored for display
	plain := fmt.Sprintf("  %-26s %10.0f ops/sec %8.0f ns", displayName, opsPerSec, nsPerOp)
	padded := padLine(plain)

	// Now colorize the padded string
	colored := fmt.Sprintf("  %-26s %s%10.0f%s ops/sec %s%8.0f%s ns",
		displayName,
		colorGreen, opsPerSec, colorReset,
		colorYellow, nsPerOp, colorReset)

	// Calculate how much padding we added
	extraPad := len(padded) - len(plain)
	if extraPad > 0 {
		colored += strings.Repeat(" ", extraPad)
	}

	fmt.Println(colorDim + "│" + colorReset + colored + colorDim + "│" + colorReset)
}

func padLine(content string) string {
	if len(content) >= boxWidth {
		return content[:boxWidth]
	}
	return content + strings.Repeat(" ", boxWidth-len(content))
}

func printHeader(title string) {
	fmt.Println(colorDim + "┌" + line + "┐" + colorReset)
	printTitleRow("  " + title)
	fmt.Println(colorDim + "├" + line + "┤" + colorReset)
}

func printFooter() {
	fmt.Println(colorDim + "└" + line + "┘" + colorReset)
}

func printTitleRow(content string) {
	fmt.Println(colorDim + "│" + colorReset + colorCyan + padLine(content) + colorReset + colorDim + "│" + colorReset)
}
