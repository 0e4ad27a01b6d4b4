package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kerem-kaynak/japanese-lookup/internal/app"
	"github.com/kerem-kaynak/japanese-lookup/internal/config"
	"github.com/kerem-kaynak/japanese-lookup/pkg/lookup"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		fmt.Println("Usage: lookup [text]")
		fmt.Println("       lookup          (interactive mode)")
		fmt.Println()
		fmt.Println("Configuration is read from CONFIG_PATH or ./config.yaml.")
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	c, err := app.Build(ctx, cfg, app.NewLogger(cfg.Log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	// If text provided as argument, scan it from the start and exit
	if len(os.Args) > 1 {
		text := strings.Join(os.Args[1:], " ")
		if err := printScan(ctx, c.Scanner, text); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	st, err := c.Store.Stats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading store: %v\n", err)
		os.Exit(1)
	}

	// Interactive mode
	fmt.Println("Japanese Lookup (interactive mode)")
	fmt.Printf("Store loaded: %d terms from %d dictionaries\n", st.Terms, len(st.Titles))
	fmt.Println("Type text and press Enter. Prefix with @N to start at rune N. Ctrl+C to exit.")
	fmt.Println()

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			break
		}
		line := in.Text()
		if line == "" {
			continue
		}

		start, text := splitOffset(line)
		if !lookup.ContainsTargetScript(text) {
			fmt.Print("  no Japanese text\n\n")
			continue
		}
		res, ok, err := c.Scanner.Scan(ctx, text, start, 0)
		if err != nil {
			fmt.Printf("  error: %v\n\n", err)
			continue
		}
		if !ok {
			fmt.Print("  no match\n\n")
			continue
		}
		output, _ := json.Marshal(res)
		fmt.Printf("  %s\n\n", output)
	}
}

func printScan(ctx context.Context, s *lookup.Scanner, text string) error {
	res, ok, err := s.Scan(ctx, text, 0, 0)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("null")
		return nil
	}
	output, _ := json.Marshal(res)
	fmt.Println(string(output))
	return nil
}

// splitOffset parses an optional "@N " prefix.
func splitOffset(line string) (int, string) {
	if !strings.HasPrefix(line, "@") {
		return 0, line
	}
	head, rest, found := strings.Cut(line[1:], " ")
	if !found {
		return 0, line
	}
	var n int
	if _, err := fmt.Sscanf(head, "%d", &n); err != nil || n < 0 {
		return 0, line
	}
	return n, rest
}
