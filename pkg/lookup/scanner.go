package lookup

import (
	"context"
	"log/slog"

	"github.com/kerem-kaynak/japanese-lookup/pkg/term"
)

// DefaultMaxWindow is the number of runes Scan considers from the start
// offset when the caller passes no window.
const DefaultMaxWindow = 20

// Lookuper resolves one span of text.
type Lookuper interface {
	Lookup(ctx context.Context, text string) ([]term.Entry, error)
}

// Result is a successful scan. Start and Length are rune offsets into the
// scanned text; Text is the matched span.
type Result struct {
	Start   int          `json:"start"`
	Length  int          `json:"length"`
	Text    string       `json:"text"`
	Entries []term.Entry `json:"entries"`
}

// End returns the rune offset just past the match.
func (r Result) End() int { return r.Start + r.Length }

// Scanner finds the longest prefix of a window that has dictionary entries.
type Scanner struct {
	engine    Lookuper
	maxWindow int
	filter    func(rune) bool
	log       *slog.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithMaxWindow sets the window used when Scan is called with maxWindow <= 0.
func WithMaxWindow(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.maxWindow = n
		}
	}
}

// WithScriptFilter sets the first-rune pre-filter. Nil probes every window.
func WithScriptFilter(fn func(rune) bool) ScannerOption {
	return func(s *Scanner) { s.filter = fn }
}

// WithScannerLogger sets the logger. The default is slog.Default().
func WithScannerLogger(l *slog.Logger) ScannerOption {
	return func(s *Scanner) { s.log = l }
}

// NewScanner creates a Scanner over engine.
func NewScanner(engine Lookuper, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		engine:    engine,
		maxWindow: DefaultMaxWindow,
		filter:    IsTargetScript,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan looks up text[start:start+maxWindow] and then ever shorter prefixes
// of it, in runes, and returns the first that has entries. ok is false when
// no prefix matches. Cancelling ctx stops further probes; the error is then
// ctx.Err().
func (s *Scanner) Scan(ctx context.Context, text string, start, maxWindow int) (Result, bool, error) {
	if maxWindow <= 0 {
		maxWindow = s.maxWindow
	}
	runes := []rune(text)
	if start < 0 || start >= len(runes) {
		return Result{}, false, nil
	}
	end := start + maxWindow
	if end > len(runes) {
		end = len(runes)
	}
	window := runes[start:end]

	// Every probe shares the first rune.
	if s.filter != nil && !s.filter(window[0]) {
		return Result{}, false, nil
	}

	for length := len(window); length > 0; length-- {
		if err := ctx.Err(); err != nil {
			return Result{}, false, err
		}
		probe := string(window[:length])
		entries, err := s.engine.Lookup(ctx, probe)
		if err != nil {
			return Result{}, false, err
		}
		if len(entries) > 0 {
			s.log.Debug("scan matched",
				slog.String("text", probe),
				slog.Int("start", start),
				slog.Int("entries", len(entries)),
			)
			return Result{Start: start, Length: length, Text: probe, Entries: entries}, true, nil
		}
	}
	return Result{}, false, nil
}
