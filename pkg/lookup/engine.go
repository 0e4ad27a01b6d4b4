// Package lookup resolves text to dictionary entries: it deinflects a query,
// retrieves matching entries, filters them by conjugation class, removes
// duplicates and ranks them. Scanner finds the longest span of a text that
// resolves to at least one entry.
package lookup

import (
	"context"
	"log/slog"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kerem-kaynak/japanese-lookup/pkg/deinflect"
	"github.com/kerem-kaynak/japanese-lookup/pkg/term"
	"github.com/kerem-kaynak/japanese-lookup/pkg/termstore"
)

// DefaultCacheSize is the number of query results an Engine keeps.
const DefaultCacheSize = 10_000

// Source retrieves entries by exact key.
type Source interface {
	FindByExpression(ctx context.Context, key string) ([]term.Entry, error)
	FindByReading(ctx context.Context, key string) ([]term.Entry, error)
}

// Generational is implemented by sources whose contents change only when
// the generation number does. Results from such sources are cached, keyed
// by the raw query text.
type Generational interface {
	Generation() uint64
}

// viewer is implemented by sources that can pin one consistent snapshot for
// the duration of a lookup.
type viewer interface {
	View(ctx context.Context, fn func(*termstore.View) error) error
}

// Match is an accepted entry together with the candidate that reached it.
type Match struct {
	Entry     term.Entry
	Candidate deinflect.Candidate
}

type cacheKey struct {
	generation uint64
	text       string
}

// Engine answers lookups against a Source.
type Engine struct {
	source      Source
	deinflector *deinflect.Deinflector
	normalizer  *Normalizer
	cacheSize   int
	cache       *lru.Cache[cacheKey, []Match]
	log         *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCacheSize sets the result cache capacity. Zero disables caching.
func WithCacheSize(n int) EngineOption {
	return func(e *Engine) { e.cacheSize = n }
}

// WithNormalizer sets the query normalizer. Nil disables normalization.
func WithNormalizer(n *Normalizer) EngineOption {
	return func(e *Engine) { e.normalizer = n }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an Engine. A nil deinflector uses the default table.
func NewEngine(source Source, d *deinflect.Deinflector, opts ...EngineOption) *Engine {
	if d == nil {
		d = deinflect.New(nil)
	}
	e := &Engine{
		source:      source,
		deinflector: d,
		normalizer:  NewNormalizer(),
		cacheSize:   DefaultCacheSize,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, ok := source.(Generational); ok && e.cacheSize > 0 {
		e.cache, _ = lru.New[cacheKey, []Match](e.cacheSize)
	}
	return e
}

// Lookup returns the entries text resolves to, best first. No match is an
// empty result, not an error; only store failures are returned.
func (e *Engine) Lookup(ctx context.Context, text string) ([]term.Entry, error) {
	matches, err := e.LookupDetailed(ctx, text)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	out := make([]term.Entry, len(matches))
	for i, m := range matches {
		out[i] = m.Entry
	}
	return out, nil
}

// LookupDetailed is Lookup with the deinflection candidate of each entry.
func (e *Engine) LookupDetailed(ctx context.Context, text string) ([]Match, error) {
	queries := e.queries(text)
	if len(queries) == 0 {
		return nil, nil
	}

	if v, ok := e.source.(viewer); ok {
		var out []Match
		err := v.View(ctx, func(view *termstore.View) error {
			var err error
			out, err = e.cached(ctx, view, view.Generation(), text, queries)
			return err
		})
		return out, err
	}

	var gen uint64
	if g, ok := e.source.(Generational); ok {
		gen = g.Generation()
	}
	return e.cached(ctx, e.source, gen, text, queries)
}

// queries returns the forms of text to deinflect: the text as given, so
// stored headwords match exactly, then its normalized form if different.
func (e *Engine) queries(text string) []string {
	var out []string
	if text != "" {
		out = append(out, text)
	}
	if n := e.normalizer.Normalize(text); n != "" && n != text {
		out = append(out, n)
	}
	return out
}

func (e *Engine) cached(ctx context.Context, src Source, gen uint64, text string, queries []string) ([]Match, error) {
	key := cacheKey{generation: gen, text: text}
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return append([]Match(nil), cached...), nil
		}
	}

	matches, err := e.resolve(ctx, src, queries)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Add(key, matches)
		return append([]Match(nil), matches...), nil
	}
	return matches, nil
}

func (e *Engine) resolve(ctx context.Context, src Source, queries []string) ([]Match, error) {
	var candidates []deinflect.Candidate
	for _, q := range queries {
		candidates = append(candidates, e.deinflector.Deinflect(q)...)
	}

	var matches []Match
	seen := make(map[string]struct{})
	for _, c := range candidates {
		byExpr, err := src.FindByExpression(ctx, c.Term)
		if err != nil {
			return nil, err
		}
		byReading, err := src.FindByReading(ctx, c.Term)
		if err != nil {
			return nil, err
		}

		for _, group := range [][]term.Entry{byExpr, byReading} {
			for _, entry := range group {
				if !e.compatible(c, entry) {
					continue
				}
				sig := entry.Signature()
				if _, dup := seen[sig]; dup {
					continue
				}
				seen[sig] = struct{}{}
				matches = append(matches, Match{Entry: entry, Candidate: c})
			}
		}
	}

	// Equal scores keep candidate order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Entry.Score > matches[j].Entry.Score
	})

	e.log.Debug("lookup",
		slog.Any("queries", queries),
		slog.Int("candidates", len(candidates)),
		slog.Int("matches", len(matches)),
	)
	return matches, nil
}

// compatible reports whether entry belongs to a class the candidate's
// deinflection path requires. The identity candidate accepts anything.
func (e *Engine) compatible(c deinflect.Candidate, entry term.Entry) bool {
	if c.Rules == 0 {
		return true
	}
	return c.Rules.Intersects(e.deinflector.RuleFlags(entry.Rules))
}

// CacheLen returns the number of cached results.
func (e *Engine) CacheLen() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.Len()
}

// ClearCache drops all cached results.
func (e *Engine) ClearCache() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

// Deinflector returns the engine's deinflector.
func (e *Engine) Deinflector() *deinflect.Deinflector {
	return e.deinflector
}
