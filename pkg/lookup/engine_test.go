package lookup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerem-kaynak/japanese-lookup/pkg/deinflect"
	"github.com/kerem-kaynak/japanese-lookup/pkg/term"
	"github.com/kerem-kaynak/japanese-lookup/pkg/termstore"
)

const pastTable = `{
	"past": [
		{"kanaIn": "た", "kanaOut": "る", "rulesIn": [], "rulesOut": ["v1"]}
	]
}`

func pastDeinflector(t testing.TB) *deinflect.Deinflector {
	t.Helper()
	table, err := deinflect.LoadTable(strings.NewReader(pastTable))
	require.NoError(t, err)
	return deinflect.New(table)
}

func entry(expr, reading string, score int, rules []string, gloss ...string) term.Entry {
	e := term.Entry{Expression: expr, Reading: reading, Score: score, Rules: rules}
	for _, g := range gloss {
		e.Glossary = append(e.Glossary, term.Text(g))
	}
	return e
}

func newStore(t testing.TB, batches ...*termstore.Batch) *termstore.Store {
	t.Helper()
	s := termstore.Open("")
	for _, b := range batches {
		status, err := s.Import(context.Background(), b)
		require.NoError(t, err)
		require.Equal(t, termstore.StatusImported, status)
	}
	return s
}

func batch(title string, entries ...term.Entry) *termstore.Batch {
	return &termstore.Batch{Info: term.DictionaryInfo{Title: title, Format: 3}, Terms: entries}
}

func expressionsOf(entries []term.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Expression)
	}
	return out
}

func TestLookup_PastToDictionaryForm(t *testing.T) {
	store := newStore(t, batch("JMdict", entry("見る", "みる", 100, []string{"v1"}, "to see")))
	e := NewEngine(store, pastDeinflector(t))

	got, err := e.Lookup(context.Background(), "見た")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "見る", got[0].Expression)
	assert.Equal(t, 100, got[0].Score)
}

func TestLookupDetailed_Candidate(t *testing.T) {
	store := newStore(t, batch("JMdict", entry("見る", "みる", 100, []string{"v1"}, "to see")))
	e := NewEngine(store, pastDeinflector(t))

	got, err := e.LookupDetailed(context.Background(), "見た")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "見る", got[0].Candidate.Term)
	assert.Equal(t, deinflect.RuleV1, got[0].Candidate.Rules)
	assert.Equal(t, []string{"past"}, got[0].Candidate.Reasons)
}

func TestLookup_DefaultRules(t *testing.T) {
	store := newStore(t, batch("JMdict",
		entry("食べる", "たべる", 90, []string{"v1"}, "to eat"),
		entry("書く", "かく", 80, []string{"v5"}, "to write"),
		entry("高い", "たかい", 70, []string{"adj-i"}, "high", "expensive"),
		entry("勉強", "べんきょう", 60, nil, "study"),
		entry("勉強する", "べんきょうする", 60, []string{"vs"}, "to study"),
	))
	e := NewEngine(store, nil)

	tests := []struct {
		input string
		want  string
	}{
		{"食べさせられた", "食べる"},
		{"書いた", "書く"},
		{"高かった", "高い"},
		{"勉強しました", "勉強する"},
		{"たべたくない", "食べる"},
	}
	for _, tt := range tests {
		got, err := e.Lookup(context.Background(), tt.input)
		require.NoError(t, err, tt.input)
		assert.Contains(t, expressionsOf(got), tt.want, tt.input)
	}
}

func TestLookup_ClassFilter(t *testing.T) {
	store := newStore(t, batch("JMdict",
		entry("見る", "みる", 100, []string{"v5"}, "wrong class"),
		entry("見る", "みる", 50, nil, "no class"),
	))
	e := NewEngine(store, pastDeinflector(t))

	got, err := e.Lookup(context.Background(), "見た")
	require.NoError(t, err)
	assert.Empty(t, got)

	// The unmodified input carries no class constraint.
	got, err = e.Lookup(context.Background(), "見る")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLookup_Dedupe(t *testing.T) {
	same := entry("見る", "みる", 100, []string{"v1"}, "to see")
	store := newStore(t, batch("A", same), batch("B", same))
	e := NewEngine(store, nil)

	got, err := e.Lookup(context.Background(), "見る")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Dictionary)

	// Reached through both expression and reading.
	kana := newStore(t, batch("A", entry("する", "する", 10, []string{"vs"}, "to do")))
	got, err = NewEngine(kana, nil).Lookup(context.Background(), "する")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLookup_Ranking(t *testing.T) {
	store := newStore(t, batch("JMdict",
		entry("みる", "みる", 10, []string{"v1"}, "to try"),
		entry("見る", "みる", 100, []string{"v1"}, "to see"),
		entry("観る", "みる", 50, []string{"v1"}, "to watch"),
		entry("診る", "みる", 50, []string{"v1"}, "to examine"),
	))
	e := NewEngine(store, nil)

	got, err := e.Lookup(context.Background(), "みる")
	require.NoError(t, err)
	assert.Equal(t, []string{"見る", "観る", "診る", "みる"}, expressionsOf(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestLookup_NoMatch(t *testing.T) {
	e := NewEngine(newStore(t), nil)

	for _, input := range []string{"", "hello", "見た", "\x00"} {
		got, err := e.Lookup(context.Background(), input)
		require.NoError(t, err, input)
		assert.Empty(t, got, input)
	}
}

func TestLookup_Normalizes(t *testing.T) {
	store := newStore(t, batch("JMdict", entry("テレビ", "テレビ", 10, nil, "television")))

	got, err := NewEngine(store, nil).Lookup(context.Background(), "ﾃﾚﾋﾞ")
	require.NoError(t, err)
	assert.Equal(t, []string{"テレビ"}, expressionsOf(got))

	got, err = NewEngine(store, nil, WithNormalizer(nil)).Lookup(context.Background(), "ﾃﾚﾋﾞ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLookup_FullWidthHeadword(t *testing.T) {
	store := newStore(t, batch("JMdict",
		entry("Ｔシャツ", "ティーシャツ", 20, nil, "T-shirt"),
		entry("ＣＤ", "シーディー", 10, nil, "compact disc"),
		entry("CD", "シーディー", 5, nil, "certificate of deposit"),
	))
	e := NewEngine(store, nil)
	ctx := context.Background()

	got, err := e.Lookup(ctx, "Ｔシャツ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ｔシャツ"}, expressionsOf(got))

	// The exact form and the width-folded form both match.
	got, err = e.Lookup(ctx, "ＣＤ")
	require.NoError(t, err)
	assert.Equal(t, []string{"ＣＤ", "CD"}, expressionsOf(got))

	got, err = e.Lookup(ctx, "CD")
	require.NoError(t, err)
	assert.Equal(t, []string{"CD"}, expressionsOf(got))
}

func TestLookup_CacheFollowsGeneration(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	e := NewEngine(store, pastDeinflector(t))

	got, err := e.Lookup(ctx, "見た")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, e.CacheLen())

	_, err = store.Import(ctx, batch("JMdict", entry("見る", "みる", 100, []string{"v1"}, "to see")))
	require.NoError(t, err)

	got, err = e.Lookup(ctx, "見た")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, store.Clear(ctx))
	got, err = e.Lookup(ctx, "見た")
	require.NoError(t, err)
	assert.Empty(t, got)

	e.ClearCache()
	assert.Zero(t, e.CacheLen())
}

func TestLookup_CachedResultIsACopy(t *testing.T) {
	store := newStore(t, batch("JMdict",
		entry("見る", "みる", 100, []string{"v1"}, "to see"),
		entry("観る", "みる", 50, []string{"v1"}, "to watch"),
	))
	e := NewEngine(store, nil)
	ctx := context.Background()

	first, err := e.Lookup(ctx, "みる")
	require.NoError(t, err)
	first[0].Expression = "changed"

	second, err := e.Lookup(ctx, "みる")
	require.NoError(t, err)
	assert.Equal(t, "見る", second[0].Expression)
}

type failingSource struct{ err error }

func (f failingSource) FindByExpression(context.Context, string) ([]term.Entry, error) {
	return nil, f.err
}

func (f failingSource) FindByReading(context.Context, string) ([]term.Entry, error) {
	return nil, f.err
}

func TestLookup_SourceError(t *testing.T) {
	boom := errors.New("boom")
	e := NewEngine(failingSource{err: boom}, nil)

	_, err := e.Lookup(context.Background(), "見た")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, e.CacheLen())
}

func BenchmarkLookup_Cached(b *testing.B) {
	store := newStore(b, batch("JMdict", entry("食べる", "たべる", 90, []string{"v1"}, "to eat")))
	e := NewEngine(store, nil)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Lookup(ctx, "食べさせられなかった")
	}
}

func BenchmarkLookup_Uncached(b *testing.B) {
	store := newStore(b, batch("JMdict", entry("食べる", "たべる", 90, []string{"v1"}, "to eat")))
	e := NewEngine(store, nil, WithCacheSize(0))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Lookup(ctx, "食べさせられなかった")
	}
}
