// Package termstore holds imported lexicon entries indexed by headword,
// reading and definition words. Each index is a vellum FST mapping a key to
// a list of entry ids. The store is read-mostly: entries arrive in bulk
// batches, one dictionary at a time, and are only ever removed all at once.
package termstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kerem-kaynak/japanese-lookup/pkg/term"
)

var (
	// ErrStoreUnavailable is returned when the backing directory cannot be
	// opened. The next call tries again.
	ErrStoreUnavailable = errors.New("term store unavailable")
	// ErrInvalidBatch is returned for a batch that violates entry invariants.
	ErrInvalidBatch = errors.New("invalid batch")
)

// Status reports the outcome of an Import.
type Status int

const (
	StatusImported Status = iota + 1
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusImported:
		return "imported"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Batch is one dictionary's worth of records.
type Batch struct {
	Info  term.DictionaryInfo
	Terms []term.Entry
	Tags  []term.TagDefinition
}

// Validate checks the batch invariants.
func (b *Batch) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil batch", ErrInvalidBatch)
	}
	if b.Info.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidBatch)
	}
	for i, e := range b.Terms {
		if e.Expression == "" && e.Reading == "" {
			return fmt.Errorf("%w: term %d has neither expression nor reading", ErrInvalidBatch, i)
		}
	}
	return nil
}

// Stats summarizes the store contents.
type Stats struct {
	Titles []string
	Terms  int
	Tags   int
	Keys   int
	// Size is the on-disk size in bytes, or an estimate for memory stores.
	Size int64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store is a keyed, indexed, bulk-loadable term store. Reads may run
// concurrently with each other and with an import; Import and Clear are
// serialized.
type Store struct {
	dir string
	log *slog.Logger

	importMu sync.Mutex

	mu   sync.RWMutex
	snap *snapshot

	generation atomic.Uint64
}

// Open returns a store persisted under dir. An empty dir keeps everything in
// memory. Nothing is read until the first access.
func Open(dir string, opts ...Option) *Store {
	s := &Store{
		dir: dir,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the backing directory, empty for memory stores.
func (s *Store) Dir() string {
	return s.dir
}

// Generation changes every time the store contents change.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}

// init loads the snapshot if needed. Caller must hold s.mu for writing.
func (s *Store) init() error {
	if s.snap != nil {
		return nil
	}
	if s.dir == "" {
		s.snap = emptySnapshot()
		return nil
	}

	start := time.Now()
	snap, err := loadSnapshot(s.dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, s.dir, err)
	}
	s.snap = snap
	s.log.Debug("term store opened",
		slog.String("dir", s.dir),
		slog.Int("terms", len(snap.entries)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// read runs fn against the current snapshot under the read lock.
func (s *Store) read(ctx context.Context, fn func(*snapshot) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	if s.snap == nil {
		s.mu.RUnlock()
		s.mu.Lock()
		err := s.init()
		s.mu.Unlock()
		if err != nil {
			return err
		}
		s.mu.RLock()
	}
	defer s.mu.RUnlock()

	if s.snap == nil {
		// Closed between init and RLock.
		return ErrStoreUnavailable
	}
	return fn(s.snap)
}

// View is a read-only handle on one snapshot of the store. It is valid
// only inside the callback given to Store.View.
type View struct {
	snap       *snapshot
	generation uint64
}

// View runs fn against the current contents. Imports and clears that commit
// while fn runs are not visible to it; they wait until fn returns. fn must
// not call back into the Store.
func (s *Store) View(ctx context.Context, fn func(*View) error) error {
	return s.read(ctx, func(snap *snapshot) error {
		return fn(&View{snap: snap, generation: s.generation.Load()})
	})
}

// Generation is the store generation the view belongs to.
func (v *View) Generation() uint64 {
	return v.generation
}

// FindByExpression returns entries whose expression equals key.
func (v *View) FindByExpression(ctx context.Context, key string) ([]term.Entry, error) {
	return v.find(ctx, v.snap.expression, key)
}

// FindByReading returns entries whose reading equals key.
func (v *View) FindByReading(ctx context.Context, key string) ([]term.Entry, error) {
	return v.find(ctx, v.snap.reading, key)
}

func (v *View) find(ctx context.Context, ix *index, key string) ([]term.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, err := ix.get(key)
	if err != nil {
		return nil, err
	}
	return v.snap.resolve(ids), nil
}

func (s *Store) find(ctx context.Context, pick func(*snapshot) *index, key string) ([]term.Entry, error) {
	var out []term.Entry
	err := s.read(ctx, func(snap *snapshot) error {
		ids, err := pick(snap).get(key)
		if err != nil {
			return err
		}
		out = snap.resolve(ids)
		return nil
	})
	return out, err
}

// FindByExpression returns entries whose expression equals key, in import
// order.
func (s *Store) FindByExpression(ctx context.Context, key string) ([]term.Entry, error) {
	return s.find(ctx, func(snap *snapshot) *index { return snap.expression }, key)
}

// FindByReading returns entries whose reading equals key, in import order.
func (s *Store) FindByReading(ctx context.Context, key string) ([]term.Entry, error) {
	return s.find(ctx, func(snap *snapshot) *index { return snap.reading }, key)
}

// SearchGlossary returns entries whose definitions contain a word with the
// same English stem as word.
func (s *Store) SearchGlossary(ctx context.Context, word string) ([]term.Entry, error) {
	key, ok := GlossKey(word)
	if !ok {
		return nil, nil
	}
	return s.find(ctx, func(snap *snapshot) *index { return snap.glossary }, key)
}

// Contains reports whether any entry has key as expression or reading.
func (s *Store) Contains(ctx context.Context, key string) (bool, error) {
	var found bool
	err := s.read(ctx, func(snap *snapshot) error {
		for _, ix := range []*index{snap.expression, snap.reading} {
			ids, err := ix.get(key)
			if err != nil {
				return err
			}
			if len(ids) > 0 {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

// HasDictionary reports whether a dictionary titled title was imported.
func (s *Store) HasDictionary(ctx context.Context, title string) (bool, error) {
	_, ok, err := s.Dictionary(ctx, title)
	return ok, err
}

// Dictionary returns the metadata of the dictionary titled title.
func (s *Store) Dictionary(ctx context.Context, title string) (term.DictionaryInfo, bool, error) {
	var (
		info term.DictionaryInfo
		ok   bool
	)
	err := s.read(ctx, func(snap *snapshot) error {
		info, ok = snap.dictionary(title)
		return nil
	})
	return info, ok, err
}

// Dictionaries returns the metadata of all imported dictionaries in import
// order.
func (s *Store) Dictionaries(ctx context.Context) ([]term.DictionaryInfo, error) {
	var out []term.DictionaryInfo
	err := s.read(ctx, func(snap *snapshot) error {
		out = append(out, snap.dictionaries...)
		return nil
	})
	return out, err
}

// Tag returns the definition of a tag name.
func (s *Store) Tag(ctx context.Context, name string) (term.TagDefinition, bool, error) {
	var (
		tag term.TagDefinition
		ok  bool
	)
	err := s.read(ctx, func(snap *snapshot) error {
		tag, ok = snap.tag(name)
		return nil
	})
	return tag, ok, err
}

// Tags returns all tag definitions ordered by Order, then Name.
func (s *Store) Tags(ctx context.Context) ([]term.TagDefinition, error) {
	var out []term.TagDefinition
	err := s.read(ctx, func(snap *snapshot) error {
		out = snap.sortedTags()
		return nil
	})
	return out, err
}

// Stats returns a summary of the store.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.read(ctx, func(snap *snapshot) error {
		for _, d := range snap.dictionaries {
			st.Titles = append(st.Titles, d.Title)
		}
		st.Terms = len(snap.entries)
		st.Tags = len(snap.tags)
		st.Keys = snap.expression.keys() + snap.reading.keys()
		st.Size = snap.size
		return nil
	})
	return st, err
}

// Import adds a batch. A batch whose title is already present is skipped
// and reported as StatusSkipped with a nil error. On error the store keeps
// its previous contents.
func (s *Store) Import(ctx context.Context, b *Batch) (Status, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}

	s.importMu.Lock()
	defer s.importMu.Unlock()

	cur, err := s.current(ctx)
	if err != nil {
		return 0, err
	}

	if _, ok := cur.dictionary(b.Info.Title); ok {
		s.log.Info("dictionary already imported",
			slog.String("title", b.Info.Title),
			slog.String("revision", b.Info.Revision),
		)
		return StatusSkipped, nil
	}

	if err := s.apply(ctx, cur, b); err != nil {
		return 0, err
	}
	return StatusImported, nil
}

// Replace swaps the whole store contents for the batch. The previous
// contents stay in place until the new batch is built and committed, so a
// failed Replace leaves the store unchanged.
func (s *Store) Replace(ctx context.Context, b *Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}

	s.importMu.Lock()
	defer s.importMu.Unlock()

	if _, err := s.current(ctx); err != nil {
		return err
	}
	return s.apply(ctx, emptySnapshot(), b)
}

// current returns the loaded snapshot. Caller must hold importMu, which
// keeps it from being swapped.
func (s *Store) current(ctx context.Context) (*snapshot, error) {
	var cur *snapshot
	err := s.read(ctx, func(snap *snapshot) error {
		cur = snap
		return nil
	})
	return cur, err
}

// apply builds base plus b and commits the result.
func (s *Store) apply(ctx context.Context, base *snapshot, b *Batch) error {
	start := time.Now()

	entries := make([]term.Entry, 0, len(base.entries)+len(b.Terms))
	entries = append(entries, base.entries...)
	for _, e := range b.Terms {
		if e.Dictionary == "" {
			e.Dictionary = b.Info.Title
		}
		entries = append(entries, e)
	}

	dicts := append(append([]term.DictionaryInfo(nil), base.dictionaries...), b.Info)

	tags := append([]term.TagDefinition(nil), base.tags...)
	for _, t := range b.Tags {
		if t.Dictionary == "" {
			t.Dictionary = b.Info.Title
		}
		tags = append(tags, t)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	next, err := buildSnapshot(entries, dicts, tags)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if err := s.commit(ctx, next); err != nil {
		return err
	}

	s.log.Info("dictionary imported",
		slog.String("title", b.Info.Title),
		slog.String("revision", b.Info.Revision),
		slog.Int("terms", len(b.Terms)),
		slog.Int("tags", len(b.Tags)),
		slog.Int("total_terms", len(entries)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// Clear removes every entry, tag and dictionary record.
func (s *Store) Clear(ctx context.Context) error {
	s.importMu.Lock()
	defer s.importMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if s.dir != "" {
		if err := clearDir(s.dir); err != nil {
			return fmt.Errorf("clear %s: %w", s.dir, err)
		}
	}

	s.mu.Lock()
	old := s.snap
	s.snap = emptySnapshot()
	s.generation.Add(1)
	s.mu.Unlock()

	if old != nil {
		old.close()
	}
	s.log.Info("term store cleared", slog.String("dir", s.dir))
	return nil
}

// commit persists next, if the store is durable, and swaps it in.
func (s *Store) commit(ctx context.Context, next *snapshot) error {
	if s.dir != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		genDir, err := persist(s.dir, next, nextGeneration(s.dir))
		if err != nil {
			return fmt.Errorf("persist: %w", err)
		}
		next.dir = genDir
		next.size = dirSize(genDir)
	}
	next.fstData = nil

	s.mu.Lock()
	old := s.snap
	s.snap = next
	s.generation.Add(1)
	s.mu.Unlock()

	if old != nil {
		if err := old.close(); err != nil {
			s.log.Warn("close previous snapshot", slog.String("error", err.Error()))
		}
	}
	if s.dir != "" {
		if err := removeStale(s.dir, next.dir); err != nil {
			s.log.Warn("remove stale generations", slog.String("error", err.Error()))
		}
	}
	return nil
}

// Close releases the mapped index files of a durable store. A later access
// reopens it. Memory stores keep their contents.
func (s *Store) Close() error {
	s.importMu.Lock()
	defer s.importMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap == nil || s.dir == "" {
		return nil
	}
	err := s.snap.close()
	s.snap = nil
	return err
}
