package yomitan

import (
	"archive/zip"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kerem-kaynak/japanese-lookup/pkg/term"
	"github.com/kerem-kaynak/japanese-lookup/pkg/termstore"
)

// Store is the part of the term store the importer writes to.
type Store interface {
	Import(ctx context.Context, b *termstore.Batch) (termstore.Status, error)
	Replace(ctx context.Context, b *termstore.Batch) error
	Dictionary(ctx context.Context, title string) (term.DictionaryInfo, bool, error)
}

// Mode selects how an archive whose title is already imported is handled.
type Mode int

const (
	// ModeSkipExisting skips any archive whose title is present.
	ModeSkipExisting Mode = iota
	// ModeRefresh skips an archive of the same title and revision. A new
	// revision replaces the whole store contents with the archive.
	ModeRefresh
)

func (m Mode) String() string {
	switch m {
	case ModeSkipExisting:
		return "skip-existing"
	case ModeRefresh:
		return "refresh"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "skip-existing", "skip":
		return ModeSkipExisting, nil
	case "refresh":
		return ModeRefresh, nil
	default:
		return 0, fmt.Errorf("unknown import mode %q", s)
	}
}

// Result holds the outcome of one import.
type Result struct {
	Status   termstore.Status
	Title    string
	Revision string
	Terms    int
	Tags     int
	Cleared  bool
	Duration time.Duration
}

// Importer loads archives into a Store.
type Importer struct {
	store    Store
	mode     Mode
	progress func(done, total int)
	log      *slog.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithMode sets the handling of already imported titles.
func WithMode(m Mode) ImporterOption {
	return func(im *Importer) { im.mode = m }
}

// WithProgress registers a callback invoked as archive members are read.
// The final call, with done == total, follows the store import.
func WithProgress(fn func(done, total int)) ImporterOption {
	return func(im *Importer) { im.progress = fn }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) ImporterOption {
	return func(im *Importer) { im.log = l }
}

// NewImporter creates an Importer writing to store.
func NewImporter(store Store, opts ...ImporterOption) *Importer {
	im := &Importer{store: store, log: slog.Default()}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportFile reads the archive at path and imports it.
func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, path, err)
	}
	defer zr.Close()

	var total int
	progress := func(done, n int) {
		// One extra step for the store import.
		total = n + 1
		if im.progress != nil {
			im.progress(done, total)
		}
	}

	start := time.Now()
	b, err := readZip(&zr.Reader, progress)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	im.log.Debug("archive read",
		slog.String("path", path),
		slog.String("title", b.Info.Title),
		slog.Int("terms", len(b.Terms)),
		slog.Duration("duration", time.Since(start)),
	)

	res, err := im.importBatch(ctx, b, start)
	if err == nil && im.progress != nil {
		im.progress(total, total)
	}
	return res, err
}

// Import imports an already parsed batch.
func (im *Importer) Import(ctx context.Context, b *termstore.Batch) (Result, error) {
	return im.importBatch(ctx, b, time.Now())
}

func (im *Importer) importBatch(ctx context.Context, b *termstore.Batch, start time.Time) (Result, error) {
	if b == nil {
		return Result{}, fmt.Errorf("%w: nil batch", termstore.ErrInvalidBatch)
	}
	res := Result{
		Title:    b.Info.Title,
		Revision: b.Info.Revision,
		Terms:    len(b.Terms),
		Tags:     len(b.Tags),
	}

	if im.mode == ModeRefresh {
		prev, ok, err := im.store.Dictionary(ctx, b.Info.Title)
		if err != nil {
			return res, err
		}
		if ok && prev.Revision == b.Info.Revision {
			res.Status = termstore.StatusSkipped
			res.Duration = time.Since(start)
			im.log.Info("dictionary up to date",
				slog.String("title", b.Info.Title),
				slog.String("revision", b.Info.Revision),
			)
			return res, nil
		}
		if ok {
			im.log.Info("dictionary revision changed, replacing store",
				slog.String("title", b.Info.Title),
				slog.String("from", prev.Revision),
				slog.String("to", b.Info.Revision),
			)
			if err := im.store.Replace(ctx, b); err != nil {
				return res, fmt.Errorf("replace %q: %w", b.Info.Title, err)
			}
			res.Status = termstore.StatusImported
			res.Cleared = true
			res.Duration = time.Since(start)
			return res, nil
		}
	}

	status, err := im.store.Import(ctx, b)
	if err != nil {
		return res, fmt.Errorf("import %q: %w", b.Info.Title, err)
	}
	res.Status = status
	res.Duration = time.Since(start)
	return res, nil
}
