package termstore

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blevesearch/vellum"
	"github.com/edsrzf/mmap-go"

	"github.com/kerem-kaynak/japanese-lookup/pkg/term"
)

const (
	fileCurrent    = "CURRENT"
	fileEntries    = "entries.gob"
	fileExpression = "expression.fst"
	fileReading    = "reading.fst"
	fileGlossary   = "glossary.fst"

	generationPrefix = "gen-"
	formatVersion    = 1
)

// record is the gob-encoded part of a persisted snapshot.
type record struct {
	Version      int
	Entries      []term.Entry
	Dictionaries []term.DictionaryInfo
	Tags         []term.TagDefinition
	Postings     map[string][][]uint32
}

// loadSnapshot opens the generation named by dir/CURRENT. A directory
// without CURRENT is an empty store.
func loadSnapshot(dir string) (*snapshot, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	current, err := os.ReadFile(filepath.Join(dir, fileCurrent))
	if errors.Is(err, fs.ErrNotExist) {
		return emptySnapshot(), nil
	}
	if err != nil {
		return nil, err
	}

	genDir := filepath.Join(dir, strings.TrimSpace(string(current)))
	rec, err := readRecord(filepath.Join(genDir, fileEntries))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileEntries, err)
	}
	if rec.Version != formatVersion {
		return nil, fmt.Errorf("unsupported store format %d", rec.Version)
	}

	snap := &snapshot{
		entries:      rec.Entries,
		dictionaries: rec.Dictionaries,
		tags:         rec.Tags,
		dir:          genDir,
	}

	for _, f := range []struct {
		name string
		dst  **index
	}{
		{fileExpression, &snap.expression},
		{fileReading, &snap.reading},
		{fileGlossary, &snap.glossary},
	} {
		ix, err := openIndex(filepath.Join(genDir, f.name), rec.Postings[f.name])
		if err != nil {
			snap.close()
			return nil, fmt.Errorf("open %s: %w", f.name, err)
		}
		*f.dst = ix
	}

	snap.size = dirSize(genDir)
	return snap, nil
}

// readRecord maps the entry block into memory and decodes it. The mapping
// is released on return; decoded entries do not refer to it.
func readRecord(path string) (*record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer m.Unmap()

	var rec record
	if err := gob.NewDecoder(bytes.NewReader(m)).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func openIndex(path string, postings [][]uint32) (*index, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return &index{}, nil
	}
	fst, err := vellum.Open(path)
	if err != nil {
		return nil, err
	}
	return &index{fst: fst, postings: postings}, nil
}

// persist writes snap into a fresh generation directory and then points
// CURRENT at it. A failure before the final rename leaves the previous
// generation in place.
func persist(dir string, snap *snapshot, gen uint64) (string, error) {
	name := generationPrefix + strconv.FormatUint(gen, 10)
	genDir := filepath.Join(dir, name)

	if err := os.RemoveAll(genDir); err != nil {
		return "", err
	}
	if err := os.MkdirAll(genDir, 0o755); err != nil {
		return "", err
	}

	cleanup := func(err error) (string, error) {
		os.RemoveAll(genDir)
		return "", err
	}

	rec := record{
		Version:      formatVersion,
		Entries:      snap.entries,
		Dictionaries: snap.dictionaries,
		Tags:         snap.tags,
		Postings: map[string][][]uint32{
			fileExpression: snap.expression.postings,
			fileReading:    snap.reading.postings,
			fileGlossary:   snap.glossary.postings,
		},
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&rec); err != nil {
		return cleanup(fmt.Errorf("encode entries: %w", err))
	}
	if err := os.WriteFile(filepath.Join(genDir, fileEntries), buf.Bytes(), 0o644); err != nil {
		return cleanup(err)
	}

	for name, data := range snap.fstData {
		if len(data) == 0 {
			continue
		}
		if err := os.WriteFile(filepath.Join(genDir, name), data, 0o644); err != nil {
			return cleanup(err)
		}
	}

	tmp := filepath.Join(dir, fileCurrent+".tmp")
	if err := os.WriteFile(tmp, []byte(name+"\n"), 0o644); err != nil {
		return cleanup(err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, fileCurrent)); err != nil {
		os.Remove(tmp)
		return cleanup(err)
	}

	return genDir, nil
}

// removeStale deletes every generation directory except keep.
func removeStale(dir, keep string) error {
	items, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var first error
	for _, it := range items {
		if !it.IsDir() || !strings.HasPrefix(it.Name(), generationPrefix) {
			continue
		}
		path := filepath.Join(dir, it.Name())
		if path == keep {
			continue
		}
		if err := os.RemoveAll(path); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// clearDir removes CURRENT and all generations.
func clearDir(dir string) error {
	if err := os.Remove(filepath.Join(dir, fileCurrent)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return removeStale(dir, "")
}

// nextGeneration returns a generation number above every one found in dir.
func nextGeneration(dir string) uint64 {
	items, err := os.ReadDir(dir)
	if err != nil {
		return 1
	}
	var highest uint64
	for _, it := range items {
		if !strings.HasPrefix(it.Name(), generationPrefix) {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimPrefix(it.Name(), generationPrefix), 10, 64)
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

func dirSize(dir string) int64 {
	var n int64
	filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			n += info.Size()
		}
		return nil
	})
	return n
}
