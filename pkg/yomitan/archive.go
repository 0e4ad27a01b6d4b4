// Package yomitan reads Yomitan dictionary archives: a zip file holding
// index.json, term_bank_N.json and tag_bank_N.json members.
package yomitan

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/kerem-kaynak/japanese-lookup/pkg/term"
	"github.com/kerem-kaynak/japanese-lookup/pkg/termstore"
)

const (
	indexFile      = "index.json"
	termBankPrefix = "term_bank_"
	tagBankPrefix  = "tag_bank_"
)

type indexJSON struct {
	Title       string `json:"title"`
	Format      int    `json:"format"`
	Version     int    `json:"version"`
	Revision    string `json:"revision"`
	Sequenced   bool   `json:"sequenced"`
	Author      string `json:"author"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Attribution string `json:"attribution"`
}

// ReadArchive parses the dictionary archive at path.
func ReadArchive(path string) (*termstore.Batch, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, path, err)
	}
	defer zr.Close()
	return readZip(&zr.Reader, nil)
}

// ReadArchiveFrom parses a dictionary archive of the given size.
func ReadArchiveFrom(r io.ReaderAt, size int64) (*termstore.Batch, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	return readZip(zr, nil)
}

type bank struct {
	file *zip.File
	n    int
}

// banks returns the members named prefix<N>.json ordered by N.
func banks(zr *zip.Reader, prefix string) []bank {
	var out []bank
	for _, f := range zr.File {
		name := path.Base(f.Name)
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json"))
		if err != nil {
			continue
		}
		out = append(out, bank{file: f, n: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].n < out[j].n })
	return out
}

// readZip builds a batch from the archive members. progress, if set, is
// called after each member with the number read so far and the total.
func readZip(zr *zip.Reader, progress func(done, total int)) (*termstore.Batch, error) {
	var idx *zip.File
	for _, f := range zr.File {
		if path.Base(f.Name) == indexFile {
			idx = f
			break
		}
	}
	if idx == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidArchive, indexFile)
	}

	info, err := readIndex(idx)
	if err != nil {
		return nil, err
	}

	termBanks := banks(zr, termBankPrefix)
	tagBanks := banks(zr, tagBankPrefix)
	total := 1 + len(termBanks) + len(tagBanks)
	done := 1
	report := func() {
		if progress != nil {
			progress(done, total)
		}
	}
	report()

	b := &termstore.Batch{Info: info}
	for _, tb := range termBanks {
		var rows []json.RawMessage
		if err := decodeMember(tb.file, &rows); err != nil {
			return nil, err
		}
		for i, raw := range rows {
			e, err := parseTermRow(tb.file.Name, i, raw, info.Format)
			if err != nil {
				return nil, err
			}
			e.Dictionary = info.Title
			b.Terms = append(b.Terms, e)
		}
		done++
		report()
	}

	for _, tb := range tagBanks {
		var rows []json.RawMessage
		if err := decodeMember(tb.file, &rows); err != nil {
			return nil, err
		}
		for i, raw := range rows {
			t, err := parseTagRow(tb.file.Name, i, raw)
			if err != nil {
				return nil, err
			}
			t.Dictionary = info.Title
			b.Tags = append(b.Tags, t)
		}
		done++
		report()
	}

	return b, nil
}

func decodeMember(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrInvalidArchive, f.Name, err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, f.Name, err)
	}
	return nil
}

func readIndex(f *zip.File) (term.DictionaryInfo, error) {
	var ij indexJSON
	if err := decodeMember(f, &ij); err != nil {
		return term.DictionaryInfo{}, err
	}
	if strings.TrimSpace(ij.Title) == "" {
		return term.DictionaryInfo{}, recordError(indexFile, -1, "title", "required")
	}

	format := ij.Format
	if format == 0 {
		format = ij.Version
	}
	if format < 1 || format > 3 {
		return term.DictionaryInfo{}, recordError(indexFile, -1, "format", "unsupported format %d", format)
	}

	return term.DictionaryInfo{
		Title:       ij.Title,
		Format:      format,
		Revision:    ij.Revision,
		Sequenced:   ij.Sequenced,
		Author:      ij.Author,
		URL:         ij.URL,
		Description: ij.Description,
		Attribution: ij.Attribution,
	}, nil
}

// parseTermRow decodes [expression, reading, tags, rules, score, glossary,
// sequence, termTags]. Format 1 rows carry the glossary as trailing strings
// from position 5 on.
func parseTermRow(file string, i int, raw json.RawMessage, format int) (term.Entry, error) {
	var row []json.RawMessage
	if err := json.Unmarshal(raw, &row); err != nil {
		return term.Entry{}, recordError(file, i, "row", "expected array")
	}
	if len(row) < 6 {
		return term.Entry{}, recordError(file, i, "row", "expected at least 6 fields, got %d", len(row))
	}

	var (
		e   term.Entry
		err error
	)
	if e.Expression, err = optString(row[0]); err != nil {
		return e, recordError(file, i, "expression", "%v", err)
	}
	if e.Reading, err = optString(row[1]); err != nil {
		return e, recordError(file, i, "reading", "%v", err)
	}
	if e.Expression == "" && e.Reading == "" {
		return e, recordError(file, i, "expression", "expression and reading are both empty")
	}
	if e.Reading == "" {
		e.Reading = e.Expression
	}

	tags, err := optString(row[2])
	if err != nil {
		return e, recordError(file, i, "tags", "%v", err)
	}
	e.Tags = strings.Fields(tags)

	rules, err := optString(row[3])
	if err != nil {
		return e, recordError(file, i, "rules", "%v", err)
	}
	e.Rules = strings.Fields(rules)

	if e.Score, err = optInt(row[4]); err != nil {
		return e, recordError(file, i, "score", "%v", err)
	}

	if format == 1 || !isArray(row[5]) {
		for _, g := range row[5:] {
			var s string
			if err := json.Unmarshal(g, &s); err != nil {
				return e, recordError(file, i, "glossary", "expected string")
			}
			e.Glossary = append(e.Glossary, term.Text(s))
		}
		return e, nil
	}

	if err := json.Unmarshal(row[5], &e.Glossary); err != nil {
		return e, recordError(file, i, "glossary", "%v", err)
	}
	if len(row) > 6 {
		if e.Sequence, err = optInt(row[6]); err != nil {
			return e, recordError(file, i, "sequence", "%v", err)
		}
	}
	if len(row) > 7 {
		termTags, err := optString(row[7])
		if err != nil {
			return e, recordError(file, i, "termTags", "%v", err)
		}
		e.TermTags = strings.Fields(termTags)
	}
	return e, nil
}

// parseTagRow decodes [name, category, order, notes, score].
func parseTagRow(file string, i int, raw json.RawMessage) (term.TagDefinition, error) {
	var row []json.RawMessage
	if err := json.Unmarshal(raw, &row); err != nil {
		return term.TagDefinition{}, recordError(file, i, "row", "expected array")
	}
	if len(row) < 5 {
		return term.TagDefinition{}, recordError(file, i, "row", "expected 5 fields, got %d", len(row))
	}

	var (
		t   term.TagDefinition
		err error
	)
	if t.Name, err = optString(row[0]); err != nil || t.Name == "" {
		return t, recordError(file, i, "name", "expected non-empty string")
	}
	if t.Category, err = optString(row[1]); err != nil {
		return t, recordError(file, i, "category", "%v", err)
	}
	if t.Order, err = optInt(row[2]); err != nil {
		return t, recordError(file, i, "order", "%v", err)
	}
	if t.Notes, err = optString(row[3]); err != nil {
		return t, recordError(file, i, "notes", "%v", err)
	}
	if err := json.Unmarshal(row[4], &t.Score); err != nil {
		return t, recordError(file, i, "score", "expected number")
	}
	return t, nil
}

func isArray(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c == '['
	}
	return false
}

// optString decodes a string, treating null as empty.
func optString(raw json.RawMessage) (string, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.New("expected string")
	}
	if s == nil {
		return "", nil
	}
	return *s, nil
}

// optInt decodes an integral number, treating null as zero.
func optInt(raw json.RawMessage) (int, error) {
	var f *float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, errors.New("expected number")
	}
	if f == nil {
		return 0, nil
	}
	return int(*f), nil
}
