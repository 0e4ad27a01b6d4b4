package termstore

import (
	"sort"

	"github.com/kerem-kaynak/japanese-lookup/pkg/term"
)

// snapshot is an immutable view of the store contents. It is replaced as a
// whole by Import and Clear.
type snapshot struct {
	entries      []term.Entry
	dictionaries []term.DictionaryInfo
	tags         []term.TagDefinition

	expression *index
	reading    *index
	glossary   *index

	// fstData holds the encoded FSTs of a freshly built snapshot
	// until they are persisted.
	fstData map[string][]byte
	size    int64
	dir     string
}

func emptySnapshot() *snapshot {
	return &snapshot{expression: &index{}, reading: &index{}, glossary: &index{}}
}

// buildSnapshot indexes entries and returns the new snapshot.
func buildSnapshot(entries []term.Entry, dicts []term.DictionaryInfo, tags []term.TagDefinition) (*snapshot, error) {
	expr := newIndexBuilder()
	reading := newIndexBuilder()
	gloss := newIndexBuilder()

	for i, e := range entries {
		id := uint32(i)
		expr.add(e.Expression, id)
		reading.add(e.Reading, id)
		for _, g := range e.Glossary {
			for _, key := range glossKeys(g.PlainText()) {
				gloss.add(key, id)
			}
		}
	}

	snap := &snapshot{
		entries:      entries,
		dictionaries: dicts,
		tags:         tags,
		fstData:      make(map[string][]byte, 3),
	}

	var err error
	var data []byte
	if snap.expression, data, err = expr.build(); err != nil {
		return nil, err
	}
	snap.fstData[fileExpression] = data
	if snap.reading, data, err = reading.build(); err != nil {
		return nil, err
	}
	snap.fstData[fileReading] = data
	if snap.glossary, data, err = gloss.build(); err != nil {
		return nil, err
	}
	snap.fstData[fileGlossary] = data

	snap.size = snap.estimateSize()
	return snap, nil
}

func (s *snapshot) estimateSize() int64 {
	var n int64
	for _, data := range s.fstData {
		n += int64(len(data))
	}
	for _, e := range s.entries {
		n += int64(len(e.Expression) + len(e.Reading) + len(e.Dictionary) + 16)
		for _, t := range e.Tags {
			n += int64(len(t))
		}
		for _, r := range e.Rules {
			n += int64(len(r))
		}
		for _, g := range e.Glossary {
			n += int64(len(g.PlainText()))
		}
	}
	return n
}

func (s *snapshot) resolve(ids []uint32) []term.Entry {
	if len(ids) == 0 {
		return nil
	}
	out := make([]term.Entry, 0, len(ids))
	for _, id := range ids {
		if int(id) < len(s.entries) {
			out = append(out, s.entries[id])
		}
	}
	return out
}

func (s *snapshot) dictionary(title string) (term.DictionaryInfo, bool) {
	for _, d := range s.dictionaries {
		if d.Title == title {
			return d, true
		}
	}
	return term.DictionaryInfo{}, false
}

func (s *snapshot) tag(name string) (term.TagDefinition, bool) {
	for _, t := range s.tags {
		if t.Name == name {
			return t, true
		}
	}
	return term.TagDefinition{}, false
}

func (s *snapshot) sortedTags() []term.TagDefinition {
	out := append([]term.TagDefinition(nil), s.tags...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *snapshot) close() error {
	var first error
	for _, ix := range []*index{s.expression, s.reading, s.glossary} {
		if err := ix.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
