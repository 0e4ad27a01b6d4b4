package termstore

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/blevesearch/vellum"
)

// index maps a key to the ids of the entries carrying it. The FST maps the
// key to a posting list id; postings hold entry ids in insertion order.
type index struct {
	fst      *vellum.FST
	postings [][]uint32
}

// indexBuilder accumulates postings before the FST is built.
type indexBuilder struct {
	ids map[string][]uint32
}

func newIndexBuilder() *indexBuilder {
	return &indexBuilder{ids: make(map[string][]uint32)}
}

// add records id under key. Ids must be added in ascending order.
func (b *indexBuilder) add(key string, id uint32) {
	if key == "" {
		return
	}
	list := b.ids[key]
	if n := len(list); n > 0 && list[n-1] == id {
		return
	}
	b.ids[key] = append(list, id)
}

// build encodes the FST into memory and returns its bytes for persistence.
func (b *indexBuilder) build() (*index, []byte, error) {
	if len(b.ids) == 0 {
		return &index{}, nil, nil
	}

	keys := make([]string, 0, len(b.ids))
	for k := range b.ids {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	builder, err := vellum.New(&buf, nil)
	if err != nil {
		return nil, nil, err
	}

	postings := make([][]uint32, 0, len(keys))
	for i, key := range keys {
		if err := builder.Insert([]byte(key), uint64(i)); err != nil {
			builder.Close()
			return nil, nil, fmt.Errorf("insert %q: %w", key, err)
		}
		postings = append(postings, b.ids[key])
	}
	if err := builder.Close(); err != nil {
		return nil, nil, err
	}

	data := buf.Bytes()
	fst, err := vellum.Load(data)
	if err != nil {
		return nil, nil, err
	}
	return &index{fst: fst, postings: postings}, data, nil
}

// get returns the entry ids stored under key.
func (ix *index) get(key string) ([]uint32, error) {
	if ix == nil || ix.fst == nil || key == "" {
		return nil, nil
	}
	v, ok, err := ix.fst.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if v >= uint64(len(ix.postings)) {
		return nil, fmt.Errorf("posting %d out of range", v)
	}
	return ix.postings[v], nil
}

// keys returns the number of distinct keys.
func (ix *index) keys() int {
	if ix == nil || ix.fst == nil {
		return 0
	}
	return ix.fst.Len()
}

func (ix *index) close() error {
	if ix == nil || ix.fst == nil {
		return nil
	}
	err := ix.fst.Close()
	ix.fst = nil
	return err
}
