// Package term defines the lexicon records shared by the store, the importer
// and the lookup engine.
package term

import "strings"

// Entry is one lexicon record.
type Entry struct {
	Expression string     `json:"expression"`
	Reading    string     `json:"reading"`
	Tags       []string   `json:"tags,omitempty"`
	Rules      []string   `json:"rules,omitempty"`
	Score      int        `json:"score"`
	Glossary   []Glossary `json:"glossary"`
	Sequence   int        `json:"sequence,omitempty"`
	TermTags   []string   `json:"termTags,omitempty"`
	Dictionary string     `json:"dictionary"`
}

// Signature identifies entries that present the same headword, reading and
// definitions regardless of which dictionary they came from.
func (e Entry) Signature() string {
	var b strings.Builder
	b.WriteString(e.Expression)
	b.WriteByte(0)
	b.WriteString(e.Reading)
	b.WriteByte(0)
	for _, g := range e.Glossary {
		g.writeCanonical(&b)
	}
	return b.String()
}

// Headword returns the expression, or the reading if the expression is empty.
func (e Entry) Headword() string {
	if e.Expression != "" {
		return e.Expression
	}
	return e.Reading
}

// TagDefinition describes a tag name for display.
type TagDefinition struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Order      int     `json:"order"`
	Notes      string  `json:"notes"`
	Score      float64 `json:"score"`
	Dictionary string  `json:"dictionary"`
}

// DictionaryInfo is the metadata record of an imported dictionary.
type DictionaryInfo struct {
	Title       string `json:"title"`
	Format      int    `json:"format"`
	Revision    string `json:"revision"`
	Sequenced   bool   `json:"sequenced"`
	Author      string `json:"author,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
	Attribution string `json:"attribution,omitempty"`
}
