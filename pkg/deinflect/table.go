package deinflect

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

//go:embed deinflect.json
var defaultRules []byte

// ErrInvalidRules is returned when a rule definition cannot be loaded.
var ErrInvalidRules = errors.New("invalid deinflection rules")

// Variant is one surface realization of a reason: a term ending in In may be
// rewritten to end in Out when its classes intersect RulesIn. The rewritten
// term belongs to RulesOut.
type Variant struct {
	In       string
	Out      string
	RulesIn  Rules
	RulesOut Rules
}

// Reason is a named grammatical transformation and its variants.
type Reason struct {
	Name     string
	Variants []Variant
}

// Table is an immutable, ordered set of reasons.
type Table struct {
	reasons []Reason
}

type rawVariant struct {
	KanaIn   string   `json:"kanaIn"`
	KanaOut  string   `json:"kanaOut"`
	RulesIn  []string `json:"rulesIn"`
	RulesOut []string `json:"rulesOut"`
}

// DefaultTable returns the embedded Japanese rule table.
func DefaultTable() *Table {
	t, err := LoadTable(bytes.NewReader(defaultRules))
	if err != nil {
		panic(fmt.Sprintf("deinflect: embedded rules: %v", err))
	}
	return t
}

// LoadTable reads a rule table from a JSON object mapping reason names to
// lists of {kanaIn, kanaOut, rulesIn, rulesOut}. Reasons keep the order in
// which they appear in the document.
func LoadTable(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	t := &Table{}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected reason name, got %v", ErrInvalidRules, tok)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate reason %q", ErrInvalidRules, name)
		}
		seen[name] = struct{}{}

		var raw []rawVariant
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: reason %q: %v", ErrInvalidRules, name, err)
		}

		reason := Reason{Name: name, Variants: make([]Variant, 0, len(raw))}
		for i, rv := range raw {
			if rv.KanaIn == "" {
				return nil, fmt.Errorf("%w: reason %q variant %d: empty kanaIn", ErrInvalidRules, name, i)
			}
			reason.Variants = append(reason.Variants, Variant{
				In:       rv.KanaIn,
				Out:      rv.KanaOut,
				RulesIn:  RuleFlags(rv.RulesIn),
				RulesOut: RuleFlags(rv.RulesOut),
			})
		}
		t.reasons = append(t.reasons, reason)
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return t, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrInvalidRules, want, tok)
	}
	return nil
}

// Reasons returns a copy of the table's reasons in order.
func (t *Table) Reasons() []Reason {
	out := make([]Reason, len(t.reasons))
	for i, r := range t.reasons {
		out[i] = Reason{Name: r.Name, Variants: append([]Variant(nil), r.Variants...)}
	}
	return out
}

// Len returns the number of reasons.
func (t *Table) Len() int {
	return len(t.reasons)
}
