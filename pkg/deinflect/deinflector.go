// Package deinflect reverses Japanese conjugation by repeatedly rewriting
// word endings with a table of suffix rules, producing candidate
// dictionary forms together with the conjugation classes they must belong to.
package deinflect

import (
	"log/slog"
	"strings"
)

// DefaultMaxCandidates bounds the expansion of a single term.
const DefaultMaxCandidates = 4096

// Candidate is a possible dictionary form of a deinflected term.
type Candidate struct {
	Term string
	// Rules are the classes Term must belong to. Zero on the unmodified input.
	Rules Rules
	// Reasons lists the applied transformations, most recent first.
	Reasons []string
}

// Option configures a Deinflector.
type Option func(*Deinflector)

// WithMaxCandidates caps the number of candidates produced per term.
// Values below 1 leave the default in place.
func WithMaxCandidates(n int) Option {
	return func(d *Deinflector) {
		if n > 0 {
			d.maxCandidates = n
		}
	}
}

// WithLogger sets the logger used to report truncated expansions.
func WithLogger(l *slog.Logger) Option {
	return func(d *Deinflector) {
		if l != nil {
			d.log = l
		}
	}
}

// Deinflector expands surface forms into candidates. It is safe for
// concurrent use.
type Deinflector struct {
	reasons       []Reason
	maxCandidates int
	log           *slog.Logger
}

// New creates a Deinflector over table. A nil table uses DefaultTable.
func New(table *Table, opts ...Option) *Deinflector {
	if table == nil {
		table = DefaultTable()
	}
	d := &Deinflector{
		reasons:       table.reasons,
		maxCandidates: DefaultMaxCandidates,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RuleFlags converts class names to a bitmask, ignoring unknown names.
func (d *Deinflector) RuleFlags(names []string) Rules {
	return RuleFlags(names)
}

// Deinflect returns every candidate reachable from source. The first
// element is always source itself with no rules and no reasons. Candidates
// appended later are expanded in turn.
func (d *Deinflector) Deinflect(source string) []Candidate {
	results := []Candidate{{Term: source}}

	for i := 0; i < len(results); i++ {
		cur := results[i]

		for _, reason := range d.reasons {
			for _, v := range reason.Variants {
				if cur.Rules != 0 && cur.Rules&v.RulesIn == 0 {
					continue
				}
				if !strings.HasSuffix(cur.Term, v.In) {
					continue
				}
				if len(cur.Term)-len(v.In)+len(v.Out) <= 0 {
					continue
				}

				if len(results) >= d.maxCandidates {
					d.log.Warn("deinflection truncated",
						slog.String("source", source),
						slog.Int("candidates", len(results)),
					)
					return results
				}

				reasons := make([]string, 0, len(cur.Reasons)+1)
				reasons = append(reasons, reason.Name)
				reasons = append(reasons, cur.Reasons...)

				results = append(results, Candidate{
					Term:    cur.Term[:len(cur.Term)-len(v.In)] + v.Out,
					Rules:   v.RulesOut,
					Reasons: reasons,
				})
			}
		}
	}

	return results
}
