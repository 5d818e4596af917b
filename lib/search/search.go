// Package search ranks puzzles against a free-text query. Matching is
// a pure scan over the registry; there is no index to build or
// invalidate.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/oritwoen/boha/lib/puzzle"
	"github.com/oritwoen/boha/lib/registry"
)

var searches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "boha_searches",
	Help: "Search queries by outcome",
}, []string{"outcome"})

// Options tune a single search call.
type Options struct {
	// Exact requires whole-field equality instead of substring
	// containment.
	Exact bool
	// CaseSensitive disables case folding on both sides.
	CaseSensitive bool
	// Limit truncates the ranked results; zero means no limit.
	Limit int
	// Collection restricts the scan to one collection.
	Collection string
}

// Result is one ranked hit.
type Result struct {
	Puzzle *puzzle.Puzzle
	// MatchedFields lists the distinct matching field labels, sorted
	// alphabetically.
	MatchedFields []string
	// Score orders results; its value is not stable across releases.
	Score int
}

// InvalidQueryError rejects a blank query or an unknown collection
// filter.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("search: invalid query: %s", e.Reason)
}

// field is one searchable value set. Array-valued fields share a
// single label.
type field struct {
	label  string
	values []string
}

// candidateFields returns the searchable fields in their fixed rank
// order. For non-exact queries the id field also carries the bare
// per-collection name, so "66" finds "b1000/66".
func candidateFields(p *puzzle.Puzzle, bareName bool) []field {
	fields := make([]field, 0, 14)
	add := func(label string, values ...string) {
		if len(values) > 0 {
			fields = append(fields, field{label: label, values: values})
		}
	}
	opt := func(label string, value *string) {
		if value != nil {
			add(label, *value)
		}
	}

	idValues := []string{p.ID}
	if bareName {
		if n := p.Name(); n != "" {
			idValues = append(idValues, n)
		}
	}
	add("id", idValues...)

	add("address.value", p.Address.Value)
	opt("address.hash160", p.Address.Hash160)
	opt("address.witness_program", p.Address.WitnessProgram)
	if p.Pubkey != nil {
		add("pubkey.value", p.Pubkey.Value)
	}
	if k := p.Key; k != nil {
		opt("key.hex", k.Hex)
		if k.Wif != nil {
			opt("key.wif.encrypted", k.Wif.Encrypted)
			opt("key.wif.decrypted", k.Wif.Decrypted)
		}
		if k.Seed != nil {
			opt("key.seed.phrase", k.Seed.Phrase)
		}
		opt("key.mini", k.Mini)
	}
	if s := p.Solver; s != nil {
		opt("solver.name", s.Name)
		add("solver.addresses", s.Addresses...)
	}
	var txids []string
	for _, tx := range p.Transactions {
		if tx.Txid != nil {
			txids = append(txids, *tx.Txid)
		}
	}
	add("transactions.txid", txids...)
	add("chain", p.Chain.Name())

	return fields
}

// matchValue returns the byte offset of the match, -1 for no match.
func matchValue(value, query string, opts Options) int {
	if !opts.CaseSensitive {
		value = strings.ToLower(value)
		query = strings.ToLower(query)
	}
	if opts.Exact {
		if value == query {
			return 0
		}
		return -1
	}
	return strings.Index(value, query)
}

// Search scans the registry and returns hits ordered by descending
// relevance. Score is 100 per distinct matched field plus a position
// bonus for how early the query appears in the best-ranked matching
// field; ties keep the dataset's declaration order.
func Search(reg *registry.Registry, query string, opts Options) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		searches.WithLabelValues("invalid").Inc()
		return nil, &InvalidQueryError{Reason: "blank query"}
	}
	if opts.Collection != "" && !reg.HasCollection(opts.Collection) {
		searches.WithLabelValues("invalid").Inc()
		return nil, &InvalidQueryError{Reason: fmt.Sprintf("unknown collection %q", opts.Collection)}
	}

	scan := reg.All()
	if opts.Collection != "" {
		scan = reg.Collection(opts.Collection)
	}

	var results []Result
	for p := range scan {
		if r, ok := score(p, query, opts); ok {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	searches.WithLabelValues("ok").Inc()
	return results, nil
}

func score(p *puzzle.Puzzle, query string, opts Options) (Result, bool) {
	firstPos := -1
	var matched []string

	for _, f := range candidateFields(p, !opts.Exact) {
		fieldPos := -1
		for _, v := range f.values {
			if pos := matchValue(v, query, opts); pos >= 0 {
				fieldPos = pos
				break
			}
		}
		if fieldPos < 0 {
			continue
		}
		matched = append(matched, f.label)
		if firstPos < 0 {
			firstPos = fieldPos
		}
	}

	if len(matched) == 0 {
		return Result{}, false
	}

	sort.Strings(matched)
	bonus := 100 - firstPos
	if bonus < 0 {
		bonus = 0
	}
	return Result{
		Puzzle:        p,
		MatchedFields: matched,
		Score:         100*len(matched) + bonus,
	}, true
}
