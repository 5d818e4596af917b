// Package registry holds a compiled, validated dataset and answers
// lookups over it. A Registry is immutable and safe for concurrent use.
package registry

import (
	"fmt"
	"io/fs"
	"iter"
	"strings"
	"sync"

	"github.com/oritwoen/boha/data"
	"github.com/oritwoen/boha/lib/ingest"
	"github.com/oritwoen/boha/lib/puzzle"
	"github.com/oritwoen/boha/lib/validate"
)

// NotFoundError reports a failed lookup and which identifier segment
// failed to resolve.
type NotFoundError struct {
	Collection string
	// Name is the per-collection segment, empty for bare lookups.
	Name string
	// Segment is "collection" or "puzzle".
	Segment string
}

func (e *NotFoundError) Error() string {
	if e.Segment == "collection" {
		return fmt.Sprintf("registry: no collection %q", e.Collection)
	}
	if e.Name == "" {
		return fmt.Sprintf("registry: collection %q needs a puzzle name", e.Collection)
	}
	return fmt.Sprintf("registry: no puzzle %q in collection %q", e.Name, e.Collection)
}

// Registry is a read-only view over a validated dataset.
type Registry struct {
	ds      *ingest.Dataset
	byID    map[string]*puzzle.Puzzle
	aliases map[string]string
}

// New wraps an already validated dataset.
func New(ds *ingest.Dataset) *Registry {
	r := &Registry{
		ds:      ds,
		byID:    make(map[string]*puzzle.Puzzle, ds.Len()),
		aliases: make(map[string]string),
	}
	for _, col := range ds.Collections {
		for _, alias := range col.Aliases {
			r.aliases[alias] = col.Name
		}
		for _, p := range col.Puzzles {
			r.byID[p.ID] = p
		}
	}
	return r
}

// collection resolves a collection name or one of its declared aliases.
func (r *Registry) collection(name string) (*puzzle.Collection, bool) {
	if col, ok := r.ds.Collection(name); ok {
		return col, true
	}
	if canonical, ok := r.aliases[name]; ok {
		return r.ds.Collection(canonical)
	}
	return nil, false
}

// Load compiles the documents in fsys, validates the result and wraps
// it. Any violation aborts the load.
func Load(fsys fs.FS) (*Registry, error) {
	ds, err := ingest.Compile(fsys)
	if err != nil {
		return nil, err
	}
	if err := validate.Validate(ds); err != nil {
		return nil, err
	}
	return New(ds), nil
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns the registry over the embedded catalog, compiling it
// exactly once for the life of the process.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Load(data.Collections)
	})
	return defaultReg, defaultErr
}

// Get resolves a puzzle identifier: "<collection>/<name>", or the bare
// collection name when the collection has exactly one member. The
// collection segment may be a declared alias. Matching is exact and
// case-sensitive.
func (r *Registry) Get(id string) (*puzzle.Puzzle, error) {
	p, err := r.get(id)
	if err != nil {
		lookups.WithLabelValues("miss").Inc()
		return nil, err
	}
	lookups.WithLabelValues("hit").Inc()
	return p, nil
}

func (r *Registry) get(id string) (*puzzle.Puzzle, error) {
	colName, name := id, ""
	if i := strings.IndexByte(id, '/'); i >= 0 {
		colName, name = id[:i], id[i+1:]
	}

	col, ok := r.collection(colName)
	if !ok {
		return nil, &NotFoundError{Collection: colName, Name: name, Segment: "collection"}
	}

	if name == "" {
		if len(col.Puzzles) == 1 {
			return col.Puzzles[0], nil
		}
		return nil, &NotFoundError{Collection: colName, Segment: "puzzle"}
	}

	if p, ok := r.byID[col.Name+"/"+name]; ok {
		return p, nil
	}
	return nil, &NotFoundError{Collection: colName, Name: name, Segment: "puzzle"}
}

// All yields every puzzle in declaration order: collections in manifest
// order, records in document order.
func (r *Registry) All() iter.Seq[*puzzle.Puzzle] {
	return func(yield func(*puzzle.Puzzle) bool) {
		for _, col := range r.ds.Collections {
			for _, p := range col.Puzzles {
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Collection yields the named collection's puzzles in declaration
// order, nothing when the collection does not exist. Name may be a
// declared alias.
func (r *Registry) Collection(name string) iter.Seq[*puzzle.Puzzle] {
	return func(yield func(*puzzle.Puzzle) bool) {
		col, ok := r.collection(name)
		if !ok {
			return
		}
		for _, p := range col.Puzzles {
			if !yield(p) {
				return
			}
		}
	}
}

// Collections returns the collection names in manifest order.
func (r *Registry) Collections() []string {
	names := make([]string, 0, len(r.ds.Collections))
	for _, col := range r.ds.Collections {
		names = append(names, col.Name)
	}
	return names
}

// HasCollection reports whether the named collection exists, under its
// canonical name or a declared alias.
func (r *Registry) HasCollection(name string) bool {
	_, ok := r.collection(name)
	return ok
}

// Len returns the total number of puzzles.
func (r *Registry) Len() int { return r.ds.Len() }

// Version returns the dataset content hash.
func (r *Registry) Version() string { return r.ds.Version }

// ChainStats aggregates prize totals for one chain in its native unit.
type ChainStats struct {
	Total         int     `json:"total"`
	TotalPrize    float64 `json:"total_prize"`
	UnsolvedPrize float64 `json:"unsolved_prize"`
}

// Stats summarizes the catalog or a subset of its collections.
type Stats struct {
	Total      int                   `json:"total"`
	ByStatus   map[string]int        `json:"by_status"`
	WithPubkey int                   `json:"with_pubkey"`
	Chains     map[string]ChainStats `json:"chains"`
}

// Stats aggregates over the named collections, or over everything when
// none are named. Unknown collection names fail the call.
func (r *Registry) Stats(collections ...string) (*Stats, error) {
	if len(collections) == 0 {
		collections = r.Collections()
	}

	st := &Stats{
		ByStatus: map[string]int{},
		Chains:   map[string]ChainStats{},
	}
	for _, name := range collections {
		col, ok := r.collection(name)
		if !ok {
			return nil, &NotFoundError{Collection: name, Segment: "collection"}
		}
		for _, p := range col.Puzzles {
			st.Total++
			st.ByStatus[p.Status.String()]++
			if p.HasPubkey() {
				st.WithPubkey++
			}

			cs := st.Chains[p.Chain.String()]
			cs.Total++
			if p.Prize != nil {
				cs.TotalPrize += *p.Prize
				if p.Status.IsActive() {
					cs.UnsolvedPrize += *p.Prize
				}
			}
			st.Chains[p.Chain.String()] = cs
		}
	}
	return st, nil
}
