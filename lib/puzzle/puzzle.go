// Package puzzle defines the canonical record types every other part of
// the catalog agrees on. The types carry no behavior beyond derived
// accessors; records are built once by the compiler and never mutated.
package puzzle

import (
	"fmt"
	"strings"
)

// Profile is a social or web identity reference.
type Profile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Author is the creator of a puzzle collection.
type Author struct {
	// Name is nil for anonymous authors.
	Name      *string   `json:"name,omitempty"`
	Addresses []string  `json:"addresses"`
	Profiles  []Profile `json:"profiles"`
}

// Solver identifies who recovered a puzzle's key. Solvers live in a
// shared table and are resolved into puzzles by ID at compile time;
// the copy stored here is owned by the puzzle.
type Solver struct {
	Name      *string   `json:"name,omitempty"`
	Addresses []string  `json:"addresses"`
	Profiles  []Profile `json:"profiles"`
}

// Transaction is one entry in a puzzle's on-chain history.
type Transaction struct {
	Type   TransactionType `json:"type"`
	Txid   *string         `json:"txid,omitempty"`
	Date   *string         `json:"date,omitempty"`
	Amount *float64        `json:"amount,omitempty"`
	// ExplorerURL is derived from the puzzle chain and Txid at compile
	// time; nil when Txid is nil.
	ExplorerURL *string `json:"explorer_url,omitempty"`
}

// Assets references auxiliary media for a puzzle. Paths are relative to
// the collection's asset folder.
type Assets struct {
	Puzzle    *string  `json:"puzzle,omitempty"`
	Solver    *string  `json:"solver,omitempty"`
	Hints     []string `json:"hints,omitempty"`
	SourceURL *string  `json:"source_url,omitempty"`
}

// Puzzle is one challenge. Immutable after compilation.
type Puzzle struct {
	// ID is "<collection>/<name>", or just "<collection>" for
	// single-member collections.
	ID      string  `json:"id"`
	Chain   Chain   `json:"chain"`
	Address Address `json:"address"`
	Status  Status  `json:"status"`
	Pubkey  *Pubkey `json:"pubkey,omitempty"`
	Key     *Key    `json:"key,omitempty"`
	// Prize is the nominal value in the chain's native unit.
	Prize     *float64 `json:"prize,omitempty"`
	StartDate *string  `json:"start_date,omitempty"`
	SolveDate *string  `json:"solve_date,omitempty"`
	// SolveTime is the solve duration in seconds.
	SolveTime *uint64 `json:"solve_time,omitempty"`
	// PreGenesis exempts the record from the solve_date >= start_date
	// check (key claimed before the funding event existed).
	PreGenesis   bool          `json:"pre_genesis,omitempty"`
	KeySource    KeySource     `json:"key_source"`
	SourceURL    *string       `json:"source_url,omitempty"`
	Transactions []Transaction `json:"transactions"`
	Solver       *Solver       `json:"solver,omitempty"`
	Assets       *Assets       `json:"assets,omitempty"`
}

// Collection is a named, ordered, fixed list of puzzles.
type Collection struct {
	Name      string  `json:"name"`
	SourceURL *string `json:"source_url,omitempty"`
	// Aliases are alternate collection names that resolve to this one
	// in lookups. The canonical name is not repeated here.
	Aliases []string  `json:"aliases,omitempty"`
	Author  Author    `json:"author"`
	Puzzles []*Puzzle `json:"puzzles"`
}

// Collection returns the collection segment of the ID.
func (p *Puzzle) Collection() string {
	if i := strings.IndexByte(p.ID, '/'); i >= 0 {
		return p.ID[:i]
	}
	return p.ID
}

// Name returns the per-collection name segment of the ID, empty for
// single-member collections whose ID is the bare collection name.
func (p *Puzzle) Name() string {
	if i := strings.IndexByte(p.ID, '/'); i >= 0 {
		return p.ID[i+1:]
	}
	return ""
}

// HasPubkey reports whether the public key is known.
func (p *Puzzle) HasPubkey() bool { return p.Pubkey != nil }

// HasPrivateKey reports whether any spendable key material is public.
func (p *Puzzle) HasPrivateKey() bool { return p.Key.IsKnown() }

func (p *Puzzle) findTx(tt TransactionType) *Transaction {
	for i := range p.Transactions {
		if p.Transactions[i].Type == tt {
			return &p.Transactions[i]
		}
	}
	return nil
}

// FundingTx returns the funding transaction, if recorded.
func (p *Puzzle) FundingTx() *Transaction { return p.findTx(TxFunding) }

// ClaimTx returns the claim transaction, if recorded.
func (p *Puzzle) ClaimTx() *Transaction { return p.findTx(TxClaim) }

// SolveTimeString renders SolveTime as a rough human duration
// ("5y 2mo 11d"), empty when unknown.
func (p *Puzzle) SolveTimeString() string {
	if p.SolveTime == nil {
		return ""
	}
	return formatDuration(*p.SolveTime)
}

// AssetPath returns the repository-relative path of the main puzzle
// asset, empty when there is none.
func (p *Puzzle) AssetPath() string {
	if p.Assets == nil || p.Assets.Puzzle == nil {
		return ""
	}
	return fmt.Sprintf("assets/%s/%s", p.Collection(), *p.Assets.Puzzle)
}

// AssetURL returns the raw URL of the main puzzle asset for remote
// access, empty when there is none.
func (p *Puzzle) AssetURL() string {
	path := p.AssetPath()
	if path == "" {
		return ""
	}
	return "https://raw.githubusercontent.com/oritwoen/boha/main/" + path
}

func formatDuration(seconds uint64) string {
	const (
		minute = 60
		hour   = 60 * minute
		day    = 24 * hour
		month  = 30 * day
		year   = 365 * day
	)

	units := []struct {
		label string
		span  uint64
	}{
		{"y", year},
		{"mo", month},
		{"d", day},
		{"h", hour},
		{"m", minute},
	}

	var parts []string
	remaining := seconds
	for _, u := range units {
		if n := remaining / u.span; n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, u.label))
			remaining %= u.span
		}
	}

	if len(parts) == 0 {
		return fmt.Sprintf("%ds", seconds)
	}
	return strings.Join(parts, " ")
}
