package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document shapes mirror the authored YAML description files. Every
// optional field is a pointer so that absence stays distinguishable
// from a zero value all the way into the canonical records.

type manifestFile struct {
	Collections []string `json:"collections"`
}

type docProfile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type docAuthor struct {
	Name      *string      `json:"name"`
	Addresses []string     `json:"addresses"`
	Profiles  []docProfile `json:"profiles"`
}

type docSolver struct {
	Name      *string      `json:"name"`
	Addresses []string     `json:"addresses"`
	Profiles  []docProfile `json:"profiles"`
}

type docMetadata struct {
	SourceURL *string  `json:"source_url"`
	Aliases   []string `json:"aliases"`
}

type docRedeemScript struct {
	Script string `json:"script"`
	Hash   string `json:"hash"`
}

type docEntropySource struct {
	URL         *string `json:"url"`
	Description *string `json:"description"`
}

// passphraseValue accepts either a string (the known passphrase) or a
// boolean (required but unknown), the way the description files write
// it.
type passphraseValue struct {
	Required bool
	Known    *string
}

func (p *passphraseValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		p.Known = &s
		return nil
	}

	var required bool
	if err := json.Unmarshal(data, &required); err != nil {
		return fmt.Errorf("ingest: passphrase must be a string or a bool: %w", err)
	}
	p.Required = required
	return nil
}

type docEntropy struct {
	Hash       string            `json:"hash"`
	Source     *docEntropySource `json:"source"`
	Passphrase *passphraseValue  `json:"passphrase"`
}

type docSeed struct {
	Phrase  *string     `json:"phrase"`
	Path    *string     `json:"path"`
	Xpub    *string     `json:"xpub"`
	Entropy *docEntropy `json:"entropy"`
}

type docShare struct {
	Index uint8  `json:"index"`
	Data  string `json:"data"`
}

type docShares struct {
	Threshold uint8      `json:"threshold"`
	Total     uint8      `json:"total"`
	Shares    []docShare `json:"shares"`
}

type docWif struct {
	Encrypted  *string `json:"encrypted"`
	Decrypted  *string `json:"decrypted"`
	Passphrase *string `json:"passphrase"`
}

type docKey struct {
	Hex    *string    `json:"hex"`
	Wif    *docWif    `json:"wif"`
	Seed   *docSeed   `json:"seed"`
	Mini   *string    `json:"mini"`
	Bits   *uint16    `json:"bits"`
	Shares *docShares `json:"shares"`
}

type docPubkey struct {
	Value  string `json:"value"`
	Format string `json:"format"`
}

type docAddress struct {
	Value          string           `json:"value"`
	Kind           string           `json:"kind"`
	Hash160        *string          `json:"hash160"`
	WitnessProgram *string          `json:"witness_program"`
	RedeemScript   *docRedeemScript `json:"redeem_script"`
}

type docTransaction struct {
	Type   string   `json:"type"`
	Txid   *string  `json:"txid"`
	Date   *string  `json:"date"`
	Amount *float64 `json:"amount"`
}

type docAssets struct {
	Puzzle    *string  `json:"puzzle"`
	Solver    *string  `json:"solver"`
	Hints     []string `json:"hints"`
	SourceURL *string  `json:"source_url"`
}

type docPuzzle struct {
	Name         *string          `json:"name"`
	Chain        *string          `json:"chain"`
	Address      docAddress       `json:"address"`
	Status       string           `json:"status"`
	Prize        *float64         `json:"prize"`
	Pubkey       *docPubkey       `json:"pubkey"`
	Key          *docKey          `json:"key"`
	StartDate    *string          `json:"start_date"`
	SolveDate    *string          `json:"solve_date"`
	SolveTime    *uint64          `json:"solve_time"`
	PreGenesis   bool             `json:"pre_genesis"`
	SourceURL    *string          `json:"source_url"`
	Transactions []docTransaction `json:"transactions"`
	Solver       *string          `json:"solver"`
	Assets       *docAssets       `json:"assets"`
}

// document is one collection description: either a single puzzle (the
// collection name becomes the id) or an ordered list of named puzzles.
type document struct {
	Metadata *docMetadata `json:"metadata"`
	Author   *docAuthor   `json:"author"`
	Puzzle   *docPuzzle   `json:"puzzle"`
	Puzzles  []docPuzzle  `json:"puzzles"`
}
