// Package ingest turns the authored collection documents into the
// canonical, typed dataset. Parsing and reference resolution failures
// abort compilation entirely; a partial dataset is never produced.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"math/big"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/oritwoen/boha/internal/addrcodec"
	"github.com/oritwoen/boha/lib/puzzle"
)

const (
	manifestName = "manifest.yaml"
	solversName  = "solvers.yaml"
	dateLayout   = "2006-01-02"
)

// Dataset is the compiled, ordered form of every collection document.
// It is structurally complete but not yet checked for cryptographic
// consistency; see the validate package.
type Dataset struct {
	Collections []*puzzle.Collection
	// Version identifies the document contents: the first 4 bytes of a
	// SHA-256 over every document in manifest order, hex encoded.
	Version string
}

// Collection returns the named collection in declaration order.
func (d *Dataset) Collection(name string) (*puzzle.Collection, bool) {
	for _, c := range d.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Len returns the total number of puzzles across all collections.
func (d *Dataset) Len() int {
	n := 0
	for _, c := range d.Collections {
		n += len(c.Puzzles)
	}
	return n
}

// Compile reads the manifest, the shared solver table and one document
// per collection from fsys, producing the canonical dataset. Document
// order and per-document record order are preserved; they are the
// dataset's iteration order.
func Compile(fsys fs.FS) (*Dataset, error) {
	hasher := sha256.New()

	readDoc := func(name string) ([]byte, error) {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		hasher.Write(raw)
		return raw, nil
	}

	rawManifest, err := readDoc(manifestName)
	if err != nil {
		return nil, compileErr(manifestName, -1, "", fmt.Errorf("%w: %w", ErrBadDocument, err))
	}
	var manifest manifestFile
	if err := yaml.UnmarshalStrict(rawManifest, &manifest); err != nil {
		return nil, compileErr(manifestName, -1, "", fmt.Errorf("%w: %w", ErrBadDocument, err))
	}
	if len(manifest.Collections) == 0 {
		return nil, compileErr(manifestName, -1, "collections", ErrMissingField)
	}

	rawSolvers, err := readDoc(solversName)
	if err != nil {
		return nil, compileErr(solversName, -1, "", fmt.Errorf("%w: %w", ErrBadDocument, err))
	}
	var solvers map[string]docSolver
	if err := yaml.UnmarshalStrict(rawSolvers, &solvers); err != nil {
		return nil, compileErr(solversName, -1, "", fmt.Errorf("%w: %w", ErrBadDocument, err))
	}

	ds := &Dataset{}
	for _, name := range manifest.Collections {
		raw, err := readDoc(name + ".yaml")
		if err != nil {
			return nil, compileErr(name, -1, "", fmt.Errorf("%w: %w", ErrBadDocument, err))
		}

		var doc document
		if err := yaml.UnmarshalStrict(raw, &doc); err != nil {
			return nil, compileErr(name, -1, "", fmt.Errorf("%w: %w", ErrBadDocument, err))
		}

		col, err := compileCollection(name, &doc, solvers)
		if err != nil {
			return nil, err
		}
		ds.Collections = append(ds.Collections, col)
	}

	ds.Version = hex.EncodeToString(hasher.Sum(nil)[:4])
	return ds, nil
}

func compileCollection(name string, doc *document, solvers map[string]docSolver) (*puzzle.Collection, error) {
	col := &puzzle.Collection{Name: name}

	var defaultSourceURL *string
	if doc.Metadata != nil {
		col.SourceURL = copyStr(doc.Metadata.SourceURL)
		col.Aliases = append([]string(nil), doc.Metadata.Aliases...)
		defaultSourceURL = doc.Metadata.SourceURL
	}
	if doc.Author != nil {
		col.Author = puzzle.Author{
			Name:      copyStr(doc.Author.Name),
			Addresses: append([]string(nil), doc.Author.Addresses...),
			Profiles:  compileProfiles(doc.Author.Profiles),
		}
	}

	switch {
	case doc.Puzzle != nil && len(doc.Puzzles) > 0:
		return nil, compileErr(name, -1, "", fmt.Errorf("%w: document declares both puzzle and puzzles", ErrBadDocument))
	case doc.Puzzle != nil:
		p, err := compileRecord(name, 0, name, doc.Puzzle, defaultSourceURL, solvers)
		if err != nil {
			return nil, err
		}
		col.Puzzles = []*puzzle.Puzzle{p}
	case len(doc.Puzzles) > 0:
		for i := range doc.Puzzles {
			rec := &doc.Puzzles[i]
			if rec.Name == nil || *rec.Name == "" {
				return nil, compileErr(name, i, "name", ErrMissingField)
			}
			p, err := compileRecord(name, i, name+"/"+*rec.Name, rec, defaultSourceURL, solvers)
			if err != nil {
				return nil, err
			}
			col.Puzzles = append(col.Puzzles, p)
		}
	default:
		return nil, compileErr(name, -1, "puzzles", ErrMissingField)
	}

	return col, nil
}

func compileRecord(collection string, index int, id string, rec *docPuzzle, defaultSourceURL *string, solvers map[string]docSolver) (*puzzle.Puzzle, error) {
	chain := puzzle.Bitcoin
	if rec.Chain != nil {
		parsed, err := puzzle.ParseChain(*rec.Chain)
		if err != nil {
			return nil, compileErr(collection, index, "chain", err)
		}
		chain = parsed
	}

	if rec.Status == "" {
		return nil, compileErr(collection, index, "status", ErrMissingField)
	}
	status, err := puzzle.ParseStatus(rec.Status)
	if err != nil {
		return nil, compileErr(collection, index, "status", err)
	}

	addr, err := compileAddress(collection, index, chain, &rec.Address)
	if err != nil {
		return nil, err
	}

	key, err := compileKey(collection, index, chain, rec.Key)
	if err != nil {
		return nil, err
	}

	var pubkey *puzzle.Pubkey
	if rec.Pubkey != nil {
		format, err := puzzle.ParsePubkeyFormat(rec.Pubkey.Format)
		if err != nil {
			return nil, compileErr(collection, index, "pubkey.format", err)
		}
		pubkey = &puzzle.Pubkey{Value: rec.Pubkey.Value, Format: format}
	}

	startDate, err := compileDate(collection, index, "start_date", rec.StartDate)
	if err != nil {
		return nil, err
	}
	solveDate, err := compileDate(collection, index, "solve_date", rec.SolveDate)
	if err != nil {
		return nil, err
	}

	solveTime := copyU64(rec.SolveTime)
	if solveTime == nil && startDate != nil && solveDate != nil && status.IsTerminal() {
		// Same-day solves derive a zero duration; negative spans are left
		// for the chronology check to reject.
		if d := solveDate.Sub(*startDate); d >= 0 {
			seconds := uint64(d / time.Second)
			solveTime = &seconds
		}
	}

	txs, err := compileTransactions(collection, index, chain, rec.Transactions)
	if err != nil {
		return nil, err
	}

	var solver *puzzle.Solver
	if rec.Solver != nil {
		def, ok := solvers[*rec.Solver]
		if !ok {
			return nil, compileErr(collection, index, "solver", fmt.Errorf("%w: solver %q", ErrUnknownReference, *rec.Solver))
		}
		solver = &puzzle.Solver{
			Name:      copyStr(def.Name),
			Addresses: append([]string(nil), def.Addresses...),
			Profiles:  compileProfiles(def.Profiles),
		}
	}

	sourceURL := rec.SourceURL
	if sourceURL == nil {
		sourceURL = defaultSourceURL
	}

	p := &puzzle.Puzzle{
		ID:           id,
		Chain:        chain,
		Address:      *addr,
		Status:       status,
		Pubkey:       pubkey,
		Key:          key,
		Prize:        copyF64(rec.Prize),
		StartDate:    copyStr(rec.StartDate),
		SolveDate:    copyStr(rec.SolveDate),
		SolveTime:    solveTime,
		PreGenesis:   rec.PreGenesis,
		KeySource:    inferKeySource(status, addr, key),
		SourceURL:    copyStr(sourceURL),
		Transactions: txs,
		Solver:       solver,
	}

	if rec.Assets != nil {
		p.Assets = &puzzle.Assets{
			Puzzle:    copyStr(rec.Assets.Puzzle),
			Solver:    copyStr(rec.Assets.Solver),
			Hints:     append([]string(nil), rec.Assets.Hints...),
			SourceURL: copyStr(rec.Assets.SourceURL),
		}
	}

	return p, nil
}

func compileAddress(collection string, index int, chain puzzle.Chain, da *docAddress) (*puzzle.Address, error) {
	if da.Value == "" {
		return nil, compileErr(collection, index, "address.value", ErrMissingField)
	}
	if da.Kind == "" {
		return nil, compileErr(collection, index, "address.kind", ErrMissingField)
	}
	kind, err := puzzle.ParseAddressKind(da.Kind)
	if err != nil {
		return nil, compileErr(collection, index, "address.kind", err)
	}

	addr := &puzzle.Address{
		Value:          da.Value,
		Chain:          chain,
		Kind:           kind,
		Hash160:        copyStr(da.Hash160),
		WitnessProgram: copyStr(da.WitnessProgram),
	}
	if da.RedeemScript != nil {
		addr.RedeemScript = &puzzle.RedeemScript{
			Script: da.RedeemScript.Script,
			Hash:   da.RedeemScript.Hash,
		}
	}
	return addr, nil
}

// compileKey canonicalizes key material: hex and decrypted WIF derive
// each other when only one is authored, and the bit width falls out of
// the hex value when not declared.
func compileKey(collection string, index int, chain puzzle.Chain, dk *docKey) (*puzzle.Key, error) {
	if dk == nil {
		return nil, nil
	}

	key := &puzzle.Key{
		Hex:  copyStr(dk.Hex),
		Mini: copyStr(dk.Mini),
		Bits: copyU16(dk.Bits),
	}

	if dk.Wif != nil {
		key.Wif = &puzzle.Wif{
			Encrypted:  copyStr(dk.Wif.Encrypted),
			Decrypted:  copyStr(dk.Wif.Decrypted),
			Passphrase: copyStr(dk.Wif.Passphrase),
		}
	}

	if dk.Seed != nil {
		seed := &puzzle.Seed{
			Phrase: copyStr(dk.Seed.Phrase),
			Path:   copyStr(dk.Seed.Path),
			Xpub:   copyStr(dk.Seed.Xpub),
		}
		if dk.Seed.Entropy != nil {
			entropy := &puzzle.Entropy{Hash: dk.Seed.Entropy.Hash}
			if src := dk.Seed.Entropy.Source; src != nil {
				entropy.Source = &puzzle.EntropySource{
					URL:         copyStr(src.URL),
					Description: copyStr(src.Description),
				}
			}
			if pp := dk.Seed.Entropy.Passphrase; pp != nil {
				entropy.Passphrase = &puzzle.Passphrase{
					Required: pp.Required || pp.Known != nil,
					Known:    copyStr(pp.Known),
				}
			}
			seed.Entropy = entropy
		}
		key.Seed = seed
	}

	if dk.Shares != nil {
		shares := &puzzle.Shares{
			Threshold: dk.Shares.Threshold,
			Total:     dk.Shares.Total,
		}
		for _, s := range dk.Shares.Shares {
			shares.Shares = append(shares.Shares, puzzle.Share{Index: s.Index, Data: s.Data})
		}
		key.Shares = shares
	}

	switch {
	case key.Hex != nil && (key.Wif == nil || key.Wif.Decrypted == nil):
		if chain == puzzle.Bitcoin {
			wif, err := addrcodec.EncodeWIF(*key.Hex, true)
			if err != nil {
				return nil, compileErr(collection, index, "key.hex", err)
			}
			if key.Wif == nil {
				key.Wif = &puzzle.Wif{}
			}
			key.Wif.Decrypted = &wif
		}
	case key.Hex == nil && key.Wif != nil && key.Wif.Decrypted != nil:
		hexKey, _, err := addrcodec.DecodeWIF(*key.Wif.Decrypted)
		if err != nil {
			return nil, compileErr(collection, index, "key.wif.decrypted", err)
		}
		key.Hex = &hexKey
	}

	if key.Bits == nil && key.Hex != nil {
		n, ok := new(big.Int).SetString(*key.Hex, 16)
		if !ok {
			return nil, compileErr(collection, index, "key.hex", fmt.Errorf("%w: not hex", addrcodec.ErrBadKey))
		}
		bits := uint16(n.BitLen())
		key.Bits = &bits
	}

	return key, nil
}

func compileTransactions(collection string, index int, chain puzzle.Chain, docs []docTransaction) ([]puzzle.Transaction, error) {
	var txs []puzzle.Transaction
	for i, dt := range docs {
		tt, err := puzzle.ParseTransactionType(dt.Type)
		if err != nil {
			return nil, compileErr(collection, index, fmt.Sprintf("transactions[%d].type", i), err)
		}
		tx := puzzle.Transaction{
			Type:   tt,
			Txid:   copyStr(dt.Txid),
			Date:   copyStr(dt.Date),
			Amount: copyF64(dt.Amount),
		}
		if tx.Txid != nil {
			url := chain.TxExplorerURL(*tx.Txid)
			tx.ExplorerURL = &url
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func compileDate(collection string, index int, field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, compileErr(collection, index, field, err)
	}
	return &t, nil
}

func inferKeySource(status puzzle.Status, addr *puzzle.Address, key *puzzle.Key) puzzle.KeySource {
	switch {
	case key != nil && (key.Hex != nil || key.Wif != nil || key.Mini != nil):
		return puzzle.SourceDirect
	case key != nil && key.Seed != nil:
		return puzzle.SourceDerived
	case status.IsTerminal() && addr.RedeemScript != nil:
		return puzzle.SourceScript
	}
	return puzzle.SourceUnknown
}

func compileProfiles(docs []docProfile) []puzzle.Profile {
	profiles := make([]puzzle.Profile, 0, len(docs))
	for _, d := range docs {
		profiles = append(profiles, puzzle.Profile{Name: d.Name, URL: d.URL})
	}
	return profiles
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyF64(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func copyU16(u *uint16) *uint16 {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}

func copyU64(u *uint64) *uint64 {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}
