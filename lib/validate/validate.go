// Package validate cross-checks every compiled record against the
// cryptographic material it claims. A dataset that passes has every
// declared hash, address, key and date agreeing with the others.
package validate

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/tyler-smith/go-bip39"

	"github.com/oritwoen/boha/internal/addrcodec"
	"github.com/oritwoen/boha/lib/ingest"
	"github.com/oritwoen/boha/lib/puzzle"
)

const dateLayout = "2006-01-02"

// Violation is one failed consistency check on one record.
type Violation struct {
	// Puzzle is the record's catalog ID.
	Puzzle string
	// Check names the failing rule: identity, status, address, key,
	// script, chronology, seed, shares, pubkey.
	Check  string
	Detail string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("validate: %s: %s: %s", v.Puzzle, v.Check, v.Detail)
}

// Violations extracts every *Violation wrapped in err, in order.
func Violations(err error) []*Violation {
	if err == nil {
		return nil
	}
	var vs []*Violation
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			vs = append(vs, Violations(e)...)
		}
		return vs
	}
	var v *Violation
	if errors.As(err, &v) {
		vs = append(vs, v)
	}
	return vs
}

// Validate runs every consistency check over every record in the
// dataset and returns all violations joined together, nil when the
// dataset is clean.
func Validate(ds *ingest.Dataset) error {
	var errs []error

	seen := map[string]bool{}
	for _, col := range ds.Collections {
		for _, p := range col.Puzzles {
			if seen[p.ID] {
				errs = append(errs, &Violation{Puzzle: p.ID, Check: "identity", Detail: "duplicate id"})
			}
			seen[p.ID] = true

			errs = append(errs, checkStatus(p)...)
			errs = append(errs, checkAddress(p)...)
			errs = append(errs, checkKey(p)...)
			errs = append(errs, checkScript(p)...)
			errs = append(errs, checkChronology(p)...)
			errs = append(errs, checkSeed(p)...)
			errs = append(errs, checkShares(p)...)
			errs = append(errs, checkPubkey(p)...)
		}
	}

	return errors.Join(errs...)
}

// checkStatus enforces that terminal records carry evidence of the
// solve and open records carry none of the secret material.
func checkStatus(p *puzzle.Puzzle) []error {
	var errs []error

	switch {
	case p.Status.IsTerminal():
		revealed := p.Key.IsKnown() ||
			p.Address.RedeemScript != nil ||
			p.Solver != nil
		if !revealed {
			errs = append(errs, &Violation{
				Puzzle: p.ID, Check: "status",
				Detail: fmt.Sprintf("status %s without key material, redeem script or solver", p.Status),
			})
		}
	default:
		if p.SolveDate != nil {
			errs = append(errs, &Violation{Puzzle: p.ID, Check: "status", Detail: "solve_date on an open puzzle"})
		}
		if p.SolveTime != nil {
			errs = append(errs, &Violation{Puzzle: p.ID, Check: "status", Detail: "solve_time on an open puzzle"})
		}
		if k := p.Key; k != nil {
			if k.Hex != nil || k.Mini != nil || (k.Wif != nil && k.Wif.Decrypted != nil) {
				errs = append(errs, &Violation{Puzzle: p.ID, Check: "status", Detail: "spendable key material on an open puzzle"})
			}
			if k.Seed != nil && k.Seed.Phrase != nil {
				errs = append(errs, &Violation{Puzzle: p.ID, Check: "status", Detail: "seed phrase on an open puzzle"})
			}
		}
	}

	return errs
}

func checkAddress(p *puzzle.Puzzle) []error {
	addr := &p.Address

	decoded, err := addrcodec.Decode(p.Chain, addr.Value)
	if err != nil {
		return []error{&Violation{Puzzle: p.ID, Check: "address", Detail: err.Error()}}
	}

	var errs []error
	if decoded.Kind != addr.Kind && addr.Kind != puzzle.KindStandard {
		errs = append(errs, &Violation{
			Puzzle: p.ID, Check: "address",
			Detail: fmt.Sprintf("declared kind %s, address decodes as %s", addr.Kind, decoded.Kind),
		})
	}

	switch {
	case addr.Kind == puzzle.P2PKH || addr.Kind == puzzle.P2WPKH:
		if (p.Chain == puzzle.Bitcoin || p.Chain == puzzle.Litecoin) && addr.Hash160 == nil {
			errs = append(errs, &Violation{Puzzle: p.ID, Check: "address", Detail: "missing hash160"})
		}
	case addr.Kind.HasWitnessProgram():
		if addr.WitnessProgram == nil {
			errs = append(errs, &Violation{Puzzle: p.ID, Check: "address", Detail: "missing witness_program"})
		}
	}

	if addr.Hash160 != nil && decoded.Hash160 != nil {
		if !strings.EqualFold(*addr.Hash160, hex.EncodeToString(decoded.Hash160)) {
			errs = append(errs, &Violation{
				Puzzle: p.ID, Check: "address",
				Detail: fmt.Sprintf("declared hash160 %s, address carries %x", *addr.Hash160, decoded.Hash160),
			})
		}
	}
	if addr.WitnessProgram != nil {
		if decoded.WitnessProgram == nil {
			errs = append(errs, &Violation{Puzzle: p.ID, Check: "address", Detail: "witness_program declared for a non-witness address"})
		} else if !strings.EqualFold(*addr.WitnessProgram, hex.EncodeToString(decoded.WitnessProgram)) {
			errs = append(errs, &Violation{
				Puzzle: p.ID, Check: "address",
				Detail: fmt.Sprintf("declared witness_program %s, address carries %x", *addr.WitnessProgram, decoded.WitnessProgram),
			})
		}
	}

	return errs
}

func checkKey(p *puzzle.Puzzle) []error {
	key := p.Key
	if key == nil {
		return nil
	}

	var errs []error

	if key.Hex != nil {
		h := *key.Hex
		raw, err := hex.DecodeString(h)
		switch {
		case len(h) != 64:
			errs = append(errs, &Violation{
				Puzzle: p.ID, Check: "key",
				Detail: fmt.Sprintf("key hex is %d chars, want 64", len(h)),
			})
		case err != nil:
			errs = append(errs, &Violation{Puzzle: p.ID, Check: "key", Detail: "key hex is not hexadecimal"})
		default:
			n := new(big.Int).SetBytes(raw)
			if key.Bits != nil {
				if got := n.BitLen(); got != int(*key.Bits) {
					errs = append(errs, &Violation{
						Puzzle: p.ID, Check: "key",
						Detail: fmt.Sprintf("key has bit length %d, declared bits %d", got, *key.Bits),
					})
				}
				if lo, hi := key.Range(); lo != nil && (n.Cmp(lo) < 0 || n.Cmp(hi) > 0) {
					errs = append(errs, &Violation{
						Puzzle: p.ID, Check: "key",
						Detail: fmt.Sprintf("key outside [2^%d, 2^%d-1]", *key.Bits-1, *key.Bits),
					})
				}
			}
			errs = append(errs, checkKeyAddress(p, h)...)
		}
	}

	if key.Wif != nil {
		if key.Wif.Decrypted != nil {
			keyHex, _, err := addrcodec.DecodeWIF(*key.Wif.Decrypted)
			switch {
			case err != nil:
				errs = append(errs, &Violation{Puzzle: p.ID, Check: "key", Detail: err.Error()})
			case key.Hex != nil && !strings.EqualFold(keyHex, *key.Hex):
				errs = append(errs, &Violation{Puzzle: p.ID, Check: "key", Detail: "WIF payload differs from key hex"})
			}
		}
		if key.Wif.Encrypted != nil {
			if err := addrcodec.CheckEncryptedWIF(*key.Wif.Encrypted); err != nil {
				errs = append(errs, &Violation{Puzzle: p.ID, Check: "key", Detail: err.Error()})
			}
		}
	}

	return errs
}

// checkKeyAddress verifies the key actually controls the puzzle
// address. Both secp256k1 serializations are accepted for
// bitcoin-style chains since the dataset does not always record which
// one funded the address.
func checkKeyAddress(p *puzzle.Puzzle, keyHex string) []error {
	switch p.Chain {
	case puzzle.Bitcoin, puzzle.Litecoin:
		if p.Address.Kind != puzzle.P2PKH && p.Address.Kind != puzzle.P2WPKH {
			return nil
		}
		for _, format := range []puzzle.PubkeyFormat{puzzle.Compressed, puzzle.Uncompressed} {
			derived, err := addrcodec.DeriveAddress(p.Chain, keyHex, p.Address.Kind, format)
			if err == nil && derived == p.Address.Value {
				return nil
			}
		}
		return []error{&Violation{Puzzle: p.ID, Check: "key", Detail: "key does not derive the puzzle address"}}
	case puzzle.Ethereum:
		derived, err := addrcodec.DeriveAddress(p.Chain, keyHex, p.Address.Kind, puzzle.Uncompressed)
		if err != nil {
			return []error{&Violation{Puzzle: p.ID, Check: "key", Detail: err.Error()}}
		}
		if !strings.EqualFold(derived, p.Address.Value) {
			return []error{&Violation{Puzzle: p.ID, Check: "key", Detail: "key does not derive the puzzle address"}}
		}
	}
	return nil
}

func checkScript(p *puzzle.Puzzle) []error {
	rs := p.Address.RedeemScript
	if rs == nil {
		return nil
	}

	script, err := hex.DecodeString(rs.Script)
	if err != nil {
		return []error{&Violation{Puzzle: p.ID, Check: "script", Detail: "redeem script is not hexadecimal"}}
	}

	var errs []error
	scriptHash := addrcodec.Hash160(script)
	if !strings.EqualFold(rs.Hash, hex.EncodeToString(scriptHash)) {
		errs = append(errs, &Violation{
			Puzzle: p.ID, Check: "script",
			Detail: fmt.Sprintf("declared script hash %s, script hashes to %x", rs.Hash, scriptHash),
		})
	}

	if p.Address.Kind == puzzle.P2SH {
		decoded, err := addrcodec.Decode(p.Chain, p.Address.Value)
		if err == nil && decoded.Hash160 != nil && string(decoded.Hash160) != string(scriptHash) {
			errs = append(errs, &Violation{Puzzle: p.ID, Check: "script", Detail: "redeem script does not hash to the address"})
		}
	}

	return errs
}

func checkChronology(p *puzzle.Puzzle) []error {
	if p.PreGenesis || p.StartDate == nil || p.SolveDate == nil {
		return nil
	}

	start, err1 := time.Parse(dateLayout, *p.StartDate)
	solve, err2 := time.Parse(dateLayout, *p.SolveDate)
	if err1 != nil || err2 != nil {
		// Date format is enforced at compile time.
		return nil
	}
	if solve.Before(start) {
		return []error{&Violation{
			Puzzle: p.ID, Check: "chronology",
			Detail: fmt.Sprintf("solved %s before start %s", *p.SolveDate, *p.StartDate),
		}}
	}
	return nil
}

func checkSeed(p *puzzle.Puzzle) []error {
	if p.Key == nil || p.Key.Seed == nil || p.Key.Seed.Phrase == nil {
		return nil
	}
	if !bip39.IsMnemonicValid(*p.Key.Seed.Phrase) {
		return []error{&Violation{Puzzle: p.ID, Check: "seed", Detail: "seed phrase is not a valid BIP-39 mnemonic"}}
	}
	return nil
}

func checkShares(p *puzzle.Puzzle) []error {
	if p.Key == nil || p.Key.Shares == nil {
		return nil
	}
	sh := p.Key.Shares

	var errs []error
	if sh.Threshold > sh.Total {
		errs = append(errs, &Violation{
			Puzzle: p.ID, Check: "shares",
			Detail: fmt.Sprintf("threshold %d exceeds total %d", sh.Threshold, sh.Total),
		})
	}

	seen := map[uint8]bool{}
	for _, s := range sh.Shares {
		if s.Index < 1 || s.Index > sh.Total {
			errs = append(errs, &Violation{
				Puzzle: p.ID, Check: "shares",
				Detail: fmt.Sprintf("share index %d outside [1, %d]", s.Index, sh.Total),
			})
		}
		if seen[s.Index] {
			errs = append(errs, &Violation{
				Puzzle: p.ID, Check: "shares",
				Detail: fmt.Sprintf("duplicate share index %d", s.Index),
			})
		}
		seen[s.Index] = true
	}

	return errs
}

func checkPubkey(p *puzzle.Puzzle) []error {
	if p.Pubkey == nil {
		if spendRevealsPubkey(p) {
			return []error{&Violation{
				Puzzle: p.ID, Check: "pubkey",
				Detail: "claimed output with a known key but no recorded pubkey",
			}}
		}
		return nil
	}
	if p.Key == nil || p.Key.Hex == nil {
		return nil
	}

	derived, err := addrcodec.PubkeyBytes(*p.Key.Hex, p.Pubkey.Format)
	if err != nil {
		return []error{&Violation{Puzzle: p.ID, Check: "pubkey", Detail: err.Error()}}
	}
	if !strings.EqualFold(p.Pubkey.Value, hex.EncodeToString(derived)) {
		return []error{&Violation{Puzzle: p.ID, Check: "pubkey", Detail: "pubkey does not derive from the key"}}
	}
	return nil
}

// spendRevealsPubkey reports whether the spend already put the pubkey
// on chain, so the record must carry it: a terminal pay-to-pubkey-hash
// record with a known key and a recorded claim or sweep. Records
// without key material are excluded since their pubkey cannot be
// cross-checked.
func spendRevealsPubkey(p *puzzle.Puzzle) bool {
	if !p.Status.IsTerminal() || p.Key == nil || p.Key.Hex == nil {
		return false
	}
	if p.Address.Kind != puzzle.P2PKH && p.Address.Kind != puzzle.P2WPKH {
		return false
	}
	for _, tx := range p.Transactions {
		if tx.Type == puzzle.TxClaim || tx.Type == puzzle.TxSweep {
			return true
		}
	}
	return false
}
