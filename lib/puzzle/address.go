package puzzle

import (
	"encoding/json"
	"fmt"
)

// AddressKind is the pay-to-* script category of an address.
type AddressKind int

const (
	// P2PKH pays to a public key hash (legacy base58 addresses).
	P2PKH AddressKind = iota
	// P2SH pays to a script hash.
	P2SH
	// P2WPKH pays to a witness public key hash (segwit v0).
	P2WPKH
	// P2WSH pays to a witness script hash (segwit v0, 32 bytes).
	P2WSH
	// P2TR pays to a taproot output (segwit v1, 32 bytes).
	P2TR
	// KindStandard covers chains without script categories
	// (Ethereum accounts, Monero, Decred).
	KindStandard
)

var addressKindNames = map[AddressKind]string{
	P2PKH:        "p2pkh",
	P2SH:         "p2sh",
	P2WPKH:       "p2wpkh",
	P2WSH:        "p2wsh",
	P2TR:         "p2tr",
	KindStandard: "standard",
}

func ParseAddressKind(s string) (AddressKind, error) {
	for k, name := range addressKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("puzzle: unknown address kind %q", s)
}

func (k AddressKind) String() string {
	if name, ok := addressKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("AddressKind(%d)", int(k))
}

func (k AddressKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// HasWitnessProgram reports whether the kind commits to a 32-byte
// witness program instead of a hash160.
func (k AddressKind) HasWitnessProgram() bool {
	return k == P2WSH || k == P2TR
}

// RedeemScript is the script behind a P2SH address together with its
// hash160, both hex encoded.
type RedeemScript struct {
	Script string `json:"script"`
	Hash   string `json:"hash"`
}

// Address is a chain-native encoded target with its type information.
type Address struct {
	// Value is the address string, e.g. "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH".
	Value string      `json:"value"`
	Chain Chain       `json:"chain"`
	Kind  AddressKind `json:"kind"`
	// Hash160 is the hex-encoded 20-byte digest for P2PKH/P2SH/P2WPKH
	// targets; nil where the kind has none.
	Hash160 *string `json:"hash160,omitempty"`
	// WitnessProgram is the hex-encoded 32-byte program for P2WSH and
	// P2TR targets.
	WitnessProgram *string       `json:"witness_program,omitempty"`
	RedeemScript   *RedeemScript `json:"redeem_script,omitempty"`
}

// PubkeyFormat says how a secp256k1 public key is serialized.
type PubkeyFormat int

const (
	Compressed PubkeyFormat = iota
	Uncompressed
)

func ParsePubkeyFormat(s string) (PubkeyFormat, error) {
	switch s {
	case "compressed":
		return Compressed, nil
	case "uncompressed":
		return Uncompressed, nil
	}
	return 0, fmt.Errorf("puzzle: unknown pubkey format %q", s)
}

func (f PubkeyFormat) String() string {
	if f == Uncompressed {
		return "uncompressed"
	}
	return "compressed"
}

func (f PubkeyFormat) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// Pubkey is a known public key for a puzzle address.
type Pubkey struct {
	Value  string       `json:"value"`
	Format PubkeyFormat `json:"format"`
}
